package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"smooth/internal/log"
)

type GlobalOptions struct {
	LogLevel string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		LogLevel: "warn",
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level (debug, info, warn, error)")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	zap.ReplaceGlobals(log.InitLog(log.ParseLevel(o.LogLevel)))
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}
