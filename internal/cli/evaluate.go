package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"smooth/internal/fitting"
)

type EvaluateOptions struct {
	GlobalOptions

	Key       string
	Dependant float64
	Values    string
	Cost      float64

	costSet bool
	out     io.Writer
}

func DefaultEvaluateOptions() *EvaluateOptions {
	return &EvaluateOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdEvaluate() *cobra.Command {
	o := DefaultEvaluateOptions()
	cmd := &cobra.Command{
		Use:   "evaluate --key KEY --dependant D --values V",
		Short: "Evaluate a single fitting function.",
		Example: "  smooth evaluate --key poly --dependant 2 --values 1,2,3\n" +
			"  smooth evaluate --key spec --dependant 10 --values cost --cost 3",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *EvaluateOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Key, "key", "k", o.Key, fmt.Sprintf("Fitting key. One of: (%s).", strings.Join(keyNames(), ", ")))
	fs.Float64VarP(&o.Dependant, "dependant", "d", o.Dependant, "Dependant value the fitting is evaluated at")
	fs.StringVarP(&o.Values, "values", "v", o.Values, "Fitting values: a number or a comma separated list, \"cost\" stands for --cost")
	fs.Float64Var(&o.Cost, "cost", o.Cost, "Running cost substituted for \"cost\" values")
}

func (o *EvaluateOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	o.costSet = cmd.Flags().Changed("cost")
	o.out = cmd.OutOrStdout()
	return nil
}

func (o *EvaluateOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if _, err := fitting.ParseKey(o.Key); err != nil {
		return err
	}
	if strings.TrimSpace(o.Values) == "" {
		return fmt.Errorf("--values is required")
	}
	return nil
}

func (o *EvaluateOptions) Run(ctx context.Context, args []string) error {
	key, err := fitting.ParseKey(o.Key)
	if err != nil {
		return err
	}
	values, err := parseValues(o.Values)
	if err != nil {
		return err
	}
	if err := fitting.CheckValues(key, values); err != nil {
		return err
	}
	var cost *float64
	if o.costSet {
		cost = &o.Cost
	}
	resolved, err := values.Resolve(cost)
	if err != nil {
		return err
	}
	v, err := fitting.Evaluate(key, o.Dependant, resolved)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.out, "%g\n", v)
	return nil
}

// parseValues reads "0.02", "cost", "1,2,3" or "[1, cost]" the way a model
// file would.
func parseValues(s string) (fitting.Values, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.HasPrefix(s, "[") {
		s = "[" + s + "]"
	}
	var v fitting.Values
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return fitting.Values{}, err
	}
	return v, nil
}

func keyNames() []string {
	out := make([]string, 0, len(fitting.Keys))
	for _, k := range fitting.Keys {
		out = append(out, string(k))
	}
	return out
}
