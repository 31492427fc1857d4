package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"smooth/internal/analysis"
	"smooth/internal/config"
	"smooth/internal/simulation"
)

type RunOptions struct {
	GlobalOptions

	Model  string
	Ledger bool
	JSON   bool
	RankBy string

	out io.Writer
}

func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		GlobalOptions: DefaultGlobalOptions(),
		RankBy:        string(analysis.ByCosts),
	}
}

func NewCmdRun() *cobra.Command {
	o := DefaultRunOptions()
	cmd := &cobra.Command{
		Use:   "run --model FILE",
		Short: "Run a model file and print the annuities of its components.",
		Example: "  smooth run --model examples/model.yaml\n" +
			"  smooth run --model examples/model.yaml --ledger > ledger.csv",
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

func (o *RunOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Model, "model", "m", o.Model, "Path to the YAML model file")
	fs.BoolVar(&o.Ledger, "ledger", o.Ledger, "Write the per-step ledger as CSV instead of the summary")
	fs.BoolVar(&o.JSON, "json", o.JSON, "Print the full result as JSON")
	fs.StringVar(&o.RankBy, "rank-by", o.RankBy, "Order of the summary: costs, emissions, capex, opex or variable")
}

func (o *RunOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	o.out = cmd.OutOrStdout()
	return nil
}

func (o *RunOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Model == "" {
		return fmt.Errorf("--model is required")
	}
	if o.Ledger && o.JSON {
		return fmt.Errorf("--ledger and --json are mutually exclusive")
	}
	return nil
}

func (o *RunOptions) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(o.Model)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	params, inputs, s, err := cfg.Build()
	if err != nil {
		return err
	}

	engine := simulation.New(params)
	engine.KeepLedger = o.Ledger || o.JSON
	zap.S().Infof("Running %s with %d components over %d intervals", o.Model, len(inputs.Components), params.NIntervals)
	res, err := engine.Run(ctx, inputs, s)
	if err != nil {
		return err
	}

	switch {
	case o.Ledger:
		return simulation.WriteLedgerCSV(o.out, res.Ledger)
	case o.JSON:
		enc := json.NewEncoder(o.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return o.printSummary(res)
}

func (o *RunOptions) printSummary(res *simulation.Result) error {
	ranked, err := analysis.Rank(res, analysis.RankBy(o.RankBy))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tCOMPONENT\tCAPEX\tOPEX\tVARIABLE\tCOSTS\tEMISSIONS\tSHARE")
	for _, r := range ranked {
		c, _ := res.Component(r.Name)
		name := r.Name
		if r.External {
			name += " (external)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f%%\n",
			r.Rank, name, r.Type,
			c.Annuity.Costs.Capex, c.Annuity.Costs.Opex, c.Annuity.Costs.Variable,
			c.Annuity.Costs.Total(), c.Annuity.Emissions.Total(), r.SharePct)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(o.out, "\nsolver=%s intervals=%d interval_time=%dmin interest_rate=%g\n",
		res.Solver, res.Params.NIntervals, res.Params.IntervalTime, res.Params.InterestRate)
	fmt.Fprintf(o.out, "Total annual costs=%.2f emissions=%.2f\n", res.Total.Costs.Total(), res.Total.Emissions.Total())
	return nil
}
