package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"smooth/internal/annuity"
	"smooth/internal/financial"
)

type AnnuityOptions struct {
	GlobalOptions

	Fixed                 financial.Fixed
	VariableCostTotal     float64
	VariableEmissionTotal float64
	NIntervals            int
	IntervalTime          float64

	out io.Writer
}

func DefaultAnnuityOptions() *AnnuityOptions {
	return &AnnuityOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Fixed:         financial.Fixed{InterestRate: 0.03},
		IntervalTime:  60,
	}
}

func NewCmdAnnuity() *cobra.Command {
	o := DefaultAnnuityOptions()
	cmd := &cobra.Command{
		Use:     "annuity",
		Short:   "Annualize one-time, recurring and variable costs and emissions.",
		Example: "  smooth annuity --capex 1000 --life-time 10 --interest-rate 0.05",
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

func (o *AnnuityOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.Float64Var(&o.Fixed.Capex, "capex", o.Fixed.Capex, "One-time capital costs")
	fs.Float64Var(&o.Fixed.Opex, "opex", o.Fixed.Opex, "Annual operational costs")
	fs.Float64Var(&o.Fixed.FixEmissions, "fix-emissions", o.Fixed.FixEmissions, "One-time emissions")
	fs.Float64Var(&o.Fixed.OpEmissions, "op-emissions", o.Fixed.OpEmissions, "Annual operational emissions")
	fs.Float64Var(&o.Fixed.LifeTime, "life-time", o.Fixed.LifeTime, "Life time in years")
	fs.Float64Var(&o.Fixed.InterestRate, "interest-rate", o.Fixed.InterestRate, "Interest rate applied to capex")
	fs.Float64Var(&o.VariableCostTotal, "variable-cost-total", o.VariableCostTotal, "Variable costs summed over the simulation")
	fs.Float64Var(&o.VariableEmissionTotal, "variable-emission-total", o.VariableEmissionTotal, "Variable emissions summed over the simulation")
	fs.IntVar(&o.NIntervals, "n-intervals", o.NIntervals, "Number of simulated intervals, 0 annualizes the fixed values only")
	fs.Float64Var(&o.IntervalTime, "interval-time", o.IntervalTime, "Interval length in minutes")
}

func (o *AnnuityOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	o.out = cmd.OutOrStdout()
	return nil
}

func (o *AnnuityOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.NIntervals < 0 || o.IntervalTime < 0 {
		return fmt.Errorf("--n-intervals and --interval-time must not be negative")
	}
	return nil
}

func (o *AnnuityOptions) Run(ctx context.Context, args []string) error {
	var (
		res annuity.Result
		err error
	)
	if o.NIntervals == 0 && o.VariableCostTotal == 0 && o.VariableEmissionTotal == 0 {
		res, err = annuity.ComputeFixed(o.Fixed)
	} else {
		res, err = annuity.Compute(annuity.Input{
			Fixed: o.Fixed,
			Totals: financial.Totals{
				VariableCost:     o.VariableCostTotal,
				VariableEmission: o.VariableEmissionTotal,
			},
			Horizon: annuity.Horizon{Intervals: o.NIntervals, IntervalMin: o.IntervalTime},
		})
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "\tCAPEX\tOPEX\tVARIABLE\tTOTAL")
	fmt.Fprintf(w, "costs\t%.4f\t%.4f\t%.4f\t%.4f\n", res.Costs.Capex, res.Costs.Opex, res.Costs.Variable, res.Costs.Total())
	fmt.Fprintf(w, "emissions\t%.4f\t%.4f\t%.4f\t%.4f\n", res.Emissions.Capex, res.Emissions.Opex, res.Emissions.Variable, res.Emissions.Total())
	return w.Flush()
}
