package simulation

import (
	"errors"
	"fmt"
	"time"

	"smooth/internal/annuity"
	"smooth/internal/model"
)

const (
	DefaultNIntervals   = 24 * 7
	DefaultIntervalTime = 60
	// DefaultInterestRate is used to turn one-time costs into annuities.
	DefaultInterestRate = 0.03
)

// DefaultStartDate is 1 January 2019, 00:00 UTC.
var DefaultStartDate = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

// Params are the simulation parameters of a run.
// Units:
// - IntervalTime: minutes
// - InterestRate: fraction per year (0.03 = 3%)
type Params struct {
	StartDate     time.Time
	NIntervals    int
	IntervalTime  int
	InterestRate  float64
	PrintProgress bool
}

func DefaultParams() Params {
	return Params{
		StartDate:    DefaultStartDate,
		NIntervals:   DefaultNIntervals,
		IntervalTime: DefaultIntervalTime,
		InterestRate: DefaultInterestRate,
	}
}

func (p Params) Validate() error {
	if p.NIntervals <= 0 || p.IntervalTime <= 0 {
		return fmt.Errorf("%w: n_intervals=%d interval_time=%d", annuity.ErrZeroDurationSimulation, p.NIntervals, p.IntervalTime)
	}
	if p.InterestRate < 0 {
		return errors.New("interest_rate must be >= 0")
	}
	if p.StartDate.IsZero() {
		return errors.New("start_date is required")
	}
	return nil
}

// IntervalLength is the duration of one timestep.
func (p Params) IntervalLength() time.Duration {
	return time.Duration(p.IntervalTime) * time.Minute
}

// TimeIndex lists every simulated interval.
func (p Params) TimeIndex() []model.Interval {
	return model.TimeIndex(p.StartDate, p.NIntervals, p.IntervalLength())
}

// SimTimeSpan is the simulated time in minutes.
func (p Params) SimTimeSpan() float64 {
	return float64(p.NIntervals) * float64(p.IntervalTime)
}

func (p Params) Horizon() annuity.Horizon {
	return annuity.Horizon{Intervals: p.NIntervals, IntervalMin: float64(p.IntervalTime)}
}
