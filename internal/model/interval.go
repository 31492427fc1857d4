package model

import "time"

// Interval is one simulated timestep.
type Interval struct {
	Index int
	Start time.Time
	End   time.Time
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) DurationHours() float64 {
	return i.Duration().Hours()
}

// TimeIndex returns n consecutive intervals of the given length starting at start.
func TimeIndex(start time.Time, n int, length time.Duration) []Interval {
	out := make([]Interval, n)
	for i := range out {
		s := start.Add(time.Duration(i) * length)
		out[i] = Interval{Index: i, Start: s, End: s.Add(length)}
	}
	return out
}
