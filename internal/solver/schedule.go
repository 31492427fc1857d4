package solver

import (
	"context"
	"fmt"
	"strings"

	"smooth/internal/model"
)

// Window sets Flow of Component to Value during the daily window
// [Start, End). Outside of every window the flow is zero.
//
// Times are "HH:MM" in the time zone of the simulation start date.
// If Level is set, the component state of that name integrates the flow
// (value * hours) so other components can read it as a foreign state.
type Window struct {
	Component string
	Flow      model.Flow
	Start     string
	End       string
	Value     float64
	Level     string
}

type window struct {
	Window
	startMins int
	endMins   int
}

// Schedule replays daily time windows.
type Schedule struct {
	windows []window
	levels  map[string]map[string]float64
}

func NewSchedule(windows []Window) (*Schedule, error) {
	s := &Schedule{levels: make(map[string]map[string]float64)}
	for i, w := range windows {
		if w.Component == "" {
			return nil, fmt.Errorf("window %d: component is required", i)
		}
		start, err := parseHHMM(w.Start)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		end, err := parseHHMM(w.End)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		s.windows = append(s.windows, window{Window: w, startMins: start, endMins: end})
	}
	return s, nil
}

func (s *Schedule) Name() string { return "schedule" }

// Reset clears the integrated levels before a new run.
func (s *Schedule) Reset() {
	s.levels = make(map[string]map[string]float64)
}

func (s *Schedule) Solve(ctx context.Context, step Step, components []*model.Component) (Solution, error) {
	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}
	known := knownComponents(components)
	mins := step.Interval.Start.Hour()*60 + step.Interval.Start.Minute()
	hours := step.IntervalMin / 60

	sol := Solution{Status: StatusOK}
	for _, w := range s.windows {
		if _, ok := known[w.Component]; !ok {
			return Solution{}, fmt.Errorf("%w: %q", ErrUnknownComponent, w.Component)
		}
		v := 0.0
		if inWindow(mins, w.startMins, w.endMins) {
			v = w.Value
		}
		r := sol.result(w.Component)
		r.Flows[w.Flow] += v

		if w.Level != "" {
			levels, ok := s.levels[w.Component]
			if !ok {
				levels = make(map[string]float64)
				s.levels[w.Component] = levels
			}
			levels[w.Level] += v * hours
			r.States[w.Level] = levels[w.Level]
		}
	}
	return sol, nil
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// If start == end, the window is empty (always false).
// If start < end, it's a normal same-day window.
// If start > end, it wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	// wrap
	return tMins >= start || tMins < end
}
