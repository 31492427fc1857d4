package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smooth/internal/model"
)

var flow = model.Flow{From: "from_grid", To: "bel"}

func components(t *testing.T, names ...string) []*model.Component {
	t.Helper()
	out := make([]*model.Component, 0, len(names))
	for _, n := range names {
		c, err := model.NewComponent(model.Params{Type: "supply", Name: n}, 24)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func stepAt(idx int, hh, mm int) Step {
	start := time.Date(2019, 1, 1, hh, mm, 0, 0, time.UTC)
	return Step{Index: idx, Interval: model.Interval{Index: idx, Start: start, End: start.Add(time.Hour)}, IntervalMin: 60}
}

func TestProfile_Cycles(t *testing.T) {
	t.Parallel()

	p, err := NewProfile([]Series{
		{Component: "from_grid", Flow: &flow, Values: []float64{1, 2, 3}},
		{Component: "from_grid", State: "level", Values: []float64{10}},
	})
	require.NoError(t, err)
	comps := components(t, "from_grid")

	for idx, want := range []float64{1, 2, 3, 1, 2} {
		sol, err := p.Solve(context.Background(), stepAt(idx, 0, 0), comps)
		require.NoError(t, err)
		require.NoError(t, sol.Check())
		assert.Equal(t, want, sol.Components["from_grid"].Flows[flow])
		assert.Equal(t, 10.0, sol.Components["from_grid"].States["level"])
	}
}

func TestProfile_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewProfile([]Series{{Component: "a", Values: []float64{1}}})
	assert.Error(t, err)
	_, err = NewProfile([]Series{{Component: "a", Flow: &flow}})
	assert.Error(t, err)

	p, err := NewProfile([]Series{{Component: "ghost", Flow: &flow, Values: []float64{1}}})
	require.NoError(t, err)
	_, err = p.Solve(context.Background(), stepAt(0, 0, 0), components(t, "from_grid"))
	assert.ErrorIs(t, err, ErrUnknownComponent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Solve(ctx, stepAt(0, 0, 0), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchedule_Windows(t *testing.T) {
	t.Parallel()

	s, err := NewSchedule([]Window{
		{Component: "from_grid", Flow: flow, Start: "22:00", End: "06:00", Value: 500, Level: "charged"},
		{Component: "from_grid", Flow: flow, Start: "12:00", End: "13:00", Value: 100},
	})
	require.NoError(t, err)
	comps := components(t, "from_grid")

	tests := []struct {
		hh, mm int
		want   float64
	}{
		{23, 0, 500},
		{3, 30, 500},
		{6, 0, 0},
		{12, 15, 100},
		{13, 0, 0},
	}
	for i, tt := range tests {
		sol, err := s.Solve(context.Background(), stepAt(i, tt.hh, tt.mm), comps)
		require.NoError(t, err)
		assert.Equal(t, tt.want, sol.Components["from_grid"].Flows[flow], "%02d:%02d", tt.hh, tt.mm)
	}

	sol, err := s.Solve(context.Background(), stepAt(5, 1, 0), comps)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, sol.Components["from_grid"].States["charged"])

	s.Reset()
	sol, err = s.Solve(context.Background(), stepAt(0, 1, 0), comps)
	require.NoError(t, err)
	assert.Equal(t, 500.0, sol.Components["from_grid"].States["charged"])
}

func TestSchedule_InvalidTime(t *testing.T) {
	t.Parallel()
	_, err := NewSchedule([]Window{{Component: "a", Start: "25:00", End: "01:00"}})
	assert.Error(t, err)
	_, err = NewSchedule([]Window{{Component: "a", Start: "0100", End: "01:00"}})
	assert.Error(t, err)
}

func TestSolution_Check(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Solution{Status: StatusOptimal}.Check())
	assert.ErrorIs(t, Solution{Status: StatusInfeasible}.Check(), ErrNonOptimal)
	assert.ErrorIs(t, Solution{}.Check(), ErrNonOptimal)
}

func TestInWindow(t *testing.T) {
	t.Parallel()
	assert.False(t, inWindow(600, 600, 600))
	assert.True(t, inWindow(600, 540, 660))
	assert.True(t, inWindow(30, 1380, 60))
	assert.False(t, inWindow(120, 1380, 60))
}
