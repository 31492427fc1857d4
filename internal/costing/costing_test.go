package costing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"smooth/internal/fitting"
)

type attrs map[string]float64

func (a attrs) Resolve(component, attribute string) (float64, error) {
	v, ok := a[attribute]
	if !ok {
		return 0, fmt.Errorf("%s has no attribute %q", component, attribute)
	}
	return v, nil
}

func decodeSet(t *testing.T, doc string) Set {
	t.Helper()
	var s Set
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))
	return s
}

func TestSet_ResolveChain(t *testing.T) {
	t.Parallel()

	s := decodeSet(t, `
capex:
  key: [poly, spec]
  fitting_value: [[604.6, 0.5393], cost]
  dependant_value: [p_max, storage_capacity]
opex:
  key: spec
  fitting_value: 0.01
  dependant_value: capex
`)
	require.NoError(t, s.Validate())

	got, err := s.Resolve("h2_storage", attrs{"p_max": 450, "storage_capacity": 500})
	require.NoError(t, err)

	capex := (604.6 + 0.5393*450) * 500
	assert.InDelta(t, capex, got.Capex, 1e-6)
	assert.InDelta(t, capex*0.01, got.Opex, 1e-6)
	assert.Zero(t, got.FixEmissions)
}

func TestSet_OpexResolvedAfterCapex(t *testing.T) {
	t.Parallel()

	// opex is listed first and still sees the capex value, not its annuity
	s := Set{
		Opex:  Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Ref("capex"), FittingValue: fitting.Scalars(0.02)}),
		Capex: Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Ref("power"), FittingValue: fitting.Scalars(1000)}),
	}
	order, err := s.Order()
	require.NoError(t, err)
	assert.Equal(t, []Name{Capex, Opex}, order)

	got, err := s.Resolve("el", attrs{"power": 5})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, got.Capex)
	assert.Equal(t, 100.0, got.Opex)
}

func TestSet_Cycle(t *testing.T) {
	t.Parallel()

	s := Set{
		Capex: Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Ref("opex"), FittingValue: fitting.Scalars(2)}),
		Opex:  Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Ref("capex"), FittingValue: fitting.Scalars(0.1)}),
	}
	_, err := s.Resolve("x", attrs{})
	require.ErrorIs(t, err, ErrFittingCycle)
	assert.Contains(t, err.Error(), "capex -> opex -> capex")
	assert.ErrorIs(t, s.Validate(), ErrFittingCycle)
}

func TestSet_SelfReferenceIsRunningCost(t *testing.T) {
	t.Parallel()

	cost := 100.0
	s := Set{Capex: &Slot{
		Cost: &cost,
		Steps: []fitting.Spec{
			{Key: fitting.KeySpec, DependantValue: fitting.Ref("capex"), FittingValue: fitting.Scalars(1.5)},
		},
	}}
	got, err := s.Resolve("x", attrs{})
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Capex)
}

func TestSet_UndefinedSlotReference(t *testing.T) {
	t.Parallel()
	s := Set{Opex: Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Ref("capex"), FittingValue: fitting.Scalars(0.1)})}
	_, err := s.Resolve("x", attrs{})
	assert.ErrorIs(t, err, fitting.ErrInvalidFittingSpec)
}

func TestSet_Tiers(t *testing.T) {
	t.Parallel()

	s := decodeSet(t, `
capex:
  key: variable
  var_dict_dependency: output_max
  var_dicts:
    - low_threshold: 0
      high_threshold: 3000000
      key: spec
      fitting_value: 0.2
      dependant_value: output_max
    - low_threshold: 3000000
      high_threshold: .inf
      key: spec
      fitting_value: 0.1
      dependant_value: output_max
`)
	require.NoError(t, s.Validate())

	tests := []struct {
		value float64
		want  float64
	}{
		{0, 0},
		{1e6, 2e5},
		{3e6, 3e5},
		{5e6, 5e5},
	}
	for _, tt := range tests {
		got, err := s.Resolve("grid", attrs{"output_max": tt.value})
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got.Capex, 1e-6, "output_max=%g", tt.value)
	}

	_, err := s.Resolve("grid", attrs{"output_max": -1})
	assert.ErrorIs(t, err, ErrNoMatchingTier)
}

func TestTiered_InvalidRanges(t *testing.T) {
	t.Parallel()

	hi := func(v float64) *float64 { return &v }
	step := Slot{Steps: []fitting.Spec{{Key: fitting.KeyFix, FittingValue: fitting.Scalars(1)}}}

	tests := []struct {
		name  string
		tiers []Tier
	}{
		{"empty range", []Tier{{Low: 5, High: hi(5), Slot: step}}},
		{"descending", []Tier{{Low: 10, High: hi(20), Slot: step}, {Low: 0, High: hi(5), Slot: step}}},
		{"overlap", []Tier{{Low: 0, High: hi(10), Slot: step}, {Low: 5, High: hi(20), Slot: step}}},
		{"unbounded before another", []Tier{{Low: 0, Slot: step}, {Low: 5, High: hi(20), Slot: step}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := Slot{Tiers: &Tiered{Dependency: "size", Tiers: tt.tiers}}
			assert.ErrorIs(t, s.Validate(), ErrInvalidTiers)
		})
	}
}

func TestSlot_FixedCost(t *testing.T) {
	t.Parallel()

	s := decodeSet(t, "capex:\n  cost: 2500\nfix_emissions:\n  key: fix\n  fitting_value: 40\n")
	got, err := s.Resolve("pipe", attrs{})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, got.Capex)
	assert.Equal(t, 40.0, got.FixEmissions)
}

func TestSlot_CostTokenWithoutCost(t *testing.T) {
	t.Parallel()
	s := Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Ref("size"), FittingValue: fitting.Values{Items: []fitting.Value{{Cost: true}}, Scalar: true}})
	_, err := s.Resolve("x", attrs{"size": 2})
	assert.ErrorIs(t, err, fitting.ErrInvalidFittingSpec)
}

func TestSlot_DecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"mismatched lists", "capex:\n  key: [poly, spec]\n  fitting_value: [[1, 2]]\n  dependant_value: [a, b]\n"},
		{"no key and no cost", "capex:\n  dependant_value: a\n"},
		{"scalar slot", "capex: 12\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var s Set
			err := yaml.Unmarshal([]byte(tt.doc), &s)
			assert.ErrorIs(t, err, fitting.ErrInvalidFittingSpec)
		})
	}
}

func TestSlot_UnknownKeyInChain(t *testing.T) {
	t.Parallel()
	s := decodeSet(t, "capex:\n  key: [spec, addspec]\n  fitting_value: [1, 2]\n  dependant_value: [a, a]\n")
	assert.ErrorIs(t, s.Validate(), fitting.ErrUnknownFittingKey)
	_, err := s.Resolve("x", attrs{"a": 1})
	assert.ErrorIs(t, err, fitting.ErrUnknownFittingKey)
}

func TestSlot_ResolverErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Ref("size"), FittingValue: fitting.Scalars(1)})
	_, err := s.Resolve("x", ResolverFunc(func(string, string) (float64, error) { return 0, boom }))
	assert.ErrorIs(t, err, boom)
}

func TestSlot_JSON(t *testing.T) {
	t.Parallel()
	var s Set
	require.NoError(t, yaml.Unmarshal([]byte(`{"capex": {"key": "exp", "dependant_value": "size", "fitting_value": [1, 0]}}`), &s))
	got, err := s.Resolve("x", attrs{"size": 9})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Capex)
}

func TestSlot_Constant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		slot   *Slot
		want   float64
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"plain cost", Fixed(12), 12, true},
		{"single fix step", Chain(fitting.Spec{Key: fitting.KeyFix, FittingValue: fitting.Scalars(7)}), 7, true},
		{"fix on cost token", Chain(fitting.Spec{Key: fitting.KeyFix, FittingValue: fitting.Values{Items: []fitting.Value{{Cost: true}}, Scalar: true}}), 0, false},
		{"spec step", Chain(fitting.Spec{Key: fitting.KeySpec, DependantValue: fitting.Literal(2), FittingValue: fitting.Scalars(3)}), 0, false},
		{"tiered", &Slot{Tiers: &Tiered{Dependency: "power"}}, 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.slot.Constant()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSet_NeedsLifeTime(t *testing.T) {
	t.Parallel()
	assert.False(t, Set{}.NeedsLifeTime())
	assert.False(t, Set{Capex: Fixed(0), FixEmissions: Fixed(0)}.NeedsLifeTime())
	assert.False(t, Set{Opex: Fixed(10)}.NeedsLifeTime())
	assert.True(t, Set{Capex: Fixed(10)}.NeedsLifeTime())
	assert.True(t, Set{FixEmissions: Fixed(-1)}.NeedsLifeTime())
}
