package fitting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSpec_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	doc := `
key: poly
dependant_value: power_max
fitting_value: [1000, cost, 2.5]
`
	var s Spec
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))

	assert.Equal(t, KeyPoly, s.Key)
	assert.Equal(t, "power_max", s.DependantValue.Name)
	assert.False(t, s.DependantValue.IsLiteral())
	require.Equal(t, 3, s.FittingValue.Len())
	assert.False(t, s.FittingValue.Scalar)
	assert.True(t, s.FittingValue.Items[1].Cost)
	assert.True(t, s.FittingValue.UsesCost())
	require.NoError(t, s.Validate())
}

func TestSpec_UnmarshalYAMLScalars(t *testing.T) {
	t.Parallel()

	var s Spec
	require.NoError(t, yaml.Unmarshal([]byte("key: spec\ndependant_value: 20\nfitting_value: 35\n"), &s))
	assert.True(t, s.DependantValue.IsLiteral())
	assert.Equal(t, 20.0, *s.DependantValue.Number)
	assert.True(t, s.FittingValue.Scalar)
	assert.Equal(t, 35.0, s.FittingValue.Items[0].Number)

	var q Spec
	require.NoError(t, yaml.Unmarshal([]byte("key: spec\ndependant_value: \"20\"\nfitting_value: 1\n"), &q))
	assert.Equal(t, "20", q.DependantValue.Name)
}

func TestSpec_UnmarshalYAMLRejectsText(t *testing.T) {
	t.Parallel()
	var s Spec
	err := yaml.Unmarshal([]byte("key: spec\nfitting_value: expensive\n"), &s)
	assert.ErrorIs(t, err, ErrInvalidFittingSpec)
}

func TestSpec_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := `{"key":"exp","dependant_value":"capex","fitting_value":[1,"cost",0.1]}`
	var s Spec
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	assert.True(t, s.FittingValue.Items[1].Cost)
	assert.Equal(t, "capex", s.DependantValue.Name)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestSpec_Validate(t *testing.T) {
	t.Parallel()

	cost := 10.0
	tests := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{"fix scalar", Spec{Key: KeyFix, FittingValue: Scalars(5)}, nil},
		{"fix from cost", Spec{Key: KeyFix, Cost: &cost}, nil},
		{"fix without anything", Spec{Key: KeyFix}, ErrInvalidFittingSpec},
		{"spec given a list", Spec{Key: KeySpec, DependantValue: Ref("power"), FittingValue: Sequence(5)}, ErrInvalidFittingSpec},
		{"spec without dependant", Spec{Key: KeySpec, FittingValue: Scalars(5)}, ErrInvalidFittingSpec},
		{"poly given a scalar", Spec{Key: KeyPoly, DependantValue: Ref("power"), FittingValue: Scalars(5)}, ErrInvalidFittingSpec},
		{"exp four values", Spec{Key: KeyExp, DependantValue: Ref("power"), FittingValue: Sequence(1, 2, 3, 4)}, ErrInvalidFittingSpec},
		{"free odd", Spec{Key: KeyFree, DependantValue: Ref("power"), FittingValue: Sequence(1, 2, 3)}, ErrInvalidFittingSpec},
		{"unknown key", Spec{Key: "addspec", FittingValue: Scalars(1)}, ErrUnknownFittingKey},
		{"free valid", Spec{Key: KeyFree, DependantValue: Literal(2), FittingValue: Sequence(1, 2)}, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckValues(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckValues(KeyFix, Scalars(5)))
	assert.NoError(t, CheckValues(KeySpec, Values{Items: []Value{{Cost: true}}, Scalar: true}))
	assert.NoError(t, CheckValues(KeyPoly, Sequence(5)))
	assert.NoError(t, CheckValues(KeyExp, Sequence(1, 2)))

	for _, tc := range []struct {
		key  Key
		v    Values
		want string
	}{
		{KeyPoly, Scalars(5), "needs"},
		{KeyFree, Scalars(1), "needs"},
		{KeyFix, Sequence(5), "needs"},
		{KeySpec, Sequence(0.1, 0.2), "needs"},
		{KeyExp, Values{}, "needs a fitting_value"},
	} {
		err := CheckValues(tc.key, tc.v)
		assert.ErrorIs(t, err, ErrInvalidFittingSpec, "%s %v", tc.key, tc.v)
		assert.ErrorContains(t, err, tc.want)
	}
}

func TestValues_Resolve(t *testing.T) {
	t.Parallel()

	v := Values{Items: []Value{{Number: 1}, {Cost: true}}}
	_, err := v.Resolve(nil)
	assert.ErrorIs(t, err, ErrInvalidFittingSpec)

	current := 7.0
	got, err := v.Resolve(&current)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 7}, got)
}
