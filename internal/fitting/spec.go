package fitting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// CostToken refers to the current cost of the slot being resolved. It is
// accepted both as a dependant value and as a fitting value.
const CostToken = "cost"

// Spec is one fitting step as it appears in a model file.
//
//	capex:
//	  key: poly
//	  dependant_value: power_max
//	  fitting_value: [1000, 250.5]
type Spec struct {
	Key            Key       `yaml:"key" json:"key"`
	Cost           *float64  `yaml:"cost,omitempty" json:"cost,omitempty"`
	DependantValue Dependant `yaml:"dependant_value,omitempty" json:"dependant_value,omitempty"`
	FittingValue   Values    `yaml:"fitting_value,omitempty" json:"fitting_value,omitempty"`
}

// Validate checks the key and the shape of the fitting value without
// resolving any reference.
func (s Spec) Validate() error {
	if !s.Key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFittingKey, string(s.Key))
	}
	if s.Key == KeyFix && s.FittingValue.IsZero() {
		if s.Cost == nil {
			return fmt.Errorf("%w: key %q needs a fitting_value or a cost", ErrInvalidFittingSpec, string(s.Key))
		}
		return nil
	}
	if err := CheckValues(s.Key, s.FittingValue); err != nil {
		return err
	}
	if s.Key != KeyFix && s.DependantValue.IsZero() {
		return fmt.Errorf("%w: key %q needs a dependant_value", ErrInvalidFittingSpec, string(s.Key))
	}
	// Cardinality errors surface here with placeholder numbers.
	_, err := New(s.Key, make([]float64, s.FittingValue.Len()))
	return err
}

// CheckValues reports whether v has the shape key expects: a scalar for fix
// and spec, a sequence for the others.
func CheckValues(key Key, v Values) error {
	if v.IsZero() {
		return fmt.Errorf("%w: key %q needs a fitting_value", ErrInvalidFittingSpec, string(key))
	}
	if key.Scalar() != v.Scalar {
		return fmt.Errorf("%w: key %q needs %s", ErrInvalidFittingSpec, string(key), key.Cardinality())
	}
	return nil
}

// Dependant is either a named reference (attribute, slot or CostToken) or a
// numeric literal.
type Dependant struct {
	Name   string
	Number *float64
}

// Ref builds a named dependant.
func Ref(name string) Dependant { return Dependant{Name: name} }

// Literal builds a numeric dependant.
func Literal(v float64) Dependant { return Dependant{Number: &v} }

func (d Dependant) IsZero() bool    { return d.Name == "" && d.Number == nil }
func (d Dependant) IsLiteral() bool { return d.Number != nil }
func (d Dependant) IsCost() bool    { return d.Name == CostToken }

func (d Dependant) String() string {
	if d.Number != nil {
		return strconv.FormatFloat(*d.Number, 'g', -1, 64)
	}
	return d.Name
}

func (d *Dependant) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: dependant_value must be a name or a number (line %d)", ErrInvalidFittingSpec, node.Line)
	}
	*d = Dependant{}
	switch node.Tag {
	case "!!null":
	case "!!int", "!!float":
		v, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("%w: dependant_value %q: %v", ErrInvalidFittingSpec, node.Value, err)
		}
		d.Number = &v
	default:
		d.Name = node.Value
	}
	return nil
}

func (d Dependant) MarshalYAML() (interface{}, error) {
	if d.Number != nil {
		return *d.Number, nil
	}
	if d.Name == "" {
		return nil, nil
	}
	return d.Name, nil
}

func (d *Dependant) UnmarshalJSON(b []byte) error {
	*d = Dependant{}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &d.Name)
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: dependant_value must be a name or a number", ErrInvalidFittingSpec)
	}
	d.Number = &v
	return nil
}

func (d Dependant) MarshalJSON() ([]byte, error) {
	if d.Number != nil {
		return json.Marshal(*d.Number)
	}
	if d.Name == "" {
		return []byte("null"), nil
	}
	return json.Marshal(d.Name)
}

// Value is one fitting value; Cost marks the CostToken placeholder.
type Value struct {
	Number float64
	Cost   bool
}

// Values keeps the fitting values together with the form they were written
// in, since fix and spec only accept a scalar.
type Values struct {
	Items  []Value
	Scalar bool
}

// Scalars builds a scalar Values.
func Scalars(v float64) Values {
	return Values{Items: []Value{{Number: v}}, Scalar: true}
}

// Sequence builds a sequence Values.
func Sequence(vs ...float64) Values {
	items := make([]Value, len(vs))
	for i, v := range vs {
		items[i] = Value{Number: v}
	}
	return Values{Items: items}
}

func (v Values) IsZero() bool { return len(v.Items) == 0 }
func (v Values) Len() int     { return len(v.Items) }

// UsesCost reports whether any item is the CostToken placeholder.
func (v Values) UsesCost() bool {
	for _, it := range v.Items {
		if it.Cost {
			return true
		}
	}
	return false
}

// Resolve substitutes current for the CostToken placeholders. current is nil
// when the slot has no cost yet.
func (v Values) Resolve(current *float64) ([]float64, error) {
	out := make([]float64, len(v.Items))
	for i, it := range v.Items {
		if !it.Cost {
			out[i] = it.Number
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("%w: fitting_value %q used before any cost is known", ErrInvalidFittingSpec, CostToken)
		}
		out[i] = *current
	}
	return out, nil
}

func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	*v = Values{}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		it, err := scalarValue(node)
		if err != nil {
			return err
		}
		v.Items = []Value{it}
		v.Scalar = true
	case yaml.SequenceNode:
		v.Items = make([]Value, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: nested fitting_value (line %d)", ErrInvalidFittingSpec, n.Line)
			}
			it, err := scalarValue(n)
			if err != nil {
				return err
			}
			v.Items = append(v.Items, it)
		}
	default:
		return fmt.Errorf("%w: fitting_value must be a number or a list (line %d)", ErrInvalidFittingSpec, node.Line)
	}
	return nil
}

func scalarValue(node *yaml.Node) (Value, error) {
	if node.Tag == "!!str" && node.Value == CostToken {
		return Value{Cost: true}, nil
	}
	f, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: fitting_value %q is not a number", ErrInvalidFittingSpec, node.Value)
	}
	return Value{Number: f}, nil
}

func (v Values) MarshalYAML() (interface{}, error) {
	if v.IsZero() {
		return nil, nil
	}
	if v.Scalar {
		return v.Items[0].plain(), nil
	}
	out := make([]interface{}, len(v.Items))
	for i, it := range v.Items {
		out[i] = it.plain()
	}
	return out, nil
}

func (v *Values) UnmarshalJSON(b []byte) error {
	*v = Values{}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("%w: fitting_value: %v", ErrInvalidFittingSpec, err)
		}
		v.Items = make([]Value, 0, len(raw))
		for _, r := range raw {
			it, err := jsonValue(r)
			if err != nil {
				return err
			}
			v.Items = append(v.Items, it)
		}
		return nil
	}
	it, err := jsonValue(b)
	if err != nil {
		return err
	}
	v.Items = []Value{it}
	v.Scalar = true
	return nil
}

func jsonValue(b json.RawMessage) (Value, error) {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return Value{Number: f}, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil && s == CostToken {
		return Value{Cost: true}, nil
	}
	return Value{}, fmt.Errorf("%w: fitting_value %s is not a number", ErrInvalidFittingSpec, string(b))
}

func (v Values) MarshalJSON() ([]byte, error) {
	out, _ := v.MarshalYAML()
	return json.Marshal(out)
}

func (it Value) plain() interface{} {
	if it.Cost {
		return CostToken
	}
	return it.Number
}
