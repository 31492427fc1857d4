// Package fitting maps a dependant operational value (a nominal power, a
// storage size, an already computed CAPEX) to a cost or emission figure.
//
// Each key has its own variant type. New is the only constructor and
// validates the number of fitting values; once built, a Fitting cannot fail.
package fitting

import (
	"fmt"
	"math"
)

// Fitting is a closed set of variants: Fixed, Specific, Exponential,
// Polynomial and FreePolynomial.
type Fitting interface {
	Key() Key
	Evaluate(dependant float64) float64

	sealed()
}

// Fixed returns Cost regardless of the dependant value.
type Fixed struct {
	Cost float64
}

// Specific is a cost per unit of the dependant value (e.g. EUR/kW).
type Specific struct {
	Factor float64
}

// Exponential computes Offset + Scale*exp(d*Rate).
// The two value form [a,b] has Offset 0.
type Exponential struct {
	Offset float64
	Scale  float64
	Rate   float64
}

// Polynomial computes sum(Coefficients[i] * d^i).
type Polynomial struct {
	Coefficients []float64
}

// Term is one coefficient/exponent pair of a FreePolynomial.
type Term struct {
	Coefficient float64
	Exponent    float64
}

// FreePolynomial computes sum(t.Coefficient * d^t.Exponent).
type FreePolynomial struct {
	Terms []Term
}

func (Fixed) Key() Key          { return KeyFix }
func (Specific) Key() Key       { return KeySpec }
func (Exponential) Key() Key    { return KeyExp }
func (Polynomial) Key() Key     { return KeyPoly }
func (FreePolynomial) Key() Key { return KeyFree }

func (Fixed) sealed()          {}
func (Specific) sealed()       {}
func (Exponential) sealed()    {}
func (Polynomial) sealed()     {}
func (FreePolynomial) sealed() {}

func (f Fixed) Evaluate(float64) float64 { return f.Cost }

func (f Specific) Evaluate(d float64) float64 { return f.Factor * d }

func (f Exponential) Evaluate(d float64) float64 {
	return f.Offset + f.Scale*math.Exp(d*f.Rate)
}

func (f Polynomial) Evaluate(d float64) float64 {
	// Horner form, highest order first.
	cost := 0.0
	for i := len(f.Coefficients) - 1; i >= 0; i-- {
		cost = cost*d + f.Coefficients[i]
	}
	return cost
}

func (f FreePolynomial) Evaluate(d float64) float64 {
	cost := 0.0
	for _, t := range f.Terms {
		cost += t.Coefficient * math.Pow(d, t.Exponent)
	}
	return cost
}

// New builds the variant for key from its fitting values.
func New(key Key, values []float64) (Fitting, error) {
	n := len(values)
	switch key {
	case KeyFix:
		if n != 1 {
			return nil, cardinalityError(key, n)
		}
		return Fixed{Cost: values[0]}, nil
	case KeySpec:
		if n != 1 {
			return nil, cardinalityError(key, n)
		}
		return Specific{Factor: values[0]}, nil
	case KeyExp:
		switch n {
		case 2:
			return Exponential{Scale: values[0], Rate: values[1]}, nil
		case 3:
			return Exponential{Offset: values[0], Scale: values[1], Rate: values[2]}, nil
		}
		return nil, cardinalityError(key, n)
	case KeyPoly:
		if n < 1 {
			return nil, cardinalityError(key, n)
		}
		return Polynomial{Coefficients: append([]float64(nil), values...)}, nil
	case KeyFree:
		if n < 2 || n%2 != 0 {
			return nil, cardinalityError(key, n)
		}
		terms := make([]Term, 0, n/2)
		for i := 0; i < n; i += 2 {
			terms = append(terms, Term{Coefficient: values[i], Exponent: values[i+1]})
		}
		return FreePolynomial{Terms: terms}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFittingKey, string(key))
	}
}

// Evaluate is the one-shot form of New followed by Fitting.Evaluate.
func Evaluate(key Key, dependant float64, values []float64) (float64, error) {
	f, err := New(key, values)
	if err != nil {
		return 0, err
	}
	return f.Evaluate(dependant), nil
}

func cardinalityError(key Key, n int) error {
	return fmt.Errorf("%w: key %q needs %s, got %d", ErrInvalidFittingSpec, string(key), key.Cardinality(), n)
}
