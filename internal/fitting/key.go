package fitting

import "fmt"

// Key selects the fitting function applied to a dependant value.
// Keep these values stable; they appear in model files and API payloads.
type Key string

const (
	KeyFix  Key = "fix"
	KeySpec Key = "spec"
	KeyExp  Key = "exp"
	KeyPoly Key = "poly"
	KeyFree Key = "free"
)

// Keys lists every supported key in documentation order.
var Keys = []Key{KeyFix, KeySpec, KeyExp, KeyPoly, KeyFree}

// ParseKey validates s against the supported keys.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFittingKey, s)
	}
	return k, nil
}

func (k Key) Valid() bool {
	switch k {
	case KeyFix, KeySpec, KeyExp, KeyPoly, KeyFree:
		return true
	}
	return false
}

// Scalar reports whether the key takes a single fitting value instead of a sequence.
func (k Key) Scalar() bool {
	return k == KeyFix || k == KeySpec
}

// Cardinality describes the accepted number of fitting values for k.
func (k Key) Cardinality() string {
	switch k {
	case KeyFix, KeySpec:
		return "scalar"
	case KeyExp:
		return "2 or 3 values"
	case KeyPoly:
		return "1 or more values"
	case KeyFree:
		return "even number of values, at least 2"
	}
	return "unknown"
}

func (k Key) Description() string {
	switch k {
	case KeyFix:
		return "Fixed cost; the fitting value is the cost and the dependant value is ignored."
	case KeySpec:
		return "Specific cost; fitting value multiplied with the dependant value."
	case KeyExp:
		return "Exponential fitting: a*exp(d*b) for [a,b], a+b*exp(d*c) for [a,b,c]."
	case KeyPoly:
		return "Polynomial fitting: v1 + v2*d + v3*d^2 + ... + vn*d^(n-1)."
	case KeyFree:
		return "Free exponents: v1*d^v2 + v3*d^v4 + ... + v(n-1)*d^vn."
	}
	return ""
}
