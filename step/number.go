package step

import "github.com/shopspring/decimal"

// AsNumber extracts the decimal value of a ground number term.
func AsNumber(t Term) (decimal.Decimal, bool) {
	if t.Kind == KindGround && t.G.Kind == GNumber {
		return t.G.Num, true
	}
	return decimal.Decimal{}, false
}

// AsString extracts the string value of a ground string term.
func AsString(t Term) (string, bool) {
	if t.Kind == KindGround && t.G.Kind == GString {
		return t.G.Str, true
	}
	return "", false
}

// AsBool extracts the boolean value of a ground boolean term.
func AsBool(t Term) (bool, bool) {
	if t.Kind == KindGround && t.G.Kind == GBool {
		return t.G.Bit, true
	}
	return false, false
}

// IsGround reports whether t, after resolving through env, contains no
// unbound variable anywhere in its structure — the instantiation check a
// primitive runs before it can safely convert a term to a Go value.
func IsGround(t Term, env Env) bool {
	t = env.Resolve(t)
	switch t.Kind {
	case KindVar:
		return false
	case KindTuple:
		for _, e := range t.Elems {
			if !IsGround(e, env) {
				return false
			}
		}
		return true
	case KindGround:
		if t.G.Kind == GList {
			for c := t.G.List; c != nil; c = c.Tail {
				if !IsGround(c.Head, env) {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}
