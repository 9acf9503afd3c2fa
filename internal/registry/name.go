package registry

import (
	"fmt"
	"strings"
)

// Name is a normalized registry key: a base name of one or more
// identifier words followed by a pointer depth.
type Name struct {
	Base     string
	Pointers int
}

// Key returns the registry spelling, e.g. "unsigned char*".
func (n Name) Key() string {
	return spell(n.Base, n.Pointers)
}

// Words splits the base name into its words.
func (n Name) Words() []string {
	return strings.Split(n.Base, " ")
}

func spell(base string, pointers int) string {
	return base + strings.Repeat("*", pointers)
}

// ParseName normalizes a type name: whitespace is collapsed to single
// spaces and trailing stars are counted, so "unsigned  long *" becomes
// {"unsigned long", 1}. Words must be C identifiers and stars may only
// trail the base name.
func ParseName(s string) (Name, error) {
	fields := strings.Fields(strings.ReplaceAll(s, "*", " * "))
	var n Name
	var words []string
	for _, f := range fields {
		if f == "*" {
			n.Pointers++
			continue
		}
		if n.Pointers > 0 {
			return Name{}, fmt.Errorf("invalid type name %q: word after '*'", s)
		}
		if !isIdent(f) {
			return Name{}, fmt.Errorf("invalid type name %q: %q is not an identifier", s, f)
		}
		words = append(words, f)
	}
	if len(words) == 0 {
		return Name{}, fmt.Errorf("invalid type name %q: no base name", s)
	}
	n.Base = strings.Join(words, " ")
	return n, nil
}

func isIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
