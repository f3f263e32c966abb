/*
package version holds the semantic version of the lensfish source and
compares version strings.
*/
package version

import (
	"errors"
	"strconv"
	"strings"
)

// SourceVersion is the semantic version number of the source code.
const SourceVersion = "0.1.0"

// ErrInvalid is returned for strings which are not semantic versions.
var ErrInvalid = errors.New("version string does not take the form of " +
	"three period-separated non-negative numbers")

// Parse parses a semantic version number string and returns an error if
// the string is invalid.
func Parse(s string) (major, minor, patch int, err error) {
	toks := strings.Split(strings.TrimSpace(s), ".")
	if len(toks) != 3 {
		return -1, -1, -1, ErrInvalid
	}

	var out [3]int
	for i, tok := range toks {
		out[i], err = strconv.Atoi(tok)
		if err != nil || out[i] < 0 {
			return -1, -1, -1, ErrInvalid
		}
	}
	return out[0], out[1], out[2], nil
}

// Later returns true if s1 represents a later version of the source than
// s2. An error is returned if either is invalid.
func Later(s1, s2 string) (bool, error) {
	major1, minor1, patch1, err := Parse(s1)
	if err != nil {
		return false, err
	}
	major2, minor2, patch2, err := Parse(s2)
	if err != nil {
		return false, err
	}

	switch {
	case major1 != major2:
		return major1 > major2, nil
	case minor1 != minor2:
		return minor1 > minor2, nil
	default:
		return patch1 > patch2, nil
	}
}
