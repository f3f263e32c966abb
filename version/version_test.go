package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		s                   string
		major, minor, patch int
		valid               bool
	}{
		{"0.0.0", 0, 0, 0, true},
		{"1.02.3", 1, 2, 3, true},
		{" 2.1.7\n", 2, 1, 7, true},
		{"", 0, 0, 0, false},
		{"0", 0, 0, 0, false},
		{"0.0", 0, 0, 0, false},
		{"0.0.0.0", 0, 0, 0, false},
		{"0.-1.0", 0, 0, 0, false},
		{"0.a.0", 0, 0, 0, false},
	}

	for i := range tests {
		major, minor, patch, err := Parse(tests[i].s)
		if !tests[i].valid {
			assert.True(t, errors.Is(err, ErrInvalid), "%d) Parse(%q)", i+1, tests[i].s)
			continue
		}
		assert.NoError(t, err, "%d) Parse(%q)", i+1, tests[i].s)
		assert.Equal(t, [3]int{tests[i].major, tests[i].minor, tests[i].patch},
			[3]int{major, minor, patch}, "%d) Parse(%q)", i+1, tests[i].s)
	}
}

func TestLater(t *testing.T) {
	tests := []struct {
		s1, s2       string
		later, valid bool
	}{
		{"0.0.0", "0.0", false, false},
		{"0.0", "0.0.0", false, false},
		{"0.0.0", "0.0.0", false, true},
		{"0.0.1", "0.0.0", true, true},
		{"0.1.0", "0.0.0", true, true},
		{"1.0.0", "0.0.0", true, true},
		{"0.0.0", "0.0.1", false, true},
		{"0.0.0", "0.1.0", false, true},
		{"0.0.0", "1.0.0", false, true},
		{"2.13.7", "2.12.19", true, true},
		{"2.12.19", "2.13.7", false, true},
	}

	for i := range tests {
		later, err := Later(tests[i].s1, tests[i].s2)
		if !tests[i].valid {
			assert.Error(t, err, "%d) Later(%q, %q)", i+1, tests[i].s1, tests[i].s2)
			continue
		}
		assert.NoError(t, err, "%d) Later(%q, %q)", i+1, tests[i].s1, tests[i].s2)
		assert.Equal(t, tests[i].later, later, "%d) Later(%q, %q)",
			i+1, tests[i].s1, tests[i].s2)
	}
}

func TestSourceVersionIsValid(t *testing.T) {
	_, _, _, err := Parse(SourceVersion)
	assert.NoError(t, err)
}
