package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlag(t *testing.T) {
	table := []struct {
		s    string
		flag Flag
		ok   bool
	}{
		{"", Nil, true},
		{"nil", Nil, true},
		{"performance", Performance, true},
		{"debug", Debug, true},
		{"loud", Nil, false},
	}
	for i, test := range table {
		flag, err := ParseFlag(test.s)
		if test.ok {
			require.NoError(t, err, "%d)", i+1)
			assert.Equal(t, test.flag, flag, "%d)", i+1)
			assert.Equal(t, flag, mustParse(t, flag.String()), "%d)", i+1)
		} else {
			assert.Error(t, err, "%d)", i+1)
		}
	}
}

func mustParse(t *testing.T, s string) Flag {
	f, err := ParseFlag(s)
	require.NoError(t, err)
	return f
}

func TestSetupLevels(t *testing.T) {
	defer Setup(&bytes.Buffer{}, Nil)

	buf := &bytes.Buffer{}
	Setup(buf, Performance)
	assert.Equal(t, Performance, Mode)
	L().Debug("hidden")
	L().Info("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=1")

	buf.Reset()
	Setup(buf, Nil)
	L().Info("quiet")
	L().Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	assert.Equal(t, slog.LevelDebug, Debug.Level())
	assert.Contains(t, MemString(), "MB")
}
