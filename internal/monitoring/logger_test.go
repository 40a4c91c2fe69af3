package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var captured []string
	SetLogger(func(format string, v ...interface{}) {
		captured = append(captured, fmt.Sprintf(format, v...))
	})

	Logf("fix dropped: %d", 3)
	require.Len(t, captured, 1)
	assert.Equal(t, "fix dropped: 3", captured[0])

	// nil installs a no-op, not a panic.
	SetLogger(nil)
	Logf("silenced")
	assert.Len(t, captured, 1)
}

func TestDebugfGatedByFlag(t *testing.T) {
	original := Logf
	originalDebug := Debug
	defer func() {
		Logf = original
		Debug = originalDebug
	}()

	count := 0
	SetLogger(func(string, ...interface{}) { count++ })

	Debug = false
	Debugf("per-fix noise")
	assert.Equal(t, 0, count, "debug output suppressed by default")

	Debug = true
	Debugf("per-fix noise")
	assert.Equal(t, 1, count)
}
