package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertSpeed(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 22.3694, ConvertSpeed(10, "mph"), 1e-4)
	assert.InDelta(t, 36.0, ConvertSpeed(10, "kmph"), 1e-9)
	assert.InDelta(t, 36.0, ConvertSpeed(10, "kph"), 1e-9)
	assert.InDelta(t, 36.0, ConvertSpeed(10, "kmh"), 1e-9)
	assert.Equal(t, 10.0, ConvertSpeed(10, "warp"), "unknown units pass through")
	assert.Equal(t, 10.0, ConvertSpeed(10, ""))
}

func TestConvertDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, ConvertDistance(1000, "km"), 1e-9)
	assert.InDelta(t, 1.0, ConvertDistance(1609.344, "mi"), 1e-9)
	assert.InDelta(t, 3.28084, ConvertDistance(1, "ft"), 1e-9)
	assert.Equal(t, 500.0, ConvertDistance(500, ""))
}
