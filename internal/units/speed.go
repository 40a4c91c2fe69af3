// Package units converts between the pipeline's canonical units (meters,
// seconds) and display units requested by API clients.
package units

// ConvertSpeed converts a speed stored in m/s to the target unit. Unknown
// units return the value unchanged.
func ConvertSpeed(speedMps float64, target string) float64 {
	switch target {
	case "mph":
		return speedMps * 2.23694
	case "kmph", "kph", "kmh":
		return speedMps * 3.6
	default:
		return speedMps
	}
}

// ConvertDistance converts a distance stored in meters to the target unit.
// Unknown units return the value unchanged.
func ConvertDistance(distanceM float64, target string) float64 {
	switch target {
	case "km":
		return distanceM / 1000
	case "mi":
		return distanceM / 1609.344
	case "ft":
		return distanceM * 3.28084
	default:
		return distanceM
	}
}
