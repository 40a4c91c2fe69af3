// Package sensor reads raw positional fixes from an NMEA-0183 GPS receiver
// over a serial port.
package sensor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/waymark-data/tracklog/internal/track"
)

const knotsToMps = 0.514444

// uereMeters is the nominal user-equivalent range error used to turn HDOP
// into an approximate horizontal accuracy radius.
const uereMeters = 5.0

// sentinel for "no value in this sentence field"
const fieldUnknown = -1.0

// Parser converts NMEA sentences into RawFix values. RMC sentences carry
// position, speed, course, and date/time and produce a fix; GGA sentences
// contribute altitude and HDOP, which the parser remembers and merges into
// subsequent fixes. Not safe for concurrent use.
type Parser struct {
	lastAltitudeM float64
	lastHDOP      float64
	haveGGA       bool
}

// NewParser creates a Parser with no GGA context yet.
func NewParser() *Parser {
	return &Parser{lastHDOP: 1.0}
}

// ParseSentence parses one NMEA line. It returns a fix for valid RMC
// sentences, nil (and no error) for sentences that only update parser state
// or that carry no position solution, and an error for malformed input.
func (p *Parser) ParseSentence(line string) (*track.RawFix, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	body, err := checksumBody(line)
	if err != nil {
		return nil, err
	}

	fields := strings.Split(body, ",")
	talker := fields[0]
	switch {
	case strings.HasSuffix(talker, "RMC"):
		return p.parseRMC(fields)
	case strings.HasSuffix(talker, "GGA"):
		return nil, p.parseGGA(fields)
	default:
		return nil, nil
	}
}

// checksumBody validates the leading '$' and trailing "*hh" checksum and
// returns the sentence body between them.
func checksumBody(line string) (string, error) {
	if !strings.HasPrefix(line, "$") {
		return "", fmt.Errorf("sentence missing leading $: %q", line)
	}
	star := strings.LastIndex(line, "*")
	if star < 0 || star+3 > len(line) {
		return "", fmt.Errorf("sentence missing checksum: %q", line)
	}

	body := line[1:star]
	want, err := strconv.ParseUint(line[star+1:star+3], 16, 8)
	if err != nil {
		return "", fmt.Errorf("bad checksum field: %q", line)
	}

	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	if sum != byte(want) {
		return "", fmt.Errorf("checksum mismatch: got %02X want %02X", sum, want)
	}

	return body, nil
}

// parseRMC handles the recommended-minimum sentence:
// $GPRMC,hhmmss.ss,A,llll.ll,N,yyyyy.yy,E,speedKnots,courseDeg,ddmmyy,...
func (p *Parser) parseRMC(fields []string) (*track.RawFix, error) {
	if len(fields) < 10 {
		return nil, fmt.Errorf("RMC sentence too short: %d fields", len(fields))
	}
	if fields[2] != "A" {
		// Void status: receiver has no solution. Not an error, just no fix.
		return nil, nil
	}

	lat, err := parseCoordinate(fields[3], fields[4])
	if err != nil {
		return nil, fmt.Errorf("RMC latitude: %w", err)
	}
	lon, err := parseCoordinate(fields[5], fields[6])
	if err != nil {
		return nil, fmt.Errorf("RMC longitude: %w", err)
	}

	timestamp, err := parseDateTime(fields[9], fields[1])
	if err != nil {
		return nil, fmt.Errorf("RMC timestamp: %w", err)
	}

	speed := fieldUnknown
	if fields[7] != "" {
		knots, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return nil, fmt.Errorf("RMC speed: %w", err)
		}
		speed = knots * knotsToMps
	}

	course := fieldUnknown
	if fields[8] != "" {
		course, err = strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return nil, fmt.Errorf("RMC course: %w", err)
		}
	}

	fix := &track.RawFix{
		Lat:       lat,
		Lon:       lon,
		Timestamp: timestamp,
		AccuracyM: p.lastHDOP * uereMeters,
		SpeedMps:  speed,
		CourseDeg: course,
	}
	if p.haveGGA {
		fix.AltitudeM = p.lastAltitudeM
	}
	return fix, nil
}

// parseGGA handles the fix-data sentence:
// $GPGGA,hhmmss.ss,lat,N,lon,E,quality,sats,hdop,altitude,M,...
func (p *Parser) parseGGA(fields []string) error {
	if len(fields) < 10 {
		return fmt.Errorf("GGA sentence too short: %d fields", len(fields))
	}
	if fields[6] == "0" || fields[6] == "" {
		// No fix quality; keep prior context.
		return nil
	}

	if fields[8] != "" {
		hdop, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return fmt.Errorf("GGA hdop: %w", err)
		}
		p.lastHDOP = hdop
	}
	if fields[9] != "" {
		alt, err := strconv.ParseFloat(fields[9], 64)
		if err != nil {
			return fmt.Errorf("GGA altitude: %w", err)
		}
		p.lastAltitudeM = alt
		p.haveGGA = true
	}

	return nil
}

// parseCoordinate converts NMEA ddmm.mmmm (or dddmm.mmmm) plus hemisphere
// into signed decimal degrees.
func parseCoordinate(value, hemisphere string) (float64, error) {
	if value == "" || hemisphere == "" {
		return 0, fmt.Errorf("empty coordinate")
	}

	dot := strings.Index(value, ".")
	if dot < 3 {
		return 0, fmt.Errorf("malformed coordinate %q", value)
	}

	degrees, err := strconv.ParseFloat(value[:dot-2], 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate degrees %q: %w", value, err)
	}
	minutes, err := strconv.ParseFloat(value[dot-2:], 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate minutes %q: %w", value, err)
	}

	result := degrees + minutes/60
	switch hemisphere {
	case "N", "E":
		return result, nil
	case "S", "W":
		return -result, nil
	default:
		return 0, fmt.Errorf("unknown hemisphere %q", hemisphere)
	}
}

// parseDateTime combines RMC date (ddmmyy) and time (hhmmss.ss) into UTC.
func parseDateTime(date, clock string) (time.Time, error) {
	if len(date) != 6 || len(clock) < 6 {
		return time.Time{}, fmt.Errorf("malformed date %q / time %q", date, clock)
	}

	day, err1 := strconv.Atoi(date[0:2])
	month, err2 := strconv.Atoi(date[2:4])
	year, err3 := strconv.Atoi(date[4:6])
	hour, err4 := strconv.Atoi(clock[0:2])
	minute, err5 := strconv.Atoi(clock[2:4])
	second, err6 := strconv.Atoi(clock[4:6])
	for _, err := range []error{err1, err2, err3, err4, err5, err6} {
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed date/time: %q %q", date, clock)
		}
	}

	nanos := 0
	if len(clock) > 7 {
		frac, err := strconv.ParseFloat("0"+clock[6:], 64)
		if err == nil {
			nanos = int(frac * 1e9)
		}
	}

	return time.Date(2000+year, time.Month(month), day, hour, minute, second, nanos, time.UTC), nil
}
