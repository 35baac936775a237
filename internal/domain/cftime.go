package domain

import (
	"fmt"
	"strings"
	"time"
)

// secondsPer maps a CF time unit to its length in seconds. Only standard
// calendar units used by reanalysis products are supported.
var secondsPer = map[string]float64{
	"second":  1,
	"seconds": 1,
	"sec":     1,
	"secs":    1,
	"minute":  60,
	"minutes": 60,
	"min":     60,
	"mins":    60,
	"hour":    3600,
	"hours":   3600,
	"hr":      3600,
	"hrs":     3600,
	"day":     86400,
	"days":    86400,
}

// baseLayouts are tried in order when parsing the reference date of a CF
// units string. Unpadded layouts also accept zero-padded input.
var baseLayouts = []string{
	"2006-1-2 15:4:5.999999999",
	"2006-1-2T15:4:5.999999999Z07:00",
	"2006-1-2T15:4:5.999999999",
	"2006-1-2 15:4",
	"2006-1-2",
}

// ParseCFTime decodes a CF-style relative time axis ("<unit> since <date>",
// e.g. "hours since 1900-01-01 00:00:00") into UTC timestamps.
func ParseCFTime(units string, values []float64) ([]time.Time, error) {
	unit, base, err := parseCFUnits(units)
	if err != nil {
		return nil, err
	}

	perUnit := secondsPer[unit]
	ts := make([]time.Time, len(values))
	for i, v := range values {
		ts[i] = base.Add(time.Duration(v * perUnit * float64(time.Second))).UTC()
	}
	return ts, nil
}

func parseCFUnits(units string) (unit string, base time.Time, err error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return "", time.Time{}, fmt.Errorf("time units %q: missing %q separator", units, "since")
	}

	unit = strings.ToLower(strings.TrimSpace(parts[0]))
	if _, ok := secondsPer[unit]; !ok {
		return "", time.Time{}, fmt.Errorf("time units %q: unsupported unit %q", units, unit)
	}

	// Some files append a timezone word ("UTC") after the date.
	ref := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), "UTC"))
	for _, layout := range baseLayouts {
		if t, perr := time.ParseInLocation(layout, ref, time.UTC); perr == nil {
			return unit, t, nil
		}
	}
	return "", time.Time{}, fmt.Errorf("time units %q: cannot parse reference date %q", units, ref)
}
