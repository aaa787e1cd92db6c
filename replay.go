package pikalman

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReplayRoute reads a recorded route log and returns it as a fix sequence,
// so an offline run can be filtered through the same path as a live stream.
//
// Each record is `time,east,north[,sigma]`: time is either RFC3339 or unix
// seconds (fractions allowed), east/north are meters in the local tangent
// plane and sigma is the receiver's reported accuracy in meters. Records
// without a sigma column use defaultSigma. Lines starting with '#' and a
// leading header line are skipped.
func ReplayRoute(path string, defaultSigma float64) ([]Fix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRoute(f, defaultSigma)
}

func readRoute(r io.Reader, defaultSigma float64) ([]Fix, error) {
	if defaultSigma <= 0 {
		return nil, &ConfigError{Field: "default sigma", Reason: "must be positive"}
	}
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var fixes []Fix
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 3 {
			return nil, fmt.Errorf("pikalman: route record %d: want at least time,east,north", line)
		}
		ts, err := parseRouteTime(rec[0])
		if err != nil {
			if line == 1 {
				// Header line.
				continue
			}
			return nil, fmt.Errorf("pikalman: route record %d: %s", line, err)
		}
		east, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("pikalman: route record %d: east: %s", line, err)
		}
		north, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("pikalman: route record %d: north: %s", line, err)
		}
		sigma := defaultSigma
		if len(rec) > 3 {
			sigma, err = strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
			if err != nil {
				return nil, fmt.Errorf("pikalman: route record %d: sigma: %s", line, err)
			}
			if sigma <= 0 {
				sigma = defaultSigma
			}
		}
		fix, err := NewPositionFix(ts, east, north, ScaledIdentity(2, sigma*sigma))
		if err != nil {
			return nil, fmt.Errorf("pikalman: route record %d: %s", line, err)
		}
		fixes = append(fixes, fix)
	}
	return fixes, nil
}

func parseRouteTime(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if t, err := time.Parse(time.RFC3339, field); err == nil {
		return t, nil
	}
	secs, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable time %q", field)
	}
	sec := int64(secs)
	nsec := int64((secs - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), nil
}
