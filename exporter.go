package pikalman

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sink receives each filtered estimate for logging or transmission. The
// core has no file-format or protocol obligations beyond handing the
// estimate over.
type Sink interface {
	Write(TrackEstimate) error
	Close() error
}

// SinkFunc adapts a function into a Sink with a no-op Close.
type SinkFunc func(TrackEstimate) error

// Write implements the Sink interface.
func (f SinkFunc) Write(est TrackEstimate) error { return f(est) }

// Close implements the Sink interface.
func (f SinkFunc) Close() error { return nil }

// CSVExporter writes each estimate as a CSV line: the timestamp followed by
// every state component with its ±2σ envelope. Use NewCSVExporter to
// initialize.
type CSVExporter struct {
	delimiter string
	hdlr      *os.File
}

// NewCSVExporter initializes a new CSV export.
func NewCSVExporter(headers []string, dir, filename string) (e *CSVExporter, err error) {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return
	}
	delimiter := ","
	// Header
	hdr := make([]string, len(headers)*3+1)
	hdr[0] = "time"
	for i := 1; i < len(headers)*3; i += 3 {
		hdr[i] = headers[(i-1)/3]
		hdr[i+1] = hdr[i] + "+2s"
		hdr[i+2] = hdr[i] + "-2s"
	}
	_, err = f.WriteString(fmt.Sprintf("# Creation date (UTC): %s\n%s\n", time.Now().UTC(), strings.Join(hdr, delimiter)))
	if err != nil {
		return
	}
	e = &CSVExporter{delimiter, f}
	return
}

// Write writes the estimate to the CSV file.
func (e CSVExporter) Write(est TrackEstimate) error {
	r := est.State().Len()
	vals := make([]string, r*3+1)
	vals[0] = est.Time().UTC().Format(time.RFC3339Nano)
	for i := 1; i < r*3; i += 3 {
		j := (i - 1) / 3
		vals[i] = fmt.Sprintf("%f", est.State().AtVec(j))
		envelope := 2 * math.Sqrt(est.Covariance().At(j, j))
		vals[i+1] = fmt.Sprintf("%f", envelope)
		vals[i+2] = fmt.Sprintf("%f", -1*envelope)
	}
	_, err := e.hdlr.WriteString(strings.Join(vals, e.delimiter) + "\n")
	return err
}

// WriteRawLn writes a raw line to the CSV file.
func (e CSVExporter) WriteRawLn(s string) error {
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// Close closes the file.
func (e CSVExporter) Close() (err error) {
	err = e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC()))
	if err != nil {
		return
	}
	return e.hdlr.Close()
}
