package pikalman

import (
	"os"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

func TestImplementsSink(t *testing.T) {
	implements := func(Sink) {}
	implements(new(CSVExporter))
	implements(SinkFunc(nil))
}

func TestCSVExportFail(t *testing.T) {
	_, err := NewCSVExporter([]string{"east", "north"}, "/noNoNoNo/", "temp.csv")
	if err == nil {
		t.Fatal("no issue when trying to create a file on root")
	}
}

func TestCSVExport(t *testing.T) {
	dir := t.TempDir()
	ce, err := NewCSVExporter([]string{"east", "north", "vEast", "vNorth"}, dir, "temp.csv")
	if err != nil {
		t.Fatalf("could not create file %s", err)
	}
	est := TrackEstimate{
		time:  time.Unix(10, 0),
		state: mat.NewVecDense(4, []float64{1, 2, 0.35, 0}),
		covar: ScaledIdentity(4, 10),
	}
	if err = ce.Write(est); err != nil {
		t.Fatalf("could not write estimate to file %s", err)
	}
	if err = ce.Close(); err != nil {
		t.Fatalf("could not close file %s", err)
	}

	b, err := os.ReadFile(ce.hdlr.Name())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	// Creation comment, header, one estimate, closing comment.
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "time,east,east+2s,east-2s") {
		t.Fatalf("unexpected header %q", lines[1])
	}
	fields := strings.Split(lines[2], ",")
	if len(fields) != 4*3+1 {
		t.Fatalf("expected %d fields, got %d", 4*3+1, len(fields))
	}
}

func TestSinkFunc(t *testing.T) {
	var seen int
	sink := SinkFunc(func(TrackEstimate) error {
		seen++
		return nil
	})
	if err := sink.Write(TrackEstimate{}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if seen != 1 {
		t.Fatalf("sink saw %d estimates", seen)
	}
}
