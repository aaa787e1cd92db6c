package pikalman

import (
	"strings"
	"testing"
	"time"
)

func TestReadRoute(t *testing.T) {
	route := `time,east,north,sigma
0,0.0,0.0,5
1.5,1.2,0.1
2021-06-01T00:00:03Z,2.4,0.2,2.5
# a comment
4,3.6,0.3,0
`
	fixes, err := readRoute(strings.NewReader(route), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(fixes) != 4 {
		t.Fatalf("expected 4 fixes, got %d", len(fixes))
	}
	if !fixes[1].Time.Equal(time.Unix(1, int64(500*time.Millisecond))) {
		t.Fatalf("fractional unix time parsed as %s", fixes[1].Time)
	}
	if fixes[2].Time.Year() != 2021 {
		t.Fatalf("RFC3339 time parsed as %s", fixes[2].Time)
	}
	// Missing sigma column uses the default, non-positive sigma falls back.
	if got := fixes[1].Noise().At(0, 0); got != 9 {
		t.Fatalf("default sigma variance %f, want 9", got)
	}
	if got := fixes[2].Noise().At(1, 1); got != 2.5*2.5 {
		t.Fatalf("sigma variance %f, want %f", got, 2.5*2.5)
	}
	if got := fixes[3].Noise().At(0, 0); got != 9 {
		t.Fatalf("zero sigma should fall back to the default, got variance %f", got)
	}
	if e := fixes[3].Observation().AtVec(0); e != 3.6 {
		t.Fatalf("east %f", e)
	}
}

func TestReadRouteErrors(t *testing.T) {
	if _, err := readRoute(strings.NewReader("0,1,2\n"), 0); err == nil {
		t.Fatal("non-positive default sigma does not fail")
	}
	if _, err := readRoute(strings.NewReader("0,1\n"), 3); err == nil {
		t.Fatal("record with two fields does not fail")
	}
	if _, err := readRoute(strings.NewReader("0,one,2\n"), 3); err == nil {
		t.Fatal("non-numeric east does not fail")
	}
	if _, err := readRoute(strings.NewReader("0,0,0\nnot-a-time,1,1\n"), 3); err == nil {
		t.Fatal("unparseable time past the header does not fail")
	}
}

func TestReplayRouteMissingFile(t *testing.T) {
	if _, err := ReplayRoute("/noNoNoNo/route.csv", 3); err == nil {
		t.Fatal("missing route file does not fail")
	}
}
