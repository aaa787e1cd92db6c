package pikalman

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCheckDims(t *testing.T) {
	i22 := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	i33 := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	methods := []DimensionAgreement{rows2cols, cols2rows, cols2cols, rows2rows, rowsAndcols}
	for _, meth := range methods {
		if err := checkMatDims(i22, i22, "i22", "i22", meth); err != nil {
			t.Fatalf("method %+v fails: %s", meth, err)
		}
		if err := checkMatDims(i22, i33, "i22", "i33", meth); err == nil {
			t.Fatalf("method %+v does not error when using i22 and i33 ", meth)
		}
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "process_noise_intensity", Reason: "must be positive"}
	if !strings.Contains(err.Error(), "process_noise_intensity") {
		t.Fatalf("message %q does not name the field", err.Error())
	}
}
