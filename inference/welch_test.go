package inference

import (
	"errors"
	"math"
	"testing"
)

func TestWelchTTestHandComputed(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 6, 8, 10}
	res, err := WelchTTest(a, b)
	if err != nil {
		t.Fatalf("welch failed: %v", err)
	}
	if res.NA != 5 || res.NB != 5 {
		t.Fatalf("unexpected group sizes: %d/%d", res.NA, res.NB)
	}
	if res.MeanA != 3 || res.MeanB != 6 {
		t.Fatalf("unexpected means: %g/%g", res.MeanA, res.MeanB)
	}
	// t = -3 / sqrt(2.5/5 + 10/5), df = 2.5^2 / (0.25^2/4 + 2^2/4) = 100/17.
	wantT := -3 / math.Sqrt(2.5)
	if math.Abs(res.T-wantT) > 1e-12 {
		t.Fatalf("expected t %.12f, got %.12f", wantT, res.T)
	}
	wantDF := 100.0 / 17.0
	if math.Abs(res.DF-wantDF) > 1e-12 {
		t.Fatalf("expected df %.12f, got %.12f", wantDF, res.DF)
	}
	if res.P < 0.09 || res.P > 0.13 {
		t.Fatalf("expected p near 0.11, got %g", res.P)
	}
}

func TestWelchTTestIdenticalGroups(t *testing.T) {
	a := []float64{1, 2, 3}
	res, err := WelchTTest(a, a)
	if err != nil {
		t.Fatalf("welch failed: %v", err)
	}
	if res.T != 0 {
		t.Fatalf("expected t=0 for identical groups, got %g", res.T)
	}
	if math.Abs(res.P-1) > 1e-9 {
		t.Fatalf("expected p=1 for identical groups, got %g", res.P)
	}
}

func TestWelchTTestRejectsSmallGroups(t *testing.T) {
	if _, err := WelchTTest([]float64{1}, []float64{2, 3}); !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("expected ErrTooFewSamples, got %v", err)
	}
	if _, err := WelchTTest([]float64{1, 2}, []float64{3}); !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("expected ErrTooFewSamples, got %v", err)
	}
}

func TestWelchTTestRejectsZeroVariance(t *testing.T) {
	if _, err := WelchTTest([]float64{2, 2}, []float64{3, 3}); !errors.Is(err, ErrZeroVariance) {
		t.Fatalf("expected ErrZeroVariance, got %v", err)
	}
}

func TestWelchTTestOneDegenerateGroupStillWorks(t *testing.T) {
	res, err := WelchTTest([]float64{2, 2, 2}, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("welch failed: %v", err)
	}
	if res.T != 0 {
		t.Fatalf("expected t=0 for equal means, got %g", res.T)
	}
}
