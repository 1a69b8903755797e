// Package inference implements the two statistical procedures the run
// reports: Welch's unequal-variance t-test between the category groups and
// ordinary least squares over the state table. Failures are sentinel errors
// so callers can report them without aborting a run.
package inference

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrTooFewSamples reports a group or design too small for the
	// requested procedure.
	ErrTooFewSamples = errors.New("inference: too few samples")
	// ErrZeroVariance reports two groups with no variance at all, where
	// the t statistic is undefined.
	ErrZeroVariance = errors.New("inference: zero variance in both samples")
)

// TTestResult is a two-sided Welch t-test. Group A by convention is the
// Trump states and B the Clinton states, but the math does not care.
type TTestResult struct {
	NA    int     `json:"n_a"`
	NB    int     `json:"n_b"`
	MeanA float64 `json:"mean_a"`
	MeanB float64 `json:"mean_b"`
	T     float64 `json:"t"`
	DF    float64 `json:"df"`
	P     float64 `json:"p"`
}

// WelchTTest compares two sample means without assuming equal variances,
// using the Welch–Satterthwaite degrees of freedom. Each group needs at
// least two observations.
func WelchTTest(a, b []float64) (*TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return nil, ErrTooFewSamples
	}
	meanA := stat.Mean(a, nil)
	meanB := stat.Mean(b, nil)
	varA := stat.Variance(a, nil)
	varB := stat.Variance(b, nil)
	if varA == 0 && varB == 0 {
		return nil, ErrZeroVariance
	}

	na := float64(len(a))
	nb := float64(len(b))
	seA := varA / na
	seB := varB / nb
	se := math.Sqrt(seA + seB)
	t := (meanA - meanB) / se
	df := (seA + seB) * (seA + seB) /
		(seA*seA/(na-1) + seB*seB/(nb-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))

	return &TTestResult{
		NA:    len(a),
		NB:    len(b),
		MeanA: meanA,
		MeanB: meanB,
		T:     t,
		DF:    df,
		P:     p,
	}, nil
}
