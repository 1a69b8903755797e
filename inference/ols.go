package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrSingularDesign reports predictors too collinear to solve.
var ErrSingularDesign = errors.New("inference: singular design matrix")

// maxConditionNumber bounds how ill-conditioned a design we still accept.
const maxConditionNumber = 1e12

// Predictor is one named column of the design matrix.
type Predictor struct {
	Name   string
	Values []float64
}

// Coefficient is one fitted term. StdErr, T and P are NaN when the model
// has no residual degrees of freedom; T and P are NaN on an exact fit.
type Coefficient struct {
	Name   string
	Value  float64
	StdErr float64
	T      float64
	P      float64
}

// MarshalJSON renders non-finite diagnostics as null so run summaries stay
// valid JSON.
func (c Coefficient) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string   `json:"name"`
		Value  float64  `json:"value"`
		StdErr *float64 `json:"std_err"`
		T      *float64 `json:"t"`
		P      *float64 `json:"p"`
	}{c.Name, c.Value, finite(c.StdErr), finite(c.T), finite(c.P)})
}

// UnmarshalJSON restores nulls to NaN so a summary reloaded from history
// round-trips.
func (c *Coefficient) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name   string   `json:"name"`
		Value  float64  `json:"value"`
		StdErr *float64 `json:"std_err"`
		T      *float64 `json:"t"`
		P      *float64 `json:"p"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Name = aux.Name
	c.Value = aux.Value
	c.StdErr = orNaN(aux.StdErr)
	c.T = orNaN(aux.T)
	c.P = orNaN(aux.P)
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Regression is a fitted OLS model. StdErrValid is false when n equals the
// parameter count, where coefficients are exact but their uncertainty is
// undefined.
type Regression struct {
	Coefficients []Coefficient `json:"coefficients"`
	N            int           `json:"n"`
	ResidualDF   int           `json:"residual_df"`
	R2           float64       `json:"-"`
	StdErrValid  bool          `json:"std_err_valid"`
}

// MarshalJSON handles the NaN R2 of a constant response.
func (r *Regression) MarshalJSON() ([]byte, error) {
	type alias Regression
	return json.Marshal(struct {
		*alias
		R2 *float64 `json:"r2"`
	}{(*alias)(r), finite(r.R2)})
}

func (r *Regression) UnmarshalJSON(data []byte) error {
	type alias Regression
	aux := struct {
		*alias
		R2 *float64 `json:"r2"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.R2 = orNaN(aux.R2)
	return nil
}

// Regress fits y against an intercept plus the given predictors by solving
// the normal equations. Needs at least as many observations as parameters;
// with no residual degrees of freedom the fit is returned with StdErrValid
// false rather than rejected.
func Regress(y []float64, predictors ...Predictor) (*Regression, error) {
	n := len(y)
	p := len(predictors) + 1
	for _, pr := range predictors {
		if len(pr.Values) != n {
			return nil, fmt.Errorf("inference: predictor %q has %d values, want %d", pr.Name, len(pr.Values), n)
		}
	}
	if n < p {
		return nil, ErrTooFewSamples
	}

	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j, pr := range predictors {
			X.Set(i, j+1, pr.Values[i])
		}
	}
	yv := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || float64(cond) > maxConditionNumber {
			return nil, ErrSingularDesign
		}
	}
	var xty mat.VecDense
	xty.MulVec(X.T(), yv)
	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	rss := 0.0
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)
	tss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
		d := y[i] - meanY
		tss += d * d
	}

	dof := n - p
	reg := &Regression{
		N:           n,
		ResidualDF:  dof,
		R2:          math.NaN(),
		StdErrValid: dof > 0,
	}
	if tss > 0 {
		reg.R2 = 1 - rss/tss
	}

	names := make([]string, 0, p)
	names = append(names, "intercept")
	for _, pr := range predictors {
		names = append(names, pr.Name)
	}

	for j := 0; j < p; j++ {
		coef := Coefficient{
			Name:   names[j],
			Value:  beta.AtVec(j),
			StdErr: math.NaN(),
			T:      math.NaN(),
			P:      math.NaN(),
		}
		if dof > 0 {
			sigma2 := rss / float64(dof)
			se := math.Sqrt(sigma2 * xtxInv.At(j, j))
			coef.StdErr = se
			if se > 0 {
				dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
				coef.T = coef.Value / se
				coef.P = 2 * dist.CDF(-math.Abs(coef.T))
			}
		}
		reg.Coefficients = append(reg.Coefficients, coef)
	}
	return reg, nil
}
