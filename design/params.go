package design

import (
	"fmt"
	"math"

	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxTruncDraws 截斷常態的拒絕上限；超過代表先驗幾乎落在截斷範圍外
const maxTruncDraws = 10_000

// Criterion 受 predictor 影響的參數
type Criterion string

const (
	CriterionNone  Criterion = ""
	CriterionBound Criterion = "bound"
	CriterionDrift Criterion = "drift"
	CriterionNondt Criterion = "nondt"
)

// ParseCriterion 接受 bound|drift|nondt，空字串代表沒有 predictor 效果。
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(s); c {
	case CriterionNone, CriterionBound, CriterionDrift, CriterionNondt:
		return c, nil
	default:
		return "", errs.Warnf("unknown criterion %q (bound|drift|nondt)", s)
	}
}

// ParameterSet 一次抽出的群體參數與每位受試者的參數
type ParameterSet struct {
	Betaweight float64   `json:"betaweight" yaml:"betaweight"`
	BoundMean  float64   `json:"bound_mean" yaml:"bound_mean"`
	BoundSdev  float64   `json:"bound_sdev" yaml:"bound_sdev"`
	DriftMean  float64   `json:"drift_mean" yaml:"drift_mean"`
	DriftSdev  float64   `json:"drift_sdev" yaml:"drift_sdev"`
	NondtMean  float64   `json:"nondt_mean" yaml:"nondt_mean"`
	NondtSdev  float64   `json:"nondt_sdev" yaml:"nondt_sdev"`
	Bound      []float64 `json:"bound" yaml:"bound,flow"`
	Drift      []float64 `json:"drift" yaml:"drift,flow"`
	Nondt      []float64 `json:"nondt" yaml:"nondt,flow"`
}

// SampleParameters 依先驗抽出 n 位受試者的參數。
//
// predictor 長度必須為 n 或 0（0 視為全 0）；只有 criterion 指定的參數平均會加上 betaweight * X[p]。
// 群體平均與個人參數都截斷在 bound (0.1, 3)、drift (-3, 3)、nondt (0.05, ∞)。
func SampleParameters(pr Prior, n int, criterion Criterion, predictor []float64, c *core.Core) (*ParameterSet, error) {
	if n < 1 {
		return nil, errs.NewWarn("participants must > 0")
	}
	if len(predictor) != 0 && len(predictor) != n {
		return nil, errs.Warnf("predictor length %d != participants %d", len(predictor), n)
	}
	if err := pr.Valid(); err != nil {
		return nil, err
	}
	if _, err := ParseCriterion(string(criterion)); err != nil {
		return nil, err
	}

	ps := &ParameterSet{
		Betaweight: uniform(c, pr.BetaweightLower, pr.BetaweightUpper),
		BoundSdev:  uniform(c, pr.BoundSdevLower, pr.BoundSdevUpper),
		DriftSdev:  uniform(c, pr.DriftSdevLower, pr.DriftSdevUpper),
		NondtSdev:  uniform(c, pr.NondtSdevLower, pr.NondtSdevUpper),
	}
	var err error
	if ps.BoundMean, err = truncNormal(c, pr.BoundMeanMean, pr.BoundMeanSdev, boundLo, boundHi); err != nil {
		return nil, errs.Wrap(err, "bound_mean")
	}
	if ps.DriftMean, err = truncNormal(c, pr.DriftMeanMean, pr.DriftMeanSdev, driftLo, driftHi); err != nil {
		return nil, errs.Wrap(err, "drift_mean")
	}
	if ps.NondtMean, err = truncNormal(c, pr.NondtMeanMean, pr.NondtMeanSdev, nondtLo, math.Inf(1)); err != nil {
		return nil, errs.Wrap(err, "nondt_mean")
	}

	ps.Bound = make([]float64, n)
	ps.Drift = make([]float64, n)
	ps.Nondt = make([]float64, n)
	for p := 0; p < n; p++ {
		var x float64
		if len(predictor) > 0 {
			x = predictor[p]
		}
		shift := func(cr Criterion) float64 {
			if criterion == cr {
				return ps.Betaweight * x
			}
			return 0
		}
		if ps.Bound[p], err = truncNormal(c, ps.BoundMean+shift(CriterionBound), ps.BoundSdev, boundLo, boundHi); err != nil {
			return nil, errs.WrapWithExtra(err, "bound", fmt.Sprintf("person=%d", p))
		}
		if ps.Drift[p], err = truncNormal(c, ps.DriftMean+shift(CriterionDrift), ps.DriftSdev, driftLo, driftHi); err != nil {
			return nil, errs.WrapWithExtra(err, "drift", fmt.Sprintf("person=%d", p))
		}
		if ps.Nondt[p], err = truncNormal(c, ps.NondtMean+shift(CriterionNondt), ps.NondtSdev, nondtLo, math.Inf(1)); err != nil {
			return nil, errs.WrapWithExtra(err, "nondt", fmt.Sprintf("person=%d", p))
		}
	}
	return ps, nil
}

// Sub 逐欄相減（估計值 - 真值），個人參數長度不同時略過。
func (ps *ParameterSet) Sub(o *ParameterSet) *ParameterSet {
	if ps == nil || o == nil {
		return nil
	}
	d := &ParameterSet{
		Betaweight: ps.Betaweight - o.Betaweight,
		BoundMean:  ps.BoundMean - o.BoundMean,
		BoundSdev:  ps.BoundSdev - o.BoundSdev,
		DriftMean:  ps.DriftMean - o.DriftMean,
		DriftSdev:  ps.DriftSdev - o.DriftSdev,
		NondtMean:  ps.NondtMean - o.NondtMean,
		NondtSdev:  ps.NondtSdev - o.NondtSdev,
	}
	d.Bound = subSlice(ps.Bound, o.Bound)
	d.Drift = subSlice(ps.Drift, o.Drift)
	d.Nondt = subSlice(ps.Nondt, o.Nondt)
	return d
}

func subSlice(a, b []float64) []float64 {
	if len(a) == 0 || len(a) != len(b) {
		return nil
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func uniform(c *core.Core, lo, hi float64) float64 {
	if lo == hi {
		return lo
	}
	return distuv.Uniform{Min: lo, Max: hi, Src: c}.Rand()
}

// truncNormal 以拒絕法從 N(mu, sigma) 抽出落在 (lo, hi) 的值；sigma == 0 時直接檢查 mu。
func truncNormal(c *core.Core, mu, sigma, lo, hi float64) (float64, error) {
	if sigma == 0 {
		if mu > lo && mu < hi {
			return mu, nil
		}
		return 0, errs.Warnf("mean %g outside (%g, %g) with zero sdev", mu, lo, hi)
	}
	n := distuv.Normal{Mu: mu, Sigma: sigma, Src: c}
	for i := 0; i < maxTruncDraws; i++ {
		if v := n.Rand(); v > lo && v < hi {
			return v, nil
		}
	}
	return 0, errs.Warnf("truncated normal N(%g, %g) on (%g, %g) rejected %d draws", mu, sigma, lo, hi, maxTruncDraws)
}

// PredictorTTest 兩組設計：X[p] = p mod 2
func PredictorTTest(n int) []float64 {
	x := make([]float64, max(0, n))
	for p := range x {
		x[p] = float64(p % 2)
	}
	return x
}

// PredictorLinReg 線性設計：X[p] = p / n
func PredictorLinReg(n int) []float64 {
	x := make([]float64, max(0, n))
	for p := range x {
		x[p] = float64(p) / float64(n)
	}
	return x
}
