package design

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
)

func TestDefaultPriorValid(t *testing.T) {
	require.NoError(t, DefaultPrior().Valid())

	bad := DefaultPrior()
	bad.DriftSdevLower, bad.DriftSdevUpper = 0.5, 0.2
	assert.True(t, errs.IsWarn(bad.Valid()))

	bad = DefaultPrior()
	bad.BoundMeanSdev = 0
	assert.Error(t, bad.Valid())
}

func TestParseCriterion(t *testing.T) {
	for _, s := range []string{"", "bound", "drift", "nondt"} {
		c, err := ParseCriterion(s)
		require.NoError(t, err)
		assert.Equal(t, Criterion(s), c)
	}
	_, err := ParseCriterion("speed")
	assert.Error(t, err)
}

func TestSampleParametersTruncation(t *testing.T) {
	c := core.NewWithSeed(core.Default(), 21)
	ps, err := SampleParameters(DefaultPrior(), 500, CriterionDrift, PredictorTTest(500), c)
	require.NoError(t, err)
	require.Len(t, ps.Bound, 500)
	for p := range ps.Bound {
		assert.True(t, ps.Bound[p] > boundLo && ps.Bound[p] < boundHi, "bound[%d]=%v", p, ps.Bound[p])
		assert.True(t, ps.Drift[p] > driftLo && ps.Drift[p] < driftHi, "drift[%d]=%v", p, ps.Drift[p])
		assert.Greater(t, ps.Nondt[p], nondtLo)
	}
	assert.GreaterOrEqual(t, ps.Betaweight, 0.0)
	assert.LessOrEqual(t, ps.Betaweight, 1.0)
	assert.True(t, ps.BoundSdev >= 0.1 && ps.BoundSdev <= 0.4)
	assert.True(t, ps.NondtSdev >= 0.05 && ps.NondtSdev <= 0.25)

	// 同一 seed 結果固定
	again, err := SampleParameters(DefaultPrior(), 500, CriterionDrift, PredictorTTest(500), core.NewWithSeed(core.Default(), 21))
	require.NoError(t, err)
	assert.Equal(t, ps, again)
}

func TestSampleParametersPredictorShift(t *testing.T) {
	pr := DefaultPrior()
	// 個人層與 betaweight 都固定，只剩 predictor 的效果
	pr.BetaweightLower, pr.BetaweightUpper = 0.8, 0.8
	pr.DriftSdevLower, pr.DriftSdevUpper = 0, 0
	pr.BoundSdevLower, pr.BoundSdevUpper = 0, 0
	pr.NondtSdevLower, pr.NondtSdevUpper = 0, 0

	ps, err := SampleParameters(pr, 4, CriterionDrift, PredictorTTest(4), core.NewWithSeed(nil, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.8, ps.Betaweight)
	assert.InDelta(t, ps.DriftMean, ps.Drift[0], 1e-12)
	assert.InDelta(t, ps.DriftMean+0.8, ps.Drift[1], 1e-12)
	assert.InDelta(t, ps.BoundMean, ps.Bound[1], 1e-12)
	assert.InDelta(t, ps.NondtMean, ps.Nondt[1], 1e-12)

	_, err = SampleParameters(pr, 4, CriterionDrift, []float64{1}, core.NewWithSeed(nil, 3))
	assert.Error(t, err)
}

func TestTruncNormalImpossible(t *testing.T) {
	_, err := truncNormal(core.NewWithSeed(nil, 1), 100, 0.01, 0, 1)
	require.Error(t, err)
	assert.True(t, errs.IsWarn(err))
}

func TestPredictors(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 0, 1}, PredictorTTest(4))
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75}, PredictorLinReg(4))
}

func TestParameterSetSub(t *testing.T) {
	a := &ParameterSet{Betaweight: 0.5, Bound: []float64{1, 2}}
	b := &ParameterSet{Betaweight: 0.2, Bound: []float64{0.5, 0.5}}
	d := a.Sub(b)
	assert.InDelta(t, 0.3, d.Betaweight, 1e-12)
	assert.Equal(t, []float64{0.5, 1.5}, d.Bound)
	assert.Nil(t, d.Drift)
	assert.Nil(t, a.Sub(nil))
}

func TestSimulateDeterministicAndSummary(t *testing.T) {
	d := &Design{Participants: 6, Trials: 200, Prior: DefaultPrior(), Criterion: CriterionDrift, Predictor: PredictorTTest(6)}
	ds, err := d.Simulate(context.Background(), core.Default(), 77)
	require.NoError(t, err)
	require.Len(t, ds.Persons, 6)

	again, err := d.Simulate(context.Background(), core.Default(), 77)
	require.NoError(t, err)
	for p := range ds.Persons {
		assert.Equal(t, ds.Persons[p].Draws, again.Persons[p].Draws)
	}

	sum := ds.Summary()
	require.Len(t, sum, 6)
	for i, s := range sum {
		p := ds.Persons[i]
		assert.Equal(t, 200, s.Trials)
		assert.Greater(t, s.Correct, 0)
		assert.InDelta(t, float64(s.Correct)/200, s.Accuracy, 1e-12)
		assert.Equal(t, s.Correct > 1, s.Usable)
		assert.Equal(t, 0.5, p.Params.B)
		// 正確反應時間一定不小於非決策時間
		assert.GreaterOrEqual(t, s.MeanRT, p.Params.T0)
		assert.False(t, math.IsNaN(s.Predicted.MRT) || math.IsNaN(s.Predicted.VRT))
	}
	assert.Equal(t, 6*200+redrawDraws(ds, 200), ds.Trace.Draws)
}

func redrawDraws(ds *Dataset, trials int) int {
	n := 0
	for _, p := range ds.Persons {
		n += p.Redraws * trials
	}
	return n
}

// 個人參數固定時，EZ 統計量應接近前向方程的預測
func TestSummaryMatchesEZPrediction(t *testing.T) {
	pr := DefaultPrior()
	pr.BoundMeanMean, pr.BoundMeanSdev = 1.2, 1e-9
	pr.DriftMeanMean, pr.DriftMeanSdev = 0.8, 1e-9
	pr.NondtMeanMean, pr.NondtMeanSdev = 0.3, 1e-9
	pr.BoundSdevLower, pr.BoundSdevUpper = 0, 0
	pr.DriftSdevLower, pr.DriftSdevUpper = 0, 0
	pr.NondtSdevLower, pr.NondtSdevUpper = 0, 0

	d := &Design{Participants: 2, Trials: 40000, Prior: pr}
	ds, err := d.Simulate(context.Background(), core.Default(), 5)
	require.NoError(t, err)
	for _, s := range ds.Summary() {
		ez := s.Predicted
		assert.InDelta(t, ez.Pc, s.Accuracy, 0.01)
		assert.InEpsilon(t, ez.MRT, s.MeanRT, 0.02)
		assert.InEpsilon(t, ez.VRT, s.VarRT, 0.08)
	}
}

func TestSimulateValidation(t *testing.T) {
	_, err := (&Design{Participants: 0, Trials: 10, Prior: DefaultPrior()}).Simulate(context.Background(), nil, 1)
	assert.Error(t, err)
	_, err = (&Design{Participants: 2, Trials: 10, Prior: DefaultPrior(), Predictor: []float64{1}}).Simulate(context.Background(), nil, 1)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Design{Participants: 2, Trials: 10, Prior: DefaultPrior()}).Simulate(ctx, nil, 1)
	require.Error(t, err)
	assert.True(t, errs.IsWarn(err))
}
