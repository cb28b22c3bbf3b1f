// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wdmlab

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/wdmlab/corefmt"
	"github.com/zintix-labs/wdmlab/demo/demo_configs"
	"github.com/zintix-labs/wdmlab/dto"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/spec"
)

var symmetric = wiener.Params{A: 1, T0: 0.2, B: 0.5, D: 0}

func newTestLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(core.Default(), Configs(demo_configs.FS))
	require.NoError(t, err)
	return lab
}

func TestNewAutoRegistersDemo(t *testing.T) {
	lab := newTestLab(t)
	assert.Equal(t, []spec.PID{1, 2, 3}, lab.IDs())

	e, ok := lab.EntryByName("Symmetric")
	require.True(t, ok)
	assert.Equal(t, spec.PID(1), e.ID)

	sum, err := lab.Summary()
	require.NoError(t, err)
	require.Len(t, sum, 3)
	assert.Equal(t, symmetric, sum[0].Params)

	_, err = New(nil, Configs(demo_configs.FS))
	assert.Error(t, err)
	_, err = New(core.Default(), nil)
	assert.Error(t, err)
}

func TestSimMatchesGenerateBatch(t *testing.T) {
	lab := newTestLab(t)
	rep, draws, _, err := lab.NewSimulator(symmetric, 7).Sim(3000, false)
	require.NoError(t, err)
	want := wiener.GenerateBatch(core.NewWithSeed(core.Default(), 7), symmetric, 3000)
	assert.Equal(t, want, draws)
	assert.Equal(t, 3000, rep.Summary.Draws)
	assert.InDelta(t, 0.45, rep.Summary.MeanRT, 0.45*0.05)

	_, _, _, err = lab.NewSimulator(symmetric, 7).Sim(0, false)
	assert.True(t, errs.IsWarn(err))
}

func TestSimMPDeterministic(t *testing.T) {
	lab := newTestLab(t)
	sim, err := lab.NewSimulatorByID(2, 11)
	require.NoError(t, err)

	rep1, d1, _, err := sim.SimMP(10000, 4, false)
	require.NoError(t, err)
	rep2, d2, _, err := sim.SimMP(10000, 4, false)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Equal(t, rep1.Summary.Upper, rep2.Summary.Upper)
	assert.Equal(t, 10000, rep1.Summary.Draws)
	assert.Equal(t, 10000, sim.Trace().Draws)
	for i, y := range d1 {
		require.NotZero(t, y, "index %d never written", i)
	}

	// 自帶參數、無上限時與 GenerateBatchMP 一致
	custom := lab.NewSimulator(sim.Params, 11)
	_, d3, _, err := custom.SimMP(10000, 4, false)
	require.NoError(t, err)
	assert.Equal(t, GenerateBatchMP(core.Default(), 11, sim.Params, 10000, 4), d3)

	// workers 多於 n
	_, small, _, err := custom.SimMP(3, 16, false)
	require.NoError(t, err)
	assert.Len(t, small, 3)

	_, _, _, err = custom.SimMP(10, 0, false)
	assert.Error(t, err)
}

func TestGenerateBatchMPEdges(t *testing.T) {
	assert.Len(t, GenerateBatchMP(nil, 1, symmetric, 0, 4), 0)
	assert.Len(t, GenerateBatchMP(nil, 1, symmetric, -2, 4), 0)
	ys := GenerateBatchMP(nil, 1, symmetric, 10, 0)
	assert.Len(t, ys, 10)
}

func TestSimMPContextCanceled(t *testing.T) {
	lab := newTestLab(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := lab.NewSimulator(symmetric, 1).SimMPContext(ctx, 5000, 2, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSimMPLimitError(t *testing.T) {
	lab := newTestLab(t)
	sim := newSimulatorWithSeed("tight", symmetric, wiener.Limits{MaxTerms: 1}, lab.Factory(), 3)
	_, _, _, err := sim.SimMP(5000, 3, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wiener.ErrNonConvergence))
}

func TestSamplerReplay(t *testing.T) {
	lab := newTestLab(t)
	s := lab.NewSampler(5, wiener.Limits{})
	first, err := s.Run(context.Background(), symmetric, 50)
	require.NoError(t, err)
	require.Len(t, first.Draws, 50)
	assert.Equal(t, 50, first.Trace.Draws)

	replay, err := lab.NewSamplerFromSnapshot(first.Start, wiener.Limits{})
	require.NoError(t, err)
	again, err := replay.Batch(symmetric, 50)
	require.NoError(t, err)
	assert.Equal(t, first.Draws, again)

	next, err := s.Batch(symmetric, 10)
	require.NoError(t, err)
	cont, err := lab.NewSamplerFromSnapshot(first.After, wiener.Limits{})
	require.NoError(t, err)
	contDraws, err := cont.Batch(symmetric, 10)
	require.NoError(t, err)
	assert.Equal(t, next, contDraws)

	assert.Equal(t, 60, s.Trace().Draws)
	assert.Equal(t, int64(5), s.Seed())

	_, err = lab.NewSamplerFromSnapshot([]byte{1, 2}, wiener.Limits{})
	assert.Error(t, err)
}

func TestRuntimeSample(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(2, wiener.Limits{MaxSubintervals: 10000, MaxTrials: 100000, MaxTerms: 100000}, 1000)
	require.NoError(t, err)
	defer rt.Close()
	ctx := context.Background()

	res, err := rt.Sample(ctx, &dto.SampleRequest{Preset: 1, N: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, res.N)
	assert.Equal(t, 100, res.Upper+res.Lower)

	seed := int64(42)
	a, err := rt.Sample(ctx, &dto.SampleRequest{Params: &symmetric, N: 20, Seed: &seed})
	require.NoError(t, err)
	b, err := rt.Sample(ctx, &dto.SampleRequest{Params: &symmetric, N: 20, Seed: &seed, Encoding: dto.EncodingBase64})
	require.NoError(t, err)
	bd, err := b.DecodeDraws()
	require.NoError(t, err)
	assert.Equal(t, a.Draws, bd)

	replay, err := rt.Sample(ctx, &dto.SampleRequest{
		Params:     &symmetric,
		N:          20,
		StartState: &dto.StartState{StartCoreSnapB64U: a.State.StartCoreSnapB64U},
	})
	require.NoError(t, err)
	assert.Equal(t, a.Draws, replay.Draws)

	m := rt.Metrics()
	assert.Equal(t, int64(1), m.Pool.Requests)
	assert.Equal(t, int64(100), m.Pool.Draws)
	assert.Equal(t, 2, m.Pool.Available)
}

func TestRuntimeRejects(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(1, wiener.Limits{}, 100)
	require.NoError(t, err)
	ctx := context.Background()

	bad := []*dto.SampleRequest{
		{N: 10},
		{Preset: 1, Params: &symmetric, N: 10},
		{Preset: 99, N: 10},
		{Preset: 1, N: 0},
		{Preset: 1, N: 101},
		{Preset: 1, N: 10, Encoding: "xml"},
		{Preset: 1, N: 10, StartState: &dto.StartState{StartCoreSnapB64U: "!!"}},
	}
	for i, req := range bad {
		_, err := rt.Sample(ctx, req)
		require.Error(t, err, "case %d", i)
		assert.True(t, errs.IsWarn(err), "case %d: %v", i, err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = rt.Sample(canceled, &dto.SampleRequest{Preset: 1, N: 10})
	assert.True(t, errors.Is(err, context.Canceled))

	rt.Close()
	rt.Close()
	assert.True(t, rt.Closed())
	_, err = rt.Sample(ctx, &dto.SampleRequest{Preset: 1, N: 10})
	e, ok := errs.AsErr(err)
	require.True(t, ok)
	assert.Equal(t, errs.Fatal, e.ErrLv)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, rt.Metrics().Pool.Closed)
	select {
	case <-rt.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestRuntimeSimAndStat(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(1, wiener.Limits{}, 50000)
	require.NoError(t, err)
	defer rt.Close()

	seed := int64(3)
	rep, err := rt.Sim(context.Background(), &dto.SimRequest{Preset: 1, N: 20000, Workers: 2, Seed: &seed, Quantiles: true})
	require.NoError(t, err)
	assert.Equal(t, "symmetric", rep.Summary.Name)
	require.NotNil(t, rep.Quantiles)
	assert.InDelta(t, 0.5, rep.Summary.UpperRate, 0.03)

	st, err := rt.Stat(&dto.StatRequest{Params: symmetric, Draws: []float64{0.4, -0.5}})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Summary.Draws)
	assert.Equal(t, "posted", st.Summary.Name)

	_, err = rt.Stat(&dto.StatRequest{Params: symmetric})
	assert.Error(t, err)

	// 高壓縮比的 blob 不能繞過 maxDraws
	blob, err := corefmt.EncodeDraws(make([]float64, 1<<20))
	require.NoError(t, err)
	_, err = rt.Stat(&dto.StatRequest{Params: symmetric, Blob: blob})
	require.Error(t, err)
	assert.True(t, errs.IsWarn(err))
	_, err = rt.Stat(&dto.StatRequest{Params: symmetric, Draws: make([]float64, rt.MaxDraws()+1)})
	require.Error(t, err)
	assert.True(t, errs.IsWarn(err))

	presets, err := rt.Presets()
	require.NoError(t, err)
	assert.Len(t, presets, 3)
}

func TestSeedMaker(t *testing.T) {
	a, b := newSeedMaker(9), newSeedMaker(9)
	seen := map[int64]struct{}{}
	for i := 0; i < 1000; i++ {
		x := a.next()
		require.Equal(t, x, b.next())
		require.GreaterOrEqual(t, x, int64(0))
		seen[x] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestRuntimeDesign(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(1, wiener.Limits{}, 5000)
	require.NoError(t, err)
	defer rt.Close()

	seed := int64(11)
	req := &dto.DesignRequest{Participants: 8, Trials: 50, Criterion: "drift", Predictor: dto.PredictorTTest, Seed: &seed}
	res, err := rt.Design(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, seed, res.Seed)
	require.Len(t, res.Summary, 8)
	require.Len(t, res.Truth.Drift, 8)
	for _, s := range res.Summary {
		assert.Equal(t, 50, s.Trials)
		assert.Greater(t, s.Correct, 0)
	}

	again, err := rt.Design(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, res.Summary, again.Summary)

	_, err = rt.Design(context.Background(), &dto.DesignRequest{Participants: 101, Trials: 50})
	require.Error(t, err)
	assert.True(t, errs.IsWarn(err))
	_, err = rt.Design(context.Background(), &dto.DesignRequest{Participants: 2, Trials: 5, Predictor: "anova"})
	assert.True(t, errs.IsWarn(err))
}
