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

package recorder

import (
	"math"
	"testing"

	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

func TestRecordAndDone(t *testing.T) {
	p := wiener.Params{A: 1, T0: 0.2, B: 0.5}
	r := NewDrawRecorder("demo", p)
	r.RecordAll([]float64{0.4, -0.5, 0.6, -0.3, 1.9})

	rep := r.Done()
	sm := rep.Summary
	if sm.Draws != 5 || sm.Upper != 3 || sm.Lower != 2 {
		t.Fatalf("unexpected counts: %+v", sm)
	}
	if sm.MinRT != 0.3 || sm.MaxRT != 1.9 {
		t.Fatalf("unexpected min/max: %v %v", sm.MinRT, sm.MaxRT)
	}
	// 上邊界 {0.4, 0.6, 1.9}、下邊界 {0.5, 0.3} 的母體變異數
	if math.Abs(sm.VarUpperRT-0.4422222222222222) > 1e-12 || math.Abs(sm.VarLowerRT-0.01) > 1e-12 {
		t.Fatalf("unexpected per-boundary variance: %v %v", sm.VarUpperRT, sm.VarLowerRT)
	}
	total := 0
	for i := range rep.Dist.UpperCollect {
		total += rep.Dist.UpperCollect[i] + rep.Dist.LowerCollect[i]
	}
	if total != 5 {
		t.Fatalf("bucket total want 5, got %d", total)
	}
	// dt=1.7 以理論平均 0.25 為單位是 6.8μ，落在最後一格
	last := len(rep.Dist.UpperCollect) - 1
	if rep.Dist.UpperCollect[last] != 1 {
		t.Fatalf("expected 1 draw in last upper bucket: %v", rep.Dist.UpperCollect)
	}
	if rep.Theory == nil || math.Abs(rep.Theory.MeanRT-0.45) > 1e-12 {
		t.Fatalf("theory not attached: %+v", rep.Theory)
	}
}

func TestEmptyRecorder(t *testing.T) {
	rep := NewDrawRecorder("empty", wiener.Params{A: 1, B: 0.5}).Done()
	if rep.Summary.MinRT != 0 || rep.Summary.MaxRT != 0 {
		t.Fatalf("empty recorder must report zero min/max")
	}
}

func TestMerge(t *testing.T) {
	p := wiener.Params{A: 1.5, T0: 0.3, B: 0.4, D: 1.2}
	a := NewDrawRecorder("m", p)
	b := NewDrawRecorder("m", p)
	all := NewDrawRecorder("m", p)
	xs := []float64{0.5, -0.8, 1.1}
	ys := []float64{0.35, 0.9, -2.4, 0.7}
	a.RecordAll(xs)
	b.RecordAll(ys)
	all.RecordAll(xs)
	all.RecordAll(ys)

	m, err := MergeDrawRecorder([]*DrawRecorder{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Basic.Draws != all.Basic.Draws || m.Basic.Upper != all.Basic.Upper {
		t.Fatalf("merged counts mismatch: %+v vs %+v", m.Basic, all.Basic)
	}
	if math.Abs(m.Basic.SumUpperRTSq-all.Basic.SumUpperRTSq) > 1e-12 || math.Abs(m.Basic.SumLowerRTSq-all.Basic.SumLowerRTSq) > 1e-12 {
		t.Fatalf("merged per-boundary squares mismatch: %+v", m.Basic)
	}
	if math.Abs(m.Basic.SumRT-all.Basic.SumRT) > 1e-12 || m.Basic.MaxRT != 2.4 || m.Basic.MinRT != 0.35 {
		t.Fatalf("merged sums mismatch: %+v", m.Basic)
	}
	for i := range all.Dist.UpperCollect {
		if m.Dist.UpperCollect[i] != all.Dist.UpperCollect[i] || m.Dist.LowerCollect[i] != all.Dist.LowerCollect[i] {
			t.Fatalf("merged buckets mismatch at %d", i)
		}
	}

	other := NewDrawRecorder("m", wiener.Params{A: 2})
	if _, err := MergeDrawRecorder([]*DrawRecorder{a, other}); err == nil {
		t.Fatalf("expected params mismatch error")
	}
	if _, err := MergeDrawRecorder(nil); err == nil {
		t.Fatalf("expected empty error")
	}
}
