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

	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/stats"
)

// DrawRecorder 抽樣紀錄員
//
// DrawRecorder 以串流方式累積帶符號的首達時間（只做加總），並透過 Done 輸出統計報表。
// 一個 DrawRecorder 只給一個 goroutine 使用；平行模擬時每個 worker 各一個，最後 Merge。
type DrawRecorder struct {
	Name   string
	Params wiener.Params
	Basic  *BasicRecord
	Dist   *DistRecord
	mu     float64 // 理論平均擴散時間，作為區間單位
}

// BasicRecord 基本紀錄
type BasicRecord struct {
	Draws      int
	Upper      int
	Lower      int
	SumRT      float64
	SumRTSq    float64 // 平方和
	SumUpperRT float64
	SumLowerRT float64
	// 各邊界的平方和，用於條件變異數（EZ 統計量）
	SumUpperRTSq float64
	SumLowerRTSq float64
	MinRT        float64
	MaxRT        float64
}

// DistRecord 決策時間區間落點
type DistRecord struct {
	UpperCollect []int
	LowerCollect []int
}

func NewDrawRecorder(name string, p wiener.Params) *DrawRecorder {
	return &DrawRecorder{
		Name:   name,
		Params: p,
		Basic:  &BasicRecord{MinRT: math.Inf(1), MaxRT: math.Inf(-1)},
		Dist:   newDistRecord(),
		mu:     stats.NewTheory(p.A, p.T0, p.B, p.D).MeanDT,
	}
}

// MergeDrawRecorder 合併多個 worker 的紀錄；參數必須一致。
func MergeDrawRecorder(r []*DrawRecorder) (*DrawRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge draw record err : empty recorders")
	}
	r0 := r[0]
	s := NewDrawRecorder(r0.Name, r0.Params)
	for _, v := range r {
		if v.Params != r0.Params {
			return s, errs.NewFatal("merge draw record err : different params")
		}
		b := v.Basic
		s.Basic.Draws += b.Draws
		s.Basic.Upper += b.Upper
		s.Basic.Lower += b.Lower
		s.Basic.SumRT += b.SumRT
		s.Basic.SumRTSq += b.SumRTSq
		s.Basic.SumUpperRT += b.SumUpperRT
		s.Basic.SumLowerRT += b.SumLowerRT
		s.Basic.SumUpperRTSq += b.SumUpperRTSq
		s.Basic.SumLowerRTSq += b.SumLowerRTSq
		s.Basic.MinRT = math.Min(s.Basic.MinRT, b.MinRT)
		s.Basic.MaxRT = math.Max(s.Basic.MaxRT, b.MaxRT)
		for i := range v.Dist.UpperCollect {
			s.Dist.UpperCollect[i] += v.Dist.UpperCollect[i]
			s.Dist.LowerCollect[i] += v.Dist.LowerCollect[i]
		}
	}
	return s, nil
}

// Record 紀錄一個帶符號的首達時間（正 = 上邊界）
func (s *DrawRecorder) Record(y float64) {
	rt := math.Abs(y)
	b := s.Basic
	b.Draws++
	b.SumRT += rt
	b.SumRTSq += rt * rt
	if rt < b.MinRT {
		b.MinRT = rt
	}
	if rt > b.MaxRT {
		b.MaxRT = rt
	}

	idx := stats.Buckets.Index(rt-s.Params.T0, s.mu)
	if y > 0 {
		b.Upper++
		b.SumUpperRT += rt
		b.SumUpperRTSq += rt * rt
		s.Dist.UpperCollect[idx]++
		return
	}
	b.Lower++
	b.SumLowerRT += rt
	b.SumLowerRTSq += rt * rt
	s.Dist.LowerCollect[idx]++
}

// RecordAll 依序紀錄整批結果
func (s *DrawRecorder) RecordAll(ys []float64) {
	for _, y := range ys {
		s.Record(y)
	}
}

// Done 產出報表（已呼叫 StatReport.Done）
func (s *DrawRecorder) Done() *stats.StatReport {
	b := s.Basic
	minRT, maxRT := b.MinRT, b.MaxRT
	if b.Draws == 0 {
		minRT, maxRT = 0, 0
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			Name:  s.Name,
			A:     s.Params.A,
			T0:    s.Params.T0,
			B:     s.Params.B,
			D:     s.Params.D,
			Draws: b.Draws,
			Upper: b.Upper,
			Lower: b.Lower,
			MinRT: minRT,
			MaxRT: maxRT,
		},
		Moment: &stats.MomentReport{
			SumRT:        b.SumRT,
			SumRTSq:      b.SumRTSq,
			SumUpperRT:   b.SumUpperRT,
			SumLowerRT:   b.SumLowerRT,
			SumUpperRTSq: b.SumUpperRTSq,
			SumLowerRTSq: b.SumLowerRTSq,
		},
		Dist: &stats.DistReport{
			Bucket:       stats.Buckets.Labels(),
			UpperCollect: append([]int(nil), s.Dist.UpperCollect...),
			LowerCollect: append([]int(nil), s.Dist.LowerCollect...),
		},
	}
	report.Done()
	return report
}

func newDistRecord() *DistRecord {
	return &DistRecord{
		UpperCollect: make([]int, stats.Buckets.Len()),
		LowerCollect: make([]int, stats.Buckets.Len()),
	}
}
