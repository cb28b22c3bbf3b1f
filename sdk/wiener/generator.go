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

package wiener

import (
	"fmt"
	"math"

	"github.com/zintix-labs/wdmlab/errs"
)

// ErrNonConvergence 觸發 Limits 任一上限時回傳（可用 errors.Is 判斷）。
var ErrNonConvergence = errs.NewWarn("wiener: iteration limit reached")

// Limits 迴圈安全上限，0 表示不限制。
//
// 演算法本身沒有任何上限：極端參數下級數或拒絕迴圈可能跑非常久。
// 對外服務（server）建議設定上限，把「可能不終止」轉成可回報的錯誤。
type Limits struct {
	// 單次抽樣的子區間數
	MaxSubintervals int `json:"max_subintervals" yaml:"max_subintervals"`
	// 單一子區間的拒絕採樣次數
	MaxTrials int `json:"max_trials" yaml:"max_trials"`
	// 單次級數評估的項數
	MaxTerms int `json:"max_terms" yaml:"max_terms"`
}

// Unlimited 回報是否完全沒有上限。
func (l Limits) Unlimited() bool {
	return l.MaxSubintervals <= 0 && l.MaxTrials <= 0 && l.MaxTerms <= 0
}

// Generator 單次抽樣產生器，持有 Limits 與診斷計數 Trace。
//
// 零值即可使用（無上限）。Generator 不是併發安全的：每個 goroutine 各自持有一個。
type Generator struct {
	lim   Limits
	trace Trace
}

// NewGenerator 以指定上限建立 Generator。
func NewGenerator(lim Limits) *Generator {
	return &Generator{lim: lim}
}

// Limits 回傳目前的上限設定
func (g *Generator) Limits() Limits { return g.lim }

// Trace 回傳目前累積的診斷計數快照
func (g *Generator) Trace() Trace { return g.trace }

// ResetTrace 清空診斷計數
func (g *Generator) ResetTrace() { g.trace = Trace{} }

// Draw 抽出一個首達時間。
//
// 狀態機：INIT -> { SUBINTERVAL_SETUP -> REJECTION_SAMPLE -> SUBINTERVAL_RESOLVE }* -> ABSORBED。
// 亂數消耗順序固定：每個子區間先一個方向亂數，再成對的 (s1, s2)。
// 只有在設定了 Limits 且觸發時才會回傳錯誤。
func (g *Generator) Draw(rng Uniform, p Params) (float64, error) {
	v := p.D / scale
	geo := p.Geometry()
	total := 0.0
	g.trace.Draws++

	for n := 1; ; n++ {
		if g.lim.MaxSubintervals > 0 && n > g.lim.MaxSubintervals {
			return 0, errs.WrapWithExtra(ErrNonConvergence, "too many subintervals", fmt.Sprintf("limit=%d", g.lim.MaxSubintervals))
		}
		g.trace.Subintervals++

		si := newSubinterval(geo.Radius, v)
		dir := si.direction(rng)
		s1, err := g.reject(rng, si.f)
		if err != nil {
			return 0, err
		}
		total += math.Abs(math.Log(s1)) / si.lambda

		switch geo.resolve(dir) {
		case absorbedUpper:
			g.trace.Upper++
			return total + p.T0, nil
		case absorbedLower:
			g.trace.Lower++
			return -(total + p.T0), nil
		}
	}
}

// reject 反覆抽 (s1, s2) 直到 s2 <= l(s1)，回傳被接受的 s1。
func (g *Generator) reject(rng Uniform, f float64) (float64, error) {
	for n := 1; ; n++ {
		if g.lim.MaxTrials > 0 && n > g.lim.MaxTrials {
			return 0, errs.WrapWithExtra(ErrNonConvergence, "too many rejection trials", fmt.Sprintf("limit=%d F=%g", g.lim.MaxTrials, f))
		}
		s1 := uniformLo + uniformSpan*rng.Float64()
		s2 := uniformLo + uniformSpan*rng.Float64()
		g.trace.Trials++

		l, terms, ok := seriesBound(s1, f, g.lim.MaxTerms)
		g.trace.addTerms(terms)
		if !ok {
			return 0, errs.WrapWithExtra(ErrNonConvergence, "series did not converge", fmt.Sprintf("limit=%d F=%g s1=%g", g.lim.MaxTerms, f, s1))
		}
		if s2 <= l {
			g.trace.Accepted++
			return s1, nil
		}
	}
}

// Fill 依序填滿 dst；遇到錯誤立即停止，dst 中已寫入的部分保留。
func (g *Generator) Fill(rng Uniform, p Params, dst []float64) error {
	for i := range dst {
		v, err := g.Draw(rng, p)
		if err != nil {
			return errs.WrapWithExtra(err, "batch draw failed", fmt.Sprintf("index=%d", i))
		}
		dst[i] = v
	}
	return nil
}

// GenerateOne 以無上限的 Generator 抽出一個首達時間。
func GenerateOne(rng Uniform, p Params) float64 {
	var g Generator
	v, _ := g.Draw(rng, p)
	return v
}

// GenerateBatch 配置剛好 n 格的切片並依序填滿。
//
// 回傳的切片所有權完全交給呼叫端，本包不保留任何引用。n <= 0 回傳長度 0 的切片。
func GenerateBatch(rng Uniform, p Params, n int) []float64 {
	y := make([]float64, max(0, n))
	var g Generator
	_ = g.Fill(rng, p, y)
	return y
}
