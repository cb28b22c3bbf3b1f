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
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

// ctxCheckEvery Generate 每抽這麼多筆檢查一次 context。
const ctxCheckEvery = 1024

// Sampler 封裝一條可重現的亂數串流與首達時間產生器。
//
// 參數（wiener.Params）由每次呼叫帶入，Sampler 只持有 RNG 狀態、上限與累積的診斷計數。
// 同一台 Sampler 內部以 mutex 序列化；要併發請建立多台（或使用 SamplerPool）。
type Sampler struct {
	core     *core.Core    // RNG 核心
	lim      wiener.Limits // 迴圈上限
	trace    wiener.Trace  // 累積診斷計數
	mu       sync.Mutex    // 保護 core 與 trace
	initseed int64         // 出生 seed（完整重現請用 Snapshot/Restore）
}

// cryptoSeed 以 crypto/rand 產生非負 seed（對外服務用，避免可預測串流）。
func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}

func newSamplerWithSeed(cf core.PRNGFactory, seed int64, lim wiener.Limits) *Sampler {
	return &Sampler{
		core:     core.NewWithSeed(cf, seed),
		lim:      lim,
		initseed: seed,
	}
}

// newSamplerFromSnapshot 由 PRNG 快照還原 Sampler，用於回放或續抽。
func newSamplerFromSnapshot(cf core.PRNGFactory, snap []byte, lim wiener.Limits) (*Sampler, error) {
	s := newSamplerWithSeed(cf, 0, lim)
	if err := s.core.Restore(snap); err != nil {
		return nil, errs.Wrap(err, "restore sampler core failed")
	}
	return s, nil
}

// Draw 抽出一個首達時間。
func (s *Sampler) Draw(p wiener.Params) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := wiener.NewGenerator(s.lim)
	v, err := g.Draw(s.core, p)
	s.trace.Add(g.Trace())
	return v, err
}

// Batch 抽出 n 個首達時間（n <= 0 回傳長度 0 的切片）。
func (s *Sampler) Batch(p wiener.Params, n int) ([]float64, error) {
	y := make([]float64, max(0, n))
	if err := s.Fill(p, y); err != nil {
		return nil, err
	}
	return y, nil
}

// Fill 依序填滿 dst。
func (s *Sampler) Fill(p wiener.Params, dst []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := wiener.NewGenerator(s.lim)
	err := g.Fill(s.core, p, dst)
	s.trace.Add(g.Trace())
	return err
}

// Generate 與 Batch 相同，但每 ctxCheckEvery 筆檢查一次 ctx，
// 讓外部 deadline 能中止大量抽樣。取消時回傳 Warn 等級錯誤（可用 errors.Is 判斷 context 錯誤）。
func (s *Sampler) Generate(ctx context.Context, p wiener.Params, n int) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := wiener.NewGenerator(s.lim)
	defer func() { s.trace.Add(g.Trace()) }()
	return s.generate(ctx, g, p, n)
}

// SampleBatch 一次 Run 的完整輸出：抽樣結果、前後 RNG 快照與本次的診斷計數。
type SampleBatch struct {
	Draws []float64
	Start []byte
	After []byte
	Trace wiener.Trace
}

// Run 與 Generate 相同，另外在同一個臨界區內記錄抽樣前後的 RNG 快照，
// 讓呼叫端可以回放（Start）或續抽（After）。
func (s *Sampler) Run(ctx context.Context, p wiener.Params, n int) (SampleBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out SampleBatch
	start, err := s.core.Snapshot()
	if err != nil {
		return out, errs.Wrap(err, "snapshot sampler core failed")
	}
	g := wiener.NewGenerator(s.lim)
	defer func() { s.trace.Add(g.Trace()) }()
	y, err := s.generate(ctx, g, p, n)
	if err != nil {
		return out, err
	}
	after, err := s.core.Snapshot()
	if err != nil {
		return out, errs.Wrap(err, "snapshot sampler core failed")
	}
	out = SampleBatch{Draws: y, Start: start, After: after, Trace: g.Trace()}
	return out, nil
}

// FillContext 與 Fill 相同，但每 ctxCheckEvery 筆檢查一次 ctx。
func (s *Sampler) FillContext(ctx context.Context, p wiener.Params, dst []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := wiener.NewGenerator(s.lim)
	defer func() { s.trace.Add(g.Trace()) }()
	return s.fill(ctx, g, p, dst)
}

func (s *Sampler) generate(ctx context.Context, g *wiener.Generator, p wiener.Params, n int) ([]float64, error) {
	y := make([]float64, max(0, n))
	if err := s.fill(ctx, g, p, y); err != nil {
		return nil, err
	}
	return y, nil
}

func (s *Sampler) fill(ctx context.Context, g *wiener.Generator, p wiener.Params, dst []float64) error {
	for lo := 0; lo < len(dst); lo += ctxCheckEvery {
		if err := ctx.Err(); err != nil {
			return errs.WrapLv(errs.Warn, err, "sample canceled/timeout")
		}
		hi := min(lo+ctxCheckEvery, len(dst))
		if err := g.Fill(s.core, p, dst[lo:hi]); err != nil {
			return errs.WrapWithExtra(err, "sample failed", fmt.Sprintf("offset=%d", lo))
		}
	}
	return nil
}

// SnapshotCore 回傳目前 RNG 狀態
func (s *Sampler) SnapshotCore() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Snapshot()
}

// RestoreCore 把 RNG 還原到 SnapshotCore 的狀態
func (s *Sampler) RestoreCore(snap []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Restore(snap)
}

// Trace 回傳累積的診斷計數
func (s *Sampler) Trace() wiener.Trace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trace
}

func (s *Sampler) Limits() wiener.Limits { return s.lim }

func (s *Sampler) Seed() int64 { return s.initseed }
