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
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/wdmlab/catalog"
	"github.com/zintix-labs/wdmlab/dto"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/recorder"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/spec"
	"github.com/zintix-labs/wdmlab/stats"
)

// DefaultMaxDraws 單次請求預設的抽樣上限
const DefaultMaxDraws = 1_000_000

// ErrClosed Runtime 或 SamplerPool 已關閉（可用 errors.Is 判斷）。
var ErrClosed = errs.NewFatal("runtime closed")

// Runtime 對外服務的資料平面：解析請求、借出 Sampler、組裝回應。
type Runtime struct {
	lab      *Lab
	pool     *SamplerPool
	lim      wiener.Limits
	maxDraws int

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// RuntimeMetrics Runtime 的觀測快照
type RuntimeMetrics struct {
	Closed      bool               `json:"closed"`
	CloseReason string             `json:"close_reason"`
	MaxDraws    int                `json:"max_draws"`
	Limits      wiener.Limits      `json:"limits"`
	Pool        SamplerPoolMetrics `json:"pool"`
}

// Sample 依請求抽樣。
//
// 串流來源：start_state 有值時從快照還原；seed 有值時以該 seed 新建；
// 兩者皆無時由 SamplerPool 提供（伺服器端持續推進的串流）。
func (rt *Runtime) Sample(ctx context.Context, req *dto.SampleRequest) (dto.SampleResult, error) {
	if err := rt.check(ctx); err != nil {
		return dto.SampleResult{}, err
	}
	if req == nil {
		return dto.SampleResult{}, errs.NewWarn("nil request")
	}
	_, p, err := rt.resolve(req.Preset, req.Params)
	if err != nil {
		return dto.SampleResult{}, err
	}
	if err := rt.checkN(req.N); err != nil {
		return dto.SampleResult{}, err
	}
	snap, err := req.StartSnapshot()
	if err != nil {
		return dto.SampleResult{}, err
	}

	var out SampleBatch
	switch {
	case snap != nil:
		s, err := newSamplerFromSnapshot(rt.lab.cf, snap, rt.lim)
		if err != nil {
			return dto.SampleResult{}, errs.WrapLv(errs.Warn, err, "invalid start_state")
		}
		out, err = s.Run(ctx, p, req.N)
		if err != nil {
			return dto.SampleResult{}, err
		}
	case req.Seed != nil:
		out, err = newSamplerWithSeed(rt.lab.cf, *req.Seed, rt.lim).Run(ctx, p, req.N)
		if err != nil {
			return dto.SampleResult{}, err
		}
	default:
		out, err = rt.pool.Sample(ctx, p, req.N)
		if err != nil {
			return dto.SampleResult{}, err
		}
	}
	return dto.NewSampleResult(p, out.Draws, req.Encoding, out.Start, out.After, out.Trace)
}

// Sim 平行模擬並回傳統計報表（不含原始抽樣）。
//
// workers 會被限制在 [1, GOMAXPROCS]；未帶 seed 時以 crypto/rand 產生。
func (rt *Runtime) Sim(ctx context.Context, req *dto.SimRequest) (*stats.StatReport, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errs.NewWarn("nil request")
	}
	name, p, err := rt.resolve(req.Preset, req.Params)
	if err != nil {
		return nil, err
	}
	if err := rt.checkN(req.N); err != nil {
		return nil, err
	}
	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else if seed, err = cryptoSeed(); err != nil {
		return nil, err
	}
	workers := min(max(1, req.Workers), runtime.GOMAXPROCS(0))

	sim := newSimulatorWithSeed(name, p, rt.lim, rt.lab.cf, seed)
	report, draws, _, err := sim.SimMPContext(ctx, req.N, workers, false)
	if err != nil {
		return nil, err
	}
	if req.Quantiles {
		report.AttachQuantiles(draws)
	}
	return report, nil
}

// Stat 對呼叫端自帶的抽樣結果產生統計報表（含理論值對照）。
func (rt *Runtime) Stat(req *dto.StatRequest) (*stats.StatReport, error) {
	if req == nil {
		return nil, errs.NewWarn("nil request")
	}
	ys, err := req.Values(rt.maxDraws)
	if err != nil {
		return nil, errs.WrapLv(errs.Warn, err, "invalid draws")
	}
	if len(ys) == 0 {
		return nil, errs.NewWarn("draws required")
	}
	name := req.Name
	if name == "" {
		name = "posted"
	}
	r := recorder.NewDrawRecorder(name, req.Params)
	r.RecordAll(ys)
	report := r.Done()
	report.AttachQuantiles(ys)
	return report, nil
}

// Design 模擬一個階層式實驗設計並回傳每位受試者的 EZ 統計量。
//
// 總試驗數 participants*trials 受 maxDraws 限制；伺服器的 Limits 套用到每一次抽樣。
func (rt *Runtime) Design(ctx context.Context, req *dto.DesignRequest) (*dto.DesignResult, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errs.NewWarn("nil request")
	}
	if req.Participants < 1 || req.Trials < 1 {
		return nil, errs.NewWarn("participants and trials must > 0")
	}
	if req.Participants > rt.maxDraws/req.Trials {
		return nil, errs.Warnf("participants*trials must <= %d", rt.maxDraws)
	}
	d, err := req.Design(rt.lim)
	if err != nil {
		return nil, err
	}
	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else if seed, err = cryptoSeed(); err != nil {
		return nil, err
	}
	ds, err := d.Simulate(ctx, rt.lab.cf, seed)
	if err != nil {
		return nil, err
	}
	return dto.NewDesignResult(ds), nil
}

// Presets 列出所有 preset
func (rt *Runtime) Presets() ([]catalog.Summary, error) {
	return rt.lab.Summary()
}

func (rt *Runtime) Metrics() RuntimeMetrics {
	return RuntimeMetrics{
		Closed:      rt.Closed(),
		CloseReason: rt.ClosedReason(),
		MaxDraws:    rt.maxDraws,
		Limits:      rt.lim,
		Pool:        rt.pool.Metrics(),
	}
}

func (rt *Runtime) MaxDraws() int { return rt.maxDraws }

// Close 關閉 Runtime 與其 SamplerPool，可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		rt.pool.closeWithReason(reason)
	})
}

// Done 在 Runtime 關閉時被 close
func (rt *Runtime) Done() <-chan struct{} {
	return rt.done
}

func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (rt *Runtime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.WrapLv(errs.Warn, ctx.Err(), "request canceled/timeout")
	case <-rt.done:
		return errs.WrapWithExtra(ErrClosed, "runtime unavailable", rt.ClosedReason())
	default:
		return nil
	}
}

func (rt *Runtime) checkN(n int) error {
	if n < 1 {
		return errs.NewWarn("n must > 0")
	}
	if n > rt.maxDraws {
		return errs.Warnf("n must <= %d", rt.maxDraws)
	}
	return nil
}

// resolve 取得請求的參數：preset 與自帶參數二選一。
func (rt *Runtime) resolve(id spec.PID, p *wiener.Params) (string, wiener.Params, error) {
	switch {
	case id != 0 && p != nil:
		return "", wiener.Params{}, errs.NewWarn("preset and params are mutually exclusive")
	case p != nil:
		return "custom", *p, nil
	case id != 0:
		ps, err := rt.lab.PresetByID(id)
		if err != nil {
			return "", wiener.Params{}, err
		}
		return ps.Name, ps.Params, nil
	default:
		return "", wiener.Params{}, errs.NewWarn("preset or params required")
	}
}
