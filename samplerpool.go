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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

// brokenCap broken 通道容量；塞滿代表連續故障，池會自行關閉。
const brokenCap = 100

// SamplerPool 管理對外服務用的 Sampler 實例。
// 它透過兩個通道管理 Sampler 生命週期：
//  1. pool：健康且可用的 Sampler，供 Sample() 借出 / 歸還。
//  2. broken：在運作過程中 panic 或回報 fatal 的 Sampler，送往此通道等待檢查或丟棄。
//
// 壞掉的 Sampler 會立即以新的 seed 補上一台，維持容量。
// 參數由每次請求帶入，所以一個池可以服務所有 preset 與自帶參數的請求。
type SamplerPool struct {
	cf            core.PRNGFactory
	lim           wiener.Limits
	initSeed      int64
	seedMaker     *seedMaker
	pool          chan *Sampler // 可用 Sampler
	broken        chan *Sampler // 壞掉的 Sampler
	done          chan struct{} // 關閉訊號：關閉後不再允許借出/歸還/補機
	closeOnce     sync.Once
	poolsize      int
	rebuild       atomic.Int32 // 補機次數
	inflight      atomic.Int32 // 使用中
	panics        atomic.Int32
	fatals        atomic.Int32 // fatal 次數（串流狀態不可信）
	requests      atomic.Int64 // 成功完成的請求數
	draws         atomic.Int64 // 成功輸出的抽樣總數
	closeReason   atomic.Value // string
	closeInflight atomic.Int32 // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32 // 關閉當下 len(pool)
	closeBroken   atomic.Int32 // 關閉當下 len(broken)
}

// newSamplerPool 建立 n 台（至少 1 台）Sampler 並全部上架。
func newSamplerPool(n int, cf core.PRNGFactory, lim wiener.Limits, seed int64) *SamplerPool {
	n = max(1, n)
	p := &SamplerPool{
		cf:        cf,
		lim:       lim,
		initSeed:  seed,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan *Sampler, n),
		broken:    make(chan *Sampler, brokenCap),
		done:      make(chan struct{}),
		poolsize:  n,
	}
	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	for i := 0; i < n; i++ {
		p.pool <- newSamplerWithSeed(cf, p.seedMaker.next(), lim)
	}
	return p
}

// Close 進入關閉狀態，之後所有 Sample() 直接回 error。
func (p *SamplerPool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *SamplerPool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（只會寫入一次）。
func (p *SamplerPool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
	})
}

// isFatalErr 只有明確宣告 fatal 的錯誤才代表串流狀態不可信。
// Limits 觸發（Warn）與 context 取消都不淘汰 Sampler。
func isFatalErr(err error) bool {
	e, ok := errs.AsErr(err)
	return ok && e.ErrLv == errs.Fatal
}

// Sample 借出一台 Sampler 抽 n 筆後歸還。
func (p *SamplerPool) Sample(ctx context.Context, params wiener.Params, n int) (out SampleBatch, err error) {
	var s *Sampler
	select {
	case <-p.done:
		return out, errs.WrapWithExtra(ErrClosed, "sampler pool closed", p.ClosedReason())
	case <-ctx.Done():
		return out, errs.WrapLv(errs.Warn, ctx.Err(), "sample canceled/timeout")
	case s = <-p.pool:
		p.inflight.Add(1)
	}

	if s == nil {
		return out, errs.NewFatal("sampler pool got nil sampler")
	}

	var isPanic bool

	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("sampler panic : %v", r))
		}

		// 已關閉：直接丟棄，不歸還也不補機
		if p.Closed() {
			return
		}

		if isPanic || isFatalErr(err) {
			if !isPanic {
				p.fatals.Add(1)
			}
			select {
			case p.broken <- s:
			default:
				p.closeWithReason("overwhelmed_by_failures")
				if err == nil {
					err = errs.NewFatal("sampler pool overwhelmed by failures")
				}
				return
			}

			fresh := newSamplerWithSeed(p.cf, p.seedMaker.next(), p.lim)
			p.rebuild.Add(1)
			select {
			case <-p.done:
			case p.pool <- fresh:
			}
			return
		}

		select {
		case <-p.done:
		case p.pool <- s:
		}
	}()

	out, err = s.Run(ctx, params, n)
	if err == nil {
		p.requests.Add(1)
		p.draws.Add(int64(len(out.Draws)))
	}
	return out, err
}

func (p *SamplerPool) PoolSize() int {
	return p.poolsize
}

func (p *SamplerPool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SamplerPoolMetrics 拉取式（pull）觀測快照。
//
// Available/BrokenBacklog 來自 len(chan)，高併發下是近似值。
// Close* 欄位只在關閉時寫入一次（-1 表示尚未關閉）。
type SamplerPoolMetrics struct {
	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"`
	Inflight      int    `json:"inflight"`
	BrokenBacklog int    `json:"broken_backlog"`
	Rebuild       int    `json:"rebuild"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Requests      int64  `json:"requests"`
	Draws         int64  `json:"draws"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`

	CloseInflight int `json:"close_inflight"`
	CloseAvail    int `json:"close_avail"`
	CloseBroken   int `json:"close_broken"`
}

// Metrics 回傳當下的觀測快照。
func (p *SamplerPool) Metrics() SamplerPoolMetrics {
	return SamplerPoolMetrics{
		PoolSize:      p.poolsize,
		Available:     len(p.pool),
		Inflight:      int(p.inflight.Load()),
		BrokenBacklog: len(p.broken),
		Rebuild:       int(p.rebuild.Load()),
		Panics:        int(p.panics.Load()),
		Fatals:        int(p.fatals.Load()),
		Requests:      p.requests.Load(),
		Draws:         p.draws.Load(),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: int(p.closeInflight.Load()),
		CloseAvail:    int(p.closeAvail.Load()),
		CloseBroken:   int(p.closeBroken.Load()),
	}
}
