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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/recorder"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/stats"
)

// Simulator 以一組固定參數大量抽樣並產出統計報表。
//
// 可重現性：同一個 seed 下 Sim 的結果固定；SimMP 的結果由 (seed, workers) 決定。
// 每次呼叫都從 seed 重新派生串流，所以重複呼叫得到相同結果。
type Simulator struct {
	Name     string        // 報表名稱（preset 名稱或自訂）
	Params   wiener.Params // 取樣參數
	lim      wiener.Limits
	cf       core.PRNGFactory
	initSeed int64
	trace    wiener.Trace // 最近一次模擬的診斷計數
}

func newSimulator(name string, p wiener.Params, lim wiener.Limits, cf core.PRNGFactory) (*Simulator, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(name, p, lim, cf, seed), nil
}

func newSimulatorWithSeed(name string, p wiener.Params, lim wiener.Limits, cf core.PRNGFactory, seed int64) *Simulator {
	if cf == nil {
		cf = core.Default()
	}
	return &Simulator{
		Name:     name,
		Params:   p,
		lim:      lim,
		cf:       cf,
		initSeed: seed,
	}
}

// Seed 回傳初始 seed
func (s *Simulator) Seed() int64 { return s.initSeed }

// Trace 回傳最近一次模擬的診斷計數
func (s *Simulator) Trace() wiener.Trace { return s.trace }

// Sim 單線模擬：以 seed 建立一條串流連續抽 n 筆，回傳報表、原始抽樣與用時。
func (s *Simulator) Sim(n int, showpb bool) (*stats.StatReport, []float64, time.Duration, error) {
	if n < 1 {
		return nil, nil, 0, errs.NewWarn("draws must > 0")
	}
	y := make([]float64, n)
	smp := newSamplerWithSeed(s.cf, s.initSeed, s.lim)
	r := recorder.NewDrawRecorder(s.Name, s.Params)

	bar := newBar(n, showpb)
	g := wiener.NewGenerator(s.lim)
	for lo := 0; lo < n; lo += ctxCheckEvery {
		hi := min(lo+ctxCheckEvery, n)
		if err := g.Fill(smp.core, s.Params, y[lo:hi]); err != nil {
			bar.Finish()
			return nil, nil, 0, err
		}
		r.RecordAll(y[lo:hi])
		bar.Add(hi - lo)
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	s.trace = g.Trace()

	result := r.Done()
	return result, y, used, nil
}

// SimMP 平行模擬，總計 n 筆。
func (s *Simulator) SimMP(n int, workers int, showpb bool) (*stats.StatReport, []float64, time.Duration, error) {
	return s.SimMPContext(context.Background(), n, workers, showpb)
}

// SimMPContext 與 SimMP 相同，ctx 取消時中止並回傳 error。
//
// 輸出切片依 worker 數切成固定、互不重疊的區段；每個 worker 持有由 seed 派生的獨立串流，
// 只寫自己的區段，因此結果與排程無關。
func (s *Simulator) SimMPContext(ctx context.Context, n int, workers int, showpb bool) (*stats.StatReport, []float64, time.Duration, error) {
	if workers <= 0 {
		return nil, nil, 0, errs.NewWarn("workers must > 0")
	}
	if n < 1 {
		return nil, nil, 0, errs.NewWarn("draws must > 0")
	}
	workers = min(workers, n)
	y := make([]float64, n)
	rBuf := make([]*recorder.DrawRecorder, workers)
	for i := range rBuf {
		rBuf[i] = recorder.NewDrawRecorder(s.Name, s.Params)
	}

	bar := newBar(n, showpb)
	tr, err := fillMP(ctx, s.cf, s.initSeed, s.lim, s.Params, y, workers, bar, func(w int, part []float64) {
		rBuf[w].RecordAll(part)
	})
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, nil, 0, err
	}
	s.trace = tr

	rec, err := recorder.MergeDrawRecorder(rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	result := rec.Done()
	return result, y, used, nil
}

// GenerateBatchMP 平行產生 n 筆抽樣（無上限、無統計），結果由 (seed, workers) 決定。
//
// workers <= 0 視為 1；n <= 0 回傳長度 0 的切片。回傳切片的所有權完全交給呼叫端。
func GenerateBatchMP(cf core.PRNGFactory, seed int64, p wiener.Params, n int, workers int) []float64 {
	y := make([]float64, max(0, n))
	if len(y) == 0 {
		return y
	}
	if cf == nil {
		cf = core.Default()
	}
	workers = min(max(1, workers), len(y))
	_, _ = fillMP(context.Background(), cf, seed, wiener.Limits{}, p, y, workers, nil, nil)
	return y
}

// fillMP 把 dst 切成 workers 段平行填滿。
//
// 第 w 段為 [w*n/workers, (w+1)*n/workers)，串流 seed 依 w 的順序由 seedMaker 派生。
// record 不為 nil 時，每個 worker 填完一小段就在自己的 goroutine 內呼叫一次。
func fillMP(ctx context.Context, cf core.PRNGFactory, seed int64, lim wiener.Limits, p wiener.Params, dst []float64, workers int, bar *pb.ProgressBar, record func(w int, part []float64)) (wiener.Trace, error) {
	n := len(dst)
	sm := newSeedMaker(seed)
	smps := make([]*Sampler, workers)
	for w := range smps {
		smps[w] = newSamplerWithSeed(cf, sm.next(), lim)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errBuf := make([]error, workers)
	trBuf := make([]wiener.Trace, workers)
	var failed atomic.Bool
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			part := dst[w*n/workers : (w+1)*n/workers]
			g := wiener.NewGenerator(lim)
			defer func() { trBuf[w] = g.Trace() }()
			for lo := 0; lo < len(part); lo += ctxCheckEvery {
				hi := min(lo+ctxCheckEvery, len(part))
				if err := smps[w].fill(ctx, g, p, part[lo:hi]); err != nil {
					errBuf[w] = err
					if failed.CompareAndSwap(false, true) {
						cancel()
					}
					return
				}
				if record != nil {
					record(w, part[lo:hi])
				}
				if bar != nil {
					bar.Add(hi - lo)
				}
			}
		}(w)
	}
	wg.Wait()

	var tr wiener.Trace
	for w := range trBuf {
		tr.Add(trBuf[w])
	}
	// 先回報真正的失敗原因，其他 worker 被連帶取消的錯誤排在後面
	for _, err := range errBuf {
		if err != nil && !errors.Is(err, context.Canceled) {
			return tr, err
		}
	}
	for _, err := range errBuf {
		if err != nil {
			return tr, err
		}
	}
	return tr, nil
}

func newBar(total int, show bool) *pb.ProgressBar {
	bar := pb.StartNew(total)
	if !show {
		bar.SetWriter(io.Discard)
	}
	return bar
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG（mod 2^63）推進 state，再用可逆 mix63 打散。
//
// 可能被多個 goroutine 同時呼叫（例如 SamplerPool 補機），所以用 CAS 迴圈推進。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63 只用可逆的 bit 操作與乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
