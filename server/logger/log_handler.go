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

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/wdmlab/errs"
)

// LogMode 日誌輸出模式
type LogMode uint8

const (
	ModeDev LogMode = iota
	ModeProd
	ModeSilence
)

var logModeNames = map[string]LogMode{
	"dev":     ModeDev,
	"prod":    ModeProd,
	"silence": ModeSilence,
}

// ParseLogMode 解析 dev / prod / silence（大小寫不敏感）
func ParseLogMode(s string) (LogMode, error) {
	if m, ok := logModeNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return ModeDev, errs.NewWarn(fmt.Sprintf("unknown log mode %q (want dev|prod|silence)", s))
}

func (m LogMode) String() string {
	for k, v := range logModeNames {
		if v == m {
			return k
		}
	}
	return "unknown"
}

// NewDefaultLogger 依 LogMode 建立同步 logger，測試與 CLI 使用。
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(buildHandler(mode))
}

// NewDefaultAsyncLogger 依 LogMode 建立非同步 logger，拿不到 *AsyncHandler，因此無法 Close。
func NewDefaultAsyncLogger(mode LogMode) *slog.Logger {
	return slog.New(NewAsyncHandler(buildHandler(mode), 8192))
}

// NewAsync 同 NewDefaultAsyncLogger，但回傳 handler 讓呼叫端在關機時 Close。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(buildHandler(mode), buf)
	return slog.New(ah), ah
}

// AsyncHandler 把紀錄丟進佇列，由單一背景 goroutine 交給 next 寫出。
//
// 抽樣請求路徑上不等 I/O：佇列滿或已關閉時直接丟棄並計數。
// WithAttrs / WithGroup 產生的 handler 共用同一條佇列。
type AsyncHandler struct {
	next slog.Handler
	q    *logQueue
}

type logQueue struct {
	pending chan queued
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type queued struct {
	ctx context.Context
	rec slog.Record
	h   slog.Handler
}

// NewAsyncHandler buf <= 0 時使用 1024。
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = buildHandler(ModeDev)
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &logQueue{
		pending: make(chan queued, buf),
		stop:    make(chan struct{}),
	}
	q.wg.Add(1)
	go q.drain()
	return &AsyncHandler{next: next, q: q}
}

func (h *AsyncHandler) Ready() bool {
	return h != nil && h.q != nil
}

// Dropped 因佇列滿或關閉後才送達而丟棄的筆數
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// Close 停止接收並寫完佇列中剩下的紀錄，可重複呼叫。
func (h *AsyncHandler) Close() {
	if !h.Ready() {
		return
	}
	h.q.once.Do(func() { close(h.q.stop) })
	h.q.wg.Wait()
}

func (q *logQueue) drain() {
	defer q.wg.Done()
	for {
		select {
		case it := <-q.pending:
			_ = it.h.Handle(it.ctx, it.rec)
		case <-q.stop:
			for {
				select {
				case it := <-q.pending:
					_ = it.h.Handle(it.ctx, it.rec)
				default:
					return
				}
			}
		}
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle 永遠回傳 nil；slog.Logger 本來就不看 Handle 的錯誤。
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	select {
	case <-h.q.stop:
		h.q.dropped.Add(1)
		return nil
	default:
	}
	// Record 跨 goroutine 前要 Clone
	select {
	case h.q.pending <- queued{ctx: ctx, rec: r.Clone(), h: h.next}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}

// buildHandler dev 走 stderr 文字，prod 走 stdout JSON，silence 全丟。
func buildHandler(mode LogMode) slog.Handler {
	switch mode {
	case ModeProd:
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, nil)
	default:
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
