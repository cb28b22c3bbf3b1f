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


package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultGrace = 5 * time.Second

// App 管理多個 Component 的啟動與優雅關閉。
//
// 任一 Component 的 Run 返回（含 nil）或收到 SIGINT/SIGTERM 都會觸發全部 Shutdown，
// Shutdown 依註冊順序執行：先停 server 再關 runtime，讓進行中的請求先收尾。
type App struct {
	comps []Component
	log   *slog.Logger
	grace time.Duration
}

func New(log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{log: log, grace: defaultGrace}
}

func NewWith(log *slog.Logger, comps ...Component) *App {
	app := New(log)
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

func (a *App) Register(c Component) {
	if c == nil {
		return
	}
	a.comps = append(a.comps, c)
}

// SetGrace 設定優雅關閉的時限（<= 0 忽略）
func (a *App) SetGrace(d time.Duration) {
	if d > 0 {
		a.grace = d
	}
}

func (a *App) Run() error {
	// errCh 收集任一 Component 首次返回的錯誤
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		a.log.Info("[wdmlab] shutting down", slog.String("signal", sig.String()))
		a.gracefulShutdown()
		return nil
	case err := <-errCh:
		a.gracefulShutdown()
		return err
	}
}

func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Error("[wdmlab] shutdown failed", slog.Any("err", err))
		}
	}
}
