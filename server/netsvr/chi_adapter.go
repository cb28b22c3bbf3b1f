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

package netsvr

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultAddr 預設監聽位址
const DefaultAddr string = ":5808"

const (
	readTimeout = 10 * time.Second
	// 大批抽樣 + 壓縮需要較長的寫出時間
	writeTimeout = 60 * time.Second
	idleTimeout  = 120 * time.Second
)

// -----------------------------------------------------------------------------
//  Chi 服務
// -----------------------------------------------------------------------------

// ChiAdapter 以 chi (基於標準庫 net/http) 實作 NetSvr。
//   - 只使用標準庫介面：handler / middleware 都走 net/http，未支援 fasthttp/fiber 這類自訂協議。
//   - 若未來改用 Gin/Echo/自訂 server，可再寫新的 Adapter 實作 NetSvr。
type ChiAdapter struct {
	router chi.Router
	server *http.Server
	addr   string
}

// NewChiServer 建立自訂監聽位址的 ChiAdapter，含 http.Server 與預設 timeout。
// addr 為空時使用 DefaultAddr。
func NewChiServer(addr string) *ChiAdapter {
	if addr == "" {
		addr = DefaultAddr
	}
	cr := chi.NewRouter()
	return &ChiAdapter{
		router: cr,
		server: &http.Server{
			Addr:         addr,
			Handler:      cr,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		addr: addr,
	}
}

// -----------------------------------------------------------------------------
//  介面實作 NetSvr / (會同時實作 Component)
// -----------------------------------------------------------------------------

func (c *ChiAdapter) Ready() bool {
	return (c != nil) && (c.router != nil) && (c.server != nil) &&
		(c.addr != "") && (strings.HasPrefix(c.addr, ":") || strings.Contains(c.addr, ":")) &&
		(c.server.Handler != nil) && (c.server.Handler == c.router)
}

// Run 阻塞直到 server 停止；Shutdown 造成的 http.ErrServerClosed 不視為錯誤。
func (c *ChiAdapter) Run() error {
	if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) {
	c.router.Use(mw)
}

func (c *ChiAdapter) Get(path string, h http.HandlerFunc) {
	c.router.Get(path, h)
}

func (c *ChiAdapter) Post(path string, h http.HandlerFunc) {
	c.router.Post(path, h)
}

func (c *ChiAdapter) Group(path string, fn func(subRouter NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		subAdapter := &ChiAdapter{
			router: r,
			server: nil,
		}
		fn(subAdapter)
	})
}

// -----------------------------------------------------------------------------
//  其他公開方法
// -----------------------------------------------------------------------------

func (c *ChiAdapter) Address() string {
	return c.addr
}

// Handler 回傳根路由，供 httptest 或掛載到既有服務使用。
func (c *ChiAdapter) Handler() http.Handler {
	return c.router
}
