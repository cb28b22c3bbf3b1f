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


package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/wdmlab"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/server/api"
	"github.com/zintix-labs/wdmlab/server/app"
	"github.com/zintix-labs/wdmlab/server/logger"
	"github.com/zintix-labs/wdmlab/server/netsvr"
	"github.com/zintix-labs/wdmlab/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口。
//
// 它負責：
//  1. 驗證 SvrCfg（含 logger 與 Lab）。
//  2. 由 Lab 建立 Runtime（Freeze catalog + SamplerPool）。
//  3. 建立 chi server 並註冊路由與 middleware。
//  4. 交給 app 管理生命週期，直到收到訊號或任一元件停止。
//
// Run 不綁定任何檔案路徑或環境變數策略；所有依賴都透過 SvrCfg 注入。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Valid(); err != nil {
		// logger 可能不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run 相同，但允許注入自訂的 NetSvr（自訂 adapter、listener 或 timeout）。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
// 若需要把路由掛到既有服務，請直接持有 wdmlab.Runtime 並呼叫 api.RegisterRoutes。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if ah, ok := sCfg.Log.Handler().(*logger.AsyncHandler); ok {
		// 最後一步寫完佇列中的日誌
		defer ah.Close()
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}

	rt, err := sCfg.Lab.BuildRuntime(sCfg.PoolSize, sCfg.Limits, sCfg.MaxDraws)
	if err != nil {
		sCfg.Log.Error("build runtime failed", slog.Any("err", err))
		return
	}

	api.RegisterRoutes(svr, sCfg, rt)

	// 註冊順序即關閉順序：先停止接收請求，再關閉 runtime
	a := app.NewWith(sCfg.Log, svr, runtimeComponent(rt))
	addr := ""
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		addr = s.Address()
	}
	sCfg.Log.Info("[wdmlab] listening",
		slog.String("addr", addr),
		slog.Int("pool", sCfg.PoolSize),
		slog.Int("max_draws", sCfg.MaxDraws),
	)
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
}

// runtimeComponent runtime 自行關閉（例如 pool 被失敗淹沒）時讓整個 app 停止。
func runtimeComponent(rt *wdmlab.Runtime) app.Component {
	return app.NewCloser(rt.Done(), rt.Close, func() error {
		return errs.WrapWithExtra(wdmlab.ErrClosed, "runtime stopped", rt.ClosedReason())
	})
}
