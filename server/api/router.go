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


package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/wdmlab"
	v1 "github.com/zintix-labs/wdmlab/server/api/v1"
	"github.com/zintix-labs/wdmlab/server/netsvr"
	"github.com/zintix-labs/wdmlab/server/netsvr/middleware"
	"github.com/zintix-labs/wdmlab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與全部路由。sCfg 需先通過 Valid()。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *wdmlab.Runtime) {
	registerMiddleware(svr, sCfg.Log)
	svr.Get("/healthz", healthz(rt))
	registerV1API(svr, sCfg, rt)
}

func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// healthz runtime 關閉後回 503，讓負載平衡器摘除節點。
func healthz(rt *wdmlab.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, map[string]string{"status": "ok"}
		if rt.Closed() {
			status, body = http.StatusServiceUnavailable, map[string]string{"status": "closed", "reason": rt.ClosedReason()}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *wdmlab.Runtime) {
	h := v1.NewHandler(rt, sCfg.Log, sCfg.Timeout)
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/sample", h.Sample)
		vOne.Post("/sample", h.Sample)
		vOne.Get("/sim", h.Sim)
		vOne.Post("/sim", h.Sim)
		vOne.Post("/stat", h.Stat)
		vOne.Post("/design", h.Design)
		vOne.Get("/presets", h.Presets)
		vOne.Get("/metrics", h.Metrics)
	})
}
