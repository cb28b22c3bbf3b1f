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


package v1

import (
	"net/http"
	"time"

	"github.com/zintix-labs/wdmlab/dto"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/stats"
)

// Sample GET|POST /v1/sample
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSampleRequest(r)
	if err != nil {
		h.fail(w, "decode sample request", err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.rt.Sample(ctx, req)
	if err != nil {
		h.fail(w, "sample", err)
		return
	}
	h.writeJSON(w, res)
}

// SimResponse /v1/sim 的回應
type SimResponse struct {
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

// Sim GET|POST /v1/sim
func (h *Handler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		h.fail(w, "decode sim request", err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	start := time.Now()
	st, err := h.rt.Sim(ctx, req)
	if err != nil {
		h.fail(w, "sim", err)
		return
	}
	st.Done()
	h.writeJSON(w, SimResponse{Stats: st, UsedTime: time.Since(start).Milliseconds()})
}

// Stat POST /v1/stat：對呼叫端自帶的抽樣結果出報表
func (h *Handler) Stat(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeStatRequest(r)
	if err != nil {
		h.fail(w, "decode stat request", err)
		return
	}
	st, err := h.rt.Stat(req)
	if err != nil {
		h.fail(w, "stat", err)
		return
	}
	st.Done()
	h.writeJSON(w, st)
}

// Design POST /v1/design：階層式設計模擬
func (h *Handler) Design(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeDesignRequest(r)
	if err != nil {
		h.fail(w, "decode design request", err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.rt.Design(ctx, req)
	if err != nil {
		h.fail(w, "design", err)
		return
	}
	h.writeJSON(w, res)
}

// Presets GET /v1/presets
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	sum, err := h.rt.Presets()
	if err != nil {
		h.fail(w, "presets", errs.Wrap(err, "list presets"))
		return
	}
	h.writeJSON(w, sum)
}

// Metrics GET /v1/metrics
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.rt.Metrics())
}
