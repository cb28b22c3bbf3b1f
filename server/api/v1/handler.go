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


// Package v1 第一版 HTTP API。handler 只負責解碼、設定時限與寫回，業務邏輯都在 wdmlab.Runtime。
package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/wdmlab"
	"github.com/zintix-labs/wdmlab/server/httperr"
)

type Handler struct {
	rt      *wdmlab.Runtime
	log     *slog.Logger
	timeout time.Duration
}

func NewHandler(rt *wdmlab.Runtime, log *slog.Logger, timeout time.Duration) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{rt: rt, log: log, timeout: timeout}
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, err)
}

// writeJSON 先完整編碼再寫出，避免寫到一半才出錯。
func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(v); err != nil {
		h.fail(w, "encode response", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}
