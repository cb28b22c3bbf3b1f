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


// Package httperr 負責 HTTP 邊界層的錯誤映射：決定 status code 與 log 等級。
package httperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/wdmlab"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

func StatusCode(err error) int {
	// 1) context 取消/超時（即使被 wrap 也能被 errors.Is 命中）
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout // 504
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout // 408
	case errors.Is(err, wiener.ErrNonConvergence):
		// 參數合法但在上限內算不完
		return http.StatusUnprocessableEntity // 422
	case errors.Is(err, wdmlab.ErrClosed):
		return http.StatusServiceUnavailable // 503
	}

	// 2) 內部錯誤分級
	if e, ok := errs.AsErr(err); ok {
		switch e.ErrLv {
		case errs.Warn:
			return http.StatusBadRequest // 400
		case errs.Fatal:
			return http.StatusInternalServerError // 500
		}
	}
	return http.StatusInternalServerError
}

// Errs 寫回錯誤回應（純文字）。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	http.Error(w, err.Error(), StatusCode(err))
}

// Log 依 status code 決定 log 等級；4xx 中只記錄逾時與限流類。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusConflict ||
		status == http.StatusTooManyRequests || status == http.StatusUnprocessableEntity:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	case status >= 500 && status < 600:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
