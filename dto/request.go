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

package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zintix-labs/wdmlab/corefmt"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/spec"
)

// 防止 body 過大
const (
	maxBody     = 1 << 20
	maxStatBody = 64 << 20
)

// SampleRequest 抽樣請求。
//
// 參數來源二選一：Preset（> 0）或 Params（不可同時提供）。
// 串流來源優先序：StartState > Seed > 服務端池內的串流。
type SampleRequest struct {
	Preset     spec.PID       `json:"preset,omitempty"`
	Params     *wiener.Params `json:"params,omitempty"`
	N          int            `json:"n"`
	Seed       *int64         `json:"seed,omitempty"`
	Encoding   string         `json:"encoding,omitempty"`
	StartState *StartState    `json:"start_state,omitempty"`
}

// StartState 由呼叫端帶回的 PRNG 起始快照（來自先前回應的 SampleState）。
type StartState struct {
	StartCoreSnapB64U string `json:"start_b64u,omitempty"`
}

// StartSnapshot 解碼 start_b64u；未提供時回傳 nil, nil。
func (r *SampleRequest) StartSnapshot() ([]byte, error) {
	if r.StartState == nil || r.StartState.StartCoreSnapB64U == "" {
		return nil, nil
	}
	b, err := corefmt.DecodeBase64URL(r.StartState.StartCoreSnapB64U)
	if err != nil {
		return nil, errs.NewWarn("invalid start_b64u: " + err.Error())
	}
	return b, nil
}

// SimRequest 模擬請求：回傳統計報表，不回傳原始抽樣。
type SimRequest struct {
	Preset    spec.PID       `json:"preset,omitempty"`
	Params    *wiener.Params `json:"params,omitempty"`
	N         int            `json:"n"`
	Workers   int            `json:"workers,omitempty"`
	Seed      *int64         `json:"seed,omitempty"`
	Quantiles bool           `json:"quantiles,omitempty"`
}

// StatRequest 對呼叫端自帶的抽樣結果做統計（Draws 或 Blob 擇一）。
type StatRequest struct {
	Name   string        `json:"name,omitempty"`
	Params wiener.Params `json:"params"`
	Draws  []float64     `json:"draws,omitempty"`
	Blob   string        `json:"blob,omitempty"`
}

// Values 取回抽樣結果；maxDraws > 0 時超過筆數回傳 Warn（blob 在解壓時就受限）。
func (r *StatRequest) Values(maxDraws int) ([]float64, error) {
	if r.Blob != "" {
		if len(r.Draws) > 0 {
			return nil, errs.NewWarn("draws and blob are mutually exclusive")
		}
		return corefmt.DecodeDrawsMax(r.Blob, maxDraws)
	}
	if maxDraws > 0 && len(r.Draws) > maxDraws {
		return nil, errs.Warnf("draws %d exceeds limit %d", len(r.Draws), maxDraws)
	}
	return r.Draws, nil
}

// DecodeSampleRequest 會把 HTTP 請求解碼成 SampleRequest。
//
// 支援：
//   - GET：從 query string 讀取（preset/a/t0/b/d/n/seed/encoding/start_b64u）。
//     只要 a、t0、b、d 任一出現即視為自帶參數，缺的欄位為 0。
//   - POST：從 JSON body 反序列化，未知欄位直接拒絕。
//
// 這裡只做解碼與型別轉換；preset 是否存在、N 的上限等由上層決定。
func DecodeSampleRequest(r *http.Request) (*SampleRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(SampleRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		var err error
		if req.Preset, err = queryPreset(q); err != nil {
			return nil, err
		}
		if req.Params, err = queryParams(q); err != nil {
			return nil, err
		}
		if req.N, err = queryInt(q, "n"); err != nil {
			return nil, err
		}
		if req.Seed, err = querySeed(q); err != nil {
			return nil, err
		}
		req.Encoding = q.Get("encoding")
		if s := q.Get("start_b64u"); s != "" {
			req.StartState = &StartState{StartCoreSnapB64U: s}
		}
		return req, nil

	case http.MethodPost:
		if err := decodeJSON(r.Body, maxBody, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// DecodeSimRequest 同 DecodeSampleRequest，額外支援 workers/quantiles。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(SimRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		var err error
		if req.Preset, err = queryPreset(q); err != nil {
			return nil, err
		}
		if req.Params, err = queryParams(q); err != nil {
			return nil, err
		}
		if req.N, err = queryInt(q, "n"); err != nil {
			return nil, err
		}
		if req.Workers, err = queryInt(q, "workers"); err != nil {
			return nil, err
		}
		if req.Seed, err = querySeed(q); err != nil {
			return nil, err
		}
		if s := q.Get("quantiles"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.NewWarn("invalid quantiles value " + err.Error())
			}
			req.Quantiles = v
		}
		return req, nil

	case http.MethodPost:
		if err := decodeJSON(r.Body, maxBody, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// DecodeStatRequest 只接受 POST（抽樣結果可能很大，body 上限較寬）。
func DecodeStatRequest(r *http.Request) (*StatRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(StatRequest)
	if err := decodeJSON(r.Body, maxStatBody, req); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeJSON(body io.Reader, limit int64, v any) error {
	if body == nil {
		return errs.NewWarn("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.NewWarn(fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}

func queryPreset(q url.Values) (spec.PID, error) {
	s := q.Get("preset")
	if s == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errs.NewWarn(fmt.Sprintf("invalid preset: %v", err))
	}
	return spec.PID(u), nil
}

func queryParams(q url.Values) (*wiener.Params, error) {
	if !q.Has("a") && !q.Has("t0") && !q.Has("b") && !q.Has("d") {
		return nil, nil
	}
	p := &wiener.Params{}
	fields := []struct {
		key string
		dst *float64
	}{
		{"a", &p.A}, {"t0", &p.T0}, {"b", &p.B}, {"d", &p.D},
	}
	for _, f := range fields {
		s := q.Get(f.key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.NewWarn(fmt.Sprintf("invalid %s: %v", f.key, err))
		}
		*f.dst = v
	}
	return p, nil
}

func queryInt(q url.Values, key string) (int, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewWarn(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return v, nil
}

func querySeed(q url.Values) (*int64, error) {
	s := q.Get("seed")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
	}
	return &v, nil
}
