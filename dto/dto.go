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

// Package dto 定義 HTTP 對外的請求與回應結構。
package dto

import (
	"github.com/zintix-labs/wdmlab/corefmt"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

// 抽樣結果輸出格式
const (
	EncodingJSON   = "json"   // draws 直接以 JSON 數字陣列輸出
	EncodingBase64 = "base64" // draws 以 base64(zstd(little-endian float64)) 輸出於 blob
)

// SampleResult 一次抽樣請求的結果。
//
// Draws 與 Blob 只會有一個有值，取決於 Encoding。
type SampleResult struct {
	Params   wiener.Params `json:"params"`
	N        int           `json:"n"`
	Upper    int           `json:"upper"` // 觸及上邊界（正值）的筆數
	Lower    int           `json:"lower"`
	Encoding string        `json:"encoding"`
	Draws    []float64     `json:"draws,omitempty"`
	Blob     string        `json:"blob,omitempty"`
	State    SampleState   `json:"state"`
	Trace    wiener.Trace  `json:"trace"`
}

// SampleState 本次抽樣前後的 PRNG 快照（base64url）。
//
// 回放：把 start_b64u 帶回 start_state 即可重現同一批結果；
// 續抽：把 after_b64u 當作下一次的 start_b64u。
type SampleState struct {
	StartCoreSnapB64U string `json:"start_b64u"`
	AfterCoreSnapB64U string `json:"after_b64u"`
}

// NewSampleResult 組裝回應；draws 的所有權交給回應（不拷貝）。
func NewSampleResult(p wiener.Params, draws []float64, encoding string, start, after []byte, tr wiener.Trace) (SampleResult, error) {
	res := SampleResult{
		Params:   p,
		N:        len(draws),
		Encoding: encoding,
		State: SampleState{
			StartCoreSnapB64U: corefmt.EncodeBase64URL(start),
			AfterCoreSnapB64U: corefmt.EncodeBase64URL(after),
		},
		Trace: tr,
	}
	for _, v := range draws {
		if v > 0 {
			res.Upper++
		} else {
			res.Lower++
		}
	}
	switch encoding {
	case "", EncodingJSON:
		res.Encoding = EncodingJSON
		res.Draws = draws
	case EncodingBase64:
		blob, err := corefmt.EncodeDraws(draws)
		if err != nil {
			return SampleResult{}, err
		}
		res.Blob = blob
	default:
		return SampleResult{}, errs.Warnf("unsupported encoding: %q", encoding)
	}
	return res, nil
}

// DecodeDraws 取回抽樣結果（不論 Encoding）
func (r SampleResult) DecodeDraws() ([]float64, error) {
	if r.Encoding == EncodingBase64 {
		return corefmt.DecodeDraws(r.Blob)
	}
	return r.Draws, nil
}
