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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/wdmlab/corefmt"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

func TestDecodeSampleRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/sample?a=1&t0=0.2&b=0.5&n=10&seed=42&encoding=base64&start_b64u=AAEC", nil)
	req, err := DecodeSampleRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Params == nil || req.Params.A != 1 || req.Params.T0 != 0.2 || req.Params.B != 0.5 || req.Params.D != 0 {
		t.Fatalf("unexpected params: %+v", req.Params)
	}
	if req.N != 10 || req.Seed == nil || *req.Seed != 42 || req.Encoding != EncodingBase64 {
		t.Fatalf("unexpected request: %+v", req)
	}
	snap, err := req.StartSnapshot()
	if err != nil || len(snap) != 3 {
		t.Fatalf("unexpected snapshot: %v %v", snap, err)
	}
}

func TestDecodeSampleRequestGETPreset(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/sample?preset=2&n=5", nil)
	req, err := DecodeSampleRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Preset != 2 || req.Params != nil || req.Seed != nil {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeSampleRequestGETInvalid(t *testing.T) {
	for _, q := range []string{"a=x", "n=1.5", "seed=abc", "preset=-1"} {
		r := httptest.NewRequest(http.MethodGet, "/v1/sample?"+q, nil)
		if _, err := DecodeSampleRequest(r); err == nil {
			t.Fatalf("%s: expected error", q)
		}
	}
}

func TestDecodeSampleRequestPOST(t *testing.T) {
	body := []byte(`{"params":{"a":1,"t0":0.2,"b":0.5,"d":0.3},"n":3,"seed":7}`)
	r := httptest.NewRequest(http.MethodPost, "/v1/sample", bytes.NewReader(body))
	req, err := DecodeSampleRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Params.D != 0.3 || req.N != 3 || *req.Seed != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}

	bad := httptest.NewRequest(http.MethodPost, "/v1/sample", bytes.NewReader([]byte(`{"unknown":1}`)))
	if _, err := DecodeSampleRequest(bad); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestDecodeSimRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/sim?preset=1&n=100&workers=4&quantiles=true", nil)
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Preset != 1 || req.N != 100 || req.Workers != 4 || !req.Quantiles {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestNewSampleResultEncodings(t *testing.T) {
	p := wiener.Params{A: 1, T0: 0.2, B: 0.5}
	draws := []float64{0.4, -0.3, 0.7}

	js, err := NewSampleResult(p, draws, "", []byte{1}, []byte{2}, wiener.Trace{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if js.Encoding != EncodingJSON || len(js.Draws) != 3 || js.Blob != "" {
		t.Fatalf("unexpected json result: %+v", js)
	}
	if js.Upper != 2 || js.Lower != 1 {
		t.Fatalf("unexpected counts: %d/%d", js.Upper, js.Lower)
	}

	b64, err := NewSampleResult(p, draws, EncodingBase64, nil, nil, wiener.Trace{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b64.Draws != nil || b64.Blob == "" {
		t.Fatalf("unexpected base64 result: %+v", b64)
	}
	raw, err := json.Marshal(b64)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back SampleResult
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, err := back.DecodeDraws()
	if err != nil || len(got) != 3 || got[1] != -0.3 {
		t.Fatalf("decode draws mismatch: %v %v", got, err)
	}

	if _, err := NewSampleResult(p, draws, "xml", nil, nil, wiener.Trace{}); err == nil {
		t.Fatalf("expected unsupported encoding error")
	}
}

func TestStatRequestValues(t *testing.T) {
	r := &StatRequest{Draws: []float64{1, 2}, Blob: "x"}
	if _, err := r.Values(0); err == nil {
		t.Fatalf("expected mutual exclusion error")
	}

	r = &StatRequest{Draws: []float64{0.3, -0.4, 0.5}}
	if _, err := r.Values(2); !errs.IsWarn(err) {
		t.Fatalf("expected warn for too many draws, got %v", err)
	}
	if got, err := r.Values(3); err != nil || len(got) != 3 {
		t.Fatalf("draws within limit: %v %v", got, err)
	}

	blob, err := corefmt.EncodeDraws(make([]float64, 4096))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r = &StatRequest{Blob: blob}
	if _, err := r.Values(100); !errs.IsWarn(err) {
		t.Fatalf("expected warn for oversized blob, got %v", err)
	}
	if got, err := r.Values(4096); err != nil || len(got) != 4096 {
		t.Fatalf("blob within limit: %d %v", len(got), err)
	}
}

func TestDesignRequest(t *testing.T) {
	r := &DesignRequest{Participants: 4, Trials: 10, Criterion: "bound", Predictor: PredictorLinReg}
	d, err := r.Design(wiener.Limits{MaxTerms: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Predictor) != 4 || d.Predictor[2] != 0.5 || d.Limits.MaxTerms != 100 {
		t.Fatalf("unexpected design: %+v", d)
	}
	if d.Prior.BoundMeanMean != 1.5 {
		t.Fatalf("default prior not applied: %+v", d.Prior)
	}

	r = &DesignRequest{Participants: 2, Trials: 10, Predictor: PredictorTTest, X: []float64{1, 2}}
	if _, err := r.Design(wiener.Limits{}); !errs.IsWarn(err) {
		t.Fatalf("expected warn for predictor with x, got %v", err)
	}
	r = &DesignRequest{Participants: 2, Trials: 10, X: []float64{1}}
	if _, err := r.Design(wiener.Limits{}); err == nil {
		t.Fatalf("expected error for short x")
	}
	r = &DesignRequest{Participants: 2, Trials: 10, Criterion: "speed"}
	if _, err := r.Design(wiener.Limits{}); err == nil {
		t.Fatalf("expected error for unknown criterion")
	}

	get := httptest.NewRequest(http.MethodGet, "/v1/design", nil)
	if _, err := DecodeDesignRequest(get); err == nil {
		t.Fatalf("expected method error")
	}
	body, _ := json.Marshal(DesignRequest{Participants: 3, Trials: 7})
	post := httptest.NewRequest(http.MethodPost, "/v1/design", bytes.NewReader(body))
	got, err := DecodeDesignRequest(post)
	if err != nil || got.Participants != 3 || got.Trials != 7 {
		t.Fatalf("decode design request: %+v %v", got, err)
	}
}
