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


package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiate(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"br":                     "",
		"gzip":                   "gzip",
		"gzip, zstd":             "zstd",
		"zstd;q=0.5, gzip":       "gzip",
		"zstd;q=0, gzip;q=0.1":   "gzip",
		"GZIP;q=0.8, deflate":    "gzip",
		"zstd;q=0, gzip;q=0":     "",
		" gzip ; q=1 , zstd;q=1": "zstd",
	}
	for in, want := range cases {
		assert.Equal(t, want, negotiate(in), "header %q", in)
	}
}

func payloadHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

func TestCompressionRoundTrip(t *testing.T) {
	body := "[" + strings.Repeat("0.4512345678901234,", 500) + "0]"
	h := Compression(payloadHandler(body))

	for _, enc := range []string{"zstd", "gzip"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", enc)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, enc, rec.Header().Get("Content-Encoding"))
		assert.Less(t, rec.Body.Len(), len(body))

		var got []byte
		var err error
		switch enc {
		case "zstd":
			dec, derr := zstd.NewReader(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, derr)
			got, err = io.ReadAll(dec)
			dec.Close()
		case "gzip":
			gr, gerr := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, gerr)
			got, err = io.ReadAll(gr)
		}
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
	}
}

func TestCompressionSkipsNoBody(t *testing.T) {
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "zstd")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len())
}

func TestRequestIDAndRecover(t *testing.T) {
	h := RequestID(Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}
