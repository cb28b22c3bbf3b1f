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
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	encZstd = "zstd"
	encGzip = "gzip"
)

// CompressConfig 壓縮等級設定。
//
// 抽樣結果多為 float64 陣列，JSON 文字壓縮比高；zstd 以速度優先即可。
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

// Compression 以 DefaultCompressConfig 壓縮回應
var Compression = NewCompression(DefaultCompressConfig)

// NewCompression 依 Accept-Encoding 協商 zstd / gzip（同 q 值時 zstd 優先）。
func NewCompression(cfg CompressConfig) func(http.Handler) http.Handler {
	c := &compressor{cfg: cfg}
	return c.middleware
}

type compressor struct {
	cfg      CompressConfig
	gzipPool sync.Pool
	zstdPool sync.Pool
}

func (c *compressor) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket / HEAD / 已被上層壓縮
		if r.Method == http.MethodHead || isWebSocketUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}

		enc := negotiate(r.Header.Get("Accept-Encoding"))
		if enc == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", enc)
		w.Header().Add("Vary", "Accept-Encoding")

		switch enc {
		case encZstd:
			zw := c.getZstd(w)
			cw := &compressResponseWriter{ResponseWriter: w, w: zw}
			defer func() {
				// 204/304 不可帶壓縮 footer
				if cw.disabled {
					zw.Reset(io.Discard)
				}
				_ = zw.Close()
				c.zstdPool.Put(zw)
			}()
			next.ServeHTTP(cw, r)
		case encGzip:
			gw := c.getGzip(w)
			cw := &compressResponseWriter{ResponseWriter: w, w: gw}
			defer func() {
				if cw.disabled {
					gw.Reset(io.Discard)
				}
				_ = gw.Close()
				c.gzipPool.Put(gw)
			}()
			next.ServeHTTP(cw, r)
		}
	})
}

func (c *compressor) getZstd(w io.Writer) *zstd.Encoder {
	if v := c.zstdPool.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(c.cfg.ZstdLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic(err)
	}
	return zw
}

func (c *compressor) getGzip(w io.Writer) *gzip.Writer {
	if v := c.gzipPool.Get(); v != nil {
		gw := v.(*gzip.Writer)
		gw.Reset(w)
		return gw
	}
	gw, err := gzip.NewWriterLevel(w, c.cfg.GzipLevel)
	if err != nil {
		gw = gzip.NewWriter(w)
	}
	return gw
}

// negotiate 解析 Accept-Encoding，回傳 "zstd"、"gzip" 或 ""（不壓縮）。
// q=0 視為拒絕。
func negotiate(header string) string {
	if header == "" {
		return ""
	}
	best, bestQ := "", 0.0
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name != encZstd && name != encGzip {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		if q <= 0 {
			continue
		}
		if q > bestQ || (q == bestQ && name == encZstd) {
			best, bestQ = name, q
		}
	}
	return best
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

func isNoBodyStatus(code int) bool {
	// 1xx / 204 / 304
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

type compressResponseWriter struct {
	http.ResponseWriter
	w        io.Writer // gzip.Writer 或 zstd.Encoder
	disabled bool      // 204/304 動態取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	// 壓縮後長度未知
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}
