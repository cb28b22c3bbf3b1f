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

// Package corefmt 負責二進位資料（抽樣結果、PRNG 快照）與文字傳輸格式之間的轉換。
package corefmt

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/wdmlab/errs"
)

// float64 在 frame 中固定佔 8 bytes（little-endian IEEE-754）
const float64Bytes = 8

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64 failed")
	}
	return b, nil
}

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64url failed")
	}
	return b, nil
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode hex failed")
	}
	return b, nil
}

// EncodeFloat64s 把 float64 切片依序寫成 little-endian bytes（每個 8 bytes）。
func EncodeFloat64s(xs []float64) []byte {
	out := make([]byte, 0, len(xs)*float64Bytes)
	for _, x := range xs {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(x))
	}
	return out
}

// DecodeFloat64s 是 EncodeFloat64s 的反向操作；長度必須是 8 的倍數。
func DecodeFloat64s(b []byte) ([]float64, error) {
	if len(b)%float64Bytes != 0 {
		return nil, errs.Warnf("decode float64s failed: length %d is not a multiple of %d", len(b), float64Bytes)
	}
	out := make([]float64, len(b)/float64Bytes)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*float64Bytes:]))
	}
	return out, nil
}

// EncodeDraws 以 base64(zstd(float64 frame)) 輸出，供 JSON 傳輸大量抽樣結果。
func EncodeDraws(xs []float64) (string, error) {
	z, err := CompressZstd(EncodeFloat64s(xs))
	if err != nil {
		return "", err
	}
	return EncodeBase64(z), nil
}

// DecodeDraws 是 EncodeDraws 的反向操作（不限制筆數，只用於可信任的輸入）。
func DecodeDraws(s string) ([]float64, error) {
	return DecodeDrawsMax(s, 0)
}

// DecodeDrawsMax 與 DecodeDraws 相同，但解壓後超過 maxDraws 筆即回傳 Warn。
//
// 上限在解壓階段就生效：小 blob 無法先展開成巨大的緩衝區。maxDraws <= 0 表示不限制。
func DecodeDrawsMax(s string, maxDraws int) ([]float64, error) {
	z, err := DecodeBase64(s)
	if err != nil {
		return nil, errs.WrapLv(errs.Warn, err, "invalid draws blob")
	}
	var maxBytes uint64
	if maxDraws > 0 {
		maxBytes = uint64(maxDraws) * float64Bytes
	}
	raw, err := DecompressZstdMax(z, maxBytes)
	if err != nil {
		return nil, err
	}
	return DecodeFloat64s(raw)
}

// CompressZstd 以預設等級壓縮。
func CompressZstd(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errs.Wrap(err, "new zstd writer failed")
	}
	defer enc.Close()
	return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

// DecompressZstd 解壓 CompressZstd 的輸出。
func DecompressZstd(b []byte) ([]byte, error) {
	return DecompressZstdMax(b, 0)
}

// DecompressZstdMax 解壓時限制輸出大小；maxBytes == 0 使用 zstd 的預設上限。
// 超過上限回傳 Warn（輸入不合法，不是服務端錯誤）。
func DecompressZstdMax(b []byte, maxBytes uint64) ([]byte, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if maxBytes > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(maxBytes))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "new zstd reader failed")
	}
	defer dec.Close()
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, errs.WrapLv(errs.Warn, err, fmt.Sprintf("zstd output exceeds %d bytes", maxBytes))
		}
		return nil, errs.WrapLv(errs.Warn, err, "zstd decode failed")
	}
	return out, nil
}

// EncodeBlobFrame encodes raw bytes into a length-prefixed binary frame.
//
//	frame := uvarint(len(payload)) || payload
//
// Notes:
//   - This format is NOT JSON-friendly. If you need JSON/HTTP text transport, use Base64/Base64URL.
//   - The length prefix uses unsigned varint (encoding/binary).
func EncodeBlobFrame(payload []byte) []byte {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))

	out := make([]byte, 0, n+len(payload))
	out = append(out, hdr[:n]...)
	out = append(out, payload...)
	return out
}

// DecodeBlobFrame decodes a length-prefixed binary frame produced by EncodeBlobFrame.
// It returns an error if the frame is malformed or truncated.
func DecodeBlobFrame(frame []byte) ([]byte, error) {
	n, size := binary.Uvarint(frame)
	if size <= 0 {
		return nil, errs.NewWarn("decode blob frame failed: invalid varint length")
	}
	if uint64(len(frame)-size) < n {
		return nil, errs.NewWarn("decode blob frame failed: truncated payload")
	}
	payload := frame[size : size+int(n)]
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// WriteBlobFrame writes a length-prefixed binary frame into w.
func WriteBlobFrame(w io.Writer, payload []byte) error {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return errs.Wrap(err, "write blob frame header failed")
	}
	if _, err := w.Write(payload); err != nil {
		return errs.Wrap(err, "write blob frame payload failed")
	}
	return nil
}

// ReadBlobFrame reads a length-prefixed binary frame from r.
//
// maxBytes is a safety cap to prevent unbounded allocations when reading untrusted input.
func ReadBlobFrame(r io.Reader, maxBytes uint64) ([]byte, error) {
	br := bufio.NewReader(r)
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.Wrap(err, "read blob frame header failed")
	}
	if maxBytes > 0 && ln > maxBytes {
		return nil, errs.NewWarn("read blob frame failed: payload exceeds maxBytes")
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errs.Wrap(err, "read blob frame payload failed")
	}
	return buf, nil
}
