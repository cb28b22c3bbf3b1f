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

// Package errs 定義 wdmlab 統一使用的分級錯誤。
//
// 數值核心（sdk/wiener）本身幾乎不產生錯誤；錯誤主要出現在
// 設定檔解析、取樣上限（Limits）觸發、以及 server 邊界層。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel 錯誤分級，讓最上層知道問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文（例如 index、參數）；
// Cause 串接下層錯誤；ErrLv 表示嚴重度。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

// Error 實作 error 介面。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤。
//
// ErrLevel 規則：
//   - cause 已經是 *E：沿用其 ErrLv。
//   - 其他（標準庫、yaml、json 等）：一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	r := New(levelOf(cause), msg)
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，另外附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := NewWithExtra(levelOf(cause), msg, extra)
	r.Cause = cause
	return r
}

// WrapLv 以指定等級包裝底層錯誤（例如把 context 取消標成 Warn）。
func WrapLv(errLv ErrLevel, cause error, msg string) *E {
	r := New(errLv, msg)
	r.Cause = cause
	return r
}

// AsErr 嘗試把 err 展開為 *E。
func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsWarn 回報 err 鏈上第一個 *E 是否為 Warn（可預期、可處理的錯誤）。
func IsWarn(err error) bool {
	e, ok := AsErr(err)
	return ok && e.ErrLv == Warn
}

func levelOf(cause error) ErrLevel {
	if e, ok := AsErr(cause); ok {
		return e.ErrLv
	}
	return Fatal
}
