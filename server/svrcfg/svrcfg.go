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


package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/wdmlab"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/server/logger"
)

const (
	maxPoolSize    = 64
	defaultTimeout = 10 * time.Second
)

// SvrCfg server 組裝所需的全部依賴，由呼叫端明確注入。
type SvrCfg struct {
	Log *slog.Logger
	// SamplerPool 大小，限制在 [1, 64]
	PoolSize int
	Lab      *wdmlab.Lab
	// 套用在所有 HTTP 請求的抽樣上限；零值代表不設限。
	Limits wiener.Limits
	// 單次請求的抽樣筆數上限（<= 0 使用 wdmlab.DefaultMaxDraws）
	MaxDraws int
	// 空字串使用預設位址
	Addr string
	// 單一請求的處理時限
	Timeout time.Duration
}

// Valid 檢查並補上預設值。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	sc.PoolSize = min(maxPoolSize, max(1, sc.PoolSize))
	if sc.MaxDraws <= 0 {
		sc.MaxDraws = wdmlab.DefaultMaxDraws
	}
	if sc.Timeout <= 0 {
		sc.Timeout = defaultTimeout
	}
	if sc.Limits.MaxSubintervals < 0 || sc.Limits.MaxTrials < 0 || sc.Limits.MaxTerms < 0 {
		return errs.NewFatal("limits must be non-negative")
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}
