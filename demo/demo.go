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


// Package demo 以內建的示範 preset 組裝 Lab 與 server 設定，給 cmd 與測試使用。
package demo

import (
	"github.com/zintix-labs/wdmlab"
	"github.com/zintix-labs/wdmlab/catalog"
	"github.com/zintix-labs/wdmlab/demo/demo_configs"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/server/logger"
	"github.com/zintix-labs/wdmlab/server/svrcfg"
)

// ServerLimits 示範 server 套用的抽樣上限
var ServerLimits = wiener.Limits{
	MaxSubintervals: 10_000,
	MaxTrials:       100_000,
	MaxTerms:        100_000,
}

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := NewLab()
	if err != nil {
		return nil, errs.Wrap(err, "new lab failed")
	}
	scfg := &svrcfg.SvrCfg{
		Log:      logger.NewDefaultAsyncLogger(logger.ModeDev),
		PoolSize: 4,
		Lab:      lab,
		Limits:   ServerLimits,
	}
	return scfg, nil
}

func NewLab() (*wdmlab.Lab, error) {
	return wdmlab.NewAuto(core.Default(), wdmlab.Configs(demo_configs.FS))
}
