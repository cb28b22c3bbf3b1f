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

// Package wdmlab 提供首達時間抽樣的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把兩個地基組裝在一起：
//  1. Catalog：preset 目錄，定義有哪些具名參數組、各自對應的設定檔名稱。
//  2. PRNGFactory：亂數核心工廠，保證同一個 seed 得到同一條串流。
//
// 由 Lab 可以建立：
//   - Sampler：單一串流的抽樣器（Draw / Batch / Snapshot / Restore）。
//   - Simulator：大量抽樣並產出統計報表（單線或多 worker）。
//   - Runtime：對外服務用的 SamplerPool 與生命週期管理。
//
// Lab 不綁定任何檔案路徑：設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS）。
package wdmlab

import (
	"io/fs"

	"github.com/zintix-labs/wdmlab/catalog"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/spec"
)

// Configs 把一或多個設定檔來源打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是組裝器與運行入口。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、掃描設定檔、檢查重複。
//   - 執行階段：Freeze 之後才能依 preset 建立 Simulator 或 Runtime。
type Lab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	sum []catalog.Summary
}

// New 建立一個 Lab（尚未註冊任何 preset）。
//
// cf 不能為 nil；cfgs 至少一個。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cata, cf: cf}, nil
}

// NewAuto 建立 Lab、註冊所有設定檔並 Freeze，直接進入執行階段。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔來源，解析每個 preset 並一次性註冊。
//
// Fail-fast 且具原子性：任何一個檔案失敗都不會寫入目錄。
func (l *Lab) RegisterAll() error {
	ents, err := l.cat.Discover()
	if err != nil {
		return err
	}
	return l.cat.Register(ents...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) Factory() core.PRNGFactory {
	return l.cf
}

func (l *Lab) EntryByID(id spec.PID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []spec.PID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

// Summary 列出所有 preset 摘要（Freeze 後才可用，結果會快取）。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	sum, err := l.cat.Summaries()
	if err != nil {
		return nil, err
	}
	l.sum = sum
	return l.sum, nil
}

// PresetByID 取得 preset 設定
func (l *Lab) PresetByID(id spec.PID) (*spec.PresetSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return l.cat.PresetByID(id)
}

// PresetByName 取得 preset 設定（名稱大小寫不敏感）
func (l *Lab) PresetByName(name string) (*spec.PresetSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return l.cat.PresetByName(name)
}

// NewSampler 以指定 seed 建立單一串流的 Sampler。
func (l *Lab) NewSampler(seed int64, lim wiener.Limits) *Sampler {
	return newSamplerWithSeed(l.cf, seed, lim)
}

// NewSamplerFromSnapshot 由 SnapshotCore 的輸出還原 Sampler。
func (l *Lab) NewSamplerFromSnapshot(snap []byte, lim wiener.Limits) (*Sampler, error) {
	return newSamplerFromSnapshot(l.cf, snap, lim)
}

// NewSimulator 以自帶參數建立 Simulator（無上限）。
func (l *Lab) NewSimulator(p wiener.Params, seed int64) *Simulator {
	return newSimulatorWithSeed("custom", p, wiener.Limits{}, l.cf, seed)
}

// NewSimulatorByID 以 preset 的參數與上限建立 Simulator。
func (l *Lab) NewSimulatorByID(id spec.PID, seed int64) (*Simulator, error) {
	ps, err := l.PresetByID(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ps.Name, ps.Params, ps.Limits, l.cf, seed), nil
}

// NewSimulatorByName 同 NewSimulatorByID，以名稱查找。
func (l *Lab) NewSimulatorByName(name string, seed int64) (*Simulator, error) {
	ps, err := l.PresetByName(name)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ps.Name, ps.Params, ps.Limits, l.cf, seed), nil
}

// NewSimulatorRandom 以 crypto/rand 產生的 seed 建立 Simulator。
func (l *Lab) NewSimulatorRandom(name string, p wiener.Params, lim wiener.Limits) (*Simulator, error) {
	return newSimulator(name, p, lim, l.cf)
}

// BuildRuntime 進入執行階段：Freeze catalog 並建立 SamplerPool。
//
// lim 套用到 Runtime 服務的所有請求；maxDraws 為單次請求的抽樣上限（<= 0 表示使用預設值）。
func (l *Lab) BuildRuntime(poolSize int, lim wiener.Limits, maxDraws int) (*Runtime, error) {
	l.Freeze()
	if len(l.cat.IDs()) == 0 {
		return nil, errs.NewFatal("no presets registered")
	}
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	if maxDraws <= 0 {
		maxDraws = DefaultMaxDraws
	}
	rt := &Runtime{
		lab:      l,
		pool:     newSamplerPool(poolSize, l.cf, lim, seed),
		lim:      lim,
		maxDraws: maxDraws,
		done:     make(chan struct{}),
	}
	rt.reason.Store("")
	return rt, nil
}
