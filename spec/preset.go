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

// Package spec 定義 wdmlab 的設定檔結構（YAML / JSON）。
//
// 設定檔只描述「要用哪組參數抽樣」；本包只做結構性檢查（名稱、ID、非負上限），
// 不檢查 a、b、d 的數值範圍，參數是否合理由使用者負責。
package spec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"gopkg.in/yaml.v3"
)

// PID 預設參數組（preset）的識別碼，0 保留為「未指定」。
type PID uint

// PresetSetting 一組具名的取樣參數。
type PresetSetting struct {
	Name   string        `yaml:"name"   json:"name"`
	ID     PID           `yaml:"id"     json:"id"`
	Note   string        `yaml:"note"   json:"note,omitempty"`
	Params wiener.Params `yaml:"params" json:"params"`
	Limits wiener.Limits `yaml:"limits" json:"limits"`
	// Draws 模擬時的預設抽樣數（0 表示由呼叫端決定）
	Draws int `yaml:"draws" json:"draws"`
}

// GetPresetByYAML 讀取 YAML 設定並執行基本檢查後回傳。
func GetPresetByYAML(data []byte) (*PresetSetting, error) {
	ps := &PresetSetting{}
	if err := yaml.Unmarshal(data, ps); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal yaml")
	}
	if err := ps.valid(); err != nil {
		return nil, errs.Wrap(err, "preset setting invalid")
	}
	return ps, nil
}

// GetPresetByJSON 讀取 JSON 設定並執行基本檢查後回傳。
func GetPresetByJSON(data []byte) (*PresetSetting, error) {
	ps := &PresetSetting{}
	if err := json.Unmarshal(data, ps); err != nil {
		return nil, errs.Wrap(err, "can not unmarshal json byte")
	}
	if err := ps.valid(); err != nil {
		return nil, errs.Wrap(err, "preset setting invalid")
	}
	return ps, nil
}

// Valid 對外暴露的基本檢查（程式內直接建構 PresetSetting 時使用）
func (ps *PresetSetting) Valid() error {
	return ps.valid()
}

func (ps *PresetSetting) valid() error {
	ps.Name = strings.TrimSpace(ps.Name)
	if ps.Name == "" {
		return errs.NewFatal("preset name required")
	}
	if ps.ID == 0 {
		return errs.NewFatal(fmt.Sprintf("preset: %s err: id must > 0", ps.Name))
	}
	if ps.Draws < 0 {
		return errs.NewFatal(fmt.Sprintf("preset: %s err: draws must >= 0", ps.Name))
	}
	l := ps.Limits
	if l.MaxSubintervals < 0 || l.MaxTrials < 0 || l.MaxTerms < 0 {
		return errs.NewFatal(fmt.Sprintf("preset: %s err: limits must >= 0", ps.Name))
	}
	return nil
}
