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


// Package design 模擬階層式擴散模型的實驗設計：
// 先從先驗抽出群體與個人參數，再為每位受試者抽 T 次首達時間，最後算出每人的 EZ 統計量。
package design

import (
	"fmt"
	"math"

	"github.com/zintix-labs/wdmlab/errs"
)

// 個人參數的截斷範圍（估計模型裡同樣的截斷）
const (
	boundLo = 0.10
	boundHi = 3.00
	driftLo = -3.00
	driftHi = 3.00
	nondtLo = 0.05
)

// Prior 群體層參數的先驗。
//
// 群體平均為常態分佈；群體標準差與 betaweight 為均勻分佈。
type Prior struct {
	BetaweightLower float64 `json:"betaweight_lower" yaml:"betaweight_lower"`
	BetaweightUpper float64 `json:"betaweight_upper" yaml:"betaweight_upper"`
	BoundMeanMean   float64 `json:"bound_mean_mean" yaml:"bound_mean_mean"`
	BoundMeanSdev   float64 `json:"bound_mean_sdev" yaml:"bound_mean_sdev"`
	DriftMeanMean   float64 `json:"drift_mean_mean" yaml:"drift_mean_mean"`
	DriftMeanSdev   float64 `json:"drift_mean_sdev" yaml:"drift_mean_sdev"`
	NondtMeanMean   float64 `json:"nondt_mean_mean" yaml:"nondt_mean_mean"`
	NondtMeanSdev   float64 `json:"nondt_mean_sdev" yaml:"nondt_mean_sdev"`
	BoundSdevLower  float64 `json:"bound_sdev_lower" yaml:"bound_sdev_lower"`
	BoundSdevUpper  float64 `json:"bound_sdev_upper" yaml:"bound_sdev_upper"`
	DriftSdevLower  float64 `json:"drift_sdev_lower" yaml:"drift_sdev_lower"`
	DriftSdevUpper  float64 `json:"drift_sdev_upper" yaml:"drift_sdev_upper"`
	NondtSdevLower  float64 `json:"nondt_sdev_lower" yaml:"nondt_sdev_lower"`
	NondtSdevUpper  float64 `json:"nondt_sdev_upper" yaml:"nondt_sdev_upper"`
}

// DefaultPrior 預設先驗
func DefaultPrior() Prior {
	return Prior{
		BetaweightLower: 0.00,
		BetaweightUpper: 1.00,
		BoundMeanMean:   1.50,
		BoundMeanSdev:   0.20,
		DriftMeanMean:   0.00,
		DriftMeanSdev:   0.50,
		NondtMeanMean:   0.30,
		NondtMeanSdev:   0.06,
		BoundSdevLower:  0.10,
		BoundSdevUpper:  0.40,
		DriftSdevLower:  0.20,
		DriftSdevUpper:  0.40,
		NondtSdevLower:  0.05,
		NondtSdevUpper:  0.25,
	}
}

// Valid 檢查標準差為正、均勻分佈區間不顛倒，且群體平均落在截斷範圍內可被抽到。
func (p Prior) Valid() error {
	for name, v := range map[string]float64{
		"bound_mean_sdev": p.BoundMeanSdev,
		"drift_mean_sdev": p.DriftMeanSdev,
		"nondt_mean_sdev": p.NondtMeanSdev,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return errs.NewWarn(fmt.Sprintf("prior %s must be > 0", name))
		}
	}
	for name, r := range map[string][2]float64{
		"betaweight": {p.BetaweightLower, p.BetaweightUpper},
		"bound_sdev": {p.BoundSdevLower, p.BoundSdevUpper},
		"drift_sdev": {p.DriftSdevLower, p.DriftSdevUpper},
		"nondt_sdev": {p.NondtSdevLower, p.NondtSdevUpper},
	} {
		if math.IsNaN(r[0]) || math.IsNaN(r[1]) || r[0] > r[1] {
			return errs.NewWarn(fmt.Sprintf("prior %s range [%g, %g] is invalid", name, r[0], r[1]))
		}
	}
	if p.BoundSdevLower < 0 || p.DriftSdevLower < 0 || p.NondtSdevLower < 0 {
		return errs.NewWarn("prior sdev bounds must be >= 0")
	}
	return nil
}
