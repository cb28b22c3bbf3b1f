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

package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// DefaultProbs 報表預設輸出的分位點
var DefaultProbs = []float64{0.1, 0.3, 0.5, 0.7, 0.9}

// QuantileReport |result| 的經驗分位數，整體與上下邊界分開計算。
// 某一側沒有樣本時該側分位數全為 0。
type QuantileReport struct {
	Probs   []float64 `json:"Probs"`
	RT      []float64 `json:"RT"`
	UpperRT []float64 `json:"UpperRT"`
	LowerRT []float64 `json:"LowerRT"`
}

// NewQuantileReport 以完整樣本計算分位數（不修改 draws）。
func NewQuantileReport(draws []float64, probs []float64) *QuantileReport {
	all := make([]float64, 0, len(draws))
	up := make([]float64, 0, len(draws))
	lo := make([]float64, 0, len(draws))
	for _, v := range draws {
		rt := math.Abs(v)
		all = append(all, rt)
		if v > 0 {
			up = append(up, rt)
		} else {
			lo = append(lo, rt)
		}
	}
	return &QuantileReport{
		Probs:   slices.Clone(probs),
		RT:      quantiles(all, probs),
		UpperRT: quantiles(up, probs),
		LowerRT: quantiles(lo, probs),
	}
}

func quantiles(x []float64, probs []float64) []float64 {
	out := make([]float64, len(probs))
	if len(x) == 0 {
		return out
	}
	slices.Sort(x)
	for i, p := range probs {
		out[i] = stat.Quantile(p, stat.Empirical, x, nil)
	}
	return out
}

// DecisionTimes 回傳 |result| - t0（新切片）。
func DecisionTimes(draws []float64, t0 float64) []float64 {
	out := make([]float64, len(draws))
	for i, v := range draws {
		out[i] = math.Abs(v) - t0
	}
	return out
}

// KSDistance 兩樣本 Kolmogorov-Smirnov 統計量 sup|F_x - F_y|（不修改輸入）。
func KSDistance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	xs := slices.Clone(x)
	ys := slices.Clone(y)
	slices.Sort(xs)
	slices.Sort(ys)
	return stat.KolmogorovSmirnov(xs, nil, ys, nil)
}

// KSCritical 兩樣本 KS 檢定在顯著水準 alpha 下的臨界值（大樣本近似）。
func KSCritical(n, m int, alpha float64) float64 {
	if n == 0 || m == 0 {
		return math.Inf(1)
	}
	c := math.Sqrt(-0.5 * math.Log(alpha/2))
	return c * math.Sqrt(float64(n+m)/float64(n*m))
}

// MeanStd 樣本平均與標準差
func MeanStd(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return 0, 0
	}
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
