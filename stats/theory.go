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

import "math"

// Theory 雙邊界 Wiener 過程（擴散係數 s = 1）的封閉解，用來對照模擬結果。
//
// 產生器內部把 a、d 除以 10 並使用 D = 0.005（變異率 2D = 0.01），
// 與 s = 1 的標準參數化完全等價，因此這裡直接使用原始單位。
type Theory struct {
	// UpperProb 觸及上邊界的機率
	UpperProb float64 `json:"UpperProb"`
	// MeanDT 平均擴散時間（不含 t0）
	MeanDT float64 `json:"MeanDT"`
	// MeanRT 平均總時間 = MeanDT + t0
	MeanRT float64 `json:"MeanRT"`
}

// NewTheory 依 (a, t0, b, d) 計算封閉解。
//
//	d = 0:  P(upper) = b,  E[T] = z(a-z)
//	d != 0: P(upper) = (1 - e^{-2dz}) / (1 - e^{-2da}),  E[T] = (a·P(upper) - z) / d
//
// 其中 z = a·b。
func NewTheory(a, t0, b, d float64) Theory {
	z := a * b
	var pu, mt float64
	if d == 0 {
		pu = b
		mt = z * (a - z)
	} else {
		pu = math.Expm1(-2*d*z) / math.Expm1(-2*d*a)
		mt = (a*pu - z) / d
	}
	return Theory{UpperProb: pu, MeanDT: mt, MeanRT: mt + t0}
}
