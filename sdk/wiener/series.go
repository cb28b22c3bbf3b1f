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

package wiener

import "math"

// subinterval 一個對稱子區間（半徑 radius）的取樣係數。
//
//   - lambda：停留時間的速率，totalTime += |ln s1| / lambda
//   - f：交錯級數的指數係數 F
//   - prob：往上走（+radius）的機率
type subinterval struct {
	lambda float64
	f      float64
	prob   float64
}

func newSubinterval(radius, v float64) subinterval {
	if v == 0 {
		return subinterval{
			lambda: 0.25 * diffusion * math.Pi * math.Pi / (radius * radius),
			f:      1,
			prob:   0.5,
		}
	}
	lambda := 0.25*v*v/diffusion + 0.25*diffusion*math.Pi*math.Pi/(radius*radius)
	f := diffusion * math.Pi / (radius * v)
	f = f * f / (1 + f*f)
	prob := math.Exp(radius * v / diffusion)
	if math.IsInf(prob, 1) {
		// e^x 溢位時 Inf/Inf 會變成 NaN，極限值為 1
		prob = 1
	} else {
		prob = prob / (1 + prob)
	}
	return subinterval{lambda: lambda, f: f, prob: prob}
}

// direction 以一次均勻亂數決定子區間的出口方向。
func (si subinterval) direction(rng Uniform) float64 {
	if rng.Float64() < si.prob {
		return 1
	}
	return -1
}

// seriesBound 計算拒絕邊界 l = 1 + s1^(-F) * Σ_{k>=1} (-1)^k (2k+1) s1^(F(2k+1)^2)。
//
// 級數至少評估一項，直到 |term| <= seriesEps 為止。
// maxTerms > 0 時，超過項數上限回傳 ok=false。terms 為實際使用的項數。
func seriesBound(s1, f float64, maxTerms int) (l float64, terms int, ok bool) {
	sum := 0.0
	for k := 1; ; k++ {
		m := float64(2*k + 1)
		term := m * math.Pow(s1, f*m*m)
		if k%2 == 1 {
			term = -term
		}
		sum += term
		if math.Abs(term) <= seriesEps {
			return 1 + math.Pow(s1, -f)*sum, k, true
		}
		if maxTerms > 0 && k >= maxTerms {
			return 0, k, false
		}
	}
}
