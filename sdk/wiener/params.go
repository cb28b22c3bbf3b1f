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

// Package wiener 產生雙吸收邊界 Wiener 擴散過程的首達時間（first-passage time）亂數。
//
// 每一次抽樣回傳一個帶符號的時間（秒）：
//   - 絕對值 = 擴散時間 + 非決策時間 t0
//   - 正號 = 觸及上邊界；負號 = 觸及下邊界
//
// 演算法是精確的（非近似）：把整段路徑拆成一連串「以目前位置為中心、半徑為到最近邊界距離」
// 的對稱子區間，每個子區間的停留時間以交錯級數 + 拒絕採樣抽出。
//
// 本包不做任何參數範圍檢查：a <= 0 或 b 不在 (0,1) 會得到退化的幾何與未定義結果，
// 參數驗證是呼叫端的責任。
package wiener

// 以下常數會直接影響輸出分佈，不可換成「看起來等價」的寫法。
const (
	// scale 邊界距離 a 與漂移率 d 在使用前都會除以 scale（內部工作單位）。
	scale = 10.0
	// diffusion 正規化過程的擴散率常數 D。
	diffusion = 0.005
	// uniformLo / uniformSpan 把 [0,1) 的均勻亂數縮放到 [0.00001, 0.99999)。
	uniformLo   = 0.00001
	uniformSpan = 0.99998
	// seriesEps 交錯級數的收斂門檻；l 是拒絕邊界，收斂不足會讓接受率（也就是輸出分佈）產生偏差。
	seriesEps = 1e-15
	// absorbEps 判定是否觸及邊界的數值容忍度。
	absorbEps = 1e-15
)

// Uniform 是單次抽樣所需的均勻亂數來源，Float64 回傳 [0,1)。
//
// 刻意只要求一個方法：sdk/core.Core、math/rand/v2.*Rand 都能直接傳入。
// Uniform 不保證併發安全；併發時每個 goroutine 應持有獨立的來源。
type Uniform interface {
	Float64() float64
}

// Params 單次呼叫期間不可變的取樣參數。
type Params struct {
	// 邊界距離
	A float64 `json:"a" yaml:"a"`
	// 非決策時間（秒）
	T0 float64 `json:"t0" yaml:"t0"`
	// 相對起點偏誤（距下邊界的比例）
	B float64 `json:"b" yaml:"b"`
	// 漂移率
	D float64 `json:"d" yaml:"d"`
}

// Geometry 回傳這組參數在內部工作單位下的初始幾何（尚未走任何子區間）。
func (p Params) Geometry() Geometry {
	return newGeometry(p.A/scale, p.B)
}
