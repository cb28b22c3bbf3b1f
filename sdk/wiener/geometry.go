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

// Geometry 正規化後的邊界幾何。
//
// Upper / Lower 在整次抽樣中固定；Start 與 Radius 每走完一個未吸收的子區間就更新。
// 不變式：Lower <= Start <= Upper，且吸收前 Radius > 0。
type Geometry struct {
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
	Start  float64 `json:"start"`
	Radius float64 `json:"radius"`
}

// outcome 子區間結束後的狀態
type outcome uint8

const (
	open outcome = iota
	absorbedUpper
	absorbedLower
)

func newGeometry(a, b float64) Geometry {
	z := a * b
	g := Geometry{
		Upper: a - z,
		Lower: -z,
		Start: 0,
	}
	g.Radius = math.Min(math.Abs(g.Upper), math.Abs(g.Lower))
	return g
}

// resolve 沿 dir（+1 / -1）走完目前子區間。
// 若候選位置落在（容忍度內的）邊界外就吸收；否則移動起點並重算半徑。
func (g *Geometry) resolve(dir float64) outcome {
	p := g.Start + dir*g.Radius
	if p+absorbEps > g.Upper {
		return absorbedUpper
	}
	if p-absorbEps < g.Lower {
		return absorbedLower
	}
	g.Start = p
	g.Radius = math.Min(math.Abs(g.Upper-p), math.Abs(g.Lower-p))
	return open
}
