package stats

import "math"

// ezSmall |a·d| 小於此值時 VRT 改用級數展開，避免 1 - e^{-2x} - 2x·e^{-x} 的相消誤差。
const ezSmall = 1e-2

// EZ 為 EZ-diffusion 的前向方程（無偏起點 b = 0.5、s = 1）。
//
// 上邊界視為「正確」反應：Pc 是正確率，MRT/VRT 是正確反應時間的平均與變異數。
// 起點無偏時兩個邊界的條件分佈形狀相同，所以 VRT 同時也是下邊界的變異數。
type EZ struct {
	Pc  float64 `json:"Pc"`
	MDT float64 `json:"MDT"`
	MRT float64 `json:"MRT"`
	VRT float64 `json:"VRT"`
}

// NewEZ 依 (a, t0, d) 計算 EZ 預測值。
//
//	y   = e^{-a·d}
//	Pc  = 1 / (1 + y)
//	MDT = a/(2d) · (1 - y)/(1 + y)
//	VRT = a·(1 - 2a·d·y - y²) / (2d³·(1 + y)²)
//
// d = 0 時取極限：Pc = 1/2、MDT = a²/4、VRT = a⁴/24。
func NewEZ(a, t0, d float64) EZ {
	x := math.Abs(a * d)
	ez := EZ{Pc: 0.5, MDT: a * a / 4}
	if d != 0 {
		ez.Pc = 1 / (1 + math.Exp(-a*d))
		ez.MDT = a / (2 * d) * math.Tanh(a*d/2)
	}
	ez.MRT = ez.MDT + t0

	// VRT 對 d 是偶函數，以 |d| 計算讓 e^{-x} 不溢位
	if x < ezSmall {
		ez.VRT = math.Pow(a, 4) / 24 * (1 - x*x/5)
		return ez
	}
	w := math.Abs(d)
	y := math.Exp(-x)
	ez.VRT = a * (-math.Expm1(-2*x) - 2*x*y) / (2 * w * w * w * (1 + y) * (1 + y))
	return ez
}
