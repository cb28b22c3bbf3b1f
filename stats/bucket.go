package stats

import (
	"fmt"
	"math"
)

// RTBuckets 決策時間的區間定義。
//
// 區間以「理論平均擴散時間 μ」為單位，讓不同參數組的分佈形狀可以直接比較：
//   - [0,0.25μ), [0.25μ,0.5μ), ..., [4μ,6μ), [6μ,+inf)
//
// 請勿修改預設值（會影響既有報表的可比性）。
type RTBuckets struct {
	edges  []float64
	labels []string
}

// Buckets 預設區間
var Buckets = newRTBuckets([]float64{0.25, 0.5, 0.75, 1, 1.5, 2, 3, 4, 6})

func newRTBuckets(edges []float64) *RTBuckets {
	labels := make([]string, 0, len(edges)+1)
	lo := 0.0
	for _, e := range edges {
		labels = append(labels, fmt.Sprintf("[%gμ,%gμ)", lo, e))
		lo = e
	}
	labels = append(labels, fmt.Sprintf("[%gμ,+inf)", lo))
	return &RTBuckets{edges: edges, labels: labels}
}

// Labels 回傳區間標籤（長度 = 區間數）
func (b *RTBuckets) Labels() []string {
	return b.labels
}

// Len 區間數
func (b *RTBuckets) Len() int {
	return len(b.labels)
}

// Index 回傳決策時間 dt 在平均值 mu 下所屬的區間。
// mu 非正或非有限值時以 1 代替（退化參數下仍可紀錄）。
func (b *RTBuckets) Index(dt, mu float64) int {
	if !(mu > 0) || math.IsInf(mu, 0) {
		mu = 1
	}
	x := dt / mu
	for i, e := range b.edges {
		if x < e {
			return i
		}
	}
	return len(b.edges)
}
