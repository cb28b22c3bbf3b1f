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

package core

import (
	"math/bits"
	r2 "math/rand/v2"
)

// PCG64 以 math/rand/v2 的 PCG（128-bit 狀態）為底的亂數產生器。
// seed 經 splitmix64 展開成兩個 64-bit 狀態。
type PCG64 struct {
	rng *r2.PCG
}

func newPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	hi := splitmix64(x)
	lo := splitmix64(x ^ 0xDA942042E4DD58B5)
	return &PCG64{rng: r2.NewPCG(hi, lo)}
}

// Uint64 回傳 uint64 亂數
func (r *PCG64) Uint64() uint64 {
	return r.rng.Uint64()
}

// UintN 產出 [0,max) 的 uint，若 max == 0 回傳 0
func (r *PCG64) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.uint64n(uint64(max)))
}

// IntN 產出 [0,max) 的 int，若 max <= 0 回傳 -1
func (r *PCG64) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return int(r.uint64n(uint64(max)))
}

// Float64 產出 [0,1) 的 float64（53 bits 精度）
func (r *PCG64) Float64() float64 {
	return float64(r.Uint64()<<11>>11) / (1 << 53)
}

// Restore 恢復內部狀態
func (r *PCG64) Restore(data []byte) error {
	return r.rng.UnmarshalBinary(data)
}

// Snapshot 取得當下內部狀態
func (r *PCG64) Snapshot() ([]byte, error) {
	return r.rng.MarshalBinary()
}

// splitmix64 將輸入值混洗成新的 64-bit 值，用於種子展開與串流派生。
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// uint64n 回傳 [0,n) 的無偏亂數（乘法高位 + 拒絕採樣）。
func (r *PCG64) uint64n(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.Uint64() & (n - 1)
	}
	hi, lo := bits.Mul64(r.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(r.Uint64(), n)
		}
	}
	return hi
}
