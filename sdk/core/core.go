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

// Package core 提供 wdmlab 的均勻亂數核心。
//
// 首達時間產生器只需要 [0,1) 的 Float64；但模擬器需要可重現（同 seed 同序列）、
// 可快照/還原，以及派生獨立的子串流，這些都由本包負責。
package core

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// Float64 的精度（53-bit 或 32-bit）由實作決定，因此不只要求 Uint64。
type RAND interface {
	// Uint64 回傳 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：同一實作、同一版本下 New(seed) 必須是決定性的，
// 相同 seed 產生相同的初始狀態與輸出序列。wdmlab 內部永遠帶 seed 建立 PRNG。
type PRNGFactory interface {
	New(int64) PRNG
}

type pcg64Factory struct{}

func (pcg64Factory) New(seed int64) PRNG { return newPCG64WithSeed(seed) }

type pcg32Factory struct{}

func (pcg32Factory) New(seed int64) PRNG { return newPCG32WithSeed(seed) }

// Default 回傳預設工廠（PCG64，53-bit Float64）。
func Default() PRNGFactory { return pcg64Factory{} }

// PCG32Factory 回傳 PCG32 工廠（32-bit Float64，較快但精度較低）。
func PCG32Factory() PRNGFactory { return pcg32Factory{} }

// Core 封裝 PRNG，並記住工廠以便 Split 派生同類型的子串流。
//
// Core 滿足 wiener.Uniform，可直接交給首達時間產生器。Core 不是併發安全的。
type Core struct {
	PRNG
	cf PRNGFactory
}

// New 允許使用外部自實現的 PRNG 建立 Core；Split 會使用 Default 工廠。
func New(rng PRNG) *Core {
	return &Core{PRNG: rng, cf: Default()}
}

// NewWithSeed 以指定工廠與 seed 建立 Core。
func NewWithSeed(cf PRNGFactory, seed int64) *Core {
	if cf == nil {
		cf = Default()
	}
	return &Core{PRNG: cf.New(seed), cf: cf}
}

// Split 由目前串流派生一個獨立的子 Core，並推進目前串流。
//
// 同一個 Core 狀態下 Split 的結果是決定性的；design 以此為每位受試者分配串流。
func (c *Core) Split() *Core {
	seed := int64(splitmix64(c.Uint64()) & mask63)
	return NewWithSeed(c.cf, seed)
}

const mask63 = uint64(1<<63) - 1
