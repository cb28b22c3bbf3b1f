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


package main

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

// 宿主可能從多個執行緒呼叫；全域串流以 mu 保護。
var (
	mu  sync.Mutex
	rng = core.NewWithSeed(core.Default(), initialSeed())
	gen = wiener.NewGenerator(wiener.Limits{})
)

// initialSeed 宿主未呼叫 rnd_seed 前使用 crypto/rand 的 seed
func initialSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

func reseed(seed int64) {
	mu.Lock()
	defer mu.Unlock()
	rng = core.NewWithSeed(core.Default(), seed)
	gen.ResetTrace()
}

// fill 沒有上限的 Generator 不會回傳錯誤
func fill(p wiener.Params, dst []float64) {
	mu.Lock()
	defer mu.Unlock()
	_ = gen.Fill(rng, p, dst)
}

func one(p wiener.Params) float64 {
	mu.Lock()
	defer mu.Unlock()
	v, _ := gen.Draw(rng, p)
	return v
}
