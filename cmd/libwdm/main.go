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


// libwdm 以 c-shared 方式輸出抽樣函式給外部宿主（ctypes、R .C、Julia ccall 等）。
//
//	go build -buildmode=c-shared -o libwdm.so ./cmd/libwdm
//
// 匯出：
//
//	double *rnd(double a, double t0, double b, double d, int n); // 呼叫端以 rnd_free 釋放
//	void    rnd_free(double *p);
//	double  rnd_one(double a, double t0, double b, double d);
//	void    rnd_seed(long long seed);
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

const float64Size = C.size_t(unsafe.Sizeof(float64(0)))

// rnd 以 C.malloc 配置 n 筆結果；n <= 0 時回傳 NULL。
//
//export rnd
func rnd(a, t0, b, d C.double, n C.int) *C.double {
	if n <= 0 {
		return nil
	}
	ptr := (*C.double)(C.malloc(C.size_t(n) * float64Size))
	if ptr == nil {
		return nil
	}
	dst := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), int(n))
	fill(params(a, t0, b, d), dst)
	return ptr
}

//export rnd_free
func rnd_free(p *C.double) {
	C.free(unsafe.Pointer(p))
}

//export rnd_one
func rnd_one(a, t0, b, d C.double) C.double {
	return C.double(one(params(a, t0, b, d)))
}

// rnd_seed 重設全域串流；之後的序列只由 seed 決定。
//
//export rnd_seed
func rnd_seed(seed C.longlong) {
	reseed(int64(seed))
}

func params(a, t0, b, d C.double) wiener.Params {
	return wiener.Params{A: float64(a), T0: float64(t0), B: float64(b), D: float64(d)}
}

func main() {}
