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
	"os"
	"time"

	"github.com/zintix-labs/wdmlab/stats"
)

// report 依 -out 輸出：table 走終端表格，其他走 stats 的 renderer。
func report(st *stats.StatReport, used time.Duration) error {
	if cfg.out == "table" {
		st.StdOut(used)
		return nil
	}
	r, err := stats.Renderer(cfg.out)
	if err != nil {
		return err
	}
	return st.WriteWith(os.Stdout, r)
}
