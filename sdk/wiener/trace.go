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

// Trace 診斷計數，不影響抽樣結果。
type Trace struct {
	Draws        int `json:"draws" yaml:"draws"`
	Subintervals int `json:"subintervals" yaml:"subintervals"`
	// 拒絕採樣嘗試次數與被接受次數
	Trials   int `json:"trials" yaml:"trials"`
	Accepted int `json:"accepted" yaml:"accepted"`
	// 級數總項數，以及單次級數評估的最大項數
	Terms     int `json:"terms" yaml:"terms"`
	PeakTerms int `json:"peak_terms" yaml:"peak_terms"`
	Upper     int `json:"upper" yaml:"upper"`
	Lower     int `json:"lower" yaml:"lower"`
}

func (t *Trace) addTerms(n int) {
	t.Terms += n
	if n > t.PeakTerms {
		t.PeakTerms = n
	}
}

// Add 合併另一份計數（例如多個 worker 的結果）。
func (t *Trace) Add(o Trace) {
	t.Draws += o.Draws
	t.Subintervals += o.Subintervals
	t.Trials += o.Trials
	t.Accepted += o.Accepted
	t.Terms += o.Terms
	t.PeakTerms = max(t.PeakTerms, o.PeakTerms)
	t.Upper += o.Upper
	t.Lower += o.Lower
}

// AcceptRate 拒絕採樣接受率
func (t Trace) AcceptRate() float64 {
	if t.Trials == 0 {
		return 0
	}
	return float64(t.Accepted) / float64(t.Trials)
}

// MeanTerms 每次級數評估的平均項數
func (t Trace) MeanTerms() float64 {
	if t.Trials == 0 {
		return 0
	}
	return float64(t.Terms) / float64(t.Trials)
}

// MeanSubintervals 每次抽樣平均經過的子區間數
func (t Trace) MeanSubintervals() float64 {
	if t.Draws == 0 {
		return 0
	}
	return float64(t.Subintervals) / float64(t.Draws)
}
