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

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/zintix-labs/wdmlab/errs"
)

func newRng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// closedForm s = 1 的封閉解：P(upper) 與 E[|r|]（含 t0）
func closedForm(p Params) (pu, meanRT float64) {
	z := p.A * p.B
	if p.D == 0 {
		return p.B, z*(p.A-z) + p.T0
	}
	pu = math.Expm1(-2*p.D*z) / math.Expm1(-2*p.D*p.A)
	return pu, (p.A*pu-z)/p.D + p.T0
}

func meanAbs(ys []float64) (mean, upperRate float64) {
	up := 0
	for _, y := range ys {
		mean += math.Abs(y)
		if y > 0 {
			up++
		}
	}
	n := float64(len(ys))
	return mean / n, float64(up) / n
}

func TestGeometryInvariant(t *testing.T) {
	cases := []Params{
		{A: 1, B: 0.5},
		{A: 1.5, B: 0.4},
		{A: 2.5, B: 0.6},
		{A: 0.8, B: 0.1},
	}
	rng := newRng(1)
	for _, p := range cases {
		g := p.Geometry()
		if math.Abs((g.Upper-g.Lower)-p.A/scale) > 1e-12 {
			t.Fatalf("%+v: upper-lower want %v, got %v", p, p.A/scale, g.Upper-g.Lower)
		}
		if g.Start != 0 {
			t.Fatalf("%+v: start must be 0", p)
		}
		if want := math.Min(g.Upper, -g.Lower); g.Radius != want {
			t.Fatalf("%+v: radius want %v, got %v", p, want, g.Radius)
		}
		for step := 0; step < 10000; step++ {
			dir := -1.0
			if rng.Float64() < 0.5 {
				dir = 1
			}
			if g.resolve(dir) != open {
				break
			}
			if g.Start < g.Lower || g.Start > g.Upper || !(g.Radius > 0) {
				t.Fatalf("%+v: invariant broken: %+v", p, g)
			}
		}
	}
}

func TestSymmetricScenario(t *testing.T) {
	p := Params{A: 1, T0: 0.2, B: 0.5, D: 0}
	const n = 20000
	g := NewGenerator(Limits{})
	ys := make([]float64, n)
	if err := g.Fill(newRng(42), p, ys); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) || math.Abs(y) <= p.T0 {
			t.Fatalf("draw %d out of range: %v", i, y)
		}
	}
	mean, up := meanAbs(ys)
	if math.Abs(mean-0.45) > 0.45*0.05 {
		t.Fatalf("mean |r| want ~0.45, got %v", mean)
	}
	if math.Abs(up-0.5) > 0.03 {
		t.Fatalf("upper rate want ~0.5, got %v", up)
	}
	// 起點在正中間：第一個子區間就碰到邊界
	tr := g.Trace()
	if tr.Subintervals != n || tr.Draws != n || tr.Accepted != n {
		t.Fatalf("unexpected trace: %+v", tr)
	}
}

func TestDriftMoments(t *testing.T) {
	cases := []Params{
		{A: 1.5, T0: 0.3, B: 0.4, D: 1.2},
		{A: 2.5, T0: 0.25, B: 0.6, D: -0.8},
		{A: 1, T0: 0.1, B: 0.3, D: 0},
	}
	for i, p := range cases {
		ys := GenerateBatch(newRng(uint64(100+i)), p, 20000)
		mean, up := meanAbs(ys)
		pu, mrt := closedForm(p)
		if math.Abs(up-pu) > 0.02 {
			t.Fatalf("%+v: upper rate want %.4f, got %.4f", p, pu, up)
		}
		if math.Abs(mean-mrt)/mrt > 0.03 {
			t.Fatalf("%+v: mean |r| want %.4f, got %.4f", p, mrt, mean)
		}
	}
}

func TestOffsetShiftsMagnitude(t *testing.T) {
	base := Params{A: 1.2, T0: 0, B: 0.35, D: 0.5}
	shift := base
	shift.T0 = 0.3
	y0 := GenerateBatch(newRng(9), base, 2000)
	y1 := GenerateBatch(newRng(9), shift, 2000)
	for i := range y0 {
		if math.Signbit(y0[i]) != math.Signbit(y1[i]) {
			t.Fatalf("draw %d: sign changed with t0", i)
		}
		if d := math.Abs(y1[i]) - math.Abs(y0[i]); math.Abs(d-0.3) > 1e-9 {
			t.Fatalf("draw %d: magnitude shift want 0.3, got %v", i, d)
		}
	}
}

func TestBatchIdentity(t *testing.T) {
	p := Params{A: 1, T0: 0.2, B: 0.5, D: 0.4}
	if ys := GenerateBatch(newRng(1), p, 0); ys == nil || len(ys) != 0 {
		t.Fatalf("n=0 must return an empty slice, got %v", ys)
	}
	if ys := GenerateBatch(newRng(1), p, -3); len(ys) != 0 {
		t.Fatalf("n<0 must return an empty slice, got %v", ys)
	}
	one := GenerateOne(newRng(5), p)
	if ys := GenerateBatch(newRng(5), p, 1); len(ys) != 1 || ys[0] != one {
		t.Fatalf("n=1 must equal GenerateOne: %v vs %v", ys, one)
	}
	rng := newRng(6)
	seq := make([]float64, 5)
	for i := range seq {
		seq[i] = GenerateOne(rng, p)
	}
	batch := GenerateBatch(newRng(6), p, 5)
	for i := range seq {
		if seq[i] != batch[i] {
			t.Fatalf("index %d: batch %v != sequential %v", i, batch[i], seq[i])
		}
	}
}

func TestDeterminism(t *testing.T) {
	p := Params{A: 2, T0: 0.15, B: 0.3, D: -0.6}
	a := GenerateBatch(newRng(77), p, 500)
	b := GenerateBatch(newRng(77), p, 500)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLimitsNonConvergence(t *testing.T) {
	if !(Limits{}).Unlimited() {
		t.Fatalf("zero limits must be unlimited")
	}
	p := Params{A: 1, T0: 0.2, B: 0.5, D: 0}
	g := NewGenerator(Limits{MaxTerms: 1})
	rng := newRng(3)
	var err error
	for i := 0; i < 200 && err == nil; i++ {
		_, err = g.Draw(rng, p)
	}
	if err == nil {
		t.Fatalf("expected non-convergence with MaxTerms=1")
	}
	if !errors.Is(err, ErrNonConvergence) || !errs.IsWarn(err) {
		t.Fatalf("unexpected error: %v", err)
	}

	g = NewGenerator(Limits{MaxSubintervals: 1})
	skew := Params{A: 1, T0: 0.2, B: 0.2, D: 0}
	err = nil
	for i := 0; i < 200 && err == nil; i++ {
		_, err = g.Draw(rng, skew)
	}
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected subinterval limit, got %v", err)
	}
}

func TestTraceSanity(t *testing.T) {
	p := Params{A: 1.5, T0: 0.3, B: 0.4, D: 1.2}
	g := NewGenerator(Limits{})
	ys := make([]float64, 5000)
	if err := g.Fill(newRng(11), p, ys); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := g.Trace()
	if tr.Draws != len(ys) || tr.Upper+tr.Lower != tr.Draws {
		t.Fatalf("unexpected counts: %+v", tr)
	}
	if tr.Accepted != tr.Subintervals || tr.Trials < tr.Accepted {
		t.Fatalf("unexpected trial counts: %+v", tr)
	}
	if r := tr.AcceptRate(); !(r > 0 && r < 1) {
		t.Fatalf("accept rate out of (0,1): %v", r)
	}
	if m := tr.MeanTerms(); m < 1 || m > 1000 {
		t.Fatalf("mean terms out of range: %v", m)
	}
	if tr.MeanSubintervals() < 1 {
		t.Fatalf("mean subintervals must be >= 1")
	}

	g.ResetTrace()
	if g.Trace() != (Trace{}) {
		t.Fatalf("reset must clear trace")
	}
}

func TestSubintervalOverflow(t *testing.T) {
	si := newSubinterval(1, 1000)
	if si.prob != 1 {
		t.Fatalf("overflow prob want 1, got %v", si.prob)
	}
	si = newSubinterval(1, -1000)
	if si.prob != 0 {
		t.Fatalf("underflow prob want 0, got %v", si.prob)
	}
	si = newSubinterval(0.05, 0)
	if si.prob != 0.5 || si.f != 1 {
		t.Fatalf("zero drift subinterval unexpected: %+v", si)
	}
}

func TestSeriesBound(t *testing.T) {
	l, terms, ok := seriesBound(0.5, 1, 0)
	if !ok || terms < 1 || math.IsNaN(l) {
		t.Fatalf("unexpected series result: %v %d %v", l, terms, ok)
	}
	if _, _, ok := seriesBound(0.99, 1, 1); ok {
		t.Fatalf("MaxTerms=1 should not converge for s1=0.99")
	}
}

func TestAcceptanceAcrossGrid(t *testing.T) {
	seed := uint64(500)
	for _, a := range []float64{0.5, 3} {
		for _, d := range []float64{0, 5, -5} {
			for _, b := range []float64{0.15, 0.85} {
				p := Params{A: a, T0: 0.1, B: b, D: d}
				g := NewGenerator(Limits{})
				ys := make([]float64, 3000)
				seed++
				if err := g.Fill(newRng(seed), p, ys); err != nil {
					t.Fatalf("%+v: unexpected error: %v", p, err)
				}
				tr := g.Trace()
				if tr.Upper+tr.Lower != tr.Draws {
					t.Fatalf("%+v: unexpected counts: %+v", p, tr)
				}
				if r := tr.AcceptRate(); !(r > 0 && r < 1) {
					t.Fatalf("%+v: accept rate out of (0,1): %v", p, r)
				}
				// 峰值可到上千項，平均值要維持在個位到十幾項
				if m := tr.MeanTerms(); m < 1 || m > 40 {
					t.Fatalf("%+v: mean terms out of range: %v (peak %d)", p, m, tr.PeakTerms)
				}
			}
		}
	}
}

// survival 大時間級數的存活函數 P(T > t)，s = 1，下邊界 0、上邊界 a、起點 z。
func survival(t float64, p Params) float64 {
	a, z, v := p.A, p.A*p.B, p.D
	sum := 0.0
	for k := 1; k < 1_000_000; k++ {
		w := float64(k) * math.Pi / a
		sign := -1.0
		if k%2 == 0 {
			sign = 1
		}
		c := 2 / a * math.Sin(w*z) * math.Exp(-v*z) * w * (1 - sign*math.Exp(v*a)) / (v*v + w*w)
		decay := math.Exp(-(w*w + v*v) / 2 * t)
		sum += c * decay
		if decay < 1e-18 {
			break
		}
	}
	return min(1, max(0, sum))
}

func TestDecisionTimeMatchesReferenceCDF(t *testing.T) {
	// 中點起始、無漂移：P(T > 1) ≈ (4/π) e^{-π²/2}
	if got, want := survival(1, Params{A: 1, B: 0.5}), 4/math.Pi*math.Exp(-math.Pi*math.Pi/2); math.Abs(got-want) > 1e-6 {
		t.Fatalf("reference survival want %v, got %v", want, got)
	}
	cases := []Params{
		{A: 1, B: 0.5, D: 0},
		{A: 1.5, B: 0.4, D: 1.2},
		{A: 2.5, B: 0.6, D: -0.8},
		{A: 3, B: 0.15, D: 5},
		{A: 0.5, B: 0.85, D: -5},
	}
	const n = 4000
	crit := 1.95 / math.Sqrt(n)
	for i, p := range cases {
		ys := GenerateBatch(newRng(uint64(900+i)), p, n)
		for j := range ys {
			ys[j] = math.Abs(ys[j])
		}
		slices.Sort(ys)
		dist := 0.0
		for j, y := range ys {
			ref := 1 - survival(y, p)
			dist = max(dist, math.Abs(ref-float64(j)/n), math.Abs(ref-float64(j+1)/n))
		}
		if dist > crit {
			t.Fatalf("%+v: KS distance %.4f exceeds %.4f", p, dist, crit)
		}
	}
}
