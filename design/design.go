package design

import (
	"context"
	"fmt"

	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/recorder"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/stats"
)

// maxRedraws 單一受試者全部答錯時重抽的上限
const maxRedraws = 10_000

// unbiased 設計中所有受試者的起點都在兩邊界中間
const unbiased = 0.5

// Design 一個階層式實驗設計：P 位受試者、每人 T 次試驗。
type Design struct {
	Participants int           `json:"participants" yaml:"participants"`
	Trials       int           `json:"trials" yaml:"trials"`
	Prior        Prior         `json:"prior" yaml:"prior"`
	Criterion    Criterion     `json:"criterion" yaml:"criterion"`
	Predictor    []float64     `json:"predictor,omitempty" yaml:"predictor,omitempty,flow"`
	Limits       wiener.Limits `json:"limits" yaml:"limits"`
}

// Person 一位受試者的真值參數與模擬資料
type Person struct {
	ID      int           `json:"id"`
	Params  wiener.Params `json:"params"`
	Draws   []float64     `json:"-"`
	Redraws int           `json:"redraws"` // 因全部答錯而重抽的次數
}

// Dataset 一次設計模擬的結果
type Dataset struct {
	Seed    int64         `json:"seed"`
	Truth   *ParameterSet `json:"truth"`
	Persons []Person      `json:"persons"`
	Trace   wiener.Trace  `json:"trace"`
}

// Valid 檢查設計的結構
func (d *Design) Valid() error {
	if d == nil {
		return errs.NewWarn("nil design")
	}
	if d.Participants < 1 {
		return errs.NewWarn("participants must > 0")
	}
	if d.Trials < 1 {
		return errs.NewWarn("trials must > 0")
	}
	if len(d.Predictor) != 0 && len(d.Predictor) != d.Participants {
		return errs.Warnf("predictor length %d != participants %d", len(d.Predictor), d.Participants)
	}
	if d.Limits.MaxSubintervals < 0 || d.Limits.MaxTrials < 0 || d.Limits.MaxTerms < 0 {
		return errs.NewWarn("limits must be >= 0")
	}
	if _, err := ParseCriterion(string(d.Criterion)); err != nil {
		return err
	}
	return d.Prior.Valid()
}

// Simulate 抽一組真值參數並為每位受試者模擬 T 次試驗。
//
// 群體與個人參數來自以 seed 建立的主串流；每位受試者的試驗使用由主串流 Split 出的獨立串流，
// 所以同一個 seed 的結果固定，且重抽次數不會影響其他受試者。
// 受試者一題都沒答對（沒有觸及上邊界）時整組重抽，超過 maxRedraws 回傳 Warn。
func (d *Design) Simulate(ctx context.Context, cf core.PRNGFactory, seed int64) (*Dataset, error) {
	if err := d.Valid(); err != nil {
		return nil, err
	}
	root := core.NewWithSeed(cf, seed)
	truth, err := SampleParameters(d.Prior, d.Participants, d.Criterion, d.Predictor, root)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Seed: seed, Truth: truth, Persons: make([]Person, d.Participants)}
	g := wiener.NewGenerator(d.Limits)
	for p := range ds.Persons {
		person := Person{
			ID:     p,
			Params: wiener.Params{A: truth.Bound[p], T0: truth.Nondt[p], B: unbiased, D: truth.Drift[p]},
			Draws:  make([]float64, d.Trials),
		}
		rng := root.Split()
		for {
			if err := ctx.Err(); err != nil {
				return nil, errs.WrapLv(errs.Warn, err, "design simulation canceled")
			}
			if err := g.Fill(rng, person.Params, person.Draws); err != nil {
				return nil, errs.WrapWithExtra(err, "simulate person failed", fmt.Sprintf("person=%d", p))
			}
			if anyUpper(person.Draws) {
				break
			}
			person.Redraws++
			if person.Redraws >= maxRedraws {
				return nil, errs.Warnf("person %d never reached the upper boundary in %d redraws", p, maxRedraws)
			}
		}
		ds.Persons[p] = person
	}
	ds.Trace = g.Trace()
	return ds, nil
}

func anyUpper(ys []float64) bool {
	for _, y := range ys {
		if y > 0 {
			return true
		}
	}
	return false
}

// EZSummary 每位受試者的 EZ 統計量與真值參數下的 EZ 預測。
//
// 只看正確（上邊界）反應：MeanRT/VarRT 是正確反應時間的平均與母體變異數。
// Usable 表示正確數 > 1，變異數才有意義。
type EZSummary struct {
	Person    int      `json:"person"`
	Trials    int      `json:"trials"`
	Correct   int      `json:"correct"`
	Accuracy  float64  `json:"accuracy"`
	MeanRT    float64  `json:"mean_rt"`
	VarRT     float64  `json:"var_rt"`
	Usable    bool     `json:"usable"`
	Predicted stats.EZ `json:"predicted"`
}

// Summary 以 recorder 累積每位受試者的資料並輸出 EZ 統計量。
func (ds *Dataset) Summary() []EZSummary {
	out := make([]EZSummary, len(ds.Persons))
	for i, p := range ds.Persons {
		r := recorder.NewDrawRecorder(fmt.Sprintf("person-%d", p.ID), p.Params)
		r.RecordAll(p.Draws)
		sm := r.Done().Summary
		out[i] = EZSummary{
			Person:    p.ID,
			Trials:    sm.Draws,
			Correct:   sm.Upper,
			Accuracy:  sm.UpperRate,
			MeanRT:    sm.MeanUpperRT,
			VarRT:     sm.VarUpperRT,
			Usable:    sm.Upper > 1,
			Predicted: stats.NewEZ(p.Params.A, p.Params.T0, p.Params.D),
		}
	}
	return out
}
