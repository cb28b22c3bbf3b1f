package dto

import (
	"net/http"

	"github.com/zintix-labs/wdmlab/design"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
)

// 內建的 predictor 排列
const (
	PredictorNone   = ""
	PredictorTTest  = "ttest"
	PredictorLinReg = "linreg"
)

// DesignRequest 階層式設計模擬請求。
//
// Predictor 指定內建排列（ttest|linreg）；X 則直接給每位受試者的數值，兩者擇一。
// Prior 為 nil 時使用 design.DefaultPrior()。
type DesignRequest struct {
	Participants int           `json:"participants"`
	Trials       int           `json:"trials"`
	Criterion    string        `json:"criterion,omitempty"`
	Predictor    string        `json:"predictor,omitempty"`
	X            []float64     `json:"x,omitempty"`
	Prior        *design.Prior `json:"prior,omitempty"`
	Seed         *int64        `json:"seed,omitempty"`
}

// Design 轉成 design.Design（limits 由伺服器決定）。
func (r *DesignRequest) Design(lim wiener.Limits) (*design.Design, error) {
	cr, err := design.ParseCriterion(r.Criterion)
	if err != nil {
		return nil, err
	}
	d := &design.Design{
		Participants: r.Participants,
		Trials:       r.Trials,
		Prior:        design.DefaultPrior(),
		Criterion:    cr,
		Limits:       lim,
	}
	if r.Prior != nil {
		d.Prior = *r.Prior
	}
	switch r.Predictor {
	case PredictorNone:
		d.Predictor = r.X
	case PredictorTTest, PredictorLinReg:
		if len(r.X) > 0 {
			return nil, errs.NewWarn("predictor and x are mutually exclusive")
		}
		if r.Predictor == PredictorTTest {
			d.Predictor = design.PredictorTTest(r.Participants)
		} else {
			d.Predictor = design.PredictorLinReg(r.Participants)
		}
	default:
		return nil, errs.Warnf("unknown predictor %q (ttest|linreg)", r.Predictor)
	}
	return d, d.Valid()
}

// DesignResult 設計模擬的回應：真值參數與每位受試者的 EZ 統計量
type DesignResult struct {
	Seed    int64                `json:"seed"`
	Truth   *design.ParameterSet `json:"truth"`
	Summary []design.EZSummary   `json:"summary"`
	Trace   wiener.Trace         `json:"trace"`
}

// NewDesignResult 由模擬結果組出回應
func NewDesignResult(ds *design.Dataset) *DesignResult {
	return &DesignResult{
		Seed:    ds.Seed,
		Truth:   ds.Truth,
		Summary: ds.Summary(),
		Trace:   ds.Trace,
	}
}

// DecodeDesignRequest 只接受 POST
func DecodeDesignRequest(r *http.Request) (*DesignRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(DesignRequest)
	if err := decodeJSON(r.Body, maxBody, req); err != nil {
		return nil, err
	}
	return req, nil
}
