package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// z975 標準常態 0.975 分位數，用於 95% 信賴區間
var z975 = distuv.UnitNormal.Quantile(0.975)

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 首達時間抽樣的統計報告
type StatReport struct {
	Summary   *SummaryReport  `json:"Summary"`
	Moment    *MomentReport   `json:"Moment"`
	Theory    *TheoryReport   `json:"Theory"`
	Dist      *DistReport     `json:"Dist"`
	Quantiles *QuantileReport `json:"Quantiles,omitempty"`
	isDone    bool
}

// SummaryReport 基本統計；RT 指 |result|（含 t0），DT 指 |result| - t0。
type SummaryReport struct {
	Name        string  `json:"Name"`
	A           float64 `json:"A"`
	T0          float64 `json:"T0"`
	B           float64 `json:"B"`
	D           float64 `json:"D"`
	Draws       int     `json:"Draws"`
	Upper       int     `json:"Upper"`
	Lower       int     `json:"Lower"`
	UpperRate   float64 `json:"UpperRate"`
	UpperCI     CI      `json:"UpperCI"`
	MeanRT      float64 `json:"MeanRT"`
	MeanRTCI    CI      `json:"MeanRTCI"`
	StdRT       float64 `json:"StdRT"`
	MeanDT      float64 `json:"MeanDT"`
	MeanUpperRT float64 `json:"MeanUpperRT"`
	MeanLowerRT float64 `json:"MeanLowerRT"`
	VarUpperRT  float64 `json:"VarUpperRT"` // 母體變異數，對應 EZ 的 VRT
	VarLowerRT  float64 `json:"VarLowerRT"`
	MinRT       float64 `json:"MinRT"`
	MaxRT       float64 `json:"MaxRT"`
}

// MomentReport 累積和，由 recorder 填入；Done() 依此計算 Summary。
type MomentReport struct {
	SumRT        float64 `json:"SumRT"`
	SumRTSq      float64 `json:"SumRTSq"` // 平方和
	SumUpperRT   float64 `json:"SumUpperRT"`
	SumLowerRT   float64 `json:"SumLowerRT"`
	SumUpperRTSq float64 `json:"SumUpperRTSq"`
	SumLowerRTSq float64 `json:"SumLowerRTSq"`
}

// TheoryReport 封閉解與模擬結果的差距
type TheoryReport struct {
	Theory
	UpperProbDiff float64 `json:"UpperProbDiff"` // 模擬 - 理論（絕對差）
	MeanRTRelErr float64 `json:"MeanRTRelErr"` // (模擬 - 理論) / 理論
	// EZ 只在無偏起點（b = 0.5）時附加
	EZ             *EZ     `json:"EZ,omitempty"`
	VarUpperRelErr float64 `json:"VarUpperRelErr,omitempty"`
}

// DistReport 決策時間（以理論平均為單位）的區間落點統計，上下邊界分開。
type DistReport struct {
	Bucket       []string  `json:"Bucket"`
	UpperCollect []int     `json:"UpperCollect"`
	LowerCollect []int     `json:"LowerCollect"`
	UpperDist    []float64 `json:"UpperDist"`
	LowerDist    []float64 `json:"LowerDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 把累積和轉換為最終統計結果並鎖定。
//
// 紀錄過程只做加總（熱路徑不做除法/開根號），結束後呼叫 Done 一次性計算。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	sm := s.Summary
	sm.UpperRate = s.UpperRate()
	sm.UpperCI = s.UpperCi()
	sm.MeanRT = s.MeanRT()
	sm.StdRT = s.StdRT()
	sm.MeanRTCI = s.MeanRTCi()
	sm.MeanDT = sm.MeanRT - sm.T0
	if sm.Draws == 0 {
		sm.MeanDT = 0
	}
	sm.MeanUpperRT, sm.VarUpperRT = condMoments(s.Moment.SumUpperRT, s.Moment.SumUpperRTSq, sm.Upper)
	sm.MeanLowerRT, sm.VarLowerRT = condMoments(s.Moment.SumLowerRT, s.Moment.SumLowerRTSq, sm.Lower)

	th := NewTheory(sm.A, sm.T0, sm.B, sm.D)
	s.Theory = &TheoryReport{Theory: th}
	if sm.Draws > 0 {
		s.Theory.UpperProbDiff = sm.UpperRate - th.UpperProb
		if th.MeanRT != 0 {
			s.Theory.MeanRTRelErr = (sm.MeanRT - th.MeanRT) / th.MeanRT
		}
	}
	if sm.B == 0.5 {
		ez := NewEZ(sm.A, sm.T0, sm.D)
		s.Theory.EZ = &ez
		if sm.Upper > 0 && ez.VRT > 0 {
			s.Theory.VarUpperRelErr = (sm.VarUpperRT - ez.VRT) / ez.VRT
		}
	}

	if s.Dist != nil {
		s.Dist.UpperDist = normalize(s.Dist.UpperCollect, sm.Draws)
		s.Dist.LowerDist = normalize(s.Dist.LowerCollect, sm.Draws)
	}
	s.isDone = true
}

// UpperRate 觸及上邊界的比例
func (s *StatReport) UpperRate() float64 {
	if s.Summary.Draws == 0 {
		return 0
	}
	return float64(s.Summary.Upper) / float64(s.Summary.Draws)
}

// UpperCi 上邊界比例的 95% 信賴區間（常態近似）
func (s *StatReport) UpperCi() CI {
	p := s.UpperRate()
	n := float64(s.Summary.Draws)
	if n < 2 {
		return CI{Lo: p, Hi: p}
	}
	se := math.Sqrt(p * (1 - p) / n)
	return CI{Lo: max(p-z975*se, 0), Hi: min(p+z975*se, 1)}
}

// MeanRT 平均 |result|
func (s *StatReport) MeanRT() float64 {
	if s.Summary.Draws == 0 {
		return 0
	}
	return s.Moment.SumRT / float64(s.Summary.Draws)
}

// StdRT |result| 的樣本標準差
func (s *StatReport) StdRT() float64 {
	n := float64(s.Summary.Draws)
	if n < 2 {
		return 0
	}
	variance := (s.Moment.SumRTSq - s.Moment.SumRT*s.Moment.SumRT/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// MeanRTCi 平均 |result| 的 95% 信賴區間
func (s *StatReport) MeanRTCi() CI {
	m := s.MeanRT()
	if s.Summary.Draws < 2 {
		return CI{Lo: m, Hi: m}
	}
	se := s.StdRT() / math.Sqrt(float64(s.Summary.Draws))
	return CI{Lo: m - z975*se, Hi: m + z975*se}
}

// AttachQuantiles 以完整樣本計算分位數並附加到報表。
func (s *StatReport) AttachQuantiles(draws []float64) {
	s.Quantiles = NewQuantileReport(draws, DefaultProbs)
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 以表格輸出到標準輸出
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Draws)
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.Name, sk, sm))
	if s.Quantiles != nil {
		qk, qm := s.fmtQuantiles()
		fmt.Println(fmtTable("Quantiles |RT|", qk, qm))
	}
}

// ============================================================
// ** 內部方法 **
// ============================================================

// condMoments 由和與平方和算出平均與母體變異數；n == 0 時皆為 0。
func condMoments(sum, sumSq float64, n int) (mean, variance float64) {
	if n == 0 {
		return 0, 0
	}
	mean = sum / float64(n)
	variance = max(sumSq/float64(n)-mean*mean, 0)
	return mean, variance
}

func normalize(collect []int, n int) []float64 {
	out := make([]float64, len(collect))
	if n == 0 {
		return out
	}
	for i, c := range collect {
		out[i] = float64(c) / float64(n)
	}
	return out
}

func formatDuration(d time.Duration, draws int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	dps := int(float64(draws) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\ndps : %d draws/sec\n", sec, dps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\ndps : %d draws/sec\n", m, s, dps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\ndps : %d draws/sec\n", h, m, s, dps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sm := s.Summary
	th := s.Theory
	basic := map[string]string{
		"Params":        p.Sprintf("a=%g t0=%g b=%g d=%g", sm.A, sm.T0, sm.B, sm.D),
		"Draws":         p.Sprintf("%d", sm.Draws),
		"Upper / Lower": p.Sprintf("%d / %d", sm.Upper, sm.Lower),
		"Upper Rate":    p.Sprintf("%.4f", sm.UpperRate),
		"Upper 95% CI":  p.Sprintf("[%.4f, %.4f]", sm.UpperCI.Lo, sm.UpperCI.Hi),
		"Theory Upper":  p.Sprintf("%.4f", th.UpperProb),
		"Mean |RT|":     p.Sprintf("%.4f", sm.MeanRT),
		"Mean 95% CI":   p.Sprintf("[%.4f, %.4f]", sm.MeanRTCI.Lo, sm.MeanRTCI.Hi),
		"Theory Mean":   p.Sprintf("%.4f", th.MeanRT),
		"Rel. Error":    p.Sprintf("%.3f %%", 100*th.MeanRTRelErr),
		"STD |RT|":      p.Sprintf("%.4f", sm.StdRT),
		"Mean Upper RT": p.Sprintf("%.4f", sm.MeanUpperRT),
		"Mean Lower RT": p.Sprintf("%.4f", sm.MeanLowerRT),
		"Min / Max RT":  p.Sprintf("%.4f / %.4f", sm.MinRT, sm.MaxRT),
		"Var Upper RT":  p.Sprintf("%.5f", sm.VarUpperRT),
		"Var Lower RT":  p.Sprintf("%.5f", sm.VarLowerRT),
	}
	keys := []string{"Params", "Draws", "Upper / Lower", "Upper Rate", "Upper 95% CI", "Theory Upper", "Mean |RT|", "Mean 95% CI", "Theory Mean", "Rel. Error", "STD |RT|", "Mean Upper RT", "Mean Lower RT", "Var Upper RT", "Var Lower RT", "Min / Max RT"}
	if ez := th.EZ; ez != nil {
		basic["EZ Pc / MRT"] = p.Sprintf("%.4f / %.4f", ez.Pc, ez.MRT)
		basic["EZ VRT"] = p.Sprintf("%.5f (%.3f %%)", ez.VRT, 100*th.VarUpperRelErr)
		keys = append(keys, "EZ Pc / MRT", "EZ VRT")
	}
	return keys, basic
}

func (s *StatReport) fmtQuantiles() ([]string, map[string]string) {
	q := s.Quantiles
	keys := make([]string, 0, len(q.Probs))
	msg := make(map[string]string, len(q.Probs))
	for i, pr := range q.Probs {
		k := fmt.Sprintf("q%.2f", pr)
		keys = append(keys, k)
		msg[k] = fmt.Sprintf("%.4f  (upper %.4f | lower %.4f)", q.RT[i], q.UpperRT[i], q.LowerRT[i])
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
