package stats

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/zintix-labs/wdmlab/errs"
	"gopkg.in/yaml.v3"
)

// StatReportRender 定義輸出行為
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

// Renderer 依格式名稱取得渲染器："json" | "yaml"（大小寫不敏感）。
func Renderer(format string) (StatReportRender, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return &JsonStatReportRender{Indent: "  "}, nil
	case "yaml", "yml":
		return &YAMLStatReportRender{}, nil
	default:
		return nil, errs.Warnf("unsupported report format: %q", format)
	}
}

// Json渲染；Indent 為空時輸出單行
type JsonStatReportRender struct {
	Indent string
}

func (jr *JsonStatReportRender) Write(w io.Writer, r *StatReport) error {
	enc := json.NewEncoder(w)
	if jr.Indent != "" {
		enc.SetIndent("", jr.Indent)
	}
	return enc.Encode(r)
}

// YAML渲染
//
// 巢狀陣列維持外層展開；只有最內層（或本身就是一維）的陣列輸出成 flow style：[..., ...]，
// 讓分位數、區間統計等一維資料在一行內可讀。
type YAMLStatReportRender struct{}

func (yr *YAMLStatReportRender) Write(w io.Writer, r *StatReport) error {
	return forceReadableList(w, r)
}

func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return errs.Wrap(err, "encode yaml report failed")
	}
	flowInnerSequences(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&node)
}

// flowInnerSequences 把不含子 sequence 的 sequence 標成 flow style，回傳 n 是否為 sequence。
func flowInnerSequences(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	hasChildSeq := false
	for _, c := range n.Content {
		if flowInnerSequences(c) {
			hasChildSeq = true
		}
	}
	if n.Kind != yaml.SequenceNode {
		return false
	}
	if !hasChildSeq {
		n.Style = yaml.FlowStyle
	}
	return true
}
