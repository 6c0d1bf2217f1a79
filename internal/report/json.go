package report

import (
	"encoding/json"
	"io"

	"kaudit/pkg/types"
)

// JSONRenderer 机器可读输出：每个命名空间一个 JSON 对象，按行输出
// 状态标签在 JSON 里原样保留（Safe / Unsafe / Unknown），方便脚本过滤。
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer 创建 JSON 渲染器
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

// RenderNamespace 输出一个命名空间的 JSON 报告
func (r *JSONRenderer) RenderNamespace(report types.NamespaceReport) error {
	return r.enc.Encode(report)
}
