package audit

import (
	"strings"

	"kaudit/pkg/types"
)

// ==================== 危险 Capability 判定 ====================

// normalizeCapability 规范化 Capability 名称
// 清单里 "SYS_ADMIN" 和 "CAP_SYS_ADMIN" 指同一个能力，统一成带前缀的大写形式。
func normalizeCapability(name string) string {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return ""
	}
	if !strings.HasPrefix(upper, "CAP_") {
		upper = "CAP_" + upper
	}
	return upper
}

// ClassifyCapabilities 对容器的 capabilities.add 做危险项分类
// 只看 add 列表与危险集合的交集，保持 add 的声明顺序；不在危险集合里的
// 追加项不标记（drop 列表同样不参与判定）。
func ClassifyCapabilities(add []string, dangerous []string) (types.Status, string) {
	if len(add) == 0 {
		return types.StatusSafe, "no additional capabilities specified"
	}

	dangerSet := make(map[string]bool, len(dangerous))
	for _, d := range dangerous {
		dangerSet[normalizeCapability(d)] = true
	}

	var matched []string
	for _, name := range add {
		if dangerSet[normalizeCapability(name)] {
			matched = append(matched, name)
		}
	}

	if len(matched) == 0 {
		return types.StatusSafe, "no dangerous capabilities found"
	}
	return types.StatusUnsafe, "dangerous capabilities added: " + strings.Join(matched, ", ")
}
