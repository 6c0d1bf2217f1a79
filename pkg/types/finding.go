package types

// ==================== 审计结果类型 ====================

// Status 单项审计结论
type Status string

const (
	StatusSafe    Status = "Safe"
	StatusUnsafe  Status = "Unsafe"
	StatusUnknown Status = "Unknown" // 无法判定时使用，绝不省略条目
)

// Dimension 审计维度
type Dimension string

const (
	DimRunAsNonRoot  Dimension = "RunAsNonRoot"
	DimReadOnlyRoot  Dimension = "ReadOnlyRootFS"
	DimRuntimeUID    Dimension = "RuntimeUID"
	DimCapabilities  Dimension = "Capabilities"
	DimTokenMount    Dimension = "TokenMount" // Pod 级，每个 Pod 一条
	DimPodInspection Dimension = "Pod"        // Pod 级，Pod 在列举后消失时的占位结论
)

// Finding 一条审计结论：(Pod, 容器, 维度) -> 状态 + 解释
// Container 为空表示 Pod 级结论（TokenMount / Pod）。
type Finding struct {
	Namespace string    `json:"namespace"`
	Pod       string    `json:"pod"`
	Container string    `json:"container,omitempty"`
	Dimension Dimension `json:"dimension"`
	Status    Status    `json:"status"`
	Detail    string    `json:"detail"`
}

// PodReport 单个 Pod 的审计结果，Findings 按固定维度顺序排列
type PodReport struct {
	Namespace string    `json:"namespace"`
	Name      string    `json:"name"`
	Findings  []Finding `json:"findings"`
}

// NamespaceReport 单个命名空间的审计结果，Pod 顺序与集群列举顺序一致
type NamespaceReport struct {
	Namespace string      `json:"namespace"`
	Pods      []PodReport `json:"pods"`
}

// StatusCounts 各状态的结论数量
type StatusCounts struct {
	Safe    int
	Unsafe  int
	Unknown int
}

// Counts 统计整个命名空间报告的状态分布
func (r *NamespaceReport) Counts() StatusCounts {
	var c StatusCounts
	for _, pod := range r.Pods {
		for _, f := range pod.Findings {
			switch f.Status {
			case StatusSafe:
				c.Safe++
			case StatusUnsafe:
				c.Unsafe++
			default:
				c.Unknown++
			}
		}
	}
	return c
}
