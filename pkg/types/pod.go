package types

// ==================== Pod 快照类型 ====================
//
// 审计引擎只消费这里定义的只读快照，不直接依赖集群客户端的类型。
// 所有指针字段都是三态的：nil 表示集群侧未声明该字段。

// SecurityContext 容器安全上下文（只保留审计关心的字段）
type SecurityContext struct {
	RunAsNonRoot           *bool    `json:"runAsNonRoot,omitempty"`
	ReadOnlyRootFilesystem *bool    `json:"readOnlyRootFilesystem,omitempty"`
	CapabilityAdd          []string `json:"capabilityAdd,omitempty"` // capabilities.add，保持声明顺序
}

// ContainerSpec 容器快照
type ContainerSpec struct {
	Name            string           `json:"name"` // Pod 内唯一
	Image           string           `json:"image,omitempty"`
	SecurityContext *SecurityContext `json:"securityContext,omitempty"` // nil 表示整个块缺失
}

// PodSpec Pod 快照，每个 Pod 只抓取一次
type PodSpec struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Phase     string `json:"phase"`
	// ServiceAccountName 为空时由 Normalize 补为 "default"
	ServiceAccountName string `json:"serviceAccountName"`
	// AutomountServiceAccountToken Pod 级 Token 挂载开关，nil 表示未声明
	AutomountServiceAccountToken *bool           `json:"automountServiceAccountToken,omitempty"`
	Containers                   []ContainerSpec `json:"containers"`
}

// Normalize 补全缺省字段（目前只有 ServiceAccountName）
func (p *PodSpec) Normalize() {
	if p.ServiceAccountName == "" {
		p.ServiceAccountName = "default"
	}
}

// ServiceAccountInfo ServiceAccount 快照
// 对象不存在（NotFound）与字段未设置（Automount == nil）是两种不同状态，
// 前者由 Provider 以 ErrNotFound 表达。
type ServiceAccountInfo struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Automount *bool  `json:"automountServiceAccountToken,omitempty"`
}
