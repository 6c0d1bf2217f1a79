package config

import "time"

// ==================== 危险 Capability 规则 ====================

// DefaultDangerousCapabilities 默认的危险 Linux Capability 列表
// 可通过配置项 dangerous_capabilities 追加自定义条目
var DefaultDangerousCapabilities = []string{
	"CAP_SYS_ADMIN",  // 近似 root，可挂载文件系统、操作命名空间
	"CAP_NET_ADMIN",  // 网络配置，可做流量劫持
	"CAP_SYS_PTRACE", // 跟踪任意进程，可注入同节点容器
}

// ==================== 审计维度元数据 ====================

// DimensionInfo 审计维度说明，用于报告图例
type DimensionInfo struct {
	Scope       string // container 或 pod
	Description string
}

// DimensionInfos 各维度的展示元数据（按报告输出顺序排列）
var DimensionInfos = []struct {
	Name string
	Info DimensionInfo
}{
	{"RunAsNonRoot", DimensionInfo{"container", "securityContext.runAsNonRoot 声明检查"}},
	{"ReadOnlyRootFS", DimensionInfo{"container", "securityContext.readOnlyRootFilesystem 声明检查"}},
	{"RuntimeUID", DimensionInfo{"container", "容器内实际生效 UID（exec 探测）"}},
	{"Capabilities", DimensionInfo{"container", "capabilities.add 中的危险 Capability"}},
	{"TokenMount", DimensionInfo{"pod", "ServiceAccount Token 自动挂载判定"}},
}

// ==================== 默认参数 ====================

const (
	// DefaultProbeTimeout 单次 exec 探测 / 查询的超时时间
	DefaultProbeTimeout = 10 * time.Second

	// DefaultKubeletPort Kubelet 只读端口之外的认证端口
	DefaultKubeletPort = 10250

	// DefaultAPIServer 集群内默认的 API Server 地址（kubelet 模式下使用）
	DefaultAPIServer = "https://kubernetes.default.svc"

	// DefaultTokenPath 集群内默认的 SA Token 文件路径
	DefaultTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"
)

// UIDProbeCommand 容器内读取生效 UID 的命令
var UIDProbeCommand = []string{"id", "-u"}
