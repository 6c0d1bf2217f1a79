package cluster

import (
	"context"
	"errors"
	"fmt"

	"kaudit/pkg/types"
)

// ErrNotFound 目标对象（命名空间 / Pod / ServiceAccount）不存在
var ErrNotFound = errors.New("资源不存在")

// ProbeError 容器内 exec 探测失败
// 审计引擎把它降级为 Unknown 结论，不会中断其余容器的审计。
type ProbeError struct {
	Namespace string
	Pod       string
	Container string
	Err       error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("exec 探测失败 %s/%s/%s: %v", e.Namespace, e.Pod, e.Container, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Provider 集群查询能力契约
//
// 审计引擎只通过此接口访问集群，不感知底层是 API Server 还是 Kubelet。
// 所有方法都是只读的，实现方负责认证。
type Provider interface {
	// ListNamespaces 返回集群的命名空间名称（保持服务端顺序）
	ListNamespaces(ctx context.Context) ([]string, error)

	// NamespaceExists 检查命名空间是否存在
	NamespaceExists(ctx context.Context, name string) (bool, error)

	// ListRunningPods 返回命名空间内 Running 状态的 Pod（保持服务端顺序）
	ListRunningPods(ctx context.Context, namespace string) ([]types.PodSpec, error)

	// GetPod 按名称获取单个 Pod，不存在时返回 ErrNotFound
	GetPod(ctx context.Context, namespace, name string) (*types.PodSpec, error)

	// GetServiceAccount 按名称获取 ServiceAccount，不存在时返回 ErrNotFound
	GetServiceAccount(ctx context.Context, namespace, name string) (*types.ServiceAccountInfo, error)

	// ExecInContainer 在指定容器内执行命令并返回 stdout
	// 失败时返回 *ProbeError
	ExecInContainer(ctx context.Context, namespace, pod, container string, command []string) (string, error)
}
