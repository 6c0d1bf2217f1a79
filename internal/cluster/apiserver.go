package cluster

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"

	"kaudit/pkg/types"
)

// APIServerProvider 通过 K8s API Server (client-go) 访问集群
type APIServerProvider struct {
	clientset  kubernetes.Interface
	restConfig *rest.Config
}

// NewAPIServerProvider 创建 API Server Provider
// kubeconfig 为空时依次尝试 KUBECONFIG 环境变量、集群内配置、默认规则。
func NewAPIServerProvider(kubeconfig string) (*APIServerProvider, error) {
	cfg, err := loadRESTConfig(kubeconfig)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建 K8s 客户端失败: %w", err)
	}

	return &APIServerProvider{clientset: clientset, restConfig: cfg}, nil
}

// loadRESTConfig 加载 rest.Config
func loadRESTConfig(kubeconfig string) (*rest.Config, error) {
	if strings.TrimSpace(kubeconfig) != "" {
		cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("加载 kubeconfig 失败 (%s): %w", kubeconfig, err)
		}
		return cfg, nil
	}

	// 集群内运行时优先使用 in-cluster 配置
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}

	// 回退到默认规则（~/.kube/config 等）
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("加载集群配置失败: %w", err)
	}
	return cfg, nil
}

// ListNamespaces 列出命名空间
func (p *APIServerProvider) ListNamespaces(ctx context.Context) ([]string, error) {
	list, err := p.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("列举命名空间失败: %w", err)
	}

	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	return names, nil
}

// NamespaceExists 检查命名空间是否存在
func (p *APIServerProvider) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := p.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("查询命名空间 %s 失败: %w", name, err)
	}
	return true, nil
}

// ListRunningPods 列出命名空间内 Running 状态的 Pod
func (p *APIServerProvider) ListRunningPods(ctx context.Context, namespace string) ([]types.PodSpec, error) {
	list, err := p.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: "status.phase=Running",
	})
	if err != nil {
		return nil, fmt.Errorf("列举 Pod 失败 (namespace=%s): %w", namespace, err)
	}

	pods := make([]types.PodSpec, 0, len(list.Items))
	for i := range list.Items {
		pods = append(pods, convertPod(&list.Items[i]))
	}
	return pods, nil
}

// GetPod 获取单个 Pod
func (p *APIServerProvider) GetPod(ctx context.Context, namespace, name string) (*types.PodSpec, error) {
	pod, err := p.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询 Pod %s/%s 失败: %w", namespace, name, err)
	}

	spec := convertPod(pod)
	return &spec, nil
}

// GetServiceAccount 获取 ServiceAccount
func (p *APIServerProvider) GetServiceAccount(ctx context.Context, namespace, name string) (*types.ServiceAccountInfo, error) {
	sa, err := p.clientset.CoreV1().ServiceAccounts(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询 ServiceAccount %s/%s 失败: %w", namespace, name, err)
	}

	return &types.ServiceAccountInfo{
		Name:      sa.Name,
		Namespace: sa.Namespace,
		Automount: sa.AutomountServiceAccountToken,
	}, nil
}

// ExecInContainer 通过 SPDY remotecommand 在容器内执行命令
func (p *APIServerProvider) ExecInContainer(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
	req := p.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(namespace).
		Name(pod).
		SubResource("exec")

	req.VersionedParams(&corev1.PodExecOptions{
		Command:   command,
		Container: container,
		Stdout:    true,
		Stderr:    true,
	}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(p.restConfig, "POST", req.URL())
	if err != nil {
		return "", &ProbeError{Namespace: namespace, Pod: pod, Container: container, Err: err}
	}

	var stdout, stderr bytes.Buffer
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		// stderr 里往往有比 err 更具体的原因，一并带出
		probeErr := err
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			probeErr = fmt.Errorf("%w: %s", err, msg)
		}
		return "", &ProbeError{Namespace: namespace, Pod: pod, Container: container, Err: probeErr}
	}

	return stdout.String(), nil
}

// convertPod 把 corev1.Pod 转换为只读快照
func convertPod(pod *corev1.Pod) types.PodSpec {
	spec := types.PodSpec{
		Name:                         pod.Name,
		Namespace:                    pod.Namespace,
		Phase:                        string(pod.Status.Phase),
		ServiceAccountName:           pod.Spec.ServiceAccountName,
		AutomountServiceAccountToken: pod.Spec.AutomountServiceAccountToken,
	}

	for _, c := range pod.Spec.Containers {
		cs := types.ContainerSpec{Name: c.Name, Image: c.Image}
		if sc := c.SecurityContext; sc != nil {
			snapshot := &types.SecurityContext{
				RunAsNonRoot:           sc.RunAsNonRoot,
				ReadOnlyRootFilesystem: sc.ReadOnlyRootFilesystem,
			}
			if sc.Capabilities != nil {
				for _, added := range sc.Capabilities.Add {
					snapshot.CapabilityAdd = append(snapshot.CapabilityAdd, string(added))
				}
			}
			cs.SecurityContext = snapshot
		}
		spec.Containers = append(spec.Containers, cs)
	}

	spec.Normalize()
	return spec
}
