package cluster

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"

	"kaudit/config"
	"kaudit/pkg/types"
)

// KubeletOptions Kubelet Provider 的连接参数
type KubeletOptions struct {
	IP        string // Kubelet IP，为空时自动从路由表取默认网关
	Port      int    // Kubelet 端口，默认 10250
	TokenFile string // Token 文件路径，默认集群内 SA Token
	Token     string // 直接给定 Token（优先于 TokenFile）
	APIServer string // API Server 地址（命名空间 / SA 查询用），默认集群内地址
	Proxy     string // SOCKS5 代理地址（可选）
}

// KubeletProvider 直连节点 Kubelet API 访问集群
//
// 用于在 Pod 内低权限环境下审计本节点工作负载：Pod 数据走 Kubelet /pods，
// exec 走 Kubelet 的 WebSocket 通道；命名空间和 ServiceAccount 查询
// 用同一个 Token 直接访问 API Server。
type KubeletProvider struct {
	ip        string
	port      int
	token     string
	apiServer string

	httpClient *http.Client
	wsDialer   *websocket.Dialer
}

// NewKubeletProvider 创建 Kubelet Provider
func NewKubeletProvider(opts KubeletOptions) (*KubeletProvider, error) {
	token := opts.Token
	if token == "" {
		path := opts.TokenFile
		if path == "" {
			path = config.DefaultTokenPath
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取 Token 文件失败: %w", err)
		}
		token = strings.TrimSpace(string(data))
		if token == "" {
			return nil, fmt.Errorf("token 文件为空: %s", path)
		}
	}

	ip := opts.IP
	if ip == "" {
		gw, err := defaultGateway()
		if err != nil {
			return nil, fmt.Errorf("获取默认网关失败（请用 --kubelet-ip 指定）: %w", err)
		}
		ip = gw
	}

	port := opts.Port
	if port == 0 {
		port = config.DefaultKubeletPort
	}

	apiServer := opts.APIServer
	if apiServer == "" {
		apiServer = config.DefaultAPIServer
	}

	httpClient, wsDialer, err := buildClients(opts.Proxy)
	if err != nil {
		return nil, err
	}

	return &KubeletProvider{
		ip:         ip,
		port:       port,
		token:      token,
		apiServer:  strings.TrimRight(apiServer, "/"),
		httpClient: httpClient,
		wsDialer:   wsDialer,
	}, nil
}

// buildClients 创建 HTTP 客户端和 WebSocket dialer（可选 SOCKS5 代理）
// Kubelet 证书通常是节点自签的，这里跳过 TLS 验证。
func buildClients(proxyURL string) (*http.Client, *websocket.Dialer, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: true}

	if proxyURL == "" {
		return &http.Client{
				Transport: &http.Transport{TLSClientConfig: tlsConfig},
			}, &websocket.Dialer{
				TLSClientConfig:  tlsConfig,
				Subprotocols:     []string{"v4.channel.k8s.io"},
				HandshakeTimeout: 30 * time.Second,
			}, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, nil, fmt.Errorf("解析代理 URL 失败: %w", err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return nil, nil, fmt.Errorf("不支持的代理协议: %s，仅支持 socks5 或 socks5h", u.Scheme)
	}

	socksDialer, err := proxy.SOCKS5("tcp", u.Host, nil, proxy.Direct)
	if err != nil {
		return nil, nil, fmt.Errorf("创建 SOCKS5 代理失败: %w", err)
	}

	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return socksDialer.Dial(network, addr)
	}

	return &http.Client{
			Transport: &http.Transport{
				DialContext:     dialContext,
				TLSClientConfig: tlsConfig,
			},
		}, &websocket.Dialer{
			TLSClientConfig:  tlsConfig,
			Subprotocols:     []string{"v4.channel.k8s.io"},
			NetDialContext:   dialContext,
			HandshakeTimeout: 30 * time.Second,
		}, nil
}

// ==================== Kubelet /pods ====================

// kubeletPodsResponse Kubelet /pods 响应（只解析审计需要的字段）
type kubeletPodsResponse struct {
	Items []struct {
		Metadata struct {
			Name      string `json:"name"`
			Namespace string `json:"namespace"`
		} `json:"metadata"`
		Spec struct {
			ServiceAccountName           string `json:"serviceAccountName"`
			AutomountServiceAccountToken *bool  `json:"automountServiceAccountToken"`
			Containers                   []struct {
				Name            string `json:"name"`
				Image           string `json:"image"`
				SecurityContext *struct {
					RunAsNonRoot           *bool `json:"runAsNonRoot"`
					ReadOnlyRootFilesystem *bool `json:"readOnlyRootFilesystem"`
					Capabilities           *struct {
						Add []string `json:"add"`
					} `json:"capabilities"`
				} `json:"securityContext"`
			} `json:"containers"`
		} `json:"spec"`
		Status struct {
			Phase string `json:"phase"`
		} `json:"status"`
	} `json:"items"`
}

// fetchPods 从 Kubelet /pods 获取本节点全部 Pod
func (p *KubeletProvider) fetchPods(ctx context.Context) ([]types.PodSpec, error) {
	apiURL := fmt.Sprintf("https://%s:%d/pods", p.ip, p.port)

	body, err := p.doGet(ctx, p.httpClient, apiURL)
	if err != nil {
		return nil, fmt.Errorf("请求 Kubelet /pods 失败: %w", err)
	}

	var response kubeletPodsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("解析 Kubelet 响应失败: %w", err)
	}

	var pods []types.PodSpec
	for _, item := range response.Items {
		spec := types.PodSpec{
			Name:                         item.Metadata.Name,
			Namespace:                    item.Metadata.Namespace,
			Phase:                        item.Status.Phase,
			ServiceAccountName:           item.Spec.ServiceAccountName,
			AutomountServiceAccountToken: item.Spec.AutomountServiceAccountToken,
		}
		for _, c := range item.Spec.Containers {
			cs := types.ContainerSpec{Name: c.Name, Image: c.Image}
			if c.SecurityContext != nil {
				snapshot := &types.SecurityContext{
					RunAsNonRoot:           c.SecurityContext.RunAsNonRoot,
					ReadOnlyRootFilesystem: c.SecurityContext.ReadOnlyRootFilesystem,
				}
				if c.SecurityContext.Capabilities != nil {
					snapshot.CapabilityAdd = c.SecurityContext.Capabilities.Add
				}
				cs.SecurityContext = snapshot
			}
			spec.Containers = append(spec.Containers, cs)
		}
		spec.Normalize()
		pods = append(pods, spec)
	}
	return pods, nil
}

// doGet 发送带 Bearer Token 的 GET 请求
func (p *KubeletProvider) doGet(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("认证失败：Token 无效或已过期")
	case http.StatusForbidden:
		return nil, fmt.Errorf("权限被拒绝：Token 无权访问 %s", rawURL)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API 返回错误 (HTTP %d): %s", resp.StatusCode, string(body))
	}
}

// ==================== Provider 实现 ====================

// ListNamespaces 列出命名空间
// 优先查询 API Server；无权限时退化为本节点 Pod 出现过的命名空间。
func (p *KubeletProvider) ListNamespaces(ctx context.Context) ([]string, error) {
	body, err := p.doGet(ctx, p.httpClient, p.apiServer+"/api/v1/namespaces")
	if err == nil {
		var list struct {
			Items []struct {
				Metadata struct {
					Name string `json:"name"`
				} `json:"metadata"`
			} `json:"items"`
		}
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("解析命名空间列表失败: %w", err)
		}
		names := make([]string, 0, len(list.Items))
		for _, item := range list.Items {
			names = append(names, item.Metadata.Name)
		}
		return names, nil
	}

	pods, podErr := p.fetchPods(ctx)
	if podErr != nil {
		return nil, fmt.Errorf("列举命名空间失败: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, pod := range pods {
		if !seen[pod.Namespace] {
			seen[pod.Namespace] = true
			names = append(names, pod.Namespace)
		}
	}
	return names, nil
}

// NamespaceExists 检查命名空间是否存在
func (p *KubeletProvider) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := p.doGet(ctx, p.httpClient, p.apiServer+"/api/v1/namespaces/"+url.PathEscape(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	// API Server 不可达时退化为本节点视角
	pods, podErr := p.fetchPods(ctx)
	if podErr != nil {
		return false, fmt.Errorf("查询命名空间 %s 失败: %w", name, err)
	}
	for _, pod := range pods {
		if pod.Namespace == name {
			return true, nil
		}
	}
	return false, nil
}

// ListRunningPods 列出命名空间内 Running 状态的 Pod（仅限本节点）
func (p *KubeletProvider) ListRunningPods(ctx context.Context, namespace string) ([]types.PodSpec, error) {
	pods, err := p.fetchPods(ctx)
	if err != nil {
		return nil, err
	}

	var result []types.PodSpec
	for _, pod := range pods {
		if pod.Namespace == namespace && pod.Phase == "Running" {
			result = append(result, pod)
		}
	}
	return result, nil
}

// GetPod 获取单个 Pod
func (p *KubeletProvider) GetPod(ctx context.Context, namespace, name string) (*types.PodSpec, error) {
	pods, err := p.fetchPods(ctx)
	if err != nil {
		return nil, err
	}
	for i := range pods {
		if pods[i].Namespace == namespace && pods[i].Name == name {
			return &pods[i], nil
		}
	}
	return nil, ErrNotFound
}

// GetServiceAccount 通过 API Server 获取 ServiceAccount
func (p *KubeletProvider) GetServiceAccount(ctx context.Context, namespace, name string) (*types.ServiceAccountInfo, error) {
	saURL := fmt.Sprintf("%s/api/v1/namespaces/%s/serviceaccounts/%s",
		p.apiServer, url.PathEscape(namespace), url.PathEscape(name))

	body, err := p.doGet(ctx, p.httpClient, saURL)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询 ServiceAccount %s/%s 失败: %w", namespace, name, err)
	}

	var sa struct {
		Metadata struct {
			Name      string `json:"name"`
			Namespace string `json:"namespace"`
		} `json:"metadata"`
		AutomountServiceAccountToken *bool `json:"automountServiceAccountToken"`
	}
	if err := json.Unmarshal(body, &sa); err != nil {
		return nil, fmt.Errorf("解析 ServiceAccount 响应失败: %w", err)
	}

	return &types.ServiceAccountInfo{
		Name:      sa.Metadata.Name,
		Namespace: sa.Metadata.Namespace,
		Automount: sa.AutomountServiceAccountToken,
	}, nil
}
