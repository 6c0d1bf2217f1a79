package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// K8s WebSocket 子协议通道编号
const (
	streamStdout = 1
	streamStderr = 2
	streamError  = 3
)

// execStatus Kubelet exec 通道 3 上的状态响应
type execStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
	Code    int    `json:"code"`
}

// ExecInContainer 通过 Kubelet 的 WebSocket exec 通道在容器内执行命令
func (p *KubeletProvider) ExecInContainer(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
	execURL := p.buildExecURL(namespace, pod, container, command)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+p.token)

	conn, resp, err := p.wsDialer.DialContext(ctx, execURL, headers)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			err = fmt.Errorf("WebSocket 连接失败 (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return "", &ProbeError{Namespace: namespace, Pod: pod, Container: container, Err: err}
	}
	defer func() { _ = conn.Close() }()

	// ctx 到期时主动断开连接，读循环随之退出
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	var stdout, stderr strings.Builder
	var execErr string

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", &ProbeError{Namespace: namespace, Pod: pod, Container: container, Err: ctx.Err()}
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!strings.Contains(err.Error(), "close") {
				if execErr == "" {
					execErr = err.Error()
				}
			}
			break
		}

		if len(message) < 1 {
			continue
		}

		// 第一个字节是通道编号
		channel := message[0]
		data := string(message[1:])

		switch channel {
		case streamStdout:
			stdout.WriteString(data)
		case streamStderr:
			stderr.WriteString(data)
		case streamError:
			var status execStatus
			if err := json.Unmarshal([]byte(data), &status); err == nil {
				if status.Status != "Success" {
					execErr = status.Message
					if execErr == "" {
						execErr = data
					}
				}
			} else {
				execErr = data
			}
		}
	}

	if execErr != "" {
		return "", &ProbeError{
			Namespace: namespace,
			Pod:       pod,
			Container: container,
			Err:       fmt.Errorf("%s", execErr),
		}
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" && stdout.Len() == 0 {
		return "", &ProbeError{
			Namespace: namespace,
			Pod:       pod,
			Container: container,
			Err:       fmt.Errorf("%s", msg),
		}
	}

	return stdout.String(), nil
}

// buildExecURL 构建 Kubelet exec WebSocket URL
// 注意: Kubelet API 使用 output/error 而不是 stdout/stderr
func (p *KubeletProvider) buildExecURL(namespace, pod, container string, command []string) string {
	baseURL := fmt.Sprintf("wss://%s:%d/exec/%s/%s/%s",
		p.ip, p.port,
		url.PathEscape(namespace), url.PathEscape(pod), url.PathEscape(container))

	params := url.Values{}
	params.Add("output", "1")
	params.Add("error", "1")
	for _, c := range command {
		params.Add("command", c)
	}

	return baseURL + "?" + params.Encode()
}
