package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kaudit/config"
	"kaudit/internal/cluster"
	"kaudit/pkg/types"
)

// ==================== 运行时 UID 探测 ====================

// ProbeUID 在容器内执行 id -u，按实际生效的 UID 分类
// UID 0 -> Unsafe（root）；其他数字 -> Safe；探测失败（容器里没有可用的
// shell、超时、权限不足）-> Unknown，带上原始错误，不影响其余容器。
func ProbeUID(ctx context.Context, provider cluster.Provider, namespace, pod, container string, timeout time.Duration) (types.Status, string) {
	if timeout <= 0 {
		timeout = config.DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := provider.ExecInContainer(probeCtx, namespace, pod, container, config.UIDProbeCommand)
	if err != nil {
		return types.StatusUnknown, fmt.Sprintf("uid probe failed: %v", err)
	}

	uid := strings.TrimSpace(out)
	if _, convErr := strconv.Atoi(uid); convErr != nil {
		return types.StatusUnknown, fmt.Sprintf("uid probe returned non-numeric output: %q", uid)
	}

	if uid == "0" {
		return types.StatusUnsafe, "running as root (uid 0)"
	}
	return types.StatusSafe, "running as uid " + uid
}
