package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kaudit/pkg/types"
)

func TestProbeUID(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
		status types.Status
		detail string
	}{
		{"root 用户", "0\n", nil, types.StatusUnsafe, "running as root (uid 0)"},
		{"普通用户", "1000\n", nil, types.StatusSafe, "running as uid 1000"},
		{"无换行输出", "65534", nil, types.StatusSafe, "running as uid 65534"},
		{"非数字输出", "sh: id: not found\n", nil, types.StatusUnknown, `uid probe returned non-numeric output: "sh: id: not found"`},
		{"空输出", "", nil, types.StatusUnknown, `uid probe returned non-numeric output: ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			provider.execOutput["default/web/app"] = tt.output
			provider.execErr["default/web/app"] = tt.err

			status, detail := ProbeUID(context.Background(), provider, "default", "web", "app", time.Second)
			if status != tt.status {
				t.Fatalf("status = %s, want %s", status, tt.status)
			}
			if detail != tt.detail {
				t.Fatalf("detail = %q, want %q", detail, tt.detail)
			}
		})
	}
}

func TestProbeUIDExecFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.execErr["default/web/app"] = errors.New("connection refused")

	status, detail := ProbeUID(context.Background(), provider, "default", "web", "app", time.Second)
	if status != types.StatusUnknown {
		t.Fatalf("status = %s, want Unknown", status)
	}
	if !strings.HasPrefix(detail, "uid probe failed: ") {
		t.Fatalf("detail 缺少探测失败前缀: %q", detail)
	}
	if !strings.Contains(detail, "connection refused") {
		t.Fatalf("detail 未带上原始错误: %q", detail)
	}
}

func TestProbeUIDUsesIDCommand(t *testing.T) {
	provider := newFakeProvider()
	ProbeUID(context.Background(), provider, "default", "web", "app", time.Second)

	if len(provider.execCalled) != 1 || provider.execCalled[0] != "default/web/app" {
		t.Fatalf("exec 调用记录 = %v", provider.execCalled)
	}
}
