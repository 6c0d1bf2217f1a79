package audit

import (
	"testing"

	"kaudit/pkg/types"
)

func boolPtr(b bool) *bool { return &b }

func TestEvalRunAsNonRoot(t *testing.T) {
	tests := []struct {
		name   string
		sc     *types.SecurityContext
		status types.Status
		detail string
	}{
		{"整个块缺失", nil, types.StatusUnknown, "runAsNonRoot not set"},
		{"字段未声明", &types.SecurityContext{}, types.StatusUnknown, "runAsNonRoot not set"},
		{"显式 true", &types.SecurityContext{RunAsNonRoot: boolPtr(true)}, types.StatusSafe, "runAsNonRoot explicitly true"},
		{"显式 false", &types.SecurityContext{RunAsNonRoot: boolPtr(false)}, types.StatusUnsafe, "runAsNonRoot explicitly false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := EvalRunAsNonRoot(tt.sc)
			if status != tt.status {
				t.Fatalf("status = %s, want %s", status, tt.status)
			}
			if detail != tt.detail {
				t.Fatalf("detail = %q, want %q", detail, tt.detail)
			}
		})
	}
}

func TestEvalReadOnlyRootFS(t *testing.T) {
	tests := []struct {
		name   string
		sc     *types.SecurityContext
		status types.Status
	}{
		{"整个块缺失按可写处理", nil, types.StatusUnsafe},
		{"字段未声明按可写处理", &types.SecurityContext{}, types.StatusUnsafe},
		{"显式 true", &types.SecurityContext{ReadOnlyRootFilesystem: boolPtr(true)}, types.StatusSafe},
		{"显式 false", &types.SecurityContext{ReadOnlyRootFilesystem: boolPtr(false)}, types.StatusUnsafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := EvalReadOnlyRootFS(tt.sc)
			if status != tt.status {
				t.Fatalf("status = %s, want %s", status, tt.status)
			}
		})
	}

	// 缺失和显式 false 的解释要能区分
	_, missing := EvalReadOnlyRootFS(nil)
	_, explicit := EvalReadOnlyRootFS(&types.SecurityContext{ReadOnlyRootFilesystem: boolPtr(false)})
	if missing == explicit {
		t.Fatalf("缺失和显式 false 的解释不应相同: %q", missing)
	}
}
