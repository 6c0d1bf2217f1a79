package audit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kaudit/pkg/types"
)

func TestAuditPodFindingOrder(t *testing.T) {
	provider := newFakeProvider()
	provider.addPod(types.PodSpec{
		Name:      "web",
		Namespace: "default",
		Phase:     "Running",
		Containers: []types.ContainerSpec{
			{Name: "app", SecurityContext: &types.SecurityContext{RunAsNonRoot: boolPtr(true)}},
			{Name: "sidecar", SecurityContext: &types.SecurityContext{CapabilityAdd: []string{"SYS_ADMIN"}}},
		},
	})
	provider.execOutput["default/web/app"] = "1000\n"
	provider.execOutput["default/web/sidecar"] = "0\n"

	auditor := New(provider)
	report := auditor.AuditPod(context.Background(), "default", "web")

	// 2 容器 × (RunAsNonRoot + ReadOnlyRootFS + RuntimeUID + Capabilities) + 1 TokenMount
	wantOrder := []struct {
		dim       types.Dimension
		container string
	}{
		{types.DimRunAsNonRoot, "app"},
		{types.DimReadOnlyRoot, "app"},
		{types.DimRunAsNonRoot, "sidecar"},
		{types.DimReadOnlyRoot, "sidecar"},
		{types.DimRuntimeUID, "app"},
		{types.DimRuntimeUID, "sidecar"},
		{types.DimCapabilities, "app"},
		{types.DimCapabilities, "sidecar"},
		{types.DimTokenMount, ""},
	}

	if len(report.Findings) != len(wantOrder) {
		t.Fatalf("结论数量 = %d, want %d", len(report.Findings), len(wantOrder))
	}
	for i, want := range wantOrder {
		f := report.Findings[i]
		if f.Dimension != want.dim || f.Container != want.container {
			t.Fatalf("findings[%d] = (%s, %q), want (%s, %q)", i, f.Dimension, f.Container, want.dim, want.container)
		}
	}

	// 抽查几项结论内容
	if report.Findings[0].Status != types.StatusSafe {
		t.Fatalf("app RunAsNonRoot = %s, want Safe", report.Findings[0].Status)
	}
	if report.Findings[5].Status != types.StatusUnsafe {
		t.Fatalf("sidecar RuntimeUID = %s, want Unsafe", report.Findings[5].Status)
	}
	if report.Findings[7].Detail != "dangerous capabilities added: SYS_ADMIN" {
		t.Fatalf("sidecar Capabilities detail = %q", report.Findings[7].Detail)
	}
}

func TestAuditPodVanishedAfterListing(t *testing.T) {
	provider := newFakeProvider()

	auditor := New(provider)
	report := auditor.AuditPod(context.Background(), "default", "gone")

	if len(report.Findings) != 1 {
		t.Fatalf("结论数量 = %d, want 1", len(report.Findings))
	}
	f := report.Findings[0]
	if f.Dimension != types.DimPodInspection || f.Status != types.StatusUnknown {
		t.Fatalf("finding = (%s, %s)", f.Dimension, f.Status)
	}
	if f.Detail != "pod no longer present, deleted after listing" {
		t.Fatalf("detail = %q", f.Detail)
	}
}

func TestAuditPodInspectionError(t *testing.T) {
	provider := newFakeProvider()
	provider.getPodErr["default/web"] = errors.New("apiserver timeout")

	auditor := New(provider)
	report := auditor.AuditPod(context.Background(), "default", "web")

	if len(report.Findings) != 1 {
		t.Fatalf("结论数量 = %d, want 1", len(report.Findings))
	}
	if !strings.HasPrefix(report.Findings[0].Detail, "pod inspection failed: ") {
		t.Fatalf("detail = %q", report.Findings[0].Detail)
	}
}

func TestAuditPodSkipUIDProbe(t *testing.T) {
	provider := newFakeProvider()
	provider.addPod(types.PodSpec{
		Name:       "web",
		Namespace:  "default",
		Containers: []types.ContainerSpec{{Name: "app"}},
	})

	auditor := New(provider)
	auditor.SkipUIDProbe = true
	report := auditor.AuditPod(context.Background(), "default", "web")

	for _, f := range report.Findings {
		if f.Dimension == types.DimRuntimeUID {
			if f.Status != types.StatusUnknown {
				t.Fatalf("RuntimeUID = %s, want Unknown", f.Status)
			}
		}
	}
	if len(provider.execCalled) != 0 {
		t.Fatalf("跳过探测时不应有 exec 调用: %v", provider.execCalled)
	}
}

func TestAuditPodTokenMount(t *testing.T) {
	tests := []struct {
		name    string
		podFlag *bool
		sa      *types.ServiceAccountInfo
		saErr   error
		status  types.Status
		detail  string
	}{
		{
			name:    "Pod 级显式 false 不查 SA",
			podFlag: boolPtr(false),
			saErr:   errors.New("不应到达这里"),
			status:  types.StatusSafe,
			detail:  "explicitly disabled at pod level",
		},
		{
			name:   "SA 不存在按未声明处理",
			sa:     nil,
			status: types.StatusUnsafe,
			detail: "defaulted to enabled, no explicit settings",
		},
		{
			name:   "SA 级 false",
			sa:     &types.ServiceAccountInfo{Name: "default", Namespace: "default", Automount: boolPtr(false)},
			status: types.StatusSafe,
			detail: "disabled at service-account level",
		},
		{
			name:   "SA 查询失败降级 Unknown",
			saErr:  errors.New("rbac forbidden"),
			status: types.StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			provider.addPod(types.PodSpec{
				Name:                         "web",
				Namespace:                    "default",
				AutomountServiceAccountToken: tt.podFlag,
				Containers:                   []types.ContainerSpec{{Name: "app"}},
			})
			if tt.sa != nil {
				provider.serviceAccounts["default/default"] = tt.sa
			}
			provider.getSAErr = tt.saErr

			auditor := New(provider)
			report := auditor.AuditPod(context.Background(), "default", "web")

			last := report.Findings[len(report.Findings)-1]
			if last.Dimension != types.DimTokenMount {
				t.Fatalf("最后一条结论维度 = %s", last.Dimension)
			}
			if last.Status != tt.status {
				t.Fatalf("status = %s, want %s", last.Status, tt.status)
			}
			if tt.detail != "" && last.Detail != tt.detail {
				t.Fatalf("detail = %q, want %q", last.Detail, tt.detail)
			}
			if tt.status == types.StatusUnknown && !strings.HasPrefix(last.Detail, "service account lookup failed: ") {
				t.Fatalf("Unknown detail = %q", last.Detail)
			}
		})
	}
}
