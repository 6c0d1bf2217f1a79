package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"kaudit/pkg/types"
)

func TestAuditNamespaceListFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.listErr = errors.New("forbidden")

	auditor := New(provider)
	_, err := auditor.AuditNamespace(context.Background(), "default")
	if err == nil {
		t.Fatal("列举失败时应返回错误")
	}
	if !errors.Is(err, provider.listErr) {
		t.Fatalf("错误未包装原因: %v", err)
	}
}

func TestAuditNamespaceEmpty(t *testing.T) {
	provider := newFakeProvider()

	auditor := New(provider)
	report, err := auditor.AuditNamespace(context.Background(), "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Pods) != 0 {
		t.Fatalf("空命名空间 Pods = %d", len(report.Pods))
	}
}

func TestAuditNamespacePreservesListingOrder(t *testing.T) {
	provider := newFakeProvider()
	for i := 0; i < 8; i++ {
		provider.addPod(types.PodSpec{
			Name:       fmt.Sprintf("pod-%d", i),
			Namespace:  "default",
			Containers: []types.ContainerSpec{{Name: "app"}},
		})
	}

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			auditor := New(provider)
			auditor.Concurrency = concurrency

			report, err := auditor.AuditNamespace(context.Background(), "default")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(report.Pods) != 8 {
				t.Fatalf("Pods = %d, want 8", len(report.Pods))
			}
			for i, pod := range report.Pods {
				if pod.Name != fmt.Sprintf("pod-%d", i) {
					t.Fatalf("pods[%d] = %s, 顺序与列举不一致", i, pod.Name)
				}
			}
		})
	}
}

func TestAuditNamespaceProbeErrorIsolation(t *testing.T) {
	provider := newFakeProvider()
	provider.addPod(types.PodSpec{
		Name:      "web",
		Namespace: "default",
		Containers: []types.ContainerSpec{
			{Name: "broken"},
			{Name: "healthy"},
		},
	})
	provider.execErr["default/web/broken"] = errors.New("no shell")
	provider.execOutput["default/web/healthy"] = "1000\n"

	auditor := New(provider)
	report, err := auditor.AuditNamespace(context.Background(), "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var brokenStatus, healthyStatus types.Status
	for _, f := range report.Pods[0].Findings {
		if f.Dimension != types.DimRuntimeUID {
			continue
		}
		switch f.Container {
		case "broken":
			brokenStatus = f.Status
		case "healthy":
			healthyStatus = f.Status
		}
	}

	if brokenStatus != types.StatusUnknown {
		t.Fatalf("broken 容器状态 = %s, want Unknown", brokenStatus)
	}
	if healthyStatus != types.StatusSafe {
		t.Fatalf("healthy 容器不应受同级失败影响: %s", healthyStatus)
	}
}

func TestNamespaceReportCounts(t *testing.T) {
	report := types.NamespaceReport{
		Namespace: "default",
		Pods: []types.PodReport{
			{Findings: []types.Finding{
				{Status: types.StatusSafe},
				{Status: types.StatusUnsafe},
				{Status: types.StatusUnknown},
				{Status: types.StatusUnsafe},
			}},
		},
	}

	counts := report.Counts()
	if counts.Safe != 1 || counts.Unsafe != 2 || counts.Unknown != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}
