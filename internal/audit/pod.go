package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"kaudit/config"
	"kaudit/internal/cluster"
	"kaudit/pkg/types"
)

// Auditor Pod / 命名空间审计器
// 不持有跨 Pod 状态，每个 Pod 的审计相互独立。
type Auditor struct {
	Provider cluster.Provider

	// DangerousCapabilities 危险 Capability 集合，空时用默认规则表
	DangerousCapabilities []string

	// ProbeTimeout 单次 exec 探测超时
	ProbeTimeout time.Duration

	// Concurrency 命名空间内并发审计的 Pod 数，<=1 表示严格串行
	Concurrency int

	// SkipUIDProbe 跳过运行时 UID 探测（只做声明式检查）
	SkipUIDProbe bool
}

// New 创建审计器
func New(provider cluster.Provider) *Auditor {
	return &Auditor{
		Provider:              provider,
		DangerousCapabilities: config.DefaultDangerousCapabilities,
		ProbeTimeout:          config.DefaultProbeTimeout,
		Concurrency:           1,
	}
}

// AuditPod 审计单个 Pod
//
// 在列举和审计之间 Pod 可能已被删除，因此先按名称重新抓取；抓不到时给出
// 一条 Pod 级 Unknown 结论而不是让整个命名空间审计失败。
//
// 结论顺序固定：每容器 (RunAsNonRoot, ReadOnlyRootFS)，再每容器 RuntimeUID，
// 再每容器 Capabilities，最后一条 Pod 级 TokenMount。
func (a *Auditor) AuditPod(ctx context.Context, namespace, name string) types.PodReport {
	report := types.PodReport{Namespace: namespace, Name: name}

	pod, err := a.Provider.GetPod(ctx, namespace, name)
	if err != nil {
		detail := fmt.Sprintf("pod inspection failed: %v", err)
		if errors.Is(err, cluster.ErrNotFound) {
			detail = "pod no longer present, deleted after listing"
		}
		report.Findings = append(report.Findings, types.Finding{
			Namespace: namespace,
			Pod:       name,
			Dimension: types.DimPodInspection,
			Status:    types.StatusUnknown,
			Detail:    detail,
		})
		return report
	}

	// 声明式安全上下文检查
	for _, c := range pod.Containers {
		status, detail := EvalRunAsNonRoot(c.SecurityContext)
		report.Findings = append(report.Findings, a.containerFinding(pod, c.Name, types.DimRunAsNonRoot, status, detail))

		status, detail = EvalReadOnlyRootFS(c.SecurityContext)
		report.Findings = append(report.Findings, a.containerFinding(pod, c.Name, types.DimReadOnlyRoot, status, detail))
	}

	// 运行时 UID 探测，单个容器失败不影响同级容器
	for _, c := range pod.Containers {
		var status types.Status
		var detail string
		if a.SkipUIDProbe {
			status, detail = types.StatusUnknown, "uid probe skipped"
		} else {
			status, detail = ProbeUID(ctx, a.Provider, namespace, name, c.Name, a.ProbeTimeout)
		}
		report.Findings = append(report.Findings, a.containerFinding(pod, c.Name, types.DimRuntimeUID, status, detail))
	}

	// Capability 追加项检查
	dangerous := a.DangerousCapabilities
	if len(dangerous) == 0 {
		dangerous = config.DefaultDangerousCapabilities
	}
	for _, c := range pod.Containers {
		var add []string
		if c.SecurityContext != nil {
			add = c.SecurityContext.CapabilityAdd
		}
		status, detail := ClassifyCapabilities(add, dangerous)
		report.Findings = append(report.Findings, a.containerFinding(pod, c.Name, types.DimCapabilities, status, detail))
	}

	// Token 挂载判定，每个 Pod 一条
	status, detail := a.resolveTokenMount(ctx, pod)
	report.Findings = append(report.Findings, types.Finding{
		Namespace: namespace,
		Pod:       name,
		Dimension: types.DimTokenMount,
		Status:    status,
		Detail:    detail,
	})

	return report
}

// resolveTokenMount 取 SA 的挂载开关后做纯函数判定
func (a *Auditor) resolveTokenMount(ctx context.Context, pod *types.PodSpec) (types.Status, string) {
	// Pod 级显式声明时无需查询 SA
	if pod.AutomountServiceAccountToken != nil {
		return ResolveTokenMount(pod.AutomountServiceAccountToken, nil)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, a.ProbeTimeout)
	defer cancel()

	sa, err := a.Provider.GetServiceAccount(lookupCtx, pod.Namespace, pod.ServiceAccountName)
	switch {
	case errors.Is(err, cluster.ErrNotFound):
		// SA 对象不存在按未声明处理
		log.Debugf("ServiceAccount %s/%s 不存在，按未声明处理", pod.Namespace, pod.ServiceAccountName)
		return ResolveTokenMount(nil, nil)
	case err != nil:
		return types.StatusUnknown, fmt.Sprintf("service account lookup failed: %v", err)
	default:
		return ResolveTokenMount(nil, sa.Automount)
	}
}

func (a *Auditor) containerFinding(pod *types.PodSpec, container string, dim types.Dimension, status types.Status, detail string) types.Finding {
	return types.Finding{
		Namespace: pod.Namespace,
		Pod:       pod.Name,
		Container: container,
		Dimension: dim,
		Status:    status,
		Detail:    detail,
	}
}
