package audit

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"kaudit/pkg/types"
)

// AuditNamespace 审计单个命名空间内的全部 Running Pod
//
// 结果顺序与集群列举顺序一致；Concurrency > 1 时按索引回填，
// 并发只改变耗时不改变输出。列举失败才返回错误，单个 Pod 的
// 问题都以 Unknown 结论的形式留在报告里。
func (a *Auditor) AuditNamespace(ctx context.Context, namespace string) (types.NamespaceReport, error) {
	report := types.NamespaceReport{Namespace: namespace}

	pods, err := a.Provider.ListRunningPods(ctx, namespace)
	if err != nil {
		return report, fmt.Errorf("列举 Running Pod 失败 (namespace=%s): %w", namespace, err)
	}

	if len(pods) == 0 {
		log.Debugf("命名空间 %s 没有 Running 状态的 Pod", namespace)
		return report, nil
	}

	report.Pods = make([]types.PodReport, len(pods))

	if a.Concurrency <= 1 {
		for i, pod := range pods {
			report.Pods[i] = a.AuditPod(ctx, namespace, pod.Name)
		}
		return report, nil
	}

	// 信号量限制并发，按索引写回保持列举顺序
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.Concurrency)

	for i, pod := range pods {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			report.Pods[idx] = a.AuditPod(ctx, namespace, name)
		}(i, pod.Name)
	}
	wg.Wait()

	return report, nil
}
