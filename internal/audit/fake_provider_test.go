package audit

import (
	"context"
	"fmt"

	"kaudit/internal/cluster"
	"kaudit/pkg/types"
)

// fakeProvider 内存实现的 cluster.Provider，仅测试用
type fakeProvider struct {
	namespaces      []string
	pods            map[string][]types.PodSpec           // namespace -> pods（保持顺序）
	serviceAccounts map[string]*types.ServiceAccountInfo // "ns/name" -> SA
	execOutput      map[string]string                    // "ns/pod/container" -> stdout
	execErr         map[string]error                     // "ns/pod/container" -> 错误

	listErr    error
	getPodErr  map[string]error // "ns/pod" -> 错误
	getSAErr   error
	execCalled []string // 记录 exec 调用顺序
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		pods:            make(map[string][]types.PodSpec),
		serviceAccounts: make(map[string]*types.ServiceAccountInfo),
		execOutput:      make(map[string]string),
		execErr:         make(map[string]error),
		getPodErr:       make(map[string]error),
	}
}

func (f *fakeProvider) addPod(pod types.PodSpec) {
	pod.Normalize()
	f.pods[pod.Namespace] = append(f.pods[pod.Namespace], pod)
}

func (f *fakeProvider) ListNamespaces(ctx context.Context) ([]string, error) {
	return f.namespaces, nil
}

func (f *fakeProvider) NamespaceExists(ctx context.Context, name string) (bool, error) {
	for _, ns := range f.namespaces {
		if ns == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProvider) ListRunningPods(ctx context.Context, namespace string) ([]types.PodSpec, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pods[namespace], nil
}

func (f *fakeProvider) GetPod(ctx context.Context, namespace, name string) (*types.PodSpec, error) {
	if err := f.getPodErr[namespace+"/"+name]; err != nil {
		return nil, err
	}
	for i := range f.pods[namespace] {
		if f.pods[namespace][i].Name == name {
			pod := f.pods[namespace][i]
			return &pod, nil
		}
	}
	return nil, cluster.ErrNotFound
}

func (f *fakeProvider) GetServiceAccount(ctx context.Context, namespace, name string) (*types.ServiceAccountInfo, error) {
	if f.getSAErr != nil {
		return nil, f.getSAErr
	}
	sa, ok := f.serviceAccounts[namespace+"/"+name]
	if !ok {
		return nil, cluster.ErrNotFound
	}
	return sa, nil
}

func (f *fakeProvider) ExecInContainer(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s", namespace, pod, container)
	f.execCalled = append(f.execCalled, key)
	if err := f.execErr[key]; err != nil {
		return "", &cluster.ProbeError{Namespace: namespace, Pod: pod, Container: container, Err: err}
	}
	out, ok := f.execOutput[key]
	if !ok {
		return "1000\n", nil
	}
	return out, nil
}
