package audit

import "kaudit/pkg/types"

// ==================== 安全上下文求值 ====================
//
// 两条规则都是输入的纯函数，严格区分"显式 false"和"未声明"。

// EvalRunAsNonRoot 求值容器的 runAsNonRoot 声明
// 声明 true -> Safe；声明 false -> Unsafe；未声明（含整个块缺失）-> Unknown，
// 不做任何默认值假设，实际身份交给运行时 UID 探测判定。
func EvalRunAsNonRoot(sc *types.SecurityContext) (types.Status, string) {
	if sc == nil || sc.RunAsNonRoot == nil {
		return types.StatusUnknown, "runAsNonRoot not set"
	}
	if *sc.RunAsNonRoot {
		return types.StatusSafe, "runAsNonRoot explicitly true"
	}
	return types.StatusUnsafe, "runAsNonRoot explicitly false"
}

// EvalReadOnlyRootFS 求值容器的 readOnlyRootFilesystem 声明
// 字段缺失和整个块缺失都按 false 处理（集群默认根文件系统可写）。
func EvalReadOnlyRootFS(sc *types.SecurityContext) (types.Status, string) {
	if sc == nil || sc.ReadOnlyRootFilesystem == nil {
		return types.StatusUnsafe, "readOnlyRootFilesystem not set, root filesystem is writable"
	}
	if *sc.ReadOnlyRootFilesystem {
		return types.StatusSafe, "readOnlyRootFilesystem explicitly true"
	}
	return types.StatusUnsafe, "readOnlyRootFilesystem explicitly false"
}
