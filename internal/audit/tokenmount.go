package audit

import "kaudit/pkg/types"

// ==================== SA Token 挂载判定 ====================

// ResolveTokenMount 判定 Pod 的 ServiceAccount Token 挂载状态
//
// 两个输入都是三态（true / false / nil 未声明），ServiceAccount 对象不存在时
// 调用方传 saFlag = nil。优先级固定，与集群实际的默认挂载语义一致：
//
//  1. Pod 级 false        -> Safe   （最高优先级，直接短路）
//  2. Pod 级 true         -> Unsafe （显式开启一律视为不安全，不看 SA 设置）
//  3. Pod 未声明 + SA false -> Safe
//  4. 两级都未声明         -> Unsafe （集群默认行为是挂载）
//  5. Pod 未声明 + SA true  -> Unsafe
//
// 除这两个开关外不参考任何其他字段。
func ResolveTokenMount(podFlag, saFlag *bool) (types.Status, string) {
	if podFlag != nil {
		if !*podFlag {
			return types.StatusSafe, "explicitly disabled at pod level"
		}
		return types.StatusUnsafe, "explicitly enabled at pod level"
	}

	if saFlag == nil {
		return types.StatusUnsafe, "defaulted to enabled, no explicit settings"
	}
	if !*saFlag {
		return types.StatusSafe, "disabled at service-account level"
	}
	return types.StatusUnsafe, "mounted, inherited from higher-level settings"
}
