package Error

import (
	"os"

	"kaudit/utils/Print"
)

// HandleFatal 打印错误并以非零状态退出
// 只在命令入口处调用，审计过程中的错误都降级为 Unknown 结论。
func HandleFatal(err error) {
	if err == nil {
		return
	}
	Print.PrintError(err.Error())
	os.Exit(1)
}

// HandleError 打印错误但继续执行
func HandleError(err error) {
	if err == nil {
		return
	}
	Print.PrintError(err.Error())
}
