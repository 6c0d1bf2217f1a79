package main

import (
	"kaudit/cmd"
	_ "kaudit/cmd/audit"   // pod 安全审计
	_ "kaudit/cmd/version" // import sub command as module
)

func main() {
	cmd.Execute()
}
