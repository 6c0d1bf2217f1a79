package Print

import (
	"fmt"

	"github.com/fatih/color"
)

// ═══════════════════════════════════════════════════════════════════════════════
// 颜色定义 - 统一的颜色主题
// ═══════════════════════════════════════════════════════════════════════════════

var (
	// 主题颜色
	ColorTitle     = color.New(color.FgCyan, color.Bold)
	ColorSubtitle  = color.New(color.FgYellow, color.Bold)
	ColorLabel     = color.New(color.FgWhite, color.Bold)
	ColorHighlight = color.New(color.FgHiCyan)

	// 状态颜色
	ColorSafe    = color.New(color.FgGreen)
	ColorUnsafe  = color.New(color.FgRed, color.Bold)
	ColorUnknown = color.New(color.FgYellow)
	ColorError   = color.New(color.FgRed)
)

// ═══════════════════════════════════════════════════════════════════════════════
// 章节和键值对输出
// ═══════════════════════════════════════════════════════════════════════════════

// PrintSection 打印章节标题
func PrintSection(title string) {
	fmt.Println()
	_, _ = ColorSubtitle.Printf("━━━ %s ━━━\n", title)
	fmt.Println()
}

// PrintKeyValue 打印键值对
func PrintKeyValue(key, value string) {
	_, _ = ColorLabel.Printf("  %-16s: ", key)
	fmt.Println(value)
}

// ═══════════════════════════════════════════════════════════════════════════════
// 提示和帮助
// ═══════════════════════════════════════════════════════════════════════════════

// PrintTip 打印提示信息
func PrintTip(tip string) {
	fmt.Println()
	_, _ = ColorHighlight.Printf("💡 %s\n", tip)
}

// PrintWarning 打印警告
func PrintWarning(msg string) {
	_, _ = ColorUnknown.Printf("⚠️  %s\n", msg)
}

// PrintError 打印错误
func PrintError(msg string) {
	_, _ = ColorError.Printf("✗ %s\n", msg)
}

// PrintSuccess 打印成功
func PrintSuccess(msg string) {
	_, _ = ColorSafe.Printf("✓ %s\n", msg)
}
