package report

import (
	"fmt"
	"io"
	"strings"

	"kaudit/config"
	"kaudit/pkg/types"
	"kaudit/utils/Print"
)

// Sink 接收一个命名空间的审计结果并渲染
// 渲染是纯展示层，审计结论在进入 Sink 前已经确定。
type Sink interface {
	RenderNamespace(report types.NamespaceReport) error
}

// Options 渲染配置
// 显式传入而不是用全局开关，文件输出和控制台输出可以同时存在。
type Options struct {
	Writer io.Writer
	Color  bool
}

// ConsoleRenderer 逐行文本渲染器（控制台彩色 / 文件纯文本共用）
type ConsoleRenderer struct {
	w     io.Writer
	color bool
}

// NewConsoleRenderer 创建文本渲染器
func NewConsoleRenderer(opts Options) *ConsoleRenderer {
	return &ConsoleRenderer{w: opts.Writer, color: opts.Color}
}

// RenderNamespace 渲染一个命名空间的审计结果
// 布局：每个 Pod 一个标题行，下面每条结论一行，状态标签开头。
func (r *ConsoleRenderer) RenderNamespace(report types.NamespaceReport) error {
	header := fmt.Sprintf("━━━ Namespace: %s ━━━", report.Namespace)
	if r.color {
		header = Print.ColorSubtitle.Sprint(header)
	}
	if _, err := fmt.Fprintf(r.w, "\n%s\n", header); err != nil {
		return err
	}

	if len(report.Pods) == 0 {
		_, err := fmt.Fprintln(r.w, "  (no running pods)")
		return err
	}

	for _, pod := range report.Pods {
		podLine := "Pod: " + pod.Name
		if r.color {
			podLine = Print.ColorTitle.Sprint(podLine)
		}
		if _, err := fmt.Fprintf(r.w, "\n%s\n", podLine); err != nil {
			return err
		}

		for _, f := range pod.Findings {
			if err := r.renderFinding(f); err != nil {
				return err
			}
		}
	}

	counts := report.Counts()
	if _, err := fmt.Fprintf(r.w, "\n  safe: %d  unsafe: %d  unknown: %d\n",
		counts.Safe, counts.Unsafe, counts.Unknown); err != nil {
		return err
	}

	return nil
}

// renderFinding 渲染单条结论
func (r *ConsoleRenderer) renderFinding(f types.Finding) error {
	// 先按纯文本定宽补齐，再上色，避免 ANSI 序列破坏对齐
	tag := fmt.Sprintf("%-9s", "["+strings.ToUpper(string(f.Status))+"]")
	if r.color {
		switch f.Status {
		case types.StatusSafe:
			tag = Print.ColorSafe.Sprint(tag)
		case types.StatusUnsafe:
			tag = Print.ColorUnsafe.Sprint(tag)
		default:
			tag = Print.ColorUnknown.Sprint(tag)
		}
	}

	scope := f.Container
	if scope == "" {
		scope = "-"
	}

	_, err := fmt.Fprintf(r.w, "  %s %-14s %-20s %s\n", tag, f.Dimension, scope, f.Detail)
	return err
}

// RenderLegend 渲染维度图例
func (r *ConsoleRenderer) RenderLegend() error {
	if _, err := fmt.Fprintln(r.w, "\n审计维度说明:"); err != nil {
		return err
	}
	for _, d := range config.DimensionInfos {
		if _, err := fmt.Fprintf(r.w, "  %-14s (%s)  %s\n", d.Name, d.Info.Scope, d.Info.Description); err != nil {
			return err
		}
	}
	return nil
}
