package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"kaudit/pkg/types"
)

// RenderSummaryTable 输出所有命名空间的状态分布汇总表
// 审计全部命名空间时放在报告末尾，单命名空间审计不输出。
func RenderSummaryTable(w io.Writer, reports []types.NamespaceReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Namespace", "Pods", "Safe", "Unsafe", "Unknown"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	var total types.StatusCounts
	totalPods := 0

	for _, rep := range reports {
		counts := rep.Counts()
		table.Append([]string{
			rep.Namespace,
			strconv.Itoa(len(rep.Pods)),
			strconv.Itoa(counts.Safe),
			strconv.Itoa(counts.Unsafe),
			strconv.Itoa(counts.Unknown),
		})
		total.Safe += counts.Safe
		total.Unsafe += counts.Unsafe
		total.Unknown += counts.Unknown
		totalPods += len(rep.Pods)
	}

	table.SetFooter([]string{
		"TOTAL",
		strconv.Itoa(totalPods),
		strconv.Itoa(total.Safe),
		strconv.Itoa(total.Unsafe),
		strconv.Itoa(total.Unknown),
	})

	table.Render()
}
