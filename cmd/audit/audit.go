package audit

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"kaudit/cmd"
	"kaudit/config"
	auditengine "kaudit/internal/audit"
	"kaudit/internal/cluster"
	"kaudit/internal/report"
	"kaudit/pkg/types"
	"kaudit/utils/Error"
	"kaudit/utils/Print"
)

// audit 子命令的 flags
var (
	// 目标选择
	flagNamespace   string // 审计单个命名空间
	flagAll         bool   // 审计全部命名空间
	flagInteractive bool   // 交互式选择命名空间

	// 输出
	flagOutput  string // 输出到文件（纯文本，无颜色）
	flagNoColor bool   // 关闭颜色
	flagJSON    bool   // JSON 输出（机器可读）
	flagDBPath  string // 同时保存结论到 SQLite
	flagLegend  bool   // 输出维度图例

	// 审计行为
	flagConcurrent int  // 命名空间内并发审计的 Pod 数
	flagSkipProbe  bool // 跳过容器内 UID 探测

	// 集群访问方式
	flagKubeconfig  string // kubeconfig 路径（API Server 模式）
	flagKubelet     bool   // 切换为 Kubelet 直连模式
	flagKubeletIP   string // Kubelet IP（默认从路由表取网关）
	flagKubeletPort int    // Kubelet 端口
	flagTokenFile   string // Token 文件路径
	flagAPIServer   string // API Server 地址（Kubelet 模式下查询 SA / 命名空间）
	flagProxy       string // SOCKS5 代理
)

// auditCmd 是 audit 子命令
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "审计 Pod 安全配置",
	Long: `审计集群中 Running 状态 Pod 的安全配置

检查内容（每个维度产出 Safe / Unsafe / Unknown 结论）：
  - RunAsNonRoot    securityContext.runAsNonRoot 声明
  - ReadOnlyRootFS  securityContext.readOnlyRootFilesystem 声明
  - RuntimeUID      exec 进容器执行 id -u 读实际生效 UID
  - Capabilities    capabilities.add 里的危险 Capability
  - TokenMount      Pod 级与 ServiceAccount 级 Token 挂载开关的合成判定

必须通过 -n、-A 或 -i 三者之一指定审计目标。

示例：
  # 审计单个命名空间
  kaudit audit -n default

  # 审计全部命名空间
  kaudit audit -A

  # 交互式选择命名空间
  kaudit audit -i

  # 结果写入文件（纯文本）
  kaudit audit -n default -o report.txt

  # JSON 输出，供脚本处理
  kaudit audit -A --json | jq '.pods[].findings[] | select(.status=="Unsafe")'

  # 同时落盘到 SQLite
  kaudit audit -A --db findings.db

  # 在 Pod 内直连本节点 Kubelet 审计
  kaudit audit -n default --kubelet

  # 并发审计（每个 Pod 内的结论顺序不变）
  kaudit audit -A --concurrent 5`,
	Run: runAudit,
}

func init() {
	cmd.RootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVarP(&flagNamespace, "namespace", "n", "", "审计指定命名空间")
	auditCmd.Flags().BoolVarP(&flagAll, "all-namespaces", "A", false, "审计全部命名空间")
	auditCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "交互式选择命名空间")

	auditCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "输出到文件（纯文本，自动关闭颜色）")
	auditCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "关闭彩色输出")
	auditCmd.Flags().BoolVar(&flagJSON, "json", false, "JSON 输出（机器可读）")
	auditCmd.Flags().StringVar(&flagDBPath, "db", "", "保存结论到 SQLite 数据库（默认: kaudit_findings.db）")
	auditCmd.Flags().BoolVar(&flagLegend, "legend", false, "输出审计维度图例")

	auditCmd.Flags().IntVar(&flagConcurrent, "concurrent", 1, "命名空间内并发审计的 Pod 数")
	auditCmd.Flags().BoolVar(&flagSkipProbe, "skip-uid-probe", false, "跳过容器内 UID 探测（RuntimeUID 维度输出 Unknown）")

	auditCmd.Flags().StringVar(&flagKubeconfig, "kubeconfig", "", "kubeconfig 路径（默认: KUBECONFIG / 集群内配置 / ~/.kube/config）")
	auditCmd.Flags().BoolVar(&flagKubelet, "kubelet", false, "直连节点 Kubelet 审计（在 Pod 内使用）")
	auditCmd.Flags().StringVar(&flagKubeletIP, "kubelet-ip", "", "Kubelet IP 地址（默认从路由表取默认网关）")
	auditCmd.Flags().IntVar(&flagKubeletPort, "kubelet-port", config.DefaultKubeletPort, "Kubelet 端口")
	auditCmd.Flags().StringVar(&flagTokenFile, "token-file", "", "Token 文件路径（Kubelet 模式）")
	auditCmd.Flags().StringVar(&flagAPIServer, "api-server", "", "API Server 地址（Kubelet 模式下查询命名空间 / SA）")
	auditCmd.Flags().StringVar(&flagProxy, "proxy", "", "SOCKS5 代理地址（Kubelet 模式）")

	// 配置文件里的 kubelet.port 在未显式传 flag 时生效
	_ = viper.BindPFlag("kubelet.port", auditCmd.Flags().Lookup("kubelet-port"))
}

func runAudit(c *cobra.Command, args []string) {
	// 目标校验先于一切集群访问
	if !flagAll && !flagInteractive && flagNamespace == "" {
		Print.PrintError("必须通过 -n <namespace>、-A 或 -i 指定审计目标")
		_ = c.Usage()
		os.Exit(2)
	}
	if flagAll && flagNamespace != "" {
		Print.PrintError("-n 和 -A 不能同时使用")
		_ = c.Usage()
		os.Exit(2)
	}

	if flagSkipProbe && !flagJSON {
		Print.PrintWarning("已跳过容器内 UID 探测，RuntimeUID 维度将输出 Unknown")
	}

	provider, err := buildProvider()
	if err != nil {
		log.Errorf("创建集群客户端失败: %v", err)
		Error.HandleFatal(err)
	}

	auditor := auditengine.New(provider)
	auditor.ProbeTimeout = viper.GetDuration("probe_timeout")
	auditor.Concurrency = flagConcurrent
	auditor.SkipUIDProbe = flagSkipProbe
	auditor.DangerousCapabilities = append(
		append([]string{}, config.DefaultDangerousCapabilities...),
		viper.GetStringSlice("dangerous_capabilities")...,
	)

	ctx := context.Background()

	// 输出目的地
	out, closeOut, err := openOutput()
	if err != nil {
		Error.HandleFatal(err)
	}
	defer closeOut()

	var sink report.Sink
	if flagJSON {
		sink = report.NewJSONRenderer(out)
	} else {
		sink = report.NewConsoleRenderer(report.Options{Writer: out, Color: colorEnabled()})
	}

	var db *report.FindingDB
	if c.Flags().Changed("db") || flagDBPath != "" {
		db, err = report.NewFindingDB(flagDBPath)
		if err != nil {
			Error.HandleFatal(err)
		}
		defer func() { _ = db.Close() }()
		log.Infof("审计结论将保存到: %s", db.Path())
	}

	namespaces, err := resolveTargets(ctx, provider)
	if err != nil {
		Error.HandleFatal(err)
	}

	// 逐命名空间审计并立即渲染，长时间审计可中途中断保留已有输出
	var reports []types.NamespaceReport
	for _, ns := range namespaces {
		rep, err := auditor.AuditNamespace(ctx, ns)
		if err != nil {
			log.Errorf("审计命名空间 %s 失败: %v", ns, err)
			Error.HandleError(err)
			continue
		}

		if err := sink.RenderNamespace(rep); err != nil {
			Error.HandleFatal(fmt.Errorf("渲染报告失败: %w", err))
		}

		if db != nil {
			if saved, err := db.SaveReport(rep); err != nil {
				log.Errorf("保存结论到数据库失败: %v", err)
			} else {
				log.Debugf("命名空间 %s: 已保存 %d 条结论", ns, saved)
			}
		}

		reports = append(reports, rep)
	}

	// 多命名空间时输出汇总表
	if !flagJSON && len(reports) > 1 {
		fmt.Fprintln(out)
		report.RenderSummaryTable(out, reports)
	}

	if flagLegend && !flagJSON {
		if cr, ok := sink.(*report.ConsoleRenderer); ok {
			_ = cr.RenderLegend()
		}
	}

	if db != nil && !flagJSON {
		Print.PrintSuccess("审计结论已保存: " + db.Path())
	}
	if !flagJSON && !flagLegend && len(reports) > 1 {
		Print.PrintTip("使用 --legend 查看各审计维度的说明")
	}
}

// buildProvider 按 flags 构建集群访问方式
func buildProvider() (cluster.Provider, error) {
	if flagKubelet {
		return cluster.NewKubeletProvider(cluster.KubeletOptions{
			IP:        flagKubeletIP,
			Port:      viper.GetInt("kubelet.port"),
			TokenFile: flagTokenFile,
			APIServer: flagAPIServer,
			Proxy:     flagProxy,
		})
	}
	return cluster.NewAPIServerProvider(flagKubeconfig)
}

// resolveTargets 确定要审计的命名空间列表
// 单命名空间先做存在性检查，不存在时直接报错退出，不做任何枚举。
func resolveTargets(ctx context.Context, provider cluster.Provider) ([]string, error) {
	switch {
	case flagAll:
		namespaces, err := provider.ListNamespaces(ctx)
		if err != nil {
			return nil, err
		}
		if len(namespaces) == 0 {
			return nil, fmt.Errorf("集群中没有可见的命名空间")
		}
		log.Infof("审计全部命名空间: 共 %d 个", len(namespaces))
		return namespaces, nil

	case flagInteractive:
		namespaces, err := provider.ListNamespaces(ctx)
		if err != nil {
			return nil, err
		}
		if len(namespaces) == 0 {
			return nil, fmt.Errorf("集群中没有可见的命名空间")
		}

		var chosen string
		prompt := &survey.Select{
			Message:  "选择要审计的命名空间:",
			Options:  namespaces,
			PageSize: 15,
		}
		if err := survey.AskOne(prompt, &chosen); err != nil {
			return nil, fmt.Errorf("命名空间选择已取消: %w", err)
		}
		return []string{chosen}, nil

	default:
		exists, err := provider.NamespaceExists(ctx, flagNamespace)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("命名空间不存在: %s", flagNamespace)
		}
		return []string{flagNamespace}, nil
	}
}

// openOutput 打开输出目的地，文件模式返回关闭函数
func openOutput() (io.Writer, func(), error) {
	if flagOutput == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(flagOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("创建输出文件失败: %w", err)
	}
	log.Infof("报告写入文件: %s", flagOutput)
	return file, func() { _ = file.Close() }, nil
}

// colorEnabled 判定是否输出颜色
// 写文件、显式关闭、配置关闭、stdout 非终端时都不上色。
func colorEnabled() bool {
	if flagNoColor || flagOutput != "" || viper.GetBool("no_color") {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
