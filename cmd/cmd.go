package cmd

import (
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"kaudit/config"
)

// 全局 flags
var flagDebug bool

// RootCmd 是 kaudit 根命令，子命令在各自包的 init 中注册
var RootCmd = &cobra.Command{
	Use:   "kaudit",
	Short: "Kubernetes Pod 安全配置审计工具",
	Long: `kaudit - Kubernetes Pod 安全配置审计工具

检查集群中 Running 状态 Pod 的常见安全配置问题：
  - 容器是否以 root 运行（声明检查 + 容器内实际 UID 探测）
  - 根文件系统是否只读 (readOnlyRootFilesystem)
  - 是否追加了危险的 Linux Capability
  - ServiceAccount Token 是否被过度挂载

每个检查维度产出 Safe / Unsafe / Unknown 三态结论，
无法判定时给出 Unknown 而不是静默跳过。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagDebug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute 执行根命令
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:       RootCmd,
		Headings:      cc.HiCyan + cc.Bold,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic,
	})

	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "输出调试日志")

	log.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	log.SetLevel(log.InfoLevel)
}

// initConfig 加载配置文件和环境变量
// 查找顺序：$HOME/.kaudit.yaml、当前目录；环境变量前缀 KAUDIT_。
func initConfig() {
	viper.SetConfigName(".kaudit")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("KAUDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("probe_timeout", config.DefaultProbeTimeout)
	viper.SetDefault("kubelet.port", config.DefaultKubeletPort)
	viper.SetDefault("no_color", false)

	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("使用配置文件: %s", viper.ConfigFileUsed())
	}
}
