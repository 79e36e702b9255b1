package cmd

import (
	"errors"
	"io/fs"
	"kids_edu_backend/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kids-edu",
	Short: "Kids education backend",
	Long:  "AI 生成课程、测验和小游戏，记录孩子的学习进度并提供家长和教师面板。",
	// 不带子命令时直接启动服务
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs", "配置文件目录（包含 config.yaml）")
	rootCmd.PersistentFlags().String("env-file", ".env", "本地开发用的环境变量文件，不存在时忽略")
	rootCmd.Flags().Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig 先加载 .env，再读取 --config 指定目录下的配置；已存在的环境变量不会被覆盖
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
	}

	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}
