package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"kids_edu_backend/internal/app"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
}

func runServe(cmd *cobra.Command) error {
	cfg, dir, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.ForceMigrate, _ = cmd.Flags().GetBool("migrate")

	application, err := app.NewApp(cfg)
	if err != nil {
		return err
	}

	// 等待中断信号优雅地关闭服务器
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx, dir)
}
