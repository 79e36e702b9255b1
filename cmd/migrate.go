package cmd

import (
	"fmt"

	"kids_edu_backend/pkg/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and seed badges, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, err := database.InitDB(&cfg.Database, true)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		fmt.Println("数据库迁移完成")
		return nil
	},
}
