package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"Bt1QPlayer/db"
)

var dbMigrate bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "数据库连接测试",
	Long:  `连接 MySQL 并可选地迁移播放历史和收藏表。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("数据库配置: %s:%s/%s\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
		return check("MySQL", checkDB)
	},
}

func checkDB(ctx context.Context) error {
	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()

	sqlDB, err := db.GormDB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	if dbMigrate {
		return db.AutoMigrate()
	}
	return nil
}

func init() {
	dbCmd.Flags().BoolVarP(&dbMigrate, "migrate", "m", false, "迁移数据表")
	rootCmd.AddCommand(dbCmd)
}
