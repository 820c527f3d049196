package cmd

import (
	"github.com/spf13/cobra"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动播放会话服务器",
	Long:  `启动 HTTP/WebSocket 服务器，提供会话控制 API 和播放页桥接`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	logger.Info("Starting Bt1QPlayer server...", logger.String("addr", cfg.HTTPAddr))
	return server.Start(cfg, envFile)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
