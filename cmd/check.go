package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// check runs one dependency check and prints a coloured verdict.
func check(name string, fn func(ctx context.Context) error) error {
	if err := withTimeout(fn); err != nil {
		failColor.Printf("[FAIL] ")
		fmt.Printf("%s: %v\n", name, err)
		return fmt.Errorf("%s check failed: %w", name, err)
	}
	okColor.Printf("[ OK ] ")
	fmt.Println(name)
	return nil
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "检查所有外部依赖",
	Long:  `依次检查 Redis、MySQL 和 MinIO。任何一个失败时命令以非零状态退出，其余检查照常执行。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var failed int
		for _, c := range []struct {
			name string
			fn   func(ctx context.Context) error
		}{
			{"Redis", checkRedis},
			{"MySQL", checkDB},
			{"MinIO", checkMinio},
		} {
			if err := check(c.name, c.fn); err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of 3 checks failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
