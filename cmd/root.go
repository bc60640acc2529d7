package cmd

import (
	"context"
	"fmt"
	"os"

	"imsystem/internal/core/config"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "imsystem",
		Short:         "Inventory management grid service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Optional YAML config file; environment variables take precedence")

	rootCmd.AddCommand(ServeCmd, ViewCmd, MigrateCmd, newUserCmd())
	return rootCmd
}

func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env, the optional --config file and the environment.
// A missing .env file is not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = config.LoadDotEnv()

	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
