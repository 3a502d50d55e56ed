package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"knowhow-editor/pkg/core"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Starts the editor API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString(FlagPort); port != "" {
				cfg.Port = port
			}
			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			app, err := core.NewApp(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}
	c.Flags().String(FlagPort, "", "listen port (overrides PORT)")
	return c
}
