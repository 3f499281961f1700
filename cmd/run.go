// cmd/run.go
package main

import (
	"agv-simulator/internal/config"
	"agv-simulator/internal/di"
	"agv-simulator/internal/mapdata"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the broker and run the simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var m *mapdata.Map
			if cfg.MapFile != "" {
				if m, err = mapdata.Load(cfg.MapFile); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// DI 컨테이너 생성
			container, err := di.NewContainer(ctx, cfg, m)
			if err != nil {
				return fmt.Errorf("failed to create container: %w", err)
			}
			defer container.Cleanup()

			if err := container.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			container.Logger.Infof("🛑 Simulator stopped")
			return nil
		},
	}
	cmd.Flags().String("map", "", "map file (.yaml or .dot), overrides MAP_FILE")
	cmd.Flags().String("http-addr", "", "admin API address, overrides HTTP_ADDR")
	_ = viper.BindPFlag("map", cmd.Flags().Lookup("map"))
	_ = viper.BindPFlag("http-addr", cmd.Flags().Lookup("http-addr"))
	return cmd
}

// loadConfig .env 와 환경변수를 읽고 플래그로 덮어쓴 뒤 검증
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("env-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetString("map"); v != "" {
		cfg.MapFile = v
	}
	if v := viper.GetString("http-addr"); v != "" {
		cfg.HTTPAddr = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
