// cmd/config.go
package main

import (
	"agv-simulator/internal/config"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Show effective settings"}
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the settings run would use, secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rows := configRows(cfg)
			if viper.GetBool("json") {
				out := make(map[string]string, len(rows))
				for _, r := range rows {
					out[r[0]] = r[1]
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Setting", "Value"})
			for _, r := range rows {
				t.AppendRow(table.Row{r[0], r[1]})
			}
			t.Render()
			return nil
		},
	})
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

func configRows(cfg *config.Config) [][2]string {
	return [][2]string{
		{"MQTT_BROKER", cfg.MQTTBroker},
		{"MQTT_CLIENT_ID", cfg.MQTTClientID},
		{"MQTT_USERNAME", cfg.MQTTUsername},
		{"MQTT_PASSWORD", mask(cfg.MQTTPassword)},
		{"MQTT_QOS", fmt.Sprint(cfg.MQTTQoS)},
		{"VDA_INTERFACE", cfg.VDAInterface},
		{"VDA_MAJOR_VERSION", cfg.VDAMajorVersion},
		{"VDA_VERSION", cfg.VDAVersion},
		{"ROBOT_MANUFACTURER", cfg.RobotManufacturer},
		{"ROBOT_SERIAL_NUMBER", cfg.RobotSerialNumber},
		{"TICK_PERIOD_MS", fmt.Sprint(cfg.TickPeriod.Milliseconds())},
		{"SPEED", fmt.Sprint(cfg.Speed)},
		{"ANGULAR_SPEED", fmt.Sprint(cfg.AngularSpeed)},
		{"PALLET_ANGULAR_SPEED", fmt.Sprint(cfg.PalletAngularSpeed)},
		{"ACTION_TIME", fmt.Sprint(cfg.ActionTime)},
		{"MAP_ID", cfg.MapID},
		{"MAP_FILE", cfg.MapFile},
		{"STATE_FREQUENCY", fmt.Sprint(cfg.StateFrequency)},
		{"VISUALIZATION_FREQUENCY", fmt.Sprint(cfg.VisualizationFrequency)},
		{"REDIS_ENABLED", fmt.Sprint(cfg.RedisEnabled)},
		{"REDIS_ADDR", cfg.RedisAddr()},
		{"REDIS_PASSWORD", mask(cfg.RedisPassword)},
		{"HISTORY_BACKEND", cfg.HistoryBackend},
		{"DB_HOST", cfg.DBHost},
		{"DB_PASSWORD", mask(cfg.DBPassword)},
		{"SQLITE_PATH", cfg.SQLitePath},
		{"HTTP_ADDR", cfg.HTTPAddr},
		{"LOG_LEVEL", cfg.LogLevel},
	}
}
