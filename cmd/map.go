// cmd/map.go
package main

import (
	"agv-simulator/internal/mapdata"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func mapCmd() *cobra.Command {
	m := &cobra.Command{Use: "map", Short: "Inspect and convert map files"}
	m.AddCommand(mapInspectCmd())
	m.AddCommand(mapConvertCmd("dot", "Print the map as a Graphviz DOT graph"))
	m.AddCommand(mapConvertCmd("yaml", "Print the map as YAML"))
	return m
}

func mapInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Validate a map and list its nodes and edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mapdata.Load(args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}
			m.RenderTables(cmd.OutOrStdout())
			return nil
		},
	}
}

func mapConvertCmd(format, short string) *cobra.Command {
	return &cobra.Command{
		Use:   format + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mapdata.Load(args[0])
			if err != nil {
				return err
			}
			var out string
			switch format {
			case "dot":
				out, err = m.DOT()
			default:
				var raw []byte
				raw, err = m.YAML()
				out = string(raw)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
