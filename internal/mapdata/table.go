// internal/mapdata/table.go
package mapdata

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTables 노드/엣지 테이블 출력 (map inspect)
func (m *Map) RenderTables(w io.Writer) {
	fmt.Fprintf(w, "map %s", m.ID)
	if m.Version != "" {
		fmt.Fprintf(w, " (version %s)", m.Version)
	}
	fmt.Fprintln(w)

	nodes := table.NewWriter()
	nodes.SetOutputMirror(w)
	nodes.SetTitle("Nodes")
	nodes.AppendHeader(table.Row{"ID", "X", "Y", "Theta"})
	for _, n := range m.Nodes {
		theta := "-"
		if n.Theta != nil {
			theta = formatFloat(*n.Theta)
		}
		nodes.AppendRow(table.Row{n.ID, formatFloat(n.X), formatFloat(n.Y), theta})
	}
	nodes.AppendFooter(table.Row{"", "", "total", len(m.Nodes)})
	nodes.Render()

	edges := table.NewWriter()
	edges.SetOutputMirror(w)
	edges.SetTitle("Edges")
	edges.AppendHeader(table.Row{"ID", "Start", "End", "Max Speed", "Shape"})
	for _, e := range m.Edges {
		speed := "-"
		if e.MaxSpeed > 0 {
			speed = formatFloat(e.MaxSpeed)
		}
		shape := "straight"
		if len(e.ControlPoints) >= 2 {
			shape = fmt.Sprintf("bezier(%d)", len(e.ControlPoints))
		}
		edges.AppendRow(table.Row{e.ID, e.Start, e.End, speed, shape})
	}
	edges.AppendFooter(table.Row{"", "", "", "total", len(m.Edges)})
	edges.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
