// internal/mapdata/dot.go
package mapdata

import (
	"agv-simulator/internal/trajectory"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
)

// DOT 속성 사용 규칙 (표준 Graphviz 속성만 사용)
//   노드: pos="x,y!", orientation=<theta 도 단위>
//   엣지: id=<엣지 ID>, comment="maxSpeed=0.5;controlPoints=0 0,1 1,2 0"
//   그래프: 이름이 맵 ID, comment 가 맵 버전
const (
	attrPos         = "pos"
	attrOrientation = "orientation"
	attrID          = "id"
	attrComment     = "comment"
	attrLabel       = "label"
)

// FromDOT DOT 그래프를 맵으로
func FromDOT(dot string) (*Map, error) {
	ast, err := gographviz.ParseString(dot)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}

	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return nil, fmt.Errorf("failed to analyze DOT: %w", err)
	}

	m := &Map{
		ID:      unquote(g.Name),
		Version: getAttr(g.Attrs, attrComment),
	}

	for _, n := range g.Nodes.Nodes {
		node, err := dotNode(n)
		if err != nil {
			return nil, err
		}
		m.Nodes = append(m.Nodes, node)
	}

	for _, e := range g.Edges.Edges {
		edge, err := dotEdge(e)
		if err != nil {
			return nil, err
		}
		m.Edges = append(m.Edges, edge)
	}

	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

func dotNode(n *gographviz.Node) (Node, error) {
	node := Node{ID: unquote(n.Name)}

	pos := strings.TrimSuffix(getAttr(n.Attrs, attrPos), "!")
	if pos == "" {
		return node, fmt.Errorf("node %q has no pos attribute", node.ID)
	}
	p, err := parsePoint(pos)
	if err != nil {
		return node, fmt.Errorf("node %q: %w", node.ID, err)
	}
	node.X, node.Y = p.X, p.Y

	if raw := getAttr(n.Attrs, attrOrientation); raw != "" {
		deg, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return node, fmt.Errorf("node %q: invalid orientation %q", node.ID, raw)
		}
		theta := trajectory.NormalizeAngle(deg * math.Pi / 180)
		node.Theta = &theta
	}
	return node, nil
}

func dotEdge(e *gographviz.Edge) (Edge, error) {
	edge := Edge{
		ID:    getAttr(e.Attrs, attrID),
		Start: unquote(e.Src),
		End:   unquote(e.Dst),
	}
	if edge.ID == "" {
		edge.ID = edge.Start + "-" + edge.End
	}

	for _, field := range strings.Split(getAttr(e.Attrs, attrComment), ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "maxSpeed":
			v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return edge, fmt.Errorf("edge %q: invalid maxSpeed %q", edge.ID, value)
			}
			edge.MaxSpeed = v
		case "controlPoints":
			for _, raw := range strings.Split(value, ",") {
				p, err := parsePoint(strings.Join(strings.Fields(raw), ","))
				if err != nil {
					return edge, fmt.Errorf("edge %q: %w", edge.ID, err)
				}
				edge.ControlPoints = append(edge.ControlPoints, p)
			}
		}
	}
	return edge, nil
}

// DOT 맵을 DOT 문자열로. FromDOT 로 다시 읽을 수 있다
func (m *Map) DOT() (string, error) {
	g := gographviz.NewEscape()
	if err := g.SetName(m.ID); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	if m.Version != "" {
		if err := g.AddAttr(m.ID, attrComment, m.Version); err != nil {
			return "", err
		}
	}

	for _, n := range m.Nodes {
		attrs := map[string]string{
			attrPos:   formatPoint(trajectory.Point{X: n.X, Y: n.Y}) + "!",
			attrLabel: n.ID,
		}
		if n.Theta != nil {
			attrs[attrOrientation] = strconv.FormatFloat(*n.Theta*180/math.Pi, 'f', -1, 64)
		}
		if err := g.AddNode(m.ID, n.ID, attrs); err != nil {
			return "", fmt.Errorf("node %q: %w", n.ID, err)
		}
	}

	for _, e := range m.Edges {
		attrs := map[string]string{attrID: e.ID}
		var fields []string
		if e.MaxSpeed > 0 {
			fields = append(fields, "maxSpeed="+strconv.FormatFloat(e.MaxSpeed, 'f', -1, 64))
		}
		if len(e.ControlPoints) > 0 {
			pts := make([]string, 0, len(e.ControlPoints))
			for _, p := range e.ControlPoints {
				pts = append(pts, strings.Replace(formatPoint(p), ",", " ", 1))
			}
			fields = append(fields, "controlPoints="+strings.Join(pts, ","))
		}
		if len(fields) > 0 {
			attrs[attrComment] = strings.Join(fields, ";")
		}
		if err := g.AddEdge(e.Start, e.End, true, attrs); err != nil {
			return "", fmt.Errorf("edge %q: %w", e.ID, err)
		}
	}
	return g.String(), nil
}

// getAttr 속성 값에서 따옴표 제거
func getAttr(attrs gographviz.Attrs, key string) string {
	val, ok := attrs[gographviz.Attr(key)]
	if !ok {
		return ""
	}
	return unquote(strings.TrimSpace(val))
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

func parsePoint(s string) (trajectory.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return trajectory.Point{}, fmt.Errorf("invalid point %q", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return trajectory.Point{}, fmt.Errorf("invalid point %q", s)
	}
	return trajectory.Point{X: x, Y: y}, nil
}

func formatPoint(p trajectory.Point) string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64)
}
