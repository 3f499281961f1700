// internal/mapdata/map.go
package mapdata

import (
	"agv-simulator/internal/trajectory"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node 맵의 노드 좌표
type Node struct {
	ID    string   `yaml:"id" json:"id"`
	X     float64  `yaml:"x" json:"x"`
	Y     float64  `yaml:"y" json:"y"`
	Theta *float64 `yaml:"theta,omitempty" json:"theta,omitempty"`
}

// Edge 맵의 엣지. 제어점이 없으면 직선
type Edge struct {
	ID            string             `yaml:"id" json:"id"`
	Start         string             `yaml:"start" json:"start"`
	End           string             `yaml:"end" json:"end"`
	MaxSpeed      float64            `yaml:"maxSpeed,omitempty" json:"maxSpeed,omitempty"`
	ControlPoints []trajectory.Point `yaml:"controlPoints,omitempty" json:"controlPoints,omitempty"`
}

// Map 노드/엣지 테이블. order.Locator 로 사용된다
type Map struct {
	ID          string `yaml:"mapId" json:"mapId"`
	Version     string `yaml:"mapVersion,omitempty" json:"mapVersion,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Nodes       []Node `yaml:"nodes" json:"nodes"`
	Edges       []Edge `yaml:"edges" json:"edges"`

	nodes map[string]int
	edges map[string]int
}

// Load 확장자로 형식을 고른다: .yaml/.yml 또는 .dot/.gv
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return FromDOT(string(data))
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported map format %q", filepath.Ext(path))
	}
}

// FromYAML YAML 맵 파싱과 검증
func FromYAML(data []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid map yaml: %w", err)
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return &m, nil
}

// YAML 맵을 YAML 로 직렬화
func (m *Map) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// index 조회 테이블 생성과 참조 검사
func (m *Map) index() error {
	if m.ID == "" {
		return fmt.Errorf("map id is required")
	}
	m.nodes = make(map[string]int, len(m.Nodes))
	for i, n := range m.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d has no id", i)
		}
		if _, dup := m.nodes[n.ID]; dup {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		m.nodes[n.ID] = i
	}

	m.edges = make(map[string]int, len(m.Edges))
	for i, e := range m.Edges {
		if e.ID == "" {
			return fmt.Errorf("edge %d has no id", i)
		}
		if _, dup := m.edges[e.ID]; dup {
			return fmt.Errorf("duplicate edge %q", e.ID)
		}
		if _, ok := m.nodes[e.Start]; !ok {
			return fmt.Errorf("edge %q references unknown start node %q", e.ID, e.Start)
		}
		if _, ok := m.nodes[e.End]; !ok {
			return fmt.Errorf("edge %q references unknown end node %q", e.ID, e.End)
		}
		if e.MaxSpeed < 0 {
			return fmt.Errorf("edge %q has negative maxSpeed", e.ID)
		}
		if len(e.ControlPoints) == 1 {
			return fmt.Errorf("edge %q needs at least two control points", e.ID)
		}
		m.edges[e.ID] = i
	}
	return nil
}

// Node ID 로 노드 조회
func (m *Map) Node(id string) (Node, bool) {
	i, ok := m.nodes[id]
	if !ok {
		return Node{}, false
	}
	return m.Nodes[i], true
}

// Edge ID 로 엣지 조회
func (m *Map) Edge(id string) (Edge, bool) {
	i, ok := m.edges[id]
	if !ok {
		return Edge{}, false
	}
	return m.Edges[i], true
}

// NodePosition order.Locator 구현
func (m *Map) NodePosition(id string) (trajectory.Point, *float64, bool) {
	n, ok := m.Node(id)
	if !ok {
		return trajectory.Point{}, nil, false
	}
	var theta *float64
	if n.Theta != nil {
		t := *n.Theta
		theta = &t
	}
	return trajectory.Point{X: n.X, Y: n.Y}, theta, true
}

// EdgeControlPoints order.Locator 구현. 직선 엣지는 false
func (m *Map) EdgeControlPoints(id string) ([]trajectory.Point, bool) {
	e, ok := m.Edge(id)
	if !ok || len(e.ControlPoints) < 2 {
		return nil, false
	}
	return append([]trajectory.Point(nil), e.ControlPoints...), true
}
