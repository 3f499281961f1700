// internal/order/model.go
package order

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/trajectory"
)

// Node 오더의 정지점/경유점. 수락 후에는 Released 외에는 바뀌지 않는다
type Node struct {
	ID                    string
	SequenceID            int
	Description           string
	Position              *trajectory.Point // nil 이면 맵 테이블에서 보충
	Theta                 *float64          // nil 이면 도착 방향 유지
	AllowedDeviationXY    float64
	AllowedDeviationTheta float64
	MapID                 string
	Actions               []action.Spec
	Released              bool
}

// Edge 두 노드 사이의 주행 구간
type Edge struct {
	ID            string
	SequenceID    int
	Description   string
	StartNodeID   string
	EndNodeID     string
	MaxSpeed      float64            // 0 이면 차량 상한
	ControlPoints []trajectory.Point // 비어 있으면 직선, 있으면 끝점을 포함한 베지어 제어점
	Actions       []action.Spec
	Released      bool
}

// Order 노드/엣지 시퀀스
type Order struct {
	ID       string
	UpdateID int
	Nodes    []Node
	Edges    []Edge
}

// Straight 직선 엣지인지
func (e *Edge) Straight() bool {
	return len(e.ControlPoints) < 2
}

// Pose 노드 위치를 Pose 로. Theta 가 없으면 fallback 사용
func (n *Node) Pose(fallbackTheta float64) trajectory.Pose {
	theta := fallbackTheta
	if n.Theta != nil {
		theta = *n.Theta
	}
	if n.Position == nil {
		return trajectory.NewPose(0, 0, theta)
	}
	return trajectory.NewPose(n.Position.X, n.Position.Y, theta)
}

// Clone 깊은 복사
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	out := &Order{ID: o.ID, UpdateID: o.UpdateID}
	out.Nodes = make([]Node, len(o.Nodes))
	for i, n := range o.Nodes {
		out.Nodes[i] = n.clone()
	}
	out.Edges = make([]Edge, len(o.Edges))
	for i, e := range o.Edges {
		out.Edges[i] = e.clone()
	}
	return out
}

func (n Node) clone() Node {
	if n.Position != nil {
		p := *n.Position
		n.Position = &p
	}
	if n.Theta != nil {
		t := *n.Theta
		n.Theta = &t
	}
	n.Actions = cloneSpecs(n.Actions)
	return n
}

func (e Edge) clone() Edge {
	if e.ControlPoints != nil {
		cps := make([]trajectory.Point, len(e.ControlPoints))
		copy(cps, e.ControlPoints)
		e.ControlPoints = cps
	}
	e.Actions = cloneSpecs(e.Actions)
	return e
}

func cloneSpecs(specs []action.Spec) []action.Spec {
	if specs == nil {
		return nil
	}
	out := make([]action.Spec, len(specs))
	for i, s := range specs {
		out[i] = s.Clone()
	}
	return out
}

// Locator 맵 테이블 조회. 오더에 위치/궤적이 빠진 경우 보충한다
type Locator interface {
	NodePosition(nodeID string) (trajectory.Point, *float64, bool)
	EdgeControlPoints(edgeID string) ([]trajectory.Point, bool)
}

// Resolve 빠진 노드 위치와 엣지 제어점을 맵에서 채운다
func Resolve(o *Order, loc Locator) {
	if loc == nil {
		return
	}
	for i := range o.Nodes {
		n := &o.Nodes[i]
		if n.Position != nil {
			continue
		}
		if p, theta, ok := loc.NodePosition(n.ID); ok {
			n.Position = &p
			if n.Theta == nil && theta != nil {
				t := *theta
				n.Theta = &t
			}
		}
	}
	for i := range o.Edges {
		e := &o.Edges[i]
		if len(e.ControlPoints) > 0 {
			continue
		}
		if cps, ok := loc.EdgeControlPoints(e.ID); ok {
			e.ControlPoints = append([]trajectory.Point(nil), cps...)
		}
	}
}
