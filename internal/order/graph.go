// internal/order/graph.go
package order

import (
	"agv-simulator/internal/common/apperr"
	"fmt"
	"strconv"
)

// Graph 수락된 오더와 진행 위치. 엔진 제어 루프만 사용한다
type Graph struct {
	order   *Order
	nodeIdx int // 마지막으로 도착한 노드 인덱스. 시작 전에는 -1
}

// NewGraph 검증된 오더로 그래프 생성. 오더는 복사해서 보관한다
func NewGraph(o *Order) *Graph {
	return &Graph{order: o.Clone(), nodeIdx: -1}
}

// Order 보관 중인 오더 (수정 금지)
func (g *Graph) Order() *Order { return g.order }

// ID 오더 ID
func (g *Graph) ID() string { return g.order.ID }

// UpdateID 오더 업데이트 ID
func (g *Graph) UpdateID() int { return g.order.UpdateID }

// Started 첫 노드에 도착했는지
func (g *Graph) Started() bool { return g.nodeIdx >= 0 }

// CurrentNode 마지막으로 도착한 노드
func (g *Graph) CurrentNode() (*Node, bool) {
	if g.nodeIdx < 0 {
		return nil, false
	}
	return &g.order.Nodes[g.nodeIdx], true
}

// FirstNode 첫 노드
func (g *Graph) FirstNode() *Node { return &g.order.Nodes[0] }

// Enter 첫 노드 도착 처리
func (g *Graph) Enter() *Node {
	if g.nodeIdx < 0 {
		g.nodeIdx = 0
	}
	return &g.order.Nodes[g.nodeIdx]
}

// NextEdge 현재 노드에서 출발할 수 있는 released 엣지와 도착 노드
func (g *Graph) NextEdge() (*Edge, *Node, bool) {
	if g.nodeIdx < 0 || g.nodeIdx >= len(g.order.Edges) {
		return nil, nil, false
	}
	e := &g.order.Edges[g.nodeIdx]
	n := &g.order.Nodes[g.nodeIdx+1]
	if !e.Released || !n.Released {
		return nil, nil, false
	}
	return e, n, true
}

// Advance 다음 엣지를 지나 다음 노드에 도착. 더 갈 수 없으면 nil
func (g *Graph) Advance() *Node {
	if _, _, ok := g.NextEdge(); !ok {
		return nil
	}
	g.nodeIdx++
	return &g.order.Nodes[g.nodeIdx]
}

// AtLastNode 오더의 마지막 노드에 있는지
func (g *Graph) AtLastNode() bool {
	return g.nodeIdx == len(g.order.Nodes)-1
}

// AtLastReleasedNode 더 진행할 released 엣지가 없는지
func (g *Graph) AtLastReleasedNode() bool {
	if g.nodeIdx < 0 {
		return false
	}
	_, _, ok := g.NextEdge()
	return !ok
}

// RemainingNodes 아직 지나지 않은 노드 (horizon 포함)
func (g *Graph) RemainingNodes() []Node {
	start := g.nodeIdx + 1
	if start < 0 {
		start = 0
	}
	return g.order.Nodes[start:]
}

// RemainingEdges 아직 끝나지 않은 엣지. 주행 중인 엣지 포함
func (g *Graph) RemainingEdges() []Edge {
	start := g.nodeIdx
	if start < 0 {
		start = 0
	}
	if start > len(g.order.Edges) {
		start = len(g.order.Edges)
	}
	return g.order.Edges[start:]
}

// Truncate 현재 노드 이후를 버린다 (cancelOrder)
func (g *Graph) Truncate() {
	keep := g.nodeIdx
	if keep < 0 {
		keep = 0
	}
	g.order.Nodes = g.order.Nodes[:keep+1]
	g.order.Edges = g.order.Edges[:keep]
}

// Merge 같은 오더 ID 의 상위 업데이트를 이어 붙인다.
// 업데이트의 첫 노드가 기준 노드이며 그 노드까지는 기존 그래프가 유지된다.
// committedSeq 이전 노드를 다시 쓰는 업데이트는 ConcurrencyViolation
func (g *Graph) Merge(update *Order, committedSeq int) error {
	if update.ID != g.order.ID {
		return fmt.Errorf("merge order %s into graph of order %s", update.ID, g.order.ID)
	}
	if update.UpdateID <= g.order.UpdateID {
		return apperr.NewConcurrencyViolation(update.ID, update.UpdateID,
			fmt.Sprintf("update id must be greater than %d", g.order.UpdateID))
	}

	stitch := update.Nodes[0]
	if stitch.SequenceID < committedSeq {
		return apperr.NewConcurrencyViolation(update.ID, update.UpdateID,
			fmt.Sprintf("update starts at sequence %d but sequence %d is already traversed", stitch.SequenceID, committedSeq))
	}

	idx := -1
	for i := range g.order.Nodes {
		if g.order.Nodes[i].SequenceID == stitch.SequenceID {
			idx = i
			break
		}
	}
	if idx < 0 || g.order.Nodes[idx].ID != stitch.ID {
		return apperr.NewValidationError("nodes[0]", stitch.ID,
			fmt.Sprintf("node with sequence %d is not part of the current order", stitch.SequenceID))
	}
	if !g.order.Nodes[idx].Released {
		return apperr.NewValidationError("nodes[0].released", strconv.Itoa(stitch.SequenceID),
			"update must continue from a released node")
	}

	merged := &Order{ID: g.order.ID, UpdateID: update.UpdateID}
	merged.Nodes = make([]Node, 0, idx+len(update.Nodes))
	merged.Nodes = append(merged.Nodes, g.order.Nodes[:idx+1]...)
	for _, n := range update.Nodes[1:] {
		merged.Nodes = append(merged.Nodes, n.clone())
	}
	merged.Edges = make([]Edge, 0, idx+len(update.Edges))
	merged.Edges = append(merged.Edges, g.order.Edges[:idx]...)
	for _, e := range update.Edges {
		merged.Edges = append(merged.Edges, e.clone())
	}

	g.order = merged
	return nil
}
