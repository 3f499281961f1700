// internal/converter/order.go
package converter

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/models"
	"agv-simulator/internal/order"
	"agv-simulator/internal/trajectory"
	"encoding/json"
	"fmt"
)

// DecodeOrder order 페이로드 파싱. JSON 오류는 ValidationError
func DecodeOrder(payload []byte) (*models.OrderMessage, error) {
	var msg models.OrderMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, apperr.NewValidationError("payload", "order", fmt.Sprintf("malformed JSON: %v", err))
	}
	return &msg, nil
}

// DecodeInstantActions instantActions 페이로드 파싱
func DecodeInstantActions(payload []byte) (*models.InstantActionsMessage, error) {
	var msg models.InstantActionsMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, apperr.NewValidationError("payload", "instantActions", fmt.Sprintf("malformed JSON: %v", err))
	}
	return &msg, nil
}

// OrderFromMessage 와이어 오더를 도메인 오더로. 구조 검증은 order.Validate 가 한다
func OrderFromMessage(msg *models.OrderMessage) *order.Order {
	o := &order.Order{
		ID:       msg.OrderID,
		UpdateID: msg.OrderUpdateID,
		Nodes:    make([]order.Node, 0, len(msg.Nodes)),
		Edges:    make([]order.Edge, 0, len(msg.Edges)),
	}

	for _, n := range msg.Nodes {
		node := order.Node{
			ID:          n.NodeID,
			SequenceID:  n.SequenceID,
			Description: n.NodeDescription,
			Released:    n.Released,
			Actions:     ActionSpecs(n.Actions),
		}
		if p := n.NodePosition; p != nil {
			node.Position = &trajectory.Point{X: p.X, Y: p.Y}
			if p.Theta != nil {
				theta := *p.Theta
				node.Theta = &theta
			}
			node.AllowedDeviationXY = p.AllowedDeviationXY
			node.AllowedDeviationTheta = p.AllowedDeviationTheta
			node.MapID = p.MapID
		}
		o.Nodes = append(o.Nodes, node)
	}

	for _, e := range msg.Edges {
		edge := order.Edge{
			ID:          e.EdgeID,
			SequenceID:  e.SequenceID,
			Description: e.EdgeDescription,
			StartNodeID: e.StartNodeID,
			EndNodeID:   e.EndNodeID,
			MaxSpeed:    e.MaxSpeed,
			Released:    e.Released,
			Actions:     ActionSpecs(e.Actions),
		}
		if e.Trajectory != nil {
			for _, cp := range e.Trajectory.ControlPoints {
				edge.ControlPoints = append(edge.ControlPoints, trajectory.Point{X: cp.X, Y: cp.Y})
			}
		}
		o.Edges = append(o.Edges, edge)
	}
	return o
}

// ActionSpecs 와이어 액션 목록 변환
func ActionSpecs(actions []models.Action) []action.Spec {
	specs := make([]action.Spec, 0, len(actions))
	for _, a := range actions {
		specs = append(specs, ActionSpec(a))
	}
	return specs
}

// ActionSpec 와이어 액션 하나 변환. key/value 목록은 맵으로 바뀌고 같은 key 는 뒤의 값이 이긴다
func ActionSpec(a models.Action) action.Spec {
	params := make(map[string]interface{}, len(a.ActionParameters))
	for _, p := range a.ActionParameters {
		params[p.Key] = p.Value
	}
	spec := action.NewSpec(a.ActionID, a.ActionType, action.BlockingType(a.BlockingType), params)
	spec.Description = a.ActionDescription
	return spec
}
