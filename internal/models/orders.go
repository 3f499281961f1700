// internal/models/orders.go
package models

// Header 모든 VDA5050 메시지 공통 헤더
type Header struct {
	HeaderID     int64  `json:"headerId"`
	Timestamp    string `json:"timestamp"`
	Version      string `json:"version"`
	Manufacturer string `json:"manufacturer"`
	SerialNumber string `json:"serialNumber"`
}

// OrderMessage order 토픽 메시지
type OrderMessage struct {
	Header
	OrderID       string      `json:"orderId"`
	OrderUpdateID int         `json:"orderUpdateId"`
	ZoneSetID     string      `json:"zoneSetId,omitempty"`
	Nodes         []OrderNode `json:"nodes"`
	Edges         []OrderEdge `json:"edges"`
}

// OrderNode 오더 노드
type OrderNode struct {
	NodeID          string        `json:"nodeId"`
	SequenceID      int           `json:"sequenceId"`
	NodeDescription string        `json:"nodeDescription,omitempty"`
	Released        bool          `json:"released"`
	NodePosition    *NodePosition `json:"nodePosition,omitempty"`
	Actions         []Action      `json:"actions"`
}

// NodePosition 노드 위치. theta 가 없으면 도착 방향 그대로
type NodePosition struct {
	X                     float64  `json:"x"`
	Y                     float64  `json:"y"`
	Theta                 *float64 `json:"theta,omitempty"`
	AllowedDeviationXY    float64  `json:"allowedDeviationXY,omitempty"`
	AllowedDeviationTheta float64  `json:"allowedDeviationTheta,omitempty"`
	MapID                 string   `json:"mapId"`
	MapDescription        string   `json:"mapDescription,omitempty"`
}

// OrderEdge 오더 엣지
type OrderEdge struct {
	EdgeID          string      `json:"edgeId"`
	SequenceID      int         `json:"sequenceId"`
	EdgeDescription string      `json:"edgeDescription,omitempty"`
	Released        bool        `json:"released"`
	StartNodeID     string      `json:"startNodeId"`
	EndNodeID       string      `json:"endNodeId"`
	MaxSpeed        float64     `json:"maxSpeed,omitempty"`
	MaxHeight       float64     `json:"maxHeight,omitempty"`
	MinHeight       float64     `json:"minHeight,omitempty"`
	Orientation     float64     `json:"orientation,omitempty"`
	Direction       string      `json:"direction,omitempty"`
	RotationAllowed *bool       `json:"rotationAllowed,omitempty"`
	Length          float64     `json:"length,omitempty"`
	Trajectory      *Trajectory `json:"trajectory,omitempty"`
	Actions         []Action    `json:"actions"`
}

// Trajectory 엣지 궤적. 제어점만 사용하고 degree/knotVector 는 보존만 한다
type Trajectory struct {
	Degree        float64        `json:"degree"`
	KnotVector    []float64      `json:"knotVector"`
	ControlPoints []ControlPoint `json:"controlPoints"`
}

// ControlPoint 궤적 제어점
type ControlPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Weight float64 `json:"weight,omitempty"`
}

// Action 오더/instant 액션
type Action struct {
	ActionType        string            `json:"actionType"`
	ActionID          string            `json:"actionId"`
	ActionDescription string            `json:"actionDescription,omitempty"`
	BlockingType      string            `json:"blockingType"`
	ActionParameters  []ActionParameter `json:"actionParameters,omitempty"`
}

// ActionParameter key/value 파라미터. value 는 숫자, 문자열, 배열, 객체 중 하나
type ActionParameter struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// InstantActionsMessage instantActions 토픽 메시지
type InstantActionsMessage struct {
	Header
	Actions []Action `json:"actions"`
	// v1 호환
	InstantActions []Action `json:"instantActions,omitempty"`
}

// AllActions v2 와 v1 필드를 합친 액션 목록
func (m *InstantActionsMessage) AllActions() []Action {
	if len(m.InstantActions) == 0 {
		return m.Actions
	}
	return append(append([]Action(nil), m.Actions...), m.InstantActions...)
}
