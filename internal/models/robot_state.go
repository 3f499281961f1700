// internal/models/robot_state.go
package models

// StateMessage state 토픽 메시지
type StateMessage struct {
	Header
	OrderID               string          `json:"orderId"`
	OrderUpdateID         int             `json:"orderUpdateId"`
	ZoneSetID             string          `json:"zoneSetId,omitempty"`
	LastNodeID            string          `json:"lastNodeId"`
	LastNodeSequenceID    int             `json:"lastNodeSequenceId"`
	Driving               bool            `json:"driving"`
	Paused                bool            `json:"paused"`
	NewBaseRequest        bool            `json:"newBaseRequest"`
	DistanceSinceLastNode float64         `json:"distanceSinceLastNode"`
	OperatingMode         string          `json:"operatingMode"`
	NodeStates            []NodeState     `json:"nodeStates"`
	EdgeStates            []EdgeState     `json:"edgeStates"`
	AgvPosition           *AgvPosition    `json:"agvPosition,omitempty"`
	Velocity              *Velocity       `json:"velocity,omitempty"`
	Loads                 []Load          `json:"loads"`
	ActionStates          []ActionState   `json:"actionStates"`
	BatteryState          BatteryState    `json:"batteryState"`
	Errors                []ErrorInfo     `json:"errors"`
	Information           []InfoMessage   `json:"information"`
	SafetyState           SafetyState     `json:"safetyState"`
	Maps                  []MapDescriptor `json:"maps"`
}

// NodeState 아직 지나지 않은 노드
type NodeState struct {
	NodeID          string        `json:"nodeId"`
	SequenceID      int           `json:"sequenceId"`
	NodeDescription string        `json:"nodeDescription,omitempty"`
	NodePosition    *NodePosition `json:"nodePosition,omitempty"`
	Released        bool          `json:"released"`
}

// EdgeState 아직 끝나지 않은 엣지
type EdgeState struct {
	EdgeID          string      `json:"edgeId"`
	SequenceID      int         `json:"sequenceId"`
	EdgeDescription string      `json:"edgeDescription,omitempty"`
	Released        bool        `json:"released"`
	Trajectory      *Trajectory `json:"trajectory,omitempty"`
}

// ActionState 액션 상태 정보
type ActionState struct {
	ActionID          string `json:"actionId"`
	ActionType        string `json:"actionType,omitempty"`
	ActionDescription string `json:"actionDescription,omitempty"`
	ActionStatus      string `json:"actionStatus"`
	ResultDescription string `json:"resultDescription,omitempty"`
}

// AgvPosition AGV 위치 정보
type AgvPosition struct {
	X                   float64 `json:"x"`
	Y                   float64 `json:"y"`
	Theta               float64 `json:"theta"`
	MapID               string  `json:"mapId"`
	MapDescription      string  `json:"mapDescription,omitempty"`
	PositionInitialized bool    `json:"positionInitialized"`
	LocalizationScore   float64 `json:"localizationScore,omitempty"`
	DeviationRange      float64 `json:"deviationRange,omitempty"`
}

// Velocity 차량 좌표계 속도
type Velocity struct {
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Omega float64 `json:"omega"`
}

// Load 적재물
type Load struct {
	LoadID       string  `json:"loadId,omitempty"`
	LoadType     string  `json:"loadType,omitempty"`
	LoadPosition string  `json:"loadPosition,omitempty"`
	Weight       float64 `json:"weight,omitempty"`
}

// BatteryState 배터리 상태 정보
type BatteryState struct {
	BatteryCharge  float64 `json:"batteryCharge"`
	BatteryVoltage float64 `json:"batteryVoltage,omitempty"`
	BatteryHealth  int     `json:"batteryHealth,omitempty"`
	Charging       bool    `json:"charging"`
	Reach          int     `json:"reach,omitempty"`
}

// ErrorInfo 에러 정보
type ErrorInfo struct {
	ErrorType        string           `json:"errorType"`
	ErrorDescription string           `json:"errorDescription,omitempty"`
	ErrorLevel       string           `json:"errorLevel"`
	ErrorReferences  []ErrorReference `json:"errorReferences,omitempty"`
}

// ErrorReference 에러 참조 정보
type ErrorReference struct {
	ReferenceKey   string `json:"referenceKey"`
	ReferenceValue string `json:"referenceValue"`
}

// InfoMessage 정보 메시지
type InfoMessage struct {
	InfoType        string          `json:"infoType"`
	InfoDescription string          `json:"infoDescription,omitempty"`
	InfoLevel       string          `json:"infoLevel"`
	InfoReferences  []InfoReference `json:"infoReferences,omitempty"`
}

// InfoReference 정보 참조
type InfoReference struct {
	ReferenceKey   string `json:"referenceKey"`
	ReferenceValue string `json:"referenceValue"`
}

// SafetyState 안전 상태 정보
type SafetyState struct {
	EStop          string `json:"eStop"`
	FieldViolation bool   `json:"fieldViolation"`
}

// MapDescriptor 차량에 설치된 맵
type MapDescriptor struct {
	MapID          string `json:"mapId"`
	MapVersion     string `json:"mapVersion"`
	MapDescription string `json:"mapDescription,omitempty"`
	MapStatus      string `json:"mapStatus"`
}

// VisualizationMessage visualization 토픽 메시지
type VisualizationMessage struct {
	Header
	AgvPosition *AgvPosition `json:"agvPosition,omitempty"`
	Velocity    *Velocity    `json:"velocity,omitempty"`
}

// ConnectionMessage connection 토픽 메시지
type ConnectionMessage struct {
	Header
	ConnectionState string `json:"connectionState"`
}
