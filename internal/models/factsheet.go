// internal/models/factsheet.go
package models

// FactsheetMessage factsheet 토픽 메시지
type FactsheetMessage struct {
	Header
	TypeSpecification  TypeSpecification  `json:"typeSpecification"`
	PhysicalParameters PhysicalParameters `json:"physicalParameters"`
	ProtocolLimits     ProtocolLimits     `json:"protocolLimits"`
	ProtocolFeatures   ProtocolFeatures   `json:"protocolFeatures"`
}

// TypeSpecification 차량 종류
type TypeSpecification struct {
	SeriesName        string   `json:"seriesName"`
	SeriesDescription string   `json:"seriesDescription,omitempty"`
	AgvKinematic      string   `json:"agvKinematic"`
	AgvClass          string   `json:"agvClass"`
	MaxLoadMass       float64  `json:"maxLoadMass"`
	LocalizationTypes []string `json:"localizationTypes"`
	NavigationTypes   []string `json:"navigationTypes"`
}

// PhysicalParameters 속도 한계와 차체 크기
type PhysicalParameters struct {
	SpeedMin        float64 `json:"speedMin"`
	SpeedMax        float64 `json:"speedMax"`
	AngularSpeedMin float64 `json:"angularSpeedMin,omitempty"`
	AngularSpeedMax float64 `json:"angularSpeedMax,omitempty"`
	AccelerationMax float64 `json:"accelerationMax"`
	DecelerationMax float64 `json:"decelerationMax"`
	HeightMin       float64 `json:"heightMin,omitempty"`
	HeightMax       float64 `json:"heightMax"`
	Width           float64 `json:"width"`
	Length          float64 `json:"length"`
}

// ProtocolLimits 문자열/배열/타이밍 제한
type ProtocolLimits struct {
	MaxStringLens MaxStringLens `json:"maxStringLens"`
	MaxArrayLens  MaxArrayLens  `json:"maxArrayLens"`
	Timing        Timing        `json:"timing"`
}

// MaxStringLens 문자열 길이 제한
type MaxStringLens struct {
	MsgLen          int  `json:"msgLen,omitempty"`
	TopicSerialLen  int  `json:"topicSerialLen,omitempty"`
	TopicElemLen    int  `json:"topicElemLen,omitempty"`
	IDLen           int  `json:"idLen,omitempty"`
	IDNumericalOnly bool `json:"idNumericalOnly"`
	EnumLen         int  `json:"enumLen,omitempty"`
	LoadIDLen       int  `json:"loadIdLen,omitempty"`
}

// MaxArrayLens 배열 길이 제한
type MaxArrayLens struct {
	OrderNodes        int `json:"order.nodes,omitempty"`
	OrderEdges        int `json:"order.edges,omitempty"`
	NodeActions       int `json:"node.actions,omitempty"`
	EdgeActions       int `json:"edge.actions,omitempty"`
	InstantActions    int `json:"instantActions,omitempty"`
	StateErrors       int `json:"state.errors,omitempty"`
	StateActionStates int `json:"state.actionStates,omitempty"`
}

// Timing 메시지 주기
type Timing struct {
	MinOrderInterval      float64 `json:"minOrderInterval"`
	MinStateInterval      float64 `json:"minStateInterval"`
	DefaultStateInterval  float64 `json:"defaultStateInterval,omitempty"`
	VisualizationInterval float64 `json:"visualizationInterval,omitempty"`
}

// ProtocolFeatures 지원 액션 목록
type ProtocolFeatures struct {
	OptionalParameters []OptionalParameter `json:"optionalParameters"`
	AgvActions         []AgvAction         `json:"agvActions"`
}

// OptionalParameter 지원하는 선택 필드
type OptionalParameter struct {
	Parameter   string `json:"parameter"`
	Support     string `json:"support"`
	Description string `json:"description,omitempty"`
}

// AgvAction 지원 액션 하나
type AgvAction struct {
	ActionType        string                 `json:"actionType"`
	ActionDescription string                 `json:"actionDescription,omitempty"`
	ActionScopes      []string               `json:"actionScopes"`
	ActionParameters  []FactsheetActionParam `json:"actionParameters,omitempty"`
	ResultDescription string                 `json:"resultDescription,omitempty"`
	BlockingTypes     []string               `json:"blockingTypes,omitempty"`
}

// FactsheetActionParam 액션 파라미터 설명
type FactsheetActionParam struct {
	Key           string `json:"key"`
	ValueDataType string `json:"valueDataType"`
	Description   string `json:"description,omitempty"`
	IsOptional    bool   `json:"isOptional"`
}
