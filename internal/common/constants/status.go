// internal/common/constants/status.go
package constants

import "strings"

// Connection State 연결 상태 상수
const (
	ConnectionStateOnline           = "ONLINE"
	ConnectionStateOffline          = "OFFLINE"
	ConnectionStateConnectionBroken = "CONNECTIONBROKEN"
)

// Operating Mode 운영 모드 상수
const (
	OperatingModeAutomatic     = "AUTOMATIC"
	OperatingModeManual        = "MANUAL"
	OperatingModeSemiautomatic = "SEMIAUTOMATIC"
	OperatingModeService       = "SERVICE"
	OperatingModeTeach         = "TEACH"
)

// Action Status 액션 상태 상수
const (
	ActionStatusWaiting      = "WAITING"
	ActionStatusInitializing = "INITIALIZING"
	ActionStatusRunning      = "RUNNING"
	ActionStatusPaused       = "PAUSED"
	ActionStatusFinished     = "FINISHED"
	ActionStatusFailed       = "FAILED"
)

// Order Status 오더 생명주기 상수
const (
	OrderStatusNone      = "NONE"
	OrderStatusAccepted  = "ACCEPTED"
	OrderStatusExecuting = "EXECUTING"
	OrderStatusPaused    = "PAUSED"
	OrderStatusFinished  = "FINISHED"
	OrderStatusFailed    = "FAILED"
)

// Blocking Type 블로킹 타입 상수
const (
	BlockingTypeNone = "NONE"
	BlockingTypeSoft = "SOFT"
	BlockingTypeHard = "HARD"
)

// E-Stop Status E-Stop 상태 상수
const (
	EStopNone      = "NONE"
	EStopAutoAck   = "AUTOACK"
	EStopManualAck = "MANUALACK"
	EStopRemote    = "REMOTE"
)

// Error Level 에러 레벨 상수
const (
	ErrorLevelWarning = "WARNING"
	ErrorLevelFatal   = "FATAL"
)

// Error Type VDA5050 에러 타입
const (
	ErrorTypeValidation       = "validationError"
	ErrorTypeOrderUpdate      = "orderUpdateError"
	ErrorTypeOrder            = "orderError"
	ErrorTypeNoRoute          = "noRouteError"
	ErrorTypeAction           = "actionError"
	ErrorTypeInstantAction    = "instantActionError"
	ErrorTypeNoOrderToCancel  = "noOrderToCancel"
	ErrorTypeMessageMalformed = "messageMalformed"
)

// Action Type 액션 타입 상수 (와이어 이름)
const (
	ActionTypeTranslate        = "translate"
	ActionTypeRotate           = "rotate"
	ActionTypeBezierMove       = "bezierMove"
	ActionTypeRotatePallet     = "rotatePallet"
	ActionTypeInitPosition     = "initPosition"
	ActionTypeStateRequest     = "stateRequest"
	ActionTypeFactsheetRequest = "factsheetRequest"
	ActionTypeCancelOrder      = "cancelOrder"
	ActionTypeStartPause       = "startPause"
	ActionTypeStopPause        = "stopPause"
	ActionTypeDownloadMap      = "downloadMap"
	ActionTypeDeleteMap        = "deleteMap"
	ActionTypeWait             = "wait"
	ActionTypePick             = "pick"
	ActionTypeDrop             = "drop"
	ActionTypeStartCharging    = "startCharging"
	ActionTypeStopCharging     = "stopCharging"
)

// Map Status 맵 상태 상수
const (
	MapStatusEnabled  = "ENABLED"
	MapStatusDisabled = "DISABLED"
)

// MQTT Topic names VDA5050 토픽 이름
const (
	TopicOrder          = "order"
	TopicInstantActions = "instantActions"
	TopicState          = "state"
	TopicVisualization  = "visualization"
	TopicConnection     = "connection"
	TopicFactsheet      = "factsheet"
)

// Topic {interface}/{majorVersion}/{manufacturer}/{serialNumber}/{topic} 형식 토픽 생성
func Topic(iface, majorVersion, manufacturer, serialNumber, name string) string {
	return strings.Join([]string{iface, majorVersion, manufacturer, serialNumber, name}, "/")
}

// TopicName 토픽 문자열의 마지막 구간
func TopicName(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

// IsValidConnectionState 유효한 연결 상태인지 확인
func IsValidConnectionState(state string) bool {
	switch state {
	case ConnectionStateOnline, ConnectionStateOffline, ConnectionStateConnectionBroken:
		return true
	}
	return false
}

// IsValidBlockingType 유효한 블로킹 타입인지 확인
func IsValidBlockingType(blockingType string) bool {
	switch blockingType {
	case BlockingTypeNone, BlockingTypeSoft, BlockingTypeHard:
		return true
	}
	return false
}
