// internal/action/types.go
package action

import (
	"agv-simulator/internal/common/constants"
	"fmt"
)

// Type 엔진이 아는 액션 종류 (닫힌 집합)
type Type int

const (
	TypeUnknown Type = iota
	TypeTranslation
	TypeRotation
	TypeBezierMove
	TypePalletRotation
	TypeInitPosition
	TypeStateRequest
	TypeFactsheetRequest
	TypeCancelOrder
	TypePause
	TypeResume
	TypeMapUpload
	TypeMapDelete
	TypeWait
	TypePick
	TypeDrop
	TypeStartCharging
	TypeStopCharging
)

// typeNames 정식 와이어 이름
var typeNames = map[Type]string{
	TypeTranslation:      constants.ActionTypeTranslate,
	TypeRotation:         constants.ActionTypeRotate,
	TypeBezierMove:       constants.ActionTypeBezierMove,
	TypePalletRotation:   constants.ActionTypeRotatePallet,
	TypeInitPosition:     constants.ActionTypeInitPosition,
	TypeStateRequest:     constants.ActionTypeStateRequest,
	TypeFactsheetRequest: constants.ActionTypeFactsheetRequest,
	TypeCancelOrder:      constants.ActionTypeCancelOrder,
	TypePause:            constants.ActionTypeStartPause,
	TypeResume:           constants.ActionTypeStopPause,
	TypeMapUpload:        constants.ActionTypeDownloadMap,
	TypeMapDelete:        constants.ActionTypeDeleteMap,
	TypeWait:             constants.ActionTypeWait,
	TypePick:             constants.ActionTypePick,
	TypeDrop:             constants.ActionTypeDrop,
	TypeStartCharging:    constants.ActionTypeStartCharging,
	TypeStopCharging:     constants.ActionTypeStopCharging,
}

// typeAliases 와이어 이름 외에 받아들이는 별칭
var typeAliases = map[string]Type{
	"translation":    TypeTranslation,
	"rotation":       TypeRotation,
	"palletRotation": TypePalletRotation,
	"pause":          TypePause,
	"resume":         TypeResume,
	"uploadMap":      TypeMapUpload,
}

// ParseType 와이어 이름을 Type 으로 변환. 모르는 이름은 TypeUnknown
func ParseType(name string) Type {
	for t, n := range typeNames {
		if n == name {
			return t
		}
	}
	if t, ok := typeAliases[name]; ok {
		return t
	}
	return TypeUnknown
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Types 지원하는 모든 액션 종류 (팩트시트용)
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := TypeTranslation; t <= TypeStopCharging; t++ {
		out = append(out, t)
	}
	return out
}

// MovesVehicle 차량 자세를 움직이는 액션인지
func (t Type) MovesVehicle() bool {
	switch t {
	case TypeTranslation, TypeRotation, TypeBezierMove:
		return true
	}
	return false
}

// BlockingType NONE, SOFT, HARD
type BlockingType string

const (
	BlockingNone BlockingType = constants.BlockingTypeNone
	BlockingSoft BlockingType = constants.BlockingTypeSoft
	BlockingHard BlockingType = constants.BlockingTypeHard
)

// Spec 불변 액션 정의
type Spec struct {
	ID          string
	Type        Type
	TypeName    string // 수신한 이름 그대로 (모르는 타입 보고용)
	Blocking    BlockingType
	Description string
	Parameters  map[string]interface{}
}

// NewSpec 와이어 이름으로 Spec 생성
func NewSpec(id, typeName string, blocking BlockingType, params map[string]interface{}) Spec {
	if blocking == "" {
		blocking = BlockingNone
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return Spec{
		ID:         id,
		Type:       ParseType(typeName),
		TypeName:   typeName,
		Blocking:   blocking,
		Parameters: params,
	}
}

// Name 보고용 액션 타입 이름
func (s Spec) Name() string {
	if s.TypeName != "" {
		return s.TypeName
	}
	return s.Type.String()
}

// Clone 파라미터 맵까지 복사
func (s Spec) Clone() Spec {
	params := make(map[string]interface{}, len(s.Parameters))
	for k, v := range s.Parameters {
		params[k] = v
	}
	s.Parameters = params
	return s
}
