// internal/converter/converter.go
package converter

import (
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/models"
	"agv-simulator/internal/utils"
	"agv-simulator/internal/vehicle"
	"strconv"
	"time"
)

// TimestampFormat VDA5050 ISO8601 UTC 타임스탬프
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Identity 메시지 헤더에 들어가는 차량 정보
type Identity struct {
	Version      string
	Manufacturer string
	SerialNumber string
}

// Converter 도메인 상태를 발행용 메시지로 바꾼다. headerId 는 토픽별로 증가
type Converter struct {
	id      Identity
	headers HeaderSource
}

// HeaderSource 토픽별 headerId 생성기
type HeaderSource interface {
	Next(topic string) int64
}

// NewConverter 새 변환기 생성
func NewConverter(id Identity) *Converter {
	return &Converter{
		id:      id,
		headers: utils.NewHeaderCounter(),
	}
}

// NewConverterWithHeaders headerId 생성기를 외부에서 주입
func NewConverterWithHeaders(id Identity, headers HeaderSource) *Converter {
	if headers == nil {
		return NewConverter(id)
	}
	return &Converter{id: id, headers: headers}
}

// Identity 차량 정보
func (c *Converter) Identity() Identity { return c.id }

// Header 토픽의 다음 헤더
func (c *Converter) Header(topic string, ts time.Time) models.Header {
	return models.Header{
		HeaderID:     c.headers.Next(topic),
		Timestamp:    FormatTimestamp(ts),
		Version:      c.id.Version,
		Manufacturer: c.id.Manufacturer,
		SerialNumber: c.id.SerialNumber,
	}
}

// FormatTimestamp UTC 밀리초 타임스탬프
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Format(TimestampFormat)
}

// StateMessage 스냅샷을 state 메시지로
func (c *Converter) StateMessage(s vehicle.State) models.StateMessage {
	msg := models.StateMessage{
		Header:                c.Header(constants.TopicState, s.Timestamp),
		OrderID:               s.LastOrderID,
		OrderUpdateID:         s.LastOrderUpdateID,
		LastNodeID:            s.LastNodeID,
		LastNodeSequenceID:    s.LastNodeSequenceID,
		Driving:               s.Driving,
		Paused:                s.Paused,
		DistanceSinceLastNode: s.DistanceSinceLastNode,
		OperatingMode:         s.OperatingMode,
		NodeStates:            make([]models.NodeState, 0, len(s.NodeStates)),
		EdgeStates:            make([]models.EdgeState, 0, len(s.EdgeStates)),
		AgvPosition:           agvPosition(s),
		Velocity:              velocity(s),
		Loads:                 make([]models.Load, 0, len(s.Loads)),
		ActionStates:          make([]models.ActionState, 0, len(s.ActionStates)),
		BatteryState: models.BatteryState{
			BatteryCharge: s.Battery.Charge,
			Charging:      s.Battery.Charging,
		},
		Errors:      make([]models.ErrorInfo, 0, len(s.Errors)),
		Information: []models.InfoMessage{},
		SafetyState: models.SafetyState{
			EStop:          s.Safety.EStop,
			FieldViolation: s.Safety.FieldViolation,
		},
		Maps: make([]models.MapDescriptor, 0, len(s.Maps)),
	}

	for _, n := range s.NodeStates {
		ns := models.NodeState{
			NodeID:          n.ID,
			SequenceID:      n.SequenceID,
			NodeDescription: n.Description,
			Released:        n.Released,
		}
		if n.Position != nil {
			ns.NodePosition = &models.NodePosition{X: n.Position.X, Y: n.Position.Y, MapID: n.MapID}
			if n.Theta != nil {
				theta := *n.Theta
				ns.NodePosition.Theta = &theta
			}
		}
		msg.NodeStates = append(msg.NodeStates, ns)
	}
	for _, e := range s.EdgeStates {
		msg.EdgeStates = append(msg.EdgeStates, models.EdgeState{
			EdgeID:          e.ID,
			SequenceID:      e.SequenceID,
			EdgeDescription: e.Description,
			Released:        e.Released,
		})
	}
	for _, l := range s.Loads {
		msg.Loads = append(msg.Loads, models.Load{LoadID: l.ID, LoadType: l.Type})
	}
	for _, a := range s.ActionStates {
		msg.ActionStates = append(msg.ActionStates, models.ActionState{
			ActionID:          a.ID,
			ActionType:        a.Type,
			ActionDescription: a.Description,
			ActionStatus:      a.Status,
			ResultDescription: a.ResultDescription,
		})
	}
	for _, e := range s.Errors {
		info := models.ErrorInfo{
			ErrorType:        e.Type,
			ErrorDescription: e.Description,
			ErrorLevel:       e.Level,
		}
		for _, r := range e.References {
			info.ErrorReferences = append(info.ErrorReferences, models.ErrorReference{
				ReferenceKey:   r.Key,
				ReferenceValue: r.Value,
			})
		}
		msg.Errors = append(msg.Errors, info)
	}
	for _, m := range s.Maps {
		msg.Maps = append(msg.Maps, models.MapDescriptor{
			MapID:          m.ID,
			MapVersion:     m.Version,
			MapDescription: m.Description,
			MapStatus:      m.Status,
		})
	}
	if s.OrderStatus != "" && s.OrderStatus != constants.OrderStatusNone {
		msg.Information = append(msg.Information, models.InfoMessage{
			InfoType:        "orderStatus",
			InfoDescription: s.OrderStatus,
			InfoLevel:       "INFO",
			InfoReferences: []models.InfoReference{
				{ReferenceKey: vehicle.RefOrderID, ReferenceValue: s.LastOrderID},
				{ReferenceKey: vehicle.RefOrderUpdateID, ReferenceValue: strconv.Itoa(s.LastOrderUpdateID)},
			},
		})
	}
	return msg
}

// VisualizationMessage 자세와 속도만 담은 visualization 메시지
func (c *Converter) VisualizationMessage(s vehicle.State) models.VisualizationMessage {
	return models.VisualizationMessage{
		Header:      c.Header(constants.TopicVisualization, s.Timestamp),
		AgvPosition: agvPosition(s),
		Velocity:    velocity(s),
	}
}

// ConnectionMessage connection 메시지
func (c *Converter) ConnectionMessage(state string, ts time.Time) models.ConnectionMessage {
	return models.ConnectionMessage{
		Header:          c.Header(constants.TopicConnection, ts),
		ConnectionState: state,
	}
}

func agvPosition(s vehicle.State) *models.AgvPosition {
	return &models.AgvPosition{
		X:                   s.Pose.X,
		Y:                   s.Pose.Y,
		Theta:               s.Pose.Theta,
		MapID:               s.MapID,
		PositionInitialized: s.PositionInitialized,
		LocalizationScore:   1,
	}
}

func velocity(s vehicle.State) *models.Velocity {
	return &models.Velocity{Vx: s.Velocity.VX, Vy: s.Velocity.VY, Omega: s.Velocity.Omega}
}
