// internal/vehicle/state.go
package vehicle

import (
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/trajectory"
	"math"
	"time"
)

// MaxErrors errors 목록 최대 길이. 넘치면 오래된 것부터 버린다
const MaxErrors = 50

// 에러 참조 키
const (
	RefOrderID       = "orderId"
	RefOrderUpdateID = "orderUpdateId"
	RefActionID      = "actionId"
	RefNodeID        = "nodeId"
	RefEdgeID        = "edgeId"
	RefTopic         = "topic"
)

// ErrorReference 에러가 가리키는 대상
type ErrorReference struct {
	Key   string
	Value string
}

// ErrorRecord VDA5050 error 항목
type ErrorRecord struct {
	Type        string
	Level       string
	Description string
	References  []ErrorReference
}

// NewError WARNING 레벨 에러 생성
func NewError(errType, description string, refs ...ErrorReference) ErrorRecord {
	return ErrorRecord{
		Type:        errType,
		Level:       constants.ErrorLevelWarning,
		Description: description,
		References:  refs,
	}
}

// Reference 키에 해당하는 값
func (e ErrorRecord) Reference(key string) (string, bool) {
	for _, r := range e.References {
		if r.Key == key {
			return r.Value, true
		}
	}
	return "", false
}

// ActionState 리포팅용 액션 상태
type ActionState struct {
	ID                string
	Type              string
	Description       string
	Status            string
	ResultDescription string
}

// NodeState 아직 지나지 않은 노드
type NodeState struct {
	ID          string
	SequenceID  int
	Description string
	Released    bool
	Position    *trajectory.Point
	Theta       *float64
	MapID       string
}

// EdgeState 아직 끝나지 않은 엣지
type EdgeState struct {
	ID          string
	SequenceID  int
	Description string
	Released    bool
}

// Load 적재물
type Load struct {
	ID   string
	Type string
}

// MapInfo 차량에 설치된 맵
type MapInfo struct {
	ID          string
	Version     string
	Status      string
	Description string
}

// Battery 배터리 상태
type Battery struct {
	Charge   float64 // 0..100
	Charging bool
}

// Safety 안전 상태
type Safety struct {
	EStop          string
	FieldViolation bool
}

// Velocity 차량 좌표계 속도
type Velocity struct {
	VX    float64
	VY    float64
	Omega float64
}

// State 차량 상태. 엔진만 수정하고 외부에는 Clone 으로만 나간다
type State struct {
	Seq       uint64 // tick 번호
	Timestamp time.Time

	Pose                trajectory.Pose
	MapID               string
	PositionInitialized bool
	PalletTheta         float64
	Velocity            Velocity
	Battery             Battery
	Safety              Safety
	OperatingMode       string

	Driving     bool
	Paused      bool
	DrivingTime time.Duration

	OrderID               string // 진행 중인 오더. 끝나면 비움
	OrderStatus           string
	LastOrderID           string
	LastOrderUpdateID     int
	LastNodeID            string
	LastNodeSequenceID    int
	DistanceSinceLastNode float64

	NodeStates   []NodeState
	EdgeStates   []EdgeState
	ActionStates []ActionState
	Errors       []ErrorRecord
	Loads        []Load
	Maps         []MapInfo

	StateRequests     uint64
	FactsheetRequests uint64
}

// New 초기 상태
func New(pose trajectory.Pose, mapID string, initialized bool) *State {
	s := &State{
		MapID:               mapID,
		PositionInitialized: initialized,
		Battery:             Battery{Charge: 100},
		Safety:              Safety{EStop: constants.EStopNone},
		OperatingMode:       constants.OperatingModeAutomatic,
		OrderStatus:         constants.OrderStatusNone,
	}
	s.SetPose(pose)
	return s
}

// SetPose 자세 설정. theta 는 항상 정규화
func (s *State) SetPose(p trajectory.Pose) {
	p.Theta = trajectory.NormalizeAngle(p.Theta)
	s.Pose = p
}

// Action ID 로 액션 상태 조회
func (s State) Action(id string) (ActionState, bool) {
	for _, a := range s.ActionStates {
		if a.ID == id {
			return a, true
		}
	}
	return ActionState{}, false
}

// AddError 에러 추가. MaxErrors 를 넘으면 가장 오래된 것 제거
func (s *State) AddError(rec ErrorRecord) {
	s.Errors = append(s.Errors, rec)
	if over := len(s.Errors) - MaxErrors; over > 0 {
		s.Errors = append([]ErrorRecord(nil), s.Errors[over:]...)
	}
}

// ClearErrors 새 오더 시작 시 호출
func (s *State) ClearErrors() {
	s.Errors = nil
}

// UpsertMap 맵 추가 또는 교체
func (s *State) UpsertMap(m MapInfo) {
	for i := range s.Maps {
		if s.Maps[i].ID == m.ID {
			s.Maps[i] = m
			return
		}
	}
	s.Maps = append(s.Maps, m)
}

// RemoveMap 맵 삭제. 없으면 false
func (s *State) RemoveMap(id string) bool {
	for i := range s.Maps {
		if s.Maps[i].ID == id {
			s.Maps = append(s.Maps[:i], s.Maps[i+1:]...)
			return true
		}
	}
	return false
}

// AddLoad 적재
func (s *State) AddLoad(l Load) {
	s.Loads = append(s.Loads, l)
}

// RemoveLoad ID 가 같은 적재물 제거. ID 가 비어 있으면 마지막 적재물
func (s *State) RemoveLoad(id string) bool {
	if len(s.Loads) == 0 {
		return false
	}
	if id == "" {
		s.Loads = s.Loads[:len(s.Loads)-1]
		return true
	}
	for i := range s.Loads {
		if s.Loads[i].ID == id {
			s.Loads = append(s.Loads[:i], s.Loads[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateBattery dt 초 동안 방전/충전. [0,100] 으로 제한
func (s *State) UpdateBattery(dt, drainPerSecond, chargePerSecond float64) {
	switch {
	case s.Battery.Charging:
		s.Battery.Charge += chargePerSecond * dt
	case s.Driving:
		s.Battery.Charge -= drainPerSecond * dt
	}
	s.Battery.Charge = math.Max(0, math.Min(100, s.Battery.Charge))
}

// UpdateMotion 이전 자세와 비교해 속도, 주행 여부, 노드 이후 거리를 갱신
func (s *State) UpdateMotion(prev trajectory.Pose, dt float64) {
	if dt <= 0 {
		return
	}
	dx := s.Pose.X - prev.X
	dy := s.Pose.Y - prev.Y
	dtheta := trajectory.AngleDelta(prev.Theta, s.Pose.Theta)

	// 차량 좌표계로 회전
	cos, sin := math.Cos(s.Pose.Theta), math.Sin(s.Pose.Theta)
	s.Velocity = Velocity{
		VX:    (dx*cos + dy*sin) / dt,
		VY:    (-dx*sin + dy*cos) / dt,
		Omega: dtheta / dt,
	}
	s.DistanceSinceLastNode += math.Hypot(dx, dy)
}

// Clone 깊은 복사
func (s *State) Clone() State {
	out := *s
	out.NodeStates = cloneNodes(s.NodeStates)
	out.EdgeStates = append([]EdgeState(nil), s.EdgeStates...)
	out.ActionStates = append([]ActionState(nil), s.ActionStates...)
	out.Loads = append([]Load(nil), s.Loads...)
	out.Maps = append([]MapInfo(nil), s.Maps...)
	if s.Errors != nil {
		out.Errors = make([]ErrorRecord, len(s.Errors))
		for i, e := range s.Errors {
			e.References = append([]ErrorReference(nil), e.References...)
			out.Errors[i] = e
		}
	}
	return out
}

func cloneNodes(nodes []NodeState) []NodeState {
	if nodes == nil {
		return nil
	}
	out := make([]NodeState, len(nodes))
	for i, n := range nodes {
		if n.Position != nil {
			p := *n.Position
			n.Position = &p
		}
		if n.Theta != nil {
			t := *n.Theta
			n.Theta = &t
		}
		out[i] = n
	}
	return out
}
