// internal/action/runtime.go
package action

import (
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/trajectory"
	"agv-simulator/internal/utils"
	"context"
	"fmt"
	"math"

	"github.com/looplab/fsm"
)

const (
	eventInitialize = "initialize"
	eventStart      = "start"
	eventPause      = "pause"
	eventResume     = "resume"
	eventFinish     = "finish"
	eventFail       = "fail"

	enterFinished = "enter_" + constants.ActionStatusFinished
	enterFailed   = "enter_" + constants.ActionStatusFailed
)

// ReasonCanceled cancel() 로 실패 처리될 때의 결과 설명
const ReasonCanceled = "canceled"

// Limits 차량 속도 상한과 기본 액션 시간
type Limits struct {
	Speed              float64 // m/s
	AngularSpeed       float64 // rad/s
	PalletAngularSpeed float64 // rad/s
	ActionTime         float64 // s
}

// Env 액션 시작 시점의 차량 상황
type Env struct {
	Pose        trajectory.Pose
	PalletTheta float64
	Driving     bool
	OrderActive bool
	MapID       string   // 사용 중인 맵
	Maps        []string // 설치된 맵
	Limits      Limits
}

// Run 하나의 액션 실행. 상태 전이는 FSM 이 관리한다
type Run struct {
	spec    Spec
	machine *fsm.FSM
	result  string

	plan     Plan
	segment  *trajectory.Segment
	elapsed  float64
	duration float64
	manual   bool // 엔진이 Finish 를 호출해야 끝나는 액션
}

// NewRun WAITING 상태의 실행 생성
func NewRun(spec Spec) *Run {
	r := &Run{spec: spec}
	r.machine = fsm.NewFSM(
		constants.ActionStatusWaiting,
		fsm.Events{
			{Name: eventInitialize, Src: []string{constants.ActionStatusWaiting}, Dst: constants.ActionStatusInitializing},
			{Name: eventStart, Src: []string{constants.ActionStatusInitializing}, Dst: constants.ActionStatusRunning},
			{Name: eventPause, Src: []string{constants.ActionStatusRunning}, Dst: constants.ActionStatusPaused},
			{Name: eventResume, Src: []string{constants.ActionStatusPaused}, Dst: constants.ActionStatusRunning},
			{Name: eventFinish, Src: []string{constants.ActionStatusRunning}, Dst: constants.ActionStatusFinished},
			{Name: eventFail, Src: []string{
				constants.ActionStatusWaiting,
				constants.ActionStatusInitializing,
				constants.ActionStatusRunning,
				constants.ActionStatusPaused,
			}, Dst: constants.ActionStatusFailed},
		},
		fsm.Callbacks{
			"enter_state": r.onEnterState,
			enterFinished: r.onEnterTerminal,
			enterFailed:   r.onEnterTerminal,
		},
	)
	return r
}

func (r *Run) onEnterState(ctx context.Context, e *fsm.Event) {
	utils.Logger.Debugf("ACTION '%s' (%s): %s -> %s", r.spec.ID, r.spec.Name(), e.Src, e.Dst)
}

func (r *Run) onEnterTerminal(ctx context.Context, e *fsm.Event) {
	if len(e.Args) == 0 {
		return
	}
	switch v := e.Args[0].(type) {
	case string:
		r.result = v
	case error:
		r.result = v.Error()
	}
}

// Spec 액션 정의
func (r *Run) Spec() Spec { return r.spec }

// ID 액션 ID
func (r *Run) ID() string { return r.spec.ID }

// Status 현재 상태 문자열
func (r *Run) Status() string { return r.machine.Current() }

// ResultDescription 결과 또는 실패 사유
func (r *Run) ResultDescription() string { return r.result }

// Plan 해석된 파라미터
func (r *Run) Plan() Plan { return r.plan }

// Terminal FINISHED 또는 FAILED
func (r *Run) Terminal() bool {
	s := r.Status()
	return s == constants.ActionStatusFinished || s == constants.ActionStatusFailed
}

// Running RUNNING 상태인지
func (r *Run) Running() bool {
	return r.machine.Is(constants.ActionStatusRunning)
}

// Active 시작되었고 아직 끝나지 않음 (RUNNING, PAUSED, INITIALIZING)
func (r *Run) Active() bool {
	return !r.Terminal() && !r.machine.Is(constants.ActionStatusWaiting)
}

// Start WAITING → INITIALIZING → RUNNING. 검증이나 전제조건이 실패하면 FAILED 로 끝나고 에러를 반환
func (r *Run) Start(env Env) error {
	if err := r.machine.Event(context.Background(), eventInitialize); err != nil {
		return fmt.Errorf("action %s cannot start from %s: %w", r.spec.ID, r.Status(), err)
	}

	plan, err := Parse(r.spec)
	if err != nil {
		r.Fail(err.Error())
		return err
	}
	r.plan = plan

	if err := r.prepare(env); err != nil {
		r.Fail(err.Error())
		return err
	}

	if err := r.machine.Event(context.Background(), eventStart); err != nil {
		return err
	}

	if !r.manual && r.completed() {
		r.Finish("")
	}
	return nil
}

// prepare 액션 종류별 전제조건 확인과 궤적/시간 설정
func (r *Run) prepare(env Env) error {
	name := r.spec.Name()
	limits := env.Limits

	switch r.spec.Type {
	case TypeTranslation:
		if env.Driving {
			return apperr.NewPreconditionError(name, "vehicle is driving", nil)
		}
		end := env.Pose
		end.X += r.plan.DX
		end.Y += r.plan.DY
		seg, err := trajectory.NewTranslation(env.Pose, end, capSpeed(r.plan.Speed, limits.Speed))
		if err != nil {
			return apperr.NewPreconditionError(name, "invalid translation", err)
		}
		r.segment = seg

	case TypeRotation:
		if env.Driving {
			return apperr.NewPreconditionError(name, "vehicle is driving", nil)
		}
		target := env.Pose.Theta + r.plan.Angle
		if r.plan.HasTheta {
			target = r.plan.Theta
		}
		seg, err := trajectory.NewRotation(env.Pose, target, capSpeed(r.plan.Speed, limits.AngularSpeed))
		if err != nil {
			return apperr.NewPreconditionError(name, "invalid rotation", err)
		}
		r.segment = seg

	case TypeBezierMove:
		if env.Driving {
			return apperr.NewPreconditionError(name, "vehicle is driving", nil)
		}
		points := r.plan.Points
		if points[0].Distance(env.Pose.Point()) > 1e-6 {
			points = append([]trajectory.Point{env.Pose.Point()}, points...)
		}
		seg, err := trajectory.NewBezier(points, capSpeed(r.plan.Speed, limits.Speed))
		if err != nil {
			return apperr.NewPreconditionError(name, "invalid bezier path", err)
		}
		r.segment = seg

	case TypePalletRotation:
		if env.Driving {
			return apperr.NewPreconditionError(name, "pallet rotation attempted while driving", nil)
		}
		target := env.PalletTheta + r.plan.Angle
		if r.plan.HasTheta {
			target = r.plan.Theta
		}
		seg, err := trajectory.NewPalletRotation(env.PalletTheta, target, capSpeed(r.plan.Speed, limits.PalletAngularSpeed))
		if err != nil {
			return apperr.NewPreconditionError(name, "invalid pallet rotation", err)
		}
		r.segment = seg

	case TypeInitPosition:
		if env.Driving {
			return apperr.NewPreconditionError(name, "vehicle is driving", nil)
		}
		if env.OrderActive {
			return apperr.NewPreconditionError(name, "order is active", nil)
		}

	case TypeWait:
		r.duration = limits.ActionTime
		if r.plan.HasDuration {
			r.duration = r.plan.Duration
		}

	case TypePick, TypeDrop:
		if env.Driving {
			return apperr.NewPreconditionError(name, "vehicle is driving", nil)
		}
		r.duration = limits.ActionTime

	case TypeStartCharging:
		if env.Driving {
			return apperr.NewPreconditionError(name, "vehicle is driving", nil)
		}

	case TypeCancelOrder:
		r.manual = true

	case TypeMapDelete:
		if r.plan.MapID == env.MapID {
			return apperr.NewPreconditionError(name, "map "+r.plan.MapID+" is in use", nil)
		}
		found := false
		for _, id := range env.Maps {
			if id == r.plan.MapID {
				found = true
				break
			}
		}
		if !found {
			return apperr.NewPreconditionError(name, "map "+r.plan.MapID+" not found", nil)
		}

	case TypeStateRequest, TypeFactsheetRequest, TypePause, TypeResume,
		TypeMapUpload, TypeStopCharging:
		// 즉시 완료

	case TypeUnknown:
		return apperr.NewValidationError("actionType", name, "unknown action type")
	}
	return nil
}

func capSpeed(requested, limit float64) float64 {
	if requested > 0 {
		return math.Min(requested, limit)
	}
	return limit
}

func (r *Run) completed() bool {
	if r.segment != nil {
		return r.segment.Done(r.elapsed)
	}
	return r.elapsed >= r.duration-1e-9
}

// Tick RUNNING 일 때만 시간을 진행시킨다. 같은 dt 순서에 대해 항상 같은 결과
func (r *Run) Tick(dt float64) string {
	if r.manual || !r.Running() {
		return r.Status()
	}
	r.elapsed += dt
	if r.completed() {
		r.Finish("")
	}
	return r.Status()
}

// Pose 현재 elapsed 에 해당하는 궤적 위의 자세
func (r *Run) Pose() (trajectory.Pose, bool) {
	if r.segment == nil {
		return trajectory.Pose{}, false
	}
	return trajectory.Evaluate(r.segment, r.elapsed), true
}

// Finish RUNNING → FINISHED
func (r *Run) Finish(result string) error {
	return r.machine.Event(context.Background(), eventFinish, result)
}

// Fail 끝나지 않은 실행을 FAILED 로
func (r *Run) Fail(reason string) error {
	if r.Terminal() {
		return nil
	}
	return r.machine.Event(context.Background(), eventFail, reason)
}

// Cancel 이미 FINISHED 가 아니면 "canceled" 로 실패 처리
func (r *Run) Cancel() {
	_ = r.Fail(ReasonCanceled)
}

// Pause RUNNING → PAUSED. 다른 상태에서는 아무것도 하지 않는다
func (r *Run) Pause() bool {
	if !r.Running() {
		return false
	}
	return r.machine.Event(context.Background(), eventPause) == nil
}

// Resume PAUSED → RUNNING
func (r *Run) Resume() bool {
	if !r.machine.Is(constants.ActionStatusPaused) {
		return false
	}
	return r.machine.Event(context.Background(), eventResume) == nil
}
