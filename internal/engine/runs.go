// internal/engine/runs.go
package engine

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/vehicle"
)

// maxInstantHistory 보고용으로 유지하는 끝난 instant 액션 수
const maxInstantHistory = 50

// tracked 엔진이 관리하는 액션 실행
type tracked struct {
	run     *action.Run
	instant bool
	nodeID  string
	edgeID  string
	last    string // 마지막으로 처리한 상태
}

func (t *tracked) blocking() action.BlockingType { return t.run.Spec().Blocking }

func (t *tracked) kind() action.Type { return t.run.Spec().Type }

// control 다른 실행을 기다리지 않고 바로 적용되는 instant 액션
func (t *tracked) control() bool {
	switch t.kind() {
	case action.TypePause, action.TypeResume, action.TypeCancelOrder:
		return true
	}
	return false
}

// track 실행 생성과 등록
func (e *Engine) track(spec action.Spec, instant bool, nodeID, edgeID string) *tracked {
	t := &tracked{
		run:     action.NewRun(spec),
		instant: instant,
		nodeID:  nodeID,
		edgeID:  edgeID,
		last:    constants.ActionStatusWaiting,
	}
	e.runs = append(e.runs, t)
	return t
}

// env 액션 시작 시점의 차량 상황
func (e *Engine) env(driving bool) action.Env {
	return action.Env{
		Pose:        e.state.Pose,
		PalletTheta: e.state.PalletTheta,
		Driving:     driving || e.onTheMove(),
		OrderActive: e.graph != nil,
		MapID:       e.state.MapID,
		Maps:        e.mapIDs(),
		Limits:      e.params.Limits,
	}
}

func (e *Engine) mapIDs() []string {
	ids := make([]string, 0, len(e.state.Maps))
	for _, m := range e.state.Maps {
		ids = append(ids, m.ID)
	}
	return ids
}

// onTheMove 오더 주행 중이거나 차량을 움직이는 액션이 진행 중인지
func (e *Engine) onTheMove() bool {
	return e.motion != nil || e.poseActionActive()
}

func (e *Engine) poseActionActive() bool {
	for _, t := range e.runs {
		if t.kind().MovesVehicle() && t.run.Active() {
			return true
		}
	}
	return false
}

// hardActive 시작된 HARD 액션이 끝나지 않았는지 (cancelOrder 제외)
func (e *Engine) hardActive() bool {
	for _, t := range e.runs {
		if t.blocking() == action.BlockingHard && t.kind() != action.TypeCancelOrder && t.run.Active() {
			return true
		}
	}
	return false
}

// startRun 실행 시작과 즉시 효과 적용. 실패는 collect 에서 기록된다
func (e *Engine) startRun(t *tracked, driving bool) {
	if err := t.run.Start(e.env(driving)); err != nil {
		e.log.WithField("actionId", t.run.ID()).Warnf("Action failed to start: %v", err)
		return
	}
	e.applyStart(t)
	if e.state.Paused && t.run.Running() && !e.exempt(t) {
		t.run.Pause()
	}
}

func (e *Engine) exempt(t *tracked) bool {
	return t.kind() == action.TypeCancelOrder || e.pauseExempt[t.kind()]
}

// startPending 목록의 WAITING 실행을 순서대로 시작.
// HARD 는 앞선 실행이 모두 끝난 뒤에만 시작하고 끝날 때까지 뒤의 실행을 막는다
func (e *Engine) startPending(list []*tracked, driving bool) {
	for _, t := range list {
		if t.run.Status() != constants.ActionStatusWaiting {
			continue
		}
		if e.hardActive() {
			return
		}
		if t.blocking() == action.BlockingHard {
			if e.anyActive() {
				return
			}
			e.startRun(t, driving)
			if t.run.Active() {
				return
			}
			continue
		}
		e.startRun(t, driving)
	}
}

// startInstant 대기 중인 instant 실행을 도착 순서대로 시작.
// pause/resume/cancelOrder 는 바로 적용하고 나머지는 노드 액션과 같은 HARD 규칙을 따른다
func (e *Engine) startInstant() {
	var queued []*tracked
	for _, t := range e.runs {
		if t.instant && t.run.Status() == constants.ActionStatusWaiting {
			queued = append(queued, t)
		}
	}
	if len(queued) == 0 {
		return
	}

	rest := queued[:0]
	for _, t := range queued {
		if t.control() {
			e.startRun(t, false)
			continue
		}
		rest = append(rest, t)
	}
	e.startPending(rest, false)
}

// anyActive 끝나지 않은 시작된 실행이 있는지 (cancelOrder 제외)
func (e *Engine) anyActive() bool {
	for _, t := range e.runs {
		if t.kind() != action.TypeCancelOrder && t.run.Active() {
			return true
		}
	}
	return false
}

// allTerminal 목록이 모두 끝났는지
func allTerminal(list []*tracked) bool {
	for _, t := range list {
		if !t.run.Terminal() {
			return false
		}
	}
	return true
}

// departureBlocked 노드 출발을 막는 실행이 있는지: 현재 노드와 방금 지나온 엣지의 WAITING,
// SOFT/HARD 진행 중, 차량 이동 액션
func (e *Engine) departureBlocked() bool {
	for _, list := range [][]*tracked{e.edgeRuns, e.nodeRuns} {
		for _, t := range list {
			if t.run.Status() == constants.ActionStatusWaiting {
				return true
			}
			if t.run.Active() && t.blocking() != action.BlockingNone {
				return true
			}
		}
	}
	return e.hardActive() || e.poseActionActive()
}

// applyStart 시작 시점에 끝나는 액션의 효과
func (e *Engine) applyStart(t *tracked) {
	plan := t.run.Plan()
	st := e.state

	switch t.kind() {
	case action.TypePause:
		e.setPaused(true)
	case action.TypeResume:
		e.setPaused(false)
	case action.TypeCancelOrder:
		e.cancel(t)
	case action.TypeInitPosition:
		st.SetPose(plan.Pose)
		if plan.MapID != "" {
			st.MapID = plan.MapID
		}
		if plan.LastNodeID != "" {
			st.LastNodeID = plan.LastNodeID
			st.LastNodeSequenceID = 0
		}
		st.PositionInitialized = true
		st.DistanceSinceLastNode = 0
		e.teleported = true
		e.log.Infof("Position initialized to (%.3f, %.3f, %.3f)", plan.Pose.X, plan.Pose.Y, plan.Pose.Theta)
	case action.TypeStateRequest:
		st.StateRequests++
	case action.TypeFactsheetRequest:
		st.FactsheetRequests++
	case action.TypeMapUpload:
		status := constants.MapStatusDisabled
		if plan.MapID == st.MapID {
			status = constants.MapStatusEnabled
		}
		st.UpsertMap(vehicle.MapInfo{ID: plan.MapID, Version: plan.MapVersion, Status: status})
	case action.TypeMapDelete:
		st.RemoveMap(plan.MapID)
	case action.TypeStartCharging:
		st.Battery.Charging = true
	case action.TypeStopCharging:
		st.Battery.Charging = false
	}
}

// applyFinish 시간이 걸리는 액션이 끝났을 때의 효과
func (e *Engine) applyFinish(t *tracked) {
	plan := t.run.Plan()
	switch t.kind() {
	case action.TypePick:
		e.state.AddLoad(vehicle.Load{ID: plan.LoadID})
	case action.TypeDrop:
		e.state.RemoveLoad(plan.LoadID)
	}
}

// tickRuns 진행 중인 실행의 시간을 dt 만큼 진행하고 자세를 반영. 차량이 움직였으면 true
func (e *Engine) tickRuns(dt float64) bool {
	moved := false
	for _, t := range e.runs {
		if !t.run.Running() {
			continue
		}
		t.run.Tick(dt)
		pose, ok := t.run.Pose()
		if !ok {
			continue
		}
		if t.kind() == action.TypePalletRotation {
			e.state.PalletTheta = pose.Theta
			continue
		}
		e.state.SetPose(pose)
		moved = true
	}
	return moved
}

// collect 상태가 바뀐 실행을 처리: 로그, 완료 효과, 실패 기록, HARD 실패 시 오더 실패
func (e *Engine) collect() {
	for _, t := range e.runs {
		status := t.run.Status()
		if status == t.last {
			continue
		}
		t.last = status
		e.log.WithField("actionId", t.run.ID()).Debugf("Action %s is %s", t.run.Spec().Name(), status)

		switch status {
		case constants.ActionStatusFinished:
			e.applyFinish(t)
		case constants.ActionStatusFailed:
			if t.run.ResultDescription() == action.ReasonCanceled {
				continue
			}
			e.recordActionFailure(t)
			if !t.instant && t.blocking() == action.BlockingHard && e.graph != nil {
				e.failOrder("HARD action " + t.run.ID() + " failed")
			}
		}
	}
	e.pruneInstant()
}

func (e *Engine) recordActionFailure(t *tracked) {
	errType := constants.ErrorTypeAction
	if t.instant {
		errType = constants.ErrorTypeInstantAction
	}
	if t.kind() == action.TypeCancelOrder {
		errType = constants.ErrorTypeNoOrderToCancel
	}
	refs := []vehicle.ErrorReference{{Key: vehicle.RefActionID, Value: t.run.ID()}}
	if !t.instant && e.graph != nil {
		refs = append(refs, vehicle.ErrorReference{Key: vehicle.RefOrderID, Value: e.graph.ID()})
	}
	if t.nodeID != "" {
		refs = append(refs, vehicle.ErrorReference{Key: vehicle.RefNodeID, Value: t.nodeID})
	}
	if t.edgeID != "" {
		refs = append(refs, vehicle.ErrorReference{Key: vehicle.RefEdgeID, Value: t.edgeID})
	}
	e.state.AddError(vehicle.NewError(errType, t.run.ResultDescription(), refs...))
}

// pruneInstant 끝난 instant 실행이 너무 많으면 오래된 것부터 버린다
func (e *Engine) pruneInstant() {
	done := 0
	for _, t := range e.runs {
		if t.instant && t.run.Terminal() {
			done++
		}
	}
	if done <= maxInstantHistory {
		return
	}
	drop := done - maxInstantHistory
	kept := e.runs[:0]
	for _, t := range e.runs {
		if drop > 0 && t.instant && t.run.Terminal() && t != e.cancelRun {
			drop--
			continue
		}
		kept = append(kept, t)
	}
	e.runs = kept
}

// setPaused 일시정지 상태 변경. 진행 중인 실행도 함께 멈추거나 재개한다
func (e *Engine) setPaused(paused bool) {
	if e.state.Paused == paused {
		return
	}
	e.state.Paused = paused
	for _, t := range e.runs {
		if e.exempt(t) {
			continue
		}
		if paused {
			t.run.Pause()
		} else {
			t.run.Resume()
		}
	}
	if e.graph != nil {
		if paused {
			e.state.OrderStatus = constants.OrderStatusPaused
		} else {
			e.state.OrderStatus = constants.OrderStatusExecuting
		}
	}
	if paused {
		e.log.Info("Vehicle paused")
	} else {
		e.log.Info("Vehicle resumed")
	}
}
