// internal/engine/tick.go
package engine

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/order"
	"agv-simulator/internal/trajectory"
	"agv-simulator/internal/vehicle"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// maxProgressSteps 한 번의 progress 에서 처리할 최대 전이 수
const maxProgressSteps = 64

// Tick 제어 루프 한 주기. 큐 적용, 액션 진행, 주행, 스냅샷 발행 순서로 처리한다
func (e *Engine) Tick(dt time.Duration) {
	secs := dt.Seconds()
	st := e.state
	prev := st.Pose
	e.teleported = false

	st.Seq++
	st.Timestamp = e.now()

	for _, cmd := range e.drain() {
		e.apply(cmd)
	}
	e.progress()
	e.collect()

	moved := e.tickRuns(secs)
	e.collect()

	if e.advanceMotion(secs) {
		moved = true
	}
	e.progress()
	e.collect()

	st.Driving = moved
	if moved {
		st.DrivingTime += dt
	}
	if e.teleported {
		st.Velocity = vehicle.Velocity{}
	} else {
		st.UpdateMotion(prev, secs)
	}
	if e.arrived {
		st.DistanceSinceLastNode = 0
		e.arrived = false
	}
	st.UpdateBattery(secs, e.params.BatteryDrainPerSecond, e.params.BatteryChargePerSecond)

	e.refreshReport()
	e.publish()
}

func (e *Engine) apply(cmd command) {
	switch {
	case cmd.order != nil:
		e.applyOrder(cmd.order)
	case cmd.instant != nil:
		for _, spec := range cmd.instant {
			e.track(spec, true, "", "")
		}
		e.startInstant()
	case cmd.rejection != nil:
		e.state.AddError(*cmd.rejection)
	}
}

func (e *Engine) applyOrder(o *order.Order) {
	if err := e.admit(o); err != nil {
		e.log.WithFields(logrus.Fields{
			"orderId":       o.ID,
			"orderUpdateId": o.UpdateID,
		}).Warnf("Order rejected: %v", err)
		e.state.AddError(orderError(err, o))
	}
}

// orderError 거부된 오더의 에러 레코드
func orderError(err error, o *order.Order) vehicle.ErrorRecord {
	return vehicle.NewError(ErrorTypeFor(err), err.Error(),
		vehicle.ErrorReference{Key: vehicle.RefOrderID, Value: o.ID},
		vehicle.ErrorReference{Key: vehicle.RefOrderUpdateID, Value: strconv.Itoa(o.UpdateID)},
	)
}

// admit 제어 루프에서 오더 수락 여부를 최종 판단한다
func (e *Engine) admit(o *order.Order) error {
	st := e.state

	if e.graph != nil && o.ID == e.graph.ID() {
		return e.update(o)
	}
	if e.pending != nil && o.ID == e.pending.ID {
		if o.UpdateID == e.pending.UpdateID {
			return nil
		}
		return apperr.NewConcurrencyViolation(o.ID, o.UpdateID, "order is waiting for the current order to finish")
	}
	if e.graph == nil && st.LastOrderID != "" && o.ID == st.LastOrderID {
		switch {
		case o.UpdateID == st.LastOrderUpdateID:
			return nil
		case o.UpdateID < st.LastOrderUpdateID:
			return apperr.NewConcurrencyViolation(o.ID, o.UpdateID,
				fmt.Sprintf("update id must be greater than %d", st.LastOrderUpdateID))
		}
		if o.Nodes[0].ID != st.LastNodeID {
			return apperr.NewValidationError("nodes[0].nodeId", o.Nodes[0].ID,
				fmt.Sprintf("update must continue from last node %s", st.LastNodeID))
		}
	}

	if !st.PositionInitialized {
		return apperr.NewValidationError("position", "", "position not initialized")
	}
	if err := order.CheckStart(o, st.Pose, e.params.AllowedDeviationXY); err != nil {
		return err
	}

	if e.graph != nil {
		if e.cancelRun != nil {
			return apperr.NewConcurrencyViolation(o.ID, o.UpdateID, fmt.Sprintf("order %s is being canceled", e.graph.ID()))
		}
		if e.motion != nil || !e.graph.AtLastReleasedNode() {
			return apperr.NewValidationError("orderId", o.ID, fmt.Sprintf("order %s is still active", e.graph.ID()))
		}
		if !e.orderRunsTerminal() {
			e.pending = o
			e.log.WithField("orderId", o.ID).Infof("Order held until actions of %s finish", e.graph.ID())
			return nil
		}
		e.log.WithField("orderId", o.ID).Infof("Order %s replaced", e.graph.ID())
		e.dropGraph()
	}

	e.startOrder(o)
	return nil
}

// update 진행 중인 오더에 상위 업데이트 병합
func (e *Engine) update(o *order.Order) error {
	g := e.graph
	switch {
	case o.UpdateID == g.UpdateID():
		return nil
	case o.UpdateID < g.UpdateID():
		return apperr.NewConcurrencyViolation(o.ID, o.UpdateID,
			fmt.Sprintf("update id must be greater than %d", g.UpdateID()))
	}
	if e.cancelRun != nil {
		return apperr.NewConcurrencyViolation(o.ID, o.UpdateID, "order is being canceled")
	}

	if e.motion == nil {
		if cur, ok := g.CurrentNode(); ok && cur.Position != nil {
			dev := cur.AllowedDeviationXY
			if dev <= 0 {
				dev = e.params.AllowedDeviationXY
			}
			if d := cur.Position.Distance(e.state.Pose.Point()); d > dev {
				return apperr.NewValidationError("position", cur.ID,
					fmt.Sprintf("vehicle is %.3f m from node %s", d, cur.ID))
			}
		}
	}

	if err := g.Merge(o, e.committedSeq()); err != nil {
		return err
	}
	e.state.LastOrderUpdateID = o.UpdateID
	e.log.WithFields(logrus.Fields{
		"orderId":       o.ID,
		"orderUpdateId": o.UpdateID,
	}).Info("Order updated")
	return nil
}

// committedSeq 이미 지났거나 향하고 있는 노드의 sequence
func (e *Engine) committedSeq() int {
	if e.motion != nil {
		return e.motion.target.SequenceID
	}
	if cur, ok := e.graph.CurrentNode(); ok {
		return cur.SequenceID
	}
	return e.graph.FirstNode().SequenceID
}

func (e *Engine) startOrder(o *order.Order) {
	st := e.state
	if o.ID != st.LastOrderID {
		st.ClearErrors()
		kept := e.runs[:0]
		for _, t := range e.runs {
			if t.instant && !t.run.Terminal() {
				kept = append(kept, t)
			}
		}
		e.runs = kept
	}

	e.graph = order.NewGraph(o)
	e.nodeRuns, e.edgeRuns = nil, nil
	st.OrderID = o.ID
	st.LastOrderID = o.ID
	st.LastOrderUpdateID = o.UpdateID
	st.OrderStatus = constants.OrderStatusAccepted

	e.log.WithFields(logrus.Fields{
		"orderId":       o.ID,
		"orderUpdateId": o.UpdateID,
		"nodes":         len(o.Nodes),
		"edges":         len(o.Edges),
	}).Info("Order accepted")
}

// orderRunsTerminal 오더 소속 실행이 모두 끝났는지
func (e *Engine) orderRunsTerminal() bool {
	for _, t := range e.runs {
		if !t.instant && !t.run.Terminal() {
			return false
		}
	}
	return true
}

// progress 시간 경과 없이 가능한 전이를 모두 처리
func (e *Engine) progress() {
	e.startInstant()
	for i := 0; i < maxProgressSteps; i++ {
		if !e.step() {
			return
		}
	}
	e.log.Warn("Progress step limit reached")
}

func (e *Engine) step() bool {
	if e.graph == nil {
		if e.pending != nil {
			o := e.pending
			e.pending = nil
			e.startOrder(o)
			return true
		}
		return false
	}
	if e.cancelRun != nil {
		return e.stepCancel()
	}

	g := e.graph
	if !g.Started() {
		e.arriveAt(g.Enter())
		return true
	}

	if e.motion != nil {
		e.startPending(e.edgeRuns, true)
		if !e.motion.done() {
			return false
		}
		e.motion = nil
		next := g.Advance()
		if next == nil {
			panic(fmt.Sprintf("order %s: motion finished without a next node", g.ID()))
		}
		e.arriveAt(next)
		return true
	}

	// 엣지에서 시작하지 못한 액션은 도착 노드에서 이어서 시작한다
	e.startPending(e.edgeRuns, false)
	e.startPending(e.nodeRuns, false)

	if g.AtLastNode() {
		if !e.orderRunsTerminal() {
			return false
		}
		e.finishOrder()
		return true
	}
	if g.AtLastReleasedNode() {
		if e.pending == nil || !e.orderRunsTerminal() {
			return false
		}
		e.log.WithField("orderId", e.pending.ID).Infof("Order %s replaced", g.ID())
		e.dropGraph()
		return true
	}
	if e.state.Paused || e.departureBlocked() {
		return false
	}
	e.depart()
	return true
}

// arriveAt 노드 도착: 마지막 노드 갱신과 노드 액션 생성. 지나온 엣지의 실행은 다음 출발까지 남는다
func (e *Engine) arriveAt(n *order.Node) {
	st := e.state
	st.LastNodeID = n.ID
	st.LastNodeSequenceID = n.SequenceID
	st.DistanceSinceLastNode = 0
	e.arrived = true

	e.nodeRuns = nil
	for _, spec := range n.Actions {
		e.nodeRuns = append(e.nodeRuns, e.track(spec.Clone(), false, n.ID, ""))
	}

	if st.OrderStatus == constants.OrderStatusAccepted {
		st.OrderStatus = constants.OrderStatusExecuting
		if st.Paused {
			st.OrderStatus = constants.OrderStatusPaused
		}
	}
	e.log.WithFields(logrus.Fields{
		"orderId": e.graph.ID(),
		"nodeId":  n.ID,
	}).Debug("Node reached")
}

// depart 다음 released 엣지로 출발
func (e *Engine) depart() {
	g := e.graph
	edge, target, ok := g.NextEdge()
	if !ok {
		return
	}

	m, err := planEdge(e.state.Pose, edge, target, e.params.Limits)
	if err != nil {
		e.state.AddError(vehicle.NewError(constants.ErrorTypeNoRoute, err.Error(),
			vehicle.ErrorReference{Key: vehicle.RefOrderID, Value: g.ID()},
			vehicle.ErrorReference{Key: vehicle.RefEdgeID, Value: edge.ID},
		))
		e.failOrder("no route on edge " + edge.ID)
		return
	}
	e.motion = m

	e.edgeRuns = nil
	for _, spec := range edge.Actions {
		e.edgeRuns = append(e.edgeRuns, e.track(spec.Clone(), false, "", edge.ID))
	}
	e.startPending(e.edgeRuns, true)

	e.log.WithFields(logrus.Fields{
		"orderId": g.ID(),
		"edgeId":  edge.ID,
		"target":  target.ID,
	}).Debug("Departing")
}

// advanceMotion 오더 주행을 dt 만큼 진행. pause, HARD 액션, 차량 이동 액션이 있으면 멈춘다
func (e *Engine) advanceMotion(dt float64) bool {
	m := e.motion
	if m == nil || m.done() || e.state.Paused || e.hardActive() || e.poseActionActive() {
		return false
	}
	e.state.SetPose(m.advance(dt))
	return true
}

// cancel cancelOrder 실행 처리. 차량이 멈출 때까지 실행은 RUNNING 으로 남는다
func (e *Engine) cancel(t *tracked) {
	if e.graph == nil {
		if e.pending != nil {
			e.log.WithField("orderId", e.pending.ID).Info("Held order canceled")
			e.pending = nil
			t.run.Finish("")
			return
		}
		t.run.Fail("no order to cancel")
		return
	}
	if e.cancelRun != nil {
		t.run.Fail("order is already being canceled")
		return
	}

	e.cancelRemaining()
	e.pending = nil
	e.graph.Truncate()

	if m := e.motion; m != nil {
		seg := m.segment()
		switch {
		case e.state.Paused, seg == nil, seg.Kind == trajectory.KindTranslation:
			e.motion = nil
		default:
			m.stopAfterCurrent()
		}
	}
	e.cancelRun = t
	e.log.WithField("orderId", e.graph.ID()).Info("Order cancel requested")
}

// stepCancel 차량이 멈추면 cancelOrder 를 끝내고 오더를 정리한다
func (e *Engine) stepCancel() bool {
	if e.motion != nil {
		if !e.motion.done() {
			return false
		}
		e.motion = nil
	}
	if !e.orderRunsTerminal() {
		return false
	}

	id := e.graph.ID()
	if err := e.cancelRun.run.Finish(""); err != nil {
		e.log.Warnf("Finish cancelOrder: %v", err)
	}
	e.cancelRun = nil
	e.state.OrderStatus = constants.OrderStatusFailed
	e.dropGraph()
	e.log.WithField("orderId", id).Info("Order canceled")
	return true
}

// cancelRemaining 오더 실행과 아직 도달하지 않은 노드/엣지의 액션을 모두 FAILED("canceled") 로
func (e *Engine) cancelRemaining() {
	tracked := make(map[string]bool, len(e.runs))
	for _, t := range e.runs {
		if !t.instant {
			tracked[t.run.ID()] = true
		}
	}
	add := func(specs []action.Spec, nodeID, edgeID string) {
		for _, spec := range specs {
			if !tracked[spec.ID] {
				tracked[spec.ID] = true
				e.track(spec.Clone(), false, nodeID, edgeID)
			}
		}
	}
	for _, n := range e.graph.RemainingNodes() {
		add(n.Actions, n.ID, "")
	}
	for _, ed := range e.graph.RemainingEdges() {
		add(ed.Actions, "", ed.ID)
	}

	for _, t := range e.runs {
		if !t.instant {
			t.run.Cancel()
		}
	}
}

func (e *Engine) finishOrder() {
	id := e.graph.ID()
	e.state.OrderStatus = constants.OrderStatusFinished
	e.dropGraph()
	e.log.WithField("orderId", id).Info("Order finished")
}

// failOrder 남은 실행을 취소하고 제자리에 멈춘다
func (e *Engine) failOrder(reason string) {
	if e.graph == nil {
		return
	}
	id := e.graph.ID()
	e.cancelRemaining()
	e.motion = nil
	e.pending = nil
	e.state.OrderStatus = constants.OrderStatusFailed
	e.dropGraph()
	e.log.WithField("orderId", id).Warnf("Order failed: %s", reason)
}

// dropGraph 현재 오더 정리. 상태 필드 OrderStatus 는 호출자가 정한다
func (e *Engine) dropGraph() {
	e.graph = nil
	e.motion = nil
	e.nodeRuns = nil
	e.edgeRuns = nil
	e.state.OrderID = ""
}

// refreshReport 보고용 노드/엣지/액션 상태 갱신
func (e *Engine) refreshReport() {
	st := e.state
	st.NodeStates = nil
	st.EdgeStates = nil

	states := make([]vehicle.ActionState, 0, len(e.runs))
	seen := make(map[string]bool, len(e.runs))
	for _, t := range e.runs {
		spec := t.run.Spec()
		states = append(states, vehicle.ActionState{
			ID:                spec.ID,
			Type:              spec.Name(),
			Description:       spec.Description,
			Status:            t.run.Status(),
			ResultDescription: t.run.ResultDescription(),
		})
		seen[spec.ID] = true
	}

	waiting := func(specs []action.Spec) {
		for _, spec := range specs {
			if seen[spec.ID] {
				continue
			}
			seen[spec.ID] = true
			states = append(states, vehicle.ActionState{
				ID:          spec.ID,
				Type:        spec.Name(),
				Description: spec.Description,
				Status:      constants.ActionStatusWaiting,
			})
		}
	}

	if g := e.graph; g != nil {
		for _, n := range g.RemainingNodes() {
			st.NodeStates = append(st.NodeStates, vehicle.NodeState{
				ID:          n.ID,
				SequenceID:  n.SequenceID,
				Description: n.Description,
				Released:    n.Released,
				Position:    n.Position,
				Theta:       n.Theta,
				MapID:       n.MapID,
			})
			waiting(n.Actions)
		}
		for _, ed := range g.RemainingEdges() {
			st.EdgeStates = append(st.EdgeStates, vehicle.EdgeState{
				ID:          ed.ID,
				SequenceID:  ed.SequenceID,
				Description: ed.Description,
				Released:    ed.Released,
			})
			waiting(ed.Actions)
		}
	}
	st.ActionStates = states
}
