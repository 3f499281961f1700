package engine

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/order"
	"agv-simulator/internal/trajectory"
	"agv-simulator/internal/utils"
	"agv-simulator/internal/vehicle"
	"io"
	"math"
	"reflect"
	"testing"
	"time"
)

const dt = 100 * time.Millisecond

func newTestEngine(t *testing.T, initialized bool) *Engine {
	t.Helper()
	utils.SetOutput(io.Discard)
	return New(Params{
		MapID:               "map",
		Limits:              action.Limits{Speed: 1, AngularSpeed: 1, PalletAngularSpeed: 1, ActionTime: 1},
		AllowedDeviationXY:  0.1,
		PositionInitialized: initialized,
	}, WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }))
}

func ticks(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Tick(dt)
	}
}

func theta(v float64) *float64 { return &v }

// straight 노드를 (x, 0) 에 두고 순서대로 잇는 오더
func straight(id string, update int, xs ...float64) *order.Order {
	o := &order.Order{ID: id, UpdateID: update}
	for i, x := range xs {
		name := string(rune('A' + i))
		o.Nodes = append(o.Nodes, order.Node{
			ID:         name,
			SequenceID: i * 2,
			Position:   &trajectory.Point{X: x},
			Theta:      theta(0),
			Released:   true,
		})
		if i > 0 {
			prev := string(rune('A' + i - 1))
			o.Edges = append(o.Edges, order.Edge{
				ID:          prev + name,
				SequenceID:  i*2 - 1,
				StartNodeID: prev,
				EndNodeID:   name,
				Released:    true,
			})
		}
	}
	return o
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func samePose(a, b trajectory.Pose) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Theta, b.Theta)
}

func hasError(s vehicle.State, errType string) bool {
	for _, e := range s.Errors {
		if e.Type == errType {
			return true
		}
	}
	return false
}

func TestStraightOrderFinishesAfter100Ticks(t *testing.T) {
	e := newTestEngine(t, true)
	if err := e.SubmitOrder(straight("o1", 0, 0, 10)); err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}

	ticks(e, 99)
	s := e.Snapshot()
	if s.OrderStatus == constants.OrderStatusFinished {
		t.Fatal("order finished before 100 ticks")
	}
	if !s.Driving || s.OrderID != "o1" {
		t.Errorf("driving=%v orderId=%q", s.Driving, s.OrderID)
	}

	e.Tick(dt)
	s = e.Snapshot()
	if !samePose(s.Pose, trajectory.Pose{X: 10}) {
		t.Errorf("pose = %+v, want (10,0,0)", s.Pose)
	}
	if s.OrderStatus != constants.OrderStatusFinished {
		t.Errorf("status = %s, want FINISHED", s.OrderStatus)
	}
	if s.OrderID != "" || s.LastOrderID != "o1" || s.LastNodeID != "B" {
		t.Errorf("orderId=%q lastOrderId=%q lastNodeId=%q", s.OrderID, s.LastOrderID, s.LastNodeID)
	}
	if s.DrivingTime != 10*time.Second {
		t.Errorf("driving time = %s, want 10s", s.DrivingTime)
	}
	if s.Seq != 100 {
		t.Errorf("seq = %d, want 100", s.Seq)
	}
}

func TestResubmitIsNoop(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 1)
	if err := e.SubmitOrder(o); err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	ticks(e, 5)

	// 진행 중 재전송
	if err := e.SubmitOrder(o); err != nil {
		t.Fatalf("resubmit while active: %v", err)
	}
	if len(e.queue) != 0 {
		t.Fatal("resubmitted order was queued")
	}

	ticks(e, 10)
	before := e.Snapshot()
	if before.OrderStatus != constants.OrderStatusFinished {
		t.Fatalf("status = %s", before.OrderStatus)
	}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatalf("resubmit after finish: %v", err)
	}
	if len(e.queue) != 0 {
		t.Fatal("resubmitted order was queued")
	}
	if after := e.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Error("state changed by idempotent resubmit")
	}

	stale := straight("o1", 0, 0, 1)
	stale.UpdateID = -1
	if err := e.SubmitOrder(stale); err == nil {
		t.Error("negative update id accepted")
	}
}

func TestMalformedOrderLeavesStateUnchanged(t *testing.T) {
	e := newTestEngine(t, true)
	before := e.Snapshot()

	o := straight("o1", 0, 0, 5, 10)
	o.Edges = o.Edges[:1]
	err := e.SubmitOrder(o)
	if !apperr.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if after := e.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Error("state changed by rejected order")
	}

	e.Tick(dt)
	s := e.Snapshot()
	if s.OrderID != "" || len(s.Errors) != 0 || s.OrderStatus != constants.OrderStatusNone {
		t.Errorf("rejected order leaked into state: %+v", s)
	}
}

func TestPauseResumeMatchesUninterruptedRun(t *testing.T) {
	ref := newTestEngine(t, true)
	if err := ref.SubmitOrder(straight("o1", 0, 0, 10)); err != nil {
		t.Fatal(err)
	}
	ticks(ref, 31)
	refAt31 := ref.Snapshot().Pose
	ticks(ref, 69)
	refEnd := ref.Snapshot()

	e := newTestEngine(t, true)
	if err := e.SubmitOrder(straight("o1", 0, 0, 10)); err != nil {
		t.Fatal(err)
	}
	ticks(e, 30)
	if err := e.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	e.Tick(dt)
	paused := e.Snapshot()
	if !paused.Paused || paused.OrderStatus != constants.OrderStatusPaused {
		t.Fatalf("paused=%v status=%s", paused.Paused, paused.OrderStatus)
	}
	ticks(e, 19)
	if got := e.Snapshot().Pose; !samePose(got, paused.Pose) {
		t.Fatalf("vehicle moved while paused: %+v -> %+v", paused.Pose, got)
	}

	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	e.Tick(dt)
	if got := e.Snapshot().Pose; !samePose(got, refAt31) {
		t.Errorf("pose after resume = %+v, want %+v (no jump)", got, refAt31)
	}

	ticks(e, 69)
	end := e.Snapshot()
	if end.OrderStatus != constants.OrderStatusFinished {
		t.Fatalf("status = %s, want FINISHED", end.OrderStatus)
	}
	if !samePose(end.Pose, refEnd.Pose) {
		t.Errorf("final pose %+v differs from uninterrupted %+v", end.Pose, refEnd.Pose)
	}
	if end.DrivingTime != refEnd.DrivingTime {
		t.Errorf("driving time %s, want %s", end.DrivingTime, refEnd.DrivingTime)
	}
	if wall := time.Duration(end.Seq-refEnd.Seq) * dt; wall != 20*dt {
		t.Errorf("paused run took %s longer, want %s", wall, 20*dt)
	}
}

func TestHardEdgeActionHaltsMotion(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 10)
	o.Edges[0].Actions = []action.Spec{
		action.NewSpec("hard", constants.ActionTypeWait, action.BlockingHard, map[string]interface{}{"duration": 0.5}),
	}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	start := e.Snapshot().Pose

	ticks(e, 3)
	s := e.Snapshot()
	if !samePose(s.Pose, start) {
		t.Errorf("pose at tick 3 = %+v, want %+v", s.Pose, start)
	}
	if a, _ := s.Action("hard"); a.Status != constants.ActionStatusRunning {
		t.Errorf("hard action = %s, want RUNNING", a.Status)
	}

	ticks(e, 2)
	s = e.Snapshot()
	if a, _ := s.Action("hard"); a.Status != constants.ActionStatusFinished {
		t.Fatalf("hard action = %s, want FINISHED", a.Status)
	}
	if s.Pose.X <= 0 {
		t.Error("motion did not resume after hard action finished")
	}
}

func TestCancelMidEdgeStopsAtInterpolatedPose(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 10)
	o.Nodes[1].Actions = []action.Spec{action.NewSpec("pick", constants.ActionTypePick, action.BlockingHard, nil)}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	ticks(e, 35)
	at := e.Snapshot().Pose

	if err := e.CancelOrder(); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	e.Tick(dt)
	s := e.Snapshot()
	if !samePose(s.Pose, at) || !near(s.Pose.X, 3.5) {
		t.Errorf("pose after cancel = %+v, want %+v", s.Pose, at)
	}
	if s.OrderID != "" || s.OrderStatus != constants.OrderStatusFailed {
		t.Errorf("orderId=%q status=%s", s.OrderID, s.OrderStatus)
	}
	if a, ok := s.Action("pick"); !ok || a.Status != constants.ActionStatusFailed || a.ResultDescription != action.ReasonCanceled {
		t.Errorf("pending node action = %+v", a)
	}
	canceled := false
	for _, a := range s.ActionStates {
		if a.Type == constants.ActionTypeCancelOrder && a.Status == constants.ActionStatusFinished {
			canceled = true
		}
	}
	if !canceled {
		t.Error("cancelOrder action not FINISHED")
	}

	ticks(e, 10)
	if got := e.Snapshot().Pose; !samePose(got, at) {
		t.Errorf("vehicle kept moving after cancel: %+v", got)
	}
}

func TestCancelDuringRotationFinishesSegment(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 0)
	o.Nodes[1].Position = &trajectory.Point{X: 0, Y: 5}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	// π/2 회전에 약 16 tick
	ticks(e, 5)
	if err := e.CancelOrder(); err != nil {
		t.Fatal(err)
	}
	ticks(e, 20)
	s := e.Snapshot()
	if s.OrderStatus != constants.OrderStatusFailed {
		t.Fatalf("status = %s", s.OrderStatus)
	}
	if !near(s.Pose.Theta, math.Pi/2) || !near(s.Pose.Y, 0) {
		t.Errorf("pose = %+v, want rotation finished in place", s.Pose)
	}
}

func TestCancelWithoutOrder(t *testing.T) {
	e := newTestEngine(t, true)
	if err := e.CancelOrder(); err != nil {
		t.Fatal(err)
	}
	e.Tick(dt)
	s := e.Snapshot()
	if !hasError(s, constants.ErrorTypeNoOrderToCancel) {
		t.Errorf("errors = %+v", s.Errors)
	}
	if len(s.ActionStates) != 1 || s.ActionStates[0].Status != constants.ActionStatusFailed {
		t.Errorf("action states = %+v", s.ActionStates)
	}
}

func TestNewOrderRejectedWhileDriving(t *testing.T) {
	e := newTestEngine(t, true)
	if err := e.SubmitOrder(straight("o1", 0, 0, 10)); err != nil {
		t.Fatal(err)
	}
	ticks(e, 10)
	err := e.SubmitOrder(straight("o2", 0, 1, 2))
	if !apperr.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNewOrderHeldUntilLastNodeActionsFinish(t *testing.T) {
	e := newTestEngine(t, true)
	o1 := straight("o1", 0, 0, 1)
	o1.Nodes[1].Actions = []action.Spec{
		action.NewSpec("soft", constants.ActionTypeWait, action.BlockingSoft, map[string]interface{}{"duration": 1.0}),
	}
	if err := e.SubmitOrder(o1); err != nil {
		t.Fatal(err)
	}
	ticks(e, 12)
	if a, _ := e.Snapshot().Action("soft"); a.Status != constants.ActionStatusRunning {
		t.Fatalf("soft action = %s, want RUNNING", a.Status)
	}

	o2 := straight("o2", 0, 1, 2)
	if err := e.SubmitOrder(o2); err != nil {
		t.Fatalf("SubmitOrder o2: %v", err)
	}
	e.Tick(dt)
	if s := e.Snapshot(); s.OrderID != "o1" {
		t.Fatalf("o2 replaced o1 while its action was running (orderId=%q)", s.OrderID)
	}

	for i := 0; i < 20 && e.Snapshot().OrderID != "o2"; i++ {
		e.Tick(dt)
	}
	s := e.Snapshot()
	if s.OrderID != "o2" {
		t.Fatalf("held order never started, orderId=%q", s.OrderID)
	}
	if _, ok := s.Action("soft"); ok {
		t.Error("action states of previous order should be cleared")
	}
	ticks(e, 12)
	if s := e.Snapshot(); s.OrderStatus != constants.OrderStatusFinished || !near(s.Pose.X, 2) {
		t.Errorf("o2 status=%s pose=%+v", s.OrderStatus, s.Pose)
	}
}

func TestOrderUpdateExtendsRoute(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 1, 2)
	o.Edges[1].Released = false
	o.Nodes[2].Released = false
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	ticks(e, 15)
	s := e.Snapshot()
	if s.LastNodeID != "B" || s.OrderStatus != constants.OrderStatusExecuting || s.Driving {
		t.Fatalf("expected to wait at B: last=%s status=%s driving=%v", s.LastNodeID, s.OrderStatus, s.Driving)
	}
	if len(s.NodeStates) != 1 || s.NodeStates[0].Released {
		t.Errorf("node states = %+v", s.NodeStates)
	}

	// 이미 지난 노드를 다시 쓰는 업데이트
	rewrite := straight("o1", 1, 0, 1, 2)
	if err := e.SubmitOrder(rewrite); err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	e.Tick(dt)
	if s := e.Snapshot(); !hasError(s, constants.ErrorTypeOrderUpdate) || s.LastOrderUpdateID != 0 {
		t.Fatalf("rewrite not rejected: errors=%+v update=%d", s.Errors, s.LastOrderUpdateID)
	}

	update := straight("o1", 2, 1, 2)
	update.Nodes[0].ID, update.Nodes[0].SequenceID = "B", 2
	update.Nodes[1].ID, update.Nodes[1].SequenceID = "C", 4
	update.Edges[0] = order.Edge{ID: "BC", SequenceID: 3, StartNodeID: "B", EndNodeID: "C", Released: true}
	if err := e.SubmitOrder(update); err != nil {
		t.Fatalf("SubmitOrder update: %v", err)
	}
	ticks(e, 12)
	s = e.Snapshot()
	if s.OrderStatus != constants.OrderStatusFinished || s.LastNodeID != "C" || s.LastOrderUpdateID != 2 {
		t.Errorf("status=%s last=%s update=%d", s.OrderStatus, s.LastNodeID, s.LastOrderUpdateID)
	}

	if err := e.SubmitOrder(straight("o1", 1, 0, 1)); !apperr.IsConcurrencyViolation(err) {
		t.Errorf("stale update: expected ConcurrencyViolation, got %v", err)
	}
}

func TestHardActionFailureFailsOrder(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 1)
	o.Nodes[0].Actions = []action.Spec{action.NewSpec("bad", constants.ActionTypeRotate, action.BlockingHard, nil)}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	ticks(e, 3)
	s := e.Snapshot()
	if s.OrderStatus != constants.OrderStatusFailed {
		t.Errorf("status = %s, want FAILED", s.OrderStatus)
	}
	if !hasError(s, constants.ErrorTypeAction) {
		t.Errorf("errors = %+v", s.Errors)
	}
	if !samePose(s.Pose, trajectory.Pose{}) {
		t.Errorf("vehicle moved: %+v", s.Pose)
	}
}

func TestSoftFailureLetsOrderProceed(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 1)
	o.Edges[0].Actions = []action.Spec{
		action.NewSpec("pallet", constants.ActionTypeRotatePallet, action.BlockingNone, map[string]interface{}{"angle": 1.0}),
	}
	o.Nodes[1].Actions = []action.Spec{
		action.NewSpec("pick", constants.ActionTypePick, action.BlockingSoft, map[string]interface{}{"loadId": "L1"}),
	}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	ticks(e, 30)
	s := e.Snapshot()
	if s.OrderStatus != constants.OrderStatusFinished {
		t.Fatalf("status = %s", s.OrderStatus)
	}
	if a, _ := s.Action("pallet"); a.Status != constants.ActionStatusFailed {
		t.Errorf("pallet rotation while driving = %s, want FAILED", a.Status)
	}
	if !hasError(s, constants.ErrorTypeAction) {
		t.Error("failure not recorded")
	}
	if len(s.Loads) != 1 || s.Loads[0].ID != "L1" {
		t.Errorf("loads = %+v", s.Loads)
	}
}

func TestBezierEdge(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 2)
	o.Nodes[1].Theta = nil
	o.Edges[0].ControlPoints = []trajectory.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	maxY := 0.0
	for i := 0; i < 100 && e.Snapshot().OrderStatus != constants.OrderStatusFinished; i++ {
		e.Tick(dt)
		maxY = math.Max(maxY, e.Snapshot().Pose.Y)
	}
	s := e.Snapshot()
	if s.OrderStatus != constants.OrderStatusFinished {
		t.Fatalf("status = %s", s.OrderStatus)
	}
	if !near(s.Pose.X, 2) || !near(s.Pose.Y, 0) {
		t.Errorf("end pose = %+v", s.Pose)
	}
	if maxY < 0.45 {
		t.Errorf("vehicle did not follow the curve, max y = %v", maxY)
	}
}

func TestPositionGateAndInitPosition(t *testing.T) {
	e := newTestEngine(t, false)
	if err := e.SubmitOrder(straight("o1", 0, 5, 6)); !apperr.IsValidationError(err) {
		t.Fatalf("expected rejection before initPosition, got %v", err)
	}

	results := e.SubmitInstantActions([]action.Spec{
		action.NewSpec("init", constants.ActionTypeInitPosition, action.BlockingHard,
			map[string]interface{}{"x": 5.0, "y": 0.0, "theta": 0.0, "lastNodeId": "A"}),
		action.NewSpec("bogus", "teleport", action.BlockingNone, nil),
		action.NewSpec("badinit", constants.ActionTypeInitPosition, action.BlockingNone, map[string]interface{}{"x": 1.0}),
		action.NewSpec("state", constants.ActionTypeStateRequest, action.BlockingNone, nil),
	})
	wantOK := []bool{true, false, false, true}
	for i, r := range results {
		if (r.Err == nil) != wantOK[i] {
			t.Errorf("result %d (%s): err=%v", i, r.ActionID, r.Err)
		}
	}

	e.Tick(dt)
	s := e.Snapshot()
	if !s.PositionInitialized || !samePose(s.Pose, trajectory.Pose{X: 5}) || s.LastNodeID != "A" {
		t.Fatalf("initPosition not applied: %+v", s)
	}
	if s.StateRequests != 1 {
		t.Errorf("state requests = %d", s.StateRequests)
	}
	if s.Velocity != (vehicle.Velocity{}) {
		t.Errorf("teleport produced velocity %+v", s.Velocity)
	}
	if err := e.SubmitOrder(straight("o1", 0, 5, 6)); err != nil {
		t.Errorf("order after initPosition: %v", err)
	}
}

func TestInstantMapsAndCharging(t *testing.T) {
	e := newTestEngine(t, true)
	e.SubmitInstantActions([]action.Spec{
		action.NewSpec("up1", constants.ActionTypeDownloadMap, action.BlockingNone, map[string]interface{}{"mapId": "map", "mapVersion": "1"}),
		action.NewSpec("up2", constants.ActionTypeDownloadMap, action.BlockingNone, map[string]interface{}{"mapId": "other"}),
		action.NewSpec("charge", constants.ActionTypeStartCharging, action.BlockingNone, nil),
	})
	e.Tick(dt)
	e.SubmitInstantActions([]action.Spec{
		action.NewSpec("del1", constants.ActionTypeDeleteMap, action.BlockingNone, map[string]interface{}{"mapId": "map"}),
		action.NewSpec("del2", constants.ActionTypeDeleteMap, action.BlockingNone, map[string]interface{}{"mapId": "other"}),
	})
	e.Tick(dt)

	s := e.Snapshot()
	if len(s.Maps) != 1 || s.Maps[0].ID != "map" || s.Maps[0].Status != constants.MapStatusEnabled {
		t.Errorf("maps = %+v", s.Maps)
	}
	if a, _ := s.Action("del1"); a.Status != constants.ActionStatusFailed {
		t.Errorf("deleting the map in use = %s, want FAILED", a.Status)
	}
	if !s.Battery.Charging {
		t.Error("charging not started")
	}
}

func TestSubscribeLastValueWins(t *testing.T) {
	e := newTestEngine(t, true)
	ch, cancel := e.Subscribe()
	defer cancel()

	ticks(e, 3)
	s := <-ch
	if s.Seq != 3 {
		t.Errorf("seq = %d, want latest 3", s.Seq)
	}

	cancel()
	e.Tick(dt)
	select {
	case s := <-ch:
		t.Errorf("received snapshot %d after unsubscribe", s.Seq)
	default:
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	e := newTestEngine(t, true)
	if err := e.SubmitOrder(straight("o1", 0, 0, 5, 10)); err != nil {
		t.Fatal(err)
	}
	e.Tick(dt)
	s := e.Snapshot()
	s.NodeStates[0].Position.X = 99
	s.Errors = append(s.Errors, vehicle.ErrorRecord{})
	again := e.Snapshot()
	if again.NodeStates[0].Position.X == 99 || len(again.Errors) != 0 {
		t.Error("snapshot shares memory with engine state")
	}
}

func TestRecordRejection(t *testing.T) {
	e := newTestEngine(t, true)
	e.RecordRejection(apperr.NewValidationError("payload", "order", "bad json"),
		vehicle.ErrorReference{Key: vehicle.RefTopic, Value: "order"})
	if len(e.Snapshot().Errors) != 0 {
		t.Fatal("rejection applied before tick")
	}
	e.Tick(dt)
	s := e.Snapshot()
	if !hasError(s, constants.ErrorTypeValidation) {
		t.Errorf("errors = %+v", s.Errors)
	}
}

func wait(id string, blocking action.BlockingType, seconds float64) action.Spec {
	return action.NewSpec(id, constants.ActionTypeWait, blocking, map[string]interface{}{"duration": seconds})
}

func status(s vehicle.State, id string) string {
	a, _ := s.Action(id)
	return a.Status
}

func TestHardInstantActionsRunOneAtATime(t *testing.T) {
	e := newTestEngine(t, true)
	results := e.SubmitInstantActions([]action.Spec{
		wait("h1", action.BlockingHard, 0.5),
		wait("h2", action.BlockingHard, 0.5),
		wait("n1", action.BlockingNone, 0.5),
	})
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s rejected: %v", r.ActionID, r.Err)
		}
	}

	e.Tick(dt)
	s := e.Snapshot()
	if status(s, "h1") != constants.ActionStatusRunning || status(s, "h2") != constants.ActionStatusWaiting {
		t.Fatalf("h1=%s h2=%s, want RUNNING WAITING", status(s, "h1"), status(s, "h2"))
	}
	if status(s, "n1") != constants.ActionStatusWaiting {
		t.Errorf("n1 = %s, want WAITING behind HARD actions", status(s, "n1"))
	}

	for i := 0; i < 20; i++ {
		e.Tick(dt)
		s := e.Snapshot()
		h1, h2, n1 := status(s, "h1"), status(s, "h2"), status(s, "n1")
		if h1 == constants.ActionStatusRunning && h2 == constants.ActionStatusRunning {
			t.Fatalf("tick %d: two HARD actions running", i+2)
		}
		if n1 == constants.ActionStatusRunning && (h1 == constants.ActionStatusRunning || h2 == constants.ActionStatusRunning) {
			t.Fatalf("tick %d: n1 running next to a HARD action", i+2)
		}
	}
	s = e.Snapshot()
	for _, id := range []string{"h1", "h2", "n1"} {
		if status(s, id) != constants.ActionStatusFinished {
			t.Errorf("%s = %s, want FINISHED", id, status(s, id))
		}
	}
}

func TestHardInstantWaitsForHardNodeAction(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 1)
	o.Nodes[0].Actions = []action.Spec{wait("node", action.BlockingHard, 1.0)}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	e.Tick(dt)
	if got := status(e.Snapshot(), "node"); got != constants.ActionStatusRunning {
		t.Fatalf("node action = %s, want RUNNING", got)
	}

	if r := e.SubmitInstantActions([]action.Spec{wait("inst", action.BlockingHard, 0.3)}); r[0].Err != nil {
		t.Fatal(r[0].Err)
	}
	instRan := false
	for i := 0; i < 40 && e.Snapshot().OrderStatus != constants.OrderStatusFinished; i++ {
		e.Tick(dt)
		s := e.Snapshot()
		node, inst := status(s, "node"), status(s, "inst")
		if node == constants.ActionStatusRunning && inst == constants.ActionStatusRunning {
			t.Fatalf("tick %d: node and instant HARD actions both running", i+2)
		}
		if inst == constants.ActionStatusRunning {
			instRan = true
			if !samePose(s.Pose, trajectory.Pose{}) {
				t.Fatalf("vehicle moved during HARD instant action: %+v", s.Pose)
			}
		}
	}
	s := e.Snapshot()
	if !instRan || status(s, "inst") != constants.ActionStatusFinished {
		t.Errorf("instant action ran=%v status=%s", instRan, status(s, "inst"))
	}
	if s.OrderStatus != constants.OrderStatusFinished || !near(s.Pose.X, 1) {
		t.Errorf("status=%s pose=%+v", s.OrderStatus, s.Pose)
	}
}

func TestPauseNotQueuedBehindHardAction(t *testing.T) {
	e := newTestEngine(t, true)
	e.SubmitInstantActions([]action.Spec{wait("h1", action.BlockingHard, 1.0)})
	e.Tick(dt)

	e.SubmitInstantActions([]action.Spec{action.NewSpec("p", constants.ActionTypeStartPause, action.BlockingHard, nil)})
	e.Tick(dt)
	s := e.Snapshot()
	if !s.Paused || status(s, "p") != constants.ActionStatusFinished {
		t.Fatalf("paused=%v pause action=%s", s.Paused, status(s, "p"))
	}
	if status(s, "h1") != constants.ActionStatusPaused {
		t.Errorf("h1 = %s, want PAUSED", status(s, "h1"))
	}

	e.SubmitInstantActions([]action.Spec{action.NewSpec("r", constants.ActionTypeStopPause, action.BlockingHard, nil)})
	e.Tick(dt)
	s = e.Snapshot()
	if s.Paused || status(s, "h1") != constants.ActionStatusRunning {
		t.Errorf("paused=%v h1=%s after stopPause", s.Paused, status(s, "h1"))
	}
}

func TestSoftEdgeActionHoldsVehicleAtNode(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 1, 5)
	o.Edges[0].Actions = []action.Spec{wait("soft", action.BlockingSoft, 5.0)}
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}

	ticks(e, 5)
	if s := e.Snapshot(); !near(s.Pose.X, 0.5) {
		t.Fatalf("pose at tick 5 = %+v, SOFT action must not halt mid-edge", s.Pose)
	}

	ticks(e, 15)
	s := e.Snapshot()
	if !near(s.Pose.X, 1) || s.LastNodeID != "B" || s.Driving {
		t.Fatalf("pose=%+v last=%s driving=%v, want waiting at B", s.Pose, s.LastNodeID, s.Driving)
	}
	if status(s, "soft") != constants.ActionStatusRunning {
		t.Fatalf("soft = %s, want RUNNING", status(s, "soft"))
	}

	ticks(e, 29)
	if s := e.Snapshot(); !near(s.Pose.X, 1) {
		t.Fatalf("left B while SOFT edge action was running: %+v", s.Pose)
	}

	ticks(e, 45)
	s = e.Snapshot()
	if status(s, "soft") != constants.ActionStatusFinished {
		t.Errorf("soft = %s", status(s, "soft"))
	}
	if s.OrderStatus != constants.OrderStatusFinished || !near(s.Pose.X, 5) {
		t.Errorf("status=%s pose=%+v", s.OrderStatus, s.Pose)
	}
}

// continuation B(1) 에서 C(2) 로 이어지는 o1 업데이트
func continuation(update int, stitchID string) *order.Order {
	o := straight("o1", update, 1, 2)
	o.Nodes[0].ID, o.Nodes[0].SequenceID = stitchID, 2
	o.Nodes[1].ID, o.Nodes[1].SequenceID = "C", 4
	o.Edges[0] = order.Edge{ID: stitchID + "C", SequenceID: 3, StartNodeID: stitchID, EndNodeID: "C", Released: true}
	return o
}

func TestOrderUpdateWhileDriving(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 1, 2)
	o.Edges[1].Released = false
	o.Nodes[2].Released = false
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	ticks(e, 5)

	tests := []struct {
		name    string
		update  *order.Order
		errType string
	}{
		{"restarts at passed node", straight("o1", 1, 0, 1, 2), constants.ErrorTypeOrderUpdate},
		{"renames approached node", continuation(2, "X"), constants.ErrorTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.Snapshot().Pose.X
			if err := e.SubmitOrder(tt.update); err != nil {
				t.Fatalf("SubmitOrder: %v", err)
			}
			e.Tick(dt)
			s := e.Snapshot()
			if !hasError(s, tt.errType) || s.LastOrderUpdateID != 0 {
				t.Errorf("errors=%+v update=%d", s.Errors, s.LastOrderUpdateID)
			}
			if !near(s.Pose.X, before+0.1) {
				t.Errorf("rejected update disturbed motion: %v -> %v", before, s.Pose.X)
			}
		})
	}

	if err := e.SubmitOrder(continuation(3, "B")); err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	ticks(e, 13)
	s := e.Snapshot()
	if s.OrderStatus != constants.OrderStatusFinished || s.LastNodeID != "C" || s.LastOrderUpdateID != 3 {
		t.Fatalf("status=%s last=%s update=%d", s.OrderStatus, s.LastNodeID, s.LastOrderUpdateID)
	}
	if !near(s.Pose.X, 2) {
		t.Errorf("pose = %+v, want C reached without stopping at B", s.Pose)
	}
}

func TestSegmentRemainderCarriesOver(t *testing.T) {
	e := newTestEngine(t, true)
	o := straight("o1", 0, 0, 0)
	o.Nodes[1].Position = &trajectory.Point{X: 0, Y: 1}
	o.Nodes[1].Theta = nil
	if err := e.SubmitOrder(o); err != nil {
		t.Fatal(err)
	}
	rot, err := trajectory.NewRotation(trajectory.Pose{}, math.Pi/2, 1)
	if err != nil {
		t.Fatal(err)
	}

	ticks(e, 17)
	s := e.Snapshot()
	want := 1.7 - rot.Duration
	if !near(s.Pose.Y, want) || !near(s.Pose.Theta, math.Pi/2) {
		t.Errorf("pose after 17 ticks = %+v, want y=%.4f", s.Pose, want)
	}
}
