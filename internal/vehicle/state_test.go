package vehicle

import (
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/trajectory"
	"fmt"
	"math"
	"testing"
)

func TestNewNormalizesPose(t *testing.T) {
	s := New(trajectory.Pose{X: 1, Y: 2, Theta: 3 * math.Pi}, "map", true)
	if math.Abs(s.Pose.Theta-math.Pi) > 1e-9 {
		t.Errorf("theta = %v, want π", s.Pose.Theta)
	}
	if s.Battery.Charge != 100 || s.OrderStatus != constants.OrderStatusNone {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestAddErrorCapsList(t *testing.T) {
	s := New(trajectory.Pose{}, "", true)
	for i := 0; i < MaxErrors+10; i++ {
		s.AddError(NewError(constants.ErrorTypeAction, fmt.Sprintf("e%d", i)))
	}
	if len(s.Errors) != MaxErrors {
		t.Fatalf("len = %d, want %d", len(s.Errors), MaxErrors)
	}
	if s.Errors[0].Description != "e10" {
		t.Errorf("oldest kept = %s, want e10", s.Errors[0].Description)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New(trajectory.Pose{}, "", true)
	theta := 1.0
	s.NodeStates = []NodeState{{ID: "A", Position: &trajectory.Point{X: 1}, Theta: &theta}}
	s.AddError(NewError(constants.ErrorTypeValidation, "bad", ErrorReference{Key: RefOrderID, Value: "o1"}))
	s.ActionStates = []ActionState{{ID: "a1", Status: constants.ActionStatusRunning}}

	c := s.Clone()
	c.NodeStates[0].Position.X = 42
	*c.NodeStates[0].Theta = 2
	c.Errors[0].References[0].Value = "changed"
	c.ActionStates[0].Status = constants.ActionStatusFailed

	if s.NodeStates[0].Position.X != 1 || *s.NodeStates[0].Theta != 1 {
		t.Error("node state shared with clone")
	}
	if v, _ := s.Errors[0].Reference(RefOrderID); v != "o1" {
		t.Error("error references shared with clone")
	}
	if a, _ := s.Action("a1"); a.Status != constants.ActionStatusRunning {
		t.Error("action states shared with clone")
	}
}

func TestActionLookup(t *testing.T) {
	s := New(trajectory.Pose{}, "", true)
	s.ActionStates = []ActionState{
		{ID: "a1", Status: constants.ActionStatusWaiting},
		{ID: "a2", Status: constants.ActionStatusFinished},
	}
	if a, ok := s.Action("a2"); !ok || a.Status != constants.ActionStatusFinished {
		t.Errorf("a2 = %+v, %v", a, ok)
	}
	if _, ok := s.Action("missing"); ok {
		t.Error("unknown action id found")
	}
}

func TestMapsAndLoads(t *testing.T) {
	s := New(trajectory.Pose{}, "", true)
	s.UpsertMap(MapInfo{ID: "m1", Version: "1"})
	s.UpsertMap(MapInfo{ID: "m1", Version: "2"})
	if len(s.Maps) != 1 || s.Maps[0].Version != "2" {
		t.Errorf("maps = %+v", s.Maps)
	}
	if !s.RemoveMap("m1") || s.RemoveMap("m1") {
		t.Error("RemoveMap result mismatch")
	}

	s.AddLoad(Load{ID: "L1"})
	s.AddLoad(Load{ID: "L2"})
	if !s.RemoveLoad("L1") || len(s.Loads) != 1 {
		t.Errorf("loads = %+v", s.Loads)
	}
	if !s.RemoveLoad("") || len(s.Loads) != 0 {
		t.Error("RemoveLoad without id should drop the last load")
	}
	if s.RemoveLoad("") {
		t.Error("RemoveLoad on empty list returned true")
	}
}

func TestUpdateBattery(t *testing.T) {
	s := New(trajectory.Pose{}, "", true)
	s.Driving = true
	s.UpdateBattery(10, 1, 2)
	if s.Battery.Charge != 90 {
		t.Errorf("charge after driving = %v", s.Battery.Charge)
	}
	s.Battery.Charging = true
	s.UpdateBattery(100, 1, 2)
	if s.Battery.Charge != 100 {
		t.Errorf("charge must clamp at 100, got %v", s.Battery.Charge)
	}
}

func TestUpdateMotion(t *testing.T) {
	// 북쪽을 보고 y 방향으로 0.1m 이동하면 전진 속도 1 m/s
	s := New(trajectory.Pose{X: 1, Y: 0.1, Theta: math.Pi / 2}, "", true)
	s.UpdateMotion(trajectory.Pose{X: 1, Y: 0, Theta: math.Pi / 2}, 0.1)
	if math.Abs(s.Velocity.VX-1) > 1e-9 || math.Abs(s.Velocity.VY) > 1e-9 {
		t.Errorf("velocity = %+v, want vx=1 vy=0", s.Velocity)
	}

	// 제자리 회전
	s.SetPose(trajectory.Pose{X: 1, Y: 0.1, Theta: math.Pi/2 + 0.1})
	s.UpdateMotion(trajectory.Pose{X: 1, Y: 0.1, Theta: math.Pi / 2}, 0.1)
	if math.Abs(s.Velocity.Omega-1) > 1e-9 || math.Abs(s.Velocity.VX) > 1e-9 {
		t.Errorf("velocity = %+v, want omega=1", s.Velocity)
	}
	if math.Abs(s.DistanceSinceLastNode-0.1) > 1e-9 {
		t.Errorf("distance = %v, want 0.1", s.DistanceSinceLastNode)
	}
}
