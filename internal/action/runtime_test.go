package action

import (
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/trajectory"
	"math"
	"testing"
)

func testEnv() Env {
	return Env{
		Limits: Limits{Speed: 1, AngularSpeed: 1, PalletAngularSpeed: 0.5, ActionTime: 0.5},
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"translate", TypeTranslation},
		{"rotate", TypeRotation},
		{"bezierMove", TypeBezierMove},
		{"rotatePallet", TypePalletRotation},
		{"startPause", TypePause},
		{"pause", TypePause},
		{"stopPause", TypeResume},
		{"downloadMap", TypeMapUpload},
		{"uploadMap", TypeMapUpload},
		{"deleteMap", TypeMapDelete},
		{"cancelOrder", TypeCancelOrder},
		{"doSomethingElse", TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseType(tt.name); got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestTimedActionLifecycle(t *testing.T) {
	run := NewRun(NewSpec("a1", "wait", BlockingHard, map[string]interface{}{"duration": 0.3}))
	if run.Status() != constants.ActionStatusWaiting {
		t.Fatalf("initial status = %s", run.Status())
	}
	if err := run.Start(testEnv()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.Status() != constants.ActionStatusRunning {
		t.Fatalf("status after start = %s", run.Status())
	}

	run.Tick(0.1)
	run.Tick(0.1)
	if run.Status() != constants.ActionStatusRunning {
		t.Fatalf("finished too early: %s", run.Status())
	}
	if got := run.Tick(0.1); got != constants.ActionStatusFinished {
		t.Fatalf("status after 3 ticks = %s", got)
	}
	// 끝난 뒤의 tick 은 아무 영향 없음
	run.Tick(0.1)
	if run.elapsed > 0.3+1e-9 {
		t.Errorf("elapsed kept growing after finish: %v", run.elapsed)
	}
}

func TestPauseFreezesTimer(t *testing.T) {
	run := NewRun(NewSpec("a1", "wait", BlockingNone, map[string]interface{}{"duration": "0.2"}))
	if err := run.Start(testEnv()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	run.Tick(0.1)
	if !run.Pause() {
		t.Fatal("Pause returned false")
	}
	for i := 0; i < 5; i++ {
		run.Tick(0.1)
	}
	if run.Status() != constants.ActionStatusPaused {
		t.Fatalf("status while paused = %s", run.Status())
	}
	if !run.Resume() {
		t.Fatal("Resume returned false")
	}
	if got := run.Tick(0.1); got != constants.ActionStatusFinished {
		t.Errorf("status after resume tick = %s", got)
	}
}

func TestCancel(t *testing.T) {
	running := NewRun(NewSpec("a1", "wait", BlockingNone, nil))
	if err := running.Start(testEnv()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	running.Cancel()
	if running.Status() != constants.ActionStatusFailed || running.ResultDescription() != ReasonCanceled {
		t.Errorf("cancel running: status=%s result=%q", running.Status(), running.ResultDescription())
	}

	waiting := NewRun(NewSpec("a2", "pick", BlockingSoft, nil))
	waiting.Cancel()
	if waiting.Status() != constants.ActionStatusFailed {
		t.Errorf("cancel waiting: status=%s", waiting.Status())
	}

	done := NewRun(NewSpec("a3", "stateRequest", BlockingNone, nil))
	if err := done.Start(testEnv()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if done.Status() != constants.ActionStatusFinished {
		t.Fatalf("stateRequest should finish immediately, got %s", done.Status())
	}
	done.Cancel()
	if done.Status() != constants.ActionStatusFinished {
		t.Errorf("cancel must not touch a finished run, got %s", done.Status())
	}
}

func TestStartFailures(t *testing.T) {
	driving := testEnv()
	driving.Driving = true

	tests := []struct {
		name         string
		spec         Spec
		env          Env
		precondition bool
	}{
		{"unknown type", NewSpec("a", "teleport", BlockingNone, nil), testEnv(), false},
		{"pallet while driving", NewSpec("a", "rotatePallet", BlockingNone, map[string]interface{}{"angle": 1.0}), driving, true},
		{"translation missing vector", NewSpec("a", "translate", BlockingHard, nil), testEnv(), false},
		{"bad number", NewSpec("a", "rotate", BlockingHard, map[string]interface{}{"angle": "abc"}), testEnv(), false},
		{"degenerate bezier", NewSpec("a", "bezierMove", BlockingHard, map[string]interface{}{
			"controlPoints": []interface{}{map[string]interface{}{"x": 0.0, "y": 0.0}},
		}), testEnv(), true},
		{"init position while order active", NewSpec("a", "initPosition", BlockingHard, map[string]interface{}{"x": 1.0, "y": 2.0}),
			Env{OrderActive: true, Limits: testEnv().Limits}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := NewRun(tt.spec)
			err := run.Start(tt.env)
			if err == nil {
				t.Fatal("expected Start to fail")
			}
			if run.Status() != constants.ActionStatusFailed {
				t.Errorf("status = %s, want FAILED", run.Status())
			}
			if run.ResultDescription() == "" {
				t.Error("missing result description")
			}
			if tt.precondition && !apperr.IsPreconditionError(err) {
				t.Errorf("expected precondition error, got %T %v", err, err)
			}
			if !tt.precondition && !apperr.IsValidationError(err) {
				t.Errorf("expected validation error, got %T %v", err, err)
			}
		})
	}
}

func TestStartTwiceIsRejected(t *testing.T) {
	run := NewRun(NewSpec("a", "wait", BlockingNone, nil))
	if err := run.Start(testEnv()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := run.Start(testEnv()); err == nil {
		t.Error("second Start should fail")
	}
	if run.Status() != constants.ActionStatusRunning {
		t.Errorf("second Start changed status to %s", run.Status())
	}
}

func TestTranslationActionPose(t *testing.T) {
	env := testEnv()
	env.Pose = trajectory.Pose{X: 1, Y: 1, Theta: 0.5}
	run := NewRun(NewSpec("a", "translate", BlockingHard, map[string]interface{}{"dx": 2.0, "speed": 5.0}))
	if err := run.Start(env); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// speed 는 차량 상한 1 m/s 로 제한된다
	if d := run.segment.Duration; math.Abs(d-2) > 1e-9 {
		t.Fatalf("duration = %v, want 2", d)
	}
	run.Tick(1)
	pose, ok := run.Pose()
	if !ok {
		t.Fatal("translation should expose a pose")
	}
	if math.Abs(pose.X-2) > 1e-9 || math.Abs(pose.Y-1) > 1e-9 || math.Abs(pose.Theta-0.5) > 1e-9 {
		t.Errorf("pose = %+v", pose)
	}
}

func TestBezierActionStartsAtVehicle(t *testing.T) {
	env := testEnv()
	env.Pose = trajectory.Pose{X: 0, Y: 0}
	run := NewRun(NewSpec("a", "bezierMove", BlockingHard, map[string]interface{}{
		"controlPoints": []interface{}{
			[]interface{}{1.0, 1.0},
			map[string]interface{}{"x": 2.0, "y": 0.0},
		},
	}))
	if err := run.Start(env); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := len(run.segment.ControlPoints); n != 3 {
		t.Fatalf("control points = %d, want 3 (vehicle position prepended)", n)
	}
	pose, _ := run.Pose()
	if pose.X != 0 || pose.Y != 0 {
		t.Errorf("start pose = %+v", pose)
	}
}

func TestCancelOrderWaitsForEngine(t *testing.T) {
	run := NewRun(NewSpec("c", "cancelOrder", BlockingNone, nil))
	if err := run.Start(testEnv()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	run.Tick(10)
	if run.Status() != constants.ActionStatusRunning {
		t.Fatalf("cancelOrder finished on its own: %s", run.Status())
	}
	if err := run.Finish("stopped"); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if run.Status() != constants.ActionStatusFinished || run.ResultDescription() != "stopped" {
		t.Errorf("status=%s result=%q", run.Status(), run.ResultDescription())
	}
}
