// internal/trajectory/segment.go
package trajectory

import (
	"fmt"
	"math"
)

// Kind 궤적 세그먼트 종류
type Kind int

const (
	KindTranslation Kind = iota
	KindRotation
	KindBezier
	KindPalletRotation
)

func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindRotation:
		return "rotation"
	case KindBezier:
		return "bezier"
	case KindPalletRotation:
		return "pallet_rotation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// completionEpsilon 누적된 tick 오차로 끝점에 도달하지 못하는 것을 막는다
const completionEpsilon = 1e-9

// Error 생성 시점에 발견된 궤적 기하 오류
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s trajectory: %s", e.Kind, e.Reason)
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Segment 시간으로 매개화된 하나의 움직임.
// 생성자를 통과한 세그먼트에 대해 Evaluate 는 실패하지 않는다.
type Segment struct {
	Kind          Kind
	Start         Pose
	End           Pose
	ControlPoints []Point
	Delta         float64 // 회전 세그먼트의 부호 있는 회전량
	Length        float64 // 이동 거리(m) 또는 회전각(rad)
	Duration      float64 // 초
}

// NewTranslation 직선 이동. 방향은 시작/끝 Theta 사이 최단 경로로 보간된다
func NewTranslation(start, end Pose, speed float64) (*Segment, error) {
	if speed <= 0 || math.IsNaN(speed) {
		return nil, newError(KindTranslation, "speed must be positive, got %v", speed)
	}
	start.Theta = NormalizeAngle(start.Theta)
	end.Theta = NormalizeAngle(end.Theta)
	dist := start.DistanceTo(end)
	return &Segment{
		Kind:     KindTranslation,
		Start:    start,
		End:      end,
		Delta:    AngleDelta(start.Theta, end.Theta),
		Length:   dist,
		Duration: dist / speed,
	}, nil
}

// NewRotation 제자리 회전. 항상 짧은 방향으로 돈다
func NewRotation(start Pose, target, angularSpeed float64) (*Segment, error) {
	if angularSpeed <= 0 || math.IsNaN(angularSpeed) {
		return nil, newError(KindRotation, "angular speed must be positive, got %v", angularSpeed)
	}
	start.Theta = NormalizeAngle(start.Theta)
	delta := AngleDelta(start.Theta, target)
	end := start
	end.Theta = NormalizeAngle(start.Theta + delta)
	return &Segment{
		Kind:     KindRotation,
		Start:    start,
		End:      end,
		Delta:    delta,
		Length:   math.Abs(delta),
		Duration: math.Abs(delta) / angularSpeed,
	}, nil
}

// NewPalletRotation 적재물 기준 방향 회전. 차량 자세가 아닌 보조 방향값에만 적용된다
func NewPalletRotation(current, target, angularSpeed float64) (*Segment, error) {
	if angularSpeed <= 0 || math.IsNaN(angularSpeed) {
		return nil, newError(KindPalletRotation, "angular speed must be positive, got %v", angularSpeed)
	}
	seg, _ := NewRotation(Pose{Theta: current}, target, angularSpeed)
	seg.Kind = KindPalletRotation
	return seg, nil
}

// NewBezier 제어점 2개 이상의 베지어 곡선. 차수는 제어점 수로 결정된다
func NewBezier(points []Point, speed float64) (*Segment, error) {
	if speed <= 0 || math.IsNaN(speed) {
		return nil, newError(KindBezier, "speed must be positive, got %v", speed)
	}
	if len(points) < 2 {
		return nil, newError(KindBezier, "need at least 2 control points, got %d", len(points))
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, newError(KindBezier, "control point %d is not finite", i)
		}
	}

	cps := make([]Point, len(points))
	copy(cps, points)

	length := arcLength(cps, arcSamples)
	if length < 1e-6 {
		return nil, newError(KindBezier, "control points span zero length")
	}

	first, last := cps[0], cps[len(cps)-1]
	return &Segment{
		Kind:          KindBezier,
		Start:         Pose{X: first.X, Y: first.Y, Theta: bezierHeading(cps, 0)},
		End:           Pose{X: last.X, Y: last.Y, Theta: bezierHeading(cps, 1)},
		ControlPoints: cps,
		Length:        length,
		Duration:      length / speed,
	}, nil
}

// Done elapsed 가 세그먼트 끝에 도달했는지
func (s *Segment) Done(elapsed float64) bool {
	return elapsed >= s.Duration-completionEpsilon
}

// Progress 0..1 로 고정된 진행률
func (s *Segment) Progress(elapsed float64) float64 {
	if s.Done(elapsed) || s.Duration <= 0 {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return elapsed / s.Duration
}

// Evaluate elapsed 시점의 Pose. duration 을 넘으면 끝 Pose 로 고정된다.
// 팔레트 회전은 Theta 에 팔레트 방향을 담고 X, Y 는 그대로 둔다.
func Evaluate(s *Segment, elapsed float64) Pose {
	f := s.Progress(elapsed)
	if f >= 1 {
		return s.End
	}

	switch s.Kind {
	case KindTranslation:
		return Pose{
			X:     s.Start.X + (s.End.X-s.Start.X)*f,
			Y:     s.Start.Y + (s.End.Y-s.Start.Y)*f,
			Theta: NormalizeAngle(s.Start.Theta + s.Delta*f),
		}
	case KindRotation, KindPalletRotation:
		return Pose{
			X:     s.Start.X,
			Y:     s.Start.Y,
			Theta: NormalizeAngle(s.Start.Theta + s.Delta*f),
		}
	case KindBezier:
		p := deCasteljau(s.ControlPoints, f)
		return Pose{X: p.X, Y: p.Y, Theta: bezierHeading(s.ControlPoints, f)}
	default:
		return s.End
	}
}
