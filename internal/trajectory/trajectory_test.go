package trajectory

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-9

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi stays pi", math.Pi, math.Pi},
		{"minus pi wraps to pi", -math.Pi, math.Pi},
		{"three halves pi", 3 * math.Pi / 2, -math.Pi / 2},
		{"full turn", 2 * math.Pi, 0},
		{"many turns", 7*math.Pi + 0.25, -math.Pi + 0.25},
		{"negative quarter", -math.Pi / 2, -math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAngle(tt.in)
			if !near(got, tt.want, 1e-12) {
				t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got <= -math.Pi || got > math.Pi {
				t.Errorf("NormalizeAngle(%v) = %v outside (-pi, pi]", tt.in, got)
			}
		})
	}
}

func TestRotationTakesShortestPath(t *testing.T) {
	seg, err := NewRotation(Pose{}, 3*math.Pi/2, 1)
	if err != nil {
		t.Fatalf("NewRotation: %v", err)
	}
	if !near(seg.Delta, -math.Pi/2, tol) {
		t.Fatalf("delta = %v, want -pi/2", seg.Delta)
	}

	prev := 0.0
	for i := 1; i <= 10; i++ {
		p := Evaluate(seg, seg.Duration*float64(i)/10)
		if p.Theta > prev+tol {
			t.Fatalf("theta increased at step %d: %v -> %v", i, prev, p.Theta)
		}
		if p.Theta > 0 {
			t.Fatalf("theta went positive at step %d: %v", i, p.Theta)
		}
		prev = p.Theta
	}
	if end := Evaluate(seg, seg.Duration); !near(end.Theta, -math.Pi/2, tol) {
		t.Errorf("end theta = %v, want -pi/2", end.Theta)
	}
}

func TestRotationAcrossPiBoundary(t *testing.T) {
	seg, err := NewRotation(Pose{Theta: 3}, -3, 0.5)
	if err != nil {
		t.Fatalf("NewRotation: %v", err)
	}
	if seg.Delta <= 0 {
		t.Fatalf("expected positive delta across pi, got %v", seg.Delta)
	}
	if !near(seg.Duration, (2*math.Pi-6)/0.5, 1e-9) {
		t.Errorf("duration = %v", seg.Duration)
	}
	mid := Evaluate(seg, seg.Duration/2)
	if !near(math.Abs(mid.Theta), math.Pi, 1e-9) {
		t.Errorf("midpoint theta = %v, want +-pi", mid.Theta)
	}
}

func TestTranslationInterpolatesAndClamps(t *testing.T) {
	seg, err := NewTranslation(Pose{}, Pose{X: 10}, 2)
	if err != nil {
		t.Fatalf("NewTranslation: %v", err)
	}
	if !near(seg.Duration, 5, tol) {
		t.Fatalf("duration = %v, want 5", seg.Duration)
	}

	mid := Evaluate(seg, 2.5)
	if !near(mid.X, 5, tol) || !near(mid.Y, 0, tol) {
		t.Errorf("mid = %+v", mid)
	}
	over := Evaluate(seg, 100)
	if over != seg.End {
		t.Errorf("evaluate past duration = %+v, want %+v", over, seg.End)
	}
	if before := Evaluate(seg, -1); before != seg.Start {
		t.Errorf("evaluate before start = %+v", before)
	}
}

func TestTranslationAccumulatedTicksComplete(t *testing.T) {
	seg, err := NewTranslation(Pose{}, Pose{X: 10}, 1)
	if err != nil {
		t.Fatalf("NewTranslation: %v", err)
	}
	elapsed := 0.0
	for i := 0; i < 100; i++ {
		elapsed += 0.1
	}
	if !seg.Done(elapsed) {
		t.Fatalf("segment not done after 100 ticks of 0.1s (elapsed=%v)", elapsed)
	}
	if p := Evaluate(seg, elapsed); p.X != 10 {
		t.Errorf("x = %v, want exactly 10", p.X)
	}
}

func TestBezierEndpoints(t *testing.T) {
	sets := [][]Point{
		{{0, 0}, {4, 0}},
		{{0, 0}, {2, 2}, {4, 0}},
		{{0, 0}, {1, 3}, {3, 3}, {4, 0}},
		{{1, 1}, {2, 5}, {4, -2}, {6, 3}, {8, 0}},
	}

	for _, cps := range sets {
		seg, err := NewBezier(cps, 1)
		if err != nil {
			t.Fatalf("NewBezier(%d points): %v", len(cps), err)
		}
		start := Evaluate(seg, 0)
		if start.X != cps[0].X || start.Y != cps[0].Y {
			t.Errorf("%d points: start = %+v, want %+v", len(cps), start, cps[0])
		}
		last := cps[len(cps)-1]
		for _, e := range []float64{seg.Duration, seg.Duration + 3} {
			end := Evaluate(seg, e)
			if end.X != last.X || end.Y != last.Y {
				t.Errorf("%d points: end at %v = %+v, want %+v", len(cps), e, end, last)
			}
		}
	}
}

func TestBezierHeadingFollowsTangent(t *testing.T) {
	seg, err := NewBezier([]Point{{0, 0}, {0, 2}, {2, 2}}, 1)
	if err != nil {
		t.Fatalf("NewBezier: %v", err)
	}
	if !near(seg.Start.Theta, math.Pi/2, 1e-9) {
		t.Errorf("start heading = %v, want pi/2", seg.Start.Theta)
	}
	if !near(seg.End.Theta, 0, 1e-9) {
		t.Errorf("end heading = %v, want 0", seg.End.Theta)
	}
}

func TestBezierDurationUsesArcLength(t *testing.T) {
	// 단위 원의 1/4 을 근사하는 3차 베지어
	k := 0.5522847498
	seg, err := NewBezier([]Point{{1, 0}, {1, k}, {k, 1}, {0, 1}}, 1)
	if err != nil {
		t.Fatalf("NewBezier: %v", err)
	}
	chord := math.Sqrt2
	if seg.Duration <= chord {
		t.Fatalf("duration %v should exceed chord %v", seg.Duration, chord)
	}
	if !near(seg.Length, math.Pi/2, 1e-3) {
		t.Errorf("length = %v, want ~%v", seg.Length, math.Pi/2)
	}
}

func TestBezierDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"single point", []Point{{1, 1}}},
		{"coincident points", []Point{{1, 1}, {1, 1}, {1, 1}}},
		{"nan", []Point{{0, 0}, {math.NaN(), 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBezier(tt.points, 1)
			var te *Error
			if !errors.As(err, &te) {
				t.Fatalf("expected trajectory error, got %v", err)
			}
			if te.Kind != KindBezier {
				t.Errorf("kind = %v", te.Kind)
			}
		})
	}
}

func TestPalletRotationLeavesPosition(t *testing.T) {
	seg, err := NewPalletRotation(0, math.Pi/2, math.Pi/4)
	if err != nil {
		t.Fatalf("NewPalletRotation: %v", err)
	}
	if seg.Kind != KindPalletRotation {
		t.Fatalf("kind = %v", seg.Kind)
	}
	if !near(seg.Duration, 2, tol) {
		t.Errorf("duration = %v, want 2", seg.Duration)
	}
	mid := Evaluate(seg, 1)
	if !near(mid.Theta, math.Pi/4, tol) || mid.X != 0 || mid.Y != 0 {
		t.Errorf("mid = %+v", mid)
	}
}

func TestInvalidSpeeds(t *testing.T) {
	if _, err := NewTranslation(Pose{}, Pose{X: 1}, 0); err == nil {
		t.Error("translation with zero speed should fail")
	}
	if _, err := NewRotation(Pose{}, 1, -1); err == nil {
		t.Error("rotation with negative speed should fail")
	}
	if _, err := NewPalletRotation(0, 1, 0); err == nil {
		t.Error("pallet rotation with zero speed should fail")
	}
	if _, err := NewBezier([]Point{{0, 0}, {1, 0}}, 0); err == nil {
		t.Error("bezier with zero speed should fail")
	}
}
