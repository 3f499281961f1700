// internal/trajectory/pose.go
package trajectory

import "math"

// Point 맵 좌표계의 2D 점
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pose 맵 좌표계 위치와 방향. Theta 는 항상 (-π, π] 범위
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose Theta 를 정규화한 Pose 생성
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: NormalizeAngle(theta)}
}

// Point 위치 성분만 반환
func (p Pose) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

// DistanceTo 두 Pose 사이의 평면 거리
func (p Pose) DistanceTo(q Pose) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Distance 두 점 사이의 거리
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// NormalizeAngle 각도를 (-π, π] 범위로 정규화
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// AngleDelta from 에서 to 로 가는 최단 회전량 (부호 포함)
func AngleDelta(from, to float64) float64 {
	return NormalizeAngle(to - from)
}

// Heading from 에서 to 를 바라보는 방향
func Heading(from, to Point) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}
