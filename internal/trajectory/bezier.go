// internal/trajectory/bezier.go
package trajectory

import "math"

// arcSamples 호 길이 근사에 쓰는 구간 수
const arcSamples = 100

// deCasteljau t 위치의 곡선 점
func deCasteljau(points []Point, t float64) Point {
	work := make([]Point, len(points))
	copy(work, points)
	for n := len(work) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			work[i] = Point{
				X: (1-t)*work[i].X + t*work[i+1].X,
				Y: (1-t)*work[i].Y + t*work[i+1].Y,
			}
		}
	}
	return work[0]
}

// derivative 도함수 곡선의 제어점 n*(P[i+1]-P[i])
func derivative(points []Point) []Point {
	n := len(points) - 1
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = Point{
			X: float64(n) * (points[i+1].X - points[i].X),
			Y: float64(n) * (points[i+1].Y - points[i].Y),
		}
	}
	return out
}

// bezierHeading 접선 방향. 접선이 0 이면 가까운 점에서 다시 구하고, 그래도 0 이면 현을 쓴다
func bezierHeading(points []Point, t float64) float64 {
	d := derivative(points)
	for _, at := range []float64{t, clamp01(t + 1e-3), clamp01(t - 1e-3)} {
		tan := deCasteljau(d, at)
		if math.Hypot(tan.X, tan.Y) > 1e-12 {
			return math.Atan2(tan.Y, tan.X)
		}
	}
	first, last := points[0], points[len(points)-1]
	if first.Distance(last) > 1e-12 {
		return Heading(first, last)
	}
	return 0
}

// arcLength 구간 샘플링으로 곡선 길이 근사
func arcLength(points []Point, samples int) float64 {
	total := 0.0
	prev := points[0]
	for i := 1; i <= samples; i++ {
		p := deCasteljau(points, float64(i)/float64(samples))
		total += prev.Distance(p)
		prev = p
	}
	return total
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
