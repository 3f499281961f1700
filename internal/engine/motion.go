// internal/engine/motion.go
package engine

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/order"
	"agv-simulator/internal/trajectory"
	"fmt"
	"math"
)

const (
	distanceEpsilon = 1e-6
	angleEpsilon    = 1e-6
)

// motion 엣지 하나를 지나는 세그먼트 묶음: 출발 방향 회전, 이동, 노드 방향 회전
type motion struct {
	edge     *order.Edge
	target   *order.Node
	segments []*trajectory.Segment
	current  int
	elapsed  float64 // 현재 세그먼트 안에서의 시간. pause 동안 유지된다
	canceled bool    // 현재 세그먼트만 마치고 노드 도착 없이 멈춘다
}

// planEdge 현재 자세에서 target 노드까지의 세그먼트 계획
func planEdge(from trajectory.Pose, edge *order.Edge, target *order.Node, limits action.Limits) (*motion, error) {
	if target.Position == nil {
		return nil, fmt.Errorf("node %s has no position", target.ID)
	}

	speed := limits.Speed
	if edge.MaxSpeed > 0 && edge.MaxSpeed < speed {
		speed = edge.MaxSpeed
	}

	m := &motion{edge: edge, target: target}
	pose := from

	rotate := func(to float64) error {
		if math.Abs(trajectory.AngleDelta(pose.Theta, to)) < angleEpsilon {
			return nil
		}
		seg, err := trajectory.NewRotation(pose, to, limits.AngularSpeed)
		if err != nil {
			return err
		}
		m.segments = append(m.segments, seg)
		pose = seg.End
		return nil
	}

	end := *target.Position
	if edge.Straight() {
		if pose.Point().Distance(end) > distanceEpsilon {
			if err := rotate(trajectory.Heading(pose.Point(), end)); err != nil {
				return nil, err
			}
			seg, err := trajectory.NewTranslation(pose, trajectory.NewPose(end.X, end.Y, pose.Theta), speed)
			if err != nil {
				return nil, err
			}
			m.segments = append(m.segments, seg)
			pose = seg.End
		}
	} else {
		cps := append([]trajectory.Point(nil), edge.ControlPoints...)
		if cps[0].Distance(pose.Point()) > distanceEpsilon {
			cps = append([]trajectory.Point{pose.Point()}, cps...)
		}
		if cps[len(cps)-1].Distance(end) > distanceEpsilon {
			cps = append(cps, end)
		}
		curve, err := trajectory.NewBezier(cps, speed)
		if err != nil {
			return nil, err
		}
		if err := rotate(curve.Start.Theta); err != nil {
			return nil, err
		}
		m.segments = append(m.segments, curve)
		pose = curve.End
	}

	if target.Theta != nil {
		if err := rotate(*target.Theta); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *motion) done() bool {
	return m.current >= len(m.segments)
}

func (m *motion) segment() *trajectory.Segment {
	if m.done() {
		return nil
	}
	return m.segments[m.current]
}

// advance dt 만큼 진행한 자세. 세그먼트가 끝나고 남은 시간은 다음 세그먼트에서 이어 쓴다
func (m *motion) advance(dt float64) trajectory.Pose {
	for {
		seg := m.segments[m.current]
		m.elapsed += dt
		pose := trajectory.Evaluate(seg, m.elapsed)
		if !seg.Done(m.elapsed) {
			return pose
		}
		dt = m.elapsed - seg.Duration
		m.current++
		m.elapsed = 0
		if m.canceled {
			m.current = len(m.segments)
		}
		if m.done() || dt <= 0 {
			return pose
		}
	}
}

// stopAfterCurrent 취소 시 현재 세그먼트까지만 진행
func (m *motion) stopAfterCurrent() {
	m.canceled = true
}
