// internal/order/validate.go
package order

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/trajectory"
	"fmt"
	"strconv"
)

// Validate 구조 검증. 차량 상태와 무관한 규칙만 본다
func Validate(o *Order) error {
	if o == nil {
		return apperr.NewValidationError("order", "", "order is nil")
	}
	if o.ID == "" {
		return apperr.NewValidationError("orderId", "", "order id is empty")
	}
	if o.UpdateID < 0 {
		return apperr.NewValidationError("orderUpdateId", strconv.Itoa(o.UpdateID), "must not be negative")
	}
	if len(o.Nodes) == 0 {
		return apperr.NewValidationError("nodes", "0", "order has no nodes")
	}
	if len(o.Edges) != len(o.Nodes)-1 {
		return apperr.NewValidationError("edges", strconv.Itoa(len(o.Edges)),
			fmt.Sprintf("expected %d edges for %d nodes", len(o.Nodes)-1, len(o.Nodes)))
	}

	if err := validateSequence(o); err != nil {
		return err
	}
	if err := validateRelease(o); err != nil {
		return err
	}
	if err := validateActions(o); err != nil {
		return err
	}
	return validateGeometry(o)
}

// validateSequence 노드/엣지 교차 순서와 엣지 끝점
func validateSequence(o *Order) error {
	prev := -1
	for i := range o.Nodes {
		n := &o.Nodes[i]
		if n.ID == "" {
			return apperr.NewValidationError(fmt.Sprintf("nodes[%d].nodeId", i), "", "node id is empty")
		}
		if n.SequenceID <= prev {
			return apperr.NewValidationError(fmt.Sprintf("nodes[%d].sequenceId", i), strconv.Itoa(n.SequenceID),
				"sequence ids must strictly increase")
		}
		prev = n.SequenceID

		if i == len(o.Edges) {
			break
		}
		e := &o.Edges[i]
		if e.ID == "" {
			return apperr.NewValidationError(fmt.Sprintf("edges[%d].edgeId", i), "", "edge id is empty")
		}
		if e.SequenceID <= prev {
			return apperr.NewValidationError(fmt.Sprintf("edges[%d].sequenceId", i), strconv.Itoa(e.SequenceID),
				"sequence ids must strictly increase")
		}
		prev = e.SequenceID

		if e.StartNodeID != n.ID {
			return apperr.NewValidationError(fmt.Sprintf("edges[%d].startNodeId", i), e.StartNodeID,
				fmt.Sprintf("edge must start at node %s", n.ID))
		}
		if e.EndNodeID != o.Nodes[i+1].ID {
			return apperr.NewValidationError(fmt.Sprintf("edges[%d].endNodeId", i), e.EndNodeID,
				fmt.Sprintf("edge must end at node %s", o.Nodes[i+1].ID))
		}
	}
	return nil
}

// validateRelease released 요소는 앞쪽 접두사를 이루고 노드로 끝나야 한다
func validateRelease(o *Order) error {
	if !o.Nodes[0].Released {
		return apperr.NewValidationError("nodes[0].released", "false", "first node must be released")
	}
	horizon := false
	for i := range o.Nodes {
		if i > 0 {
			e := &o.Edges[i-1]
			if horizon && e.Released {
				return apperr.NewValidationError(fmt.Sprintf("edges[%d].released", i-1), "true", "released edge after unreleased element")
			}
			if !e.Released {
				horizon = true
			}
		}
		n := &o.Nodes[i]
		if horizon && n.Released {
			return apperr.NewValidationError(fmt.Sprintf("nodes[%d].released", i), "true", "released node after unreleased element")
		}
		if !n.Released {
			if i > 0 && o.Edges[i-1].Released {
				return apperr.NewValidationError(fmt.Sprintf("nodes[%d].released", i), "false", "released edge must end at a released node")
			}
			horizon = true
		}
	}
	return nil
}

func validateActions(o *Order) error {
	seen := map[string]bool{}
	check := func(owner string, specs []action.Spec) error {
		for i, s := range specs {
			field := fmt.Sprintf("%s.actions[%d]", owner, i)
			if s.ID == "" {
				return apperr.NewValidationError(field+".actionId", "", "action id is empty")
			}
			if seen[s.ID] {
				return apperr.NewValidationError(field+".actionId", s.ID, "duplicate action id")
			}
			seen[s.ID] = true
			if !constants.IsValidBlockingType(string(s.Blocking)) {
				return apperr.NewValidationError(field+".blockingType", string(s.Blocking), "unknown blocking type")
			}
		}
		return nil
	}

	for i := range o.Nodes {
		if err := check(fmt.Sprintf("nodes[%d]", i), o.Nodes[i].Actions); err != nil {
			return err
		}
	}
	for i := range o.Edges {
		if err := check(fmt.Sprintf("edges[%d]", i), o.Edges[i].Actions); err != nil {
			return err
		}
	}
	return nil
}

func validateGeometry(o *Order) error {
	for i := range o.Nodes {
		if o.Nodes[i].Position == nil {
			return apperr.NewValidationError(fmt.Sprintf("nodes[%d].nodePosition", i), o.Nodes[i].ID, "node has no position")
		}
	}
	for i := range o.Edges {
		e := &o.Edges[i]
		if len(e.ControlPoints) == 0 {
			continue
		}
		if e.MaxSpeed < 0 {
			return apperr.NewValidationError(fmt.Sprintf("edges[%d].maxSpeed", i), fmt.Sprintf("%v", e.MaxSpeed), "must not be negative")
		}
		if _, err := trajectory.NewBezier(e.ControlPoints, 1); err != nil {
			return apperr.NewValidationError(fmt.Sprintf("edges[%d].trajectory", i), e.ID, err.Error())
		}
	}
	return nil
}

// CheckStart 새 오더의 첫 노드가 현재 자세에서 허용 편차 안에 있는지
func CheckStart(o *Order, pose trajectory.Pose, defaultDeviation float64) error {
	first := &o.Nodes[0]
	if first.Position == nil {
		return apperr.NewValidationError("nodes[0].nodePosition", first.ID, "node has no position")
	}
	dev := first.AllowedDeviationXY
	if dev <= 0 {
		dev = defaultDeviation
	}
	dist := first.Position.Distance(pose.Point())
	if dist > dev {
		return apperr.NewValidationError("nodes[0].nodePosition", first.ID,
			fmt.Sprintf("vehicle is %.3f m from first node, allowed %.3f m", dist, dev))
	}
	return nil
}
