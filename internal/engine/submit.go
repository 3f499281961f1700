// internal/engine/submit.go
package engine

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/order"
	"agv-simulator/internal/vehicle"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// errAlreadyApplied 같은 orderId/orderUpdateId 재전송
var errAlreadyApplied = errors.New("order already applied")

// InstantResult instant action 하나의 수락 결과. Err 가 nil 이면 수락
type InstantResult struct {
	ActionID string
	Err      error
}

// SubmitOrder 오더 검증 후 큐에 넣는다. nil 이면 수락.
// 구조 검증과 마지막 스냅샷 기준 검사는 여기서 끝나고 상태는 바뀌지 않는다
func (e *Engine) SubmitOrder(o *order.Order) error {
	if o == nil {
		return apperr.NewValidationError("order", "", "order is nil")
	}
	o = o.Clone()
	order.Resolve(o, e.params.Map)
	if err := order.Validate(o); err != nil {
		return err
	}

	snap := e.snapshot.Load()
	if err := precheck(o, snap, e.params.AllowedDeviationXY); err != nil {
		if errors.Is(err, errAlreadyApplied) {
			e.log.WithFields(logrus.Fields{
				"orderId":       o.ID,
				"orderUpdateId": o.UpdateID,
			}).Debug("Order already applied, ignoring")
			return nil
		}
		return err
	}

	e.enqueue(command{order: o})
	return nil
}

// precheck 마지막 스냅샷 기준 검사. 제어 루프에서 admit 으로 다시 확인한다
func precheck(o *order.Order, snap *vehicle.State, deviation float64) error {
	active := snap.OrderID
	if o.ID == active || (active == "" && snap.LastOrderID != "" && o.ID == snap.LastOrderID) {
		switch {
		case o.UpdateID == snap.LastOrderUpdateID:
			return errAlreadyApplied
		case o.UpdateID < snap.LastOrderUpdateID:
			return apperr.NewConcurrencyViolation(o.ID, o.UpdateID,
				fmt.Sprintf("update id must be greater than %d", snap.LastOrderUpdateID))
		}
		return nil
	}

	if !snap.PositionInitialized {
		return apperr.NewValidationError("position", "", "position not initialized")
	}
	if err := order.CheckStart(o, snap.Pose, deviation); err != nil {
		return err
	}
	if active == "" {
		return nil
	}
	if snap.Driving || releasedAhead(snap.NodeStates) {
		return apperr.NewValidationError("orderId", o.ID, fmt.Sprintf("order %s is still active", active))
	}
	return nil
}

func releasedAhead(nodes []vehicle.NodeState) bool {
	for _, n := range nodes {
		if n.Released {
			return true
		}
	}
	return false
}

// SubmitInstantActions action 별로 검증하고 수락된 것만 큐에 넣는다
func (e *Engine) SubmitInstantActions(specs []action.Spec) []InstantResult {
	results := make([]InstantResult, 0, len(specs))
	accepted := make([]action.Spec, 0, len(specs))
	seen := make(map[string]bool, len(specs))

	for _, s := range specs {
		err := validateInstant(s, seen)
		results = append(results, InstantResult{ActionID: s.ID, Err: err})
		if err != nil {
			e.log.WithField("actionId", s.ID).Warnf("Instant action rejected: %v", err)
			continue
		}
		seen[s.ID] = true
		accepted = append(accepted, s.Clone())
	}

	if len(accepted) > 0 {
		e.enqueue(command{instant: accepted})
	}
	return results
}

func validateInstant(s action.Spec, seen map[string]bool) error {
	if s.ID == "" {
		return apperr.NewValidationError("actionId", "", "action id is empty")
	}
	if seen[s.ID] {
		return apperr.NewValidationError("actionId", s.ID, "duplicate action id")
	}
	if !constants.IsValidBlockingType(string(s.Blocking)) {
		return apperr.NewValidationError("blockingType", string(s.Blocking), "unknown blocking type")
	}
	if s.Type == action.TypeUnknown {
		return apperr.NewValidationError("actionType", s.Name(), "unknown instant action type")
	}
	_, err := action.Parse(s)
	return err
}

// Pause startPause instant action 제출
func (e *Engine) Pause() error {
	return e.submitGenerated(constants.ActionTypeStartPause)
}

// Resume stopPause instant action 제출
func (e *Engine) Resume() error {
	return e.submitGenerated(constants.ActionTypeStopPause)
}

// CancelOrder cancelOrder instant action 제출
func (e *Engine) CancelOrder() error {
	return e.submitGenerated(constants.ActionTypeCancelOrder)
}

func (e *Engine) submitGenerated(typeName string) error {
	spec := action.NewSpec(e.ids.ActionID(), typeName, action.BlockingNone, nil)
	return e.SubmitInstantActions([]action.Spec{spec})[0].Err
}

// RecordRejection 전송 계층에서 거부한 메시지를 다음 tick 에 errors 에 기록
func (e *Engine) RecordRejection(err error, refs ...vehicle.ErrorReference) {
	if err == nil {
		return
	}
	e.RecordError(vehicle.NewError(ErrorTypeFor(err), err.Error(), refs...))
}

// RecordError 에러 레코드를 다음 tick 에 errors 에 추가
func (e *Engine) RecordError(rec vehicle.ErrorRecord) {
	e.enqueue(command{rejection: &rec})
}

// ErrorTypeFor 에러를 VDA5050 errorType 으로 변환
func ErrorTypeFor(err error) string {
	switch {
	case apperr.IsValidationError(err):
		return constants.ErrorTypeValidation
	case apperr.IsConcurrencyViolation(err):
		return constants.ErrorTypeOrderUpdate
	case apperr.IsPreconditionError(err):
		return constants.ErrorTypeAction
	default:
		return constants.ErrorTypeOrder
	}
}
