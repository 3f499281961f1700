// internal/action/plan.go
package action

import (
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/trajectory"
	"fmt"
)

// Plan 환경과 무관하게 해석된 액션 파라미터
type Plan struct {
	DX, DY      float64
	Theta       float64
	HasTheta    bool
	Angle       float64
	Points      []trajectory.Point
	Speed       float64 // 0 이면 차량 상한 사용
	Duration    float64
	HasDuration bool
	Pose        trajectory.Pose
	MapID       string
	MapVersion  string
	LastNodeID  string
	LoadID      string
}

// Parse 파라미터만 보고 검증한다. 제출 시점 검증과 Start 양쪽에서 사용
func Parse(spec Spec) (Plan, error) {
	var plan Plan
	params := spec.Parameters

	speed, _, err := floatParam(params, "speed")
	if err != nil {
		return plan, err
	}
	if speed < 0 {
		return plan, apperr.NewValidationError("speed", fmt.Sprintf("%v", speed), "must not be negative")
	}
	plan.Speed = speed

	switch spec.Type {
	case TypeTranslation:
		dx, hasX, err := floatParam(params, "dx")
		if err != nil {
			return plan, err
		}
		dy, hasY, err := floatParam(params, "dy")
		if err != nil {
			return plan, err
		}
		if !hasX && !hasY {
			return plan, apperr.NewValidationError("dx", "", "translation needs dx or dy")
		}
		plan.DX, plan.DY = dx, dy

	case TypeRotation, TypePalletRotation:
		if err := parseAngle(params, &plan); err != nil {
			return plan, err
		}

	case TypeBezierMove:
		points, err := pointsParam(params, "controlPoints")
		if err != nil {
			return plan, err
		}
		if len(points) == 0 {
			return plan, apperr.NewValidationError("controlPoints", "[]", "at least one control point required")
		}
		plan.Points = points

	case TypeInitPosition:
		x, hasX, err := floatParam(params, "x")
		if err != nil {
			return plan, err
		}
		y, hasY, err := floatParam(params, "y")
		if err != nil {
			return plan, err
		}
		if !hasX || !hasY {
			return plan, apperr.NewValidationError("x", "", "initPosition needs x and y")
		}
		theta, _, err := floatParam(params, "theta")
		if err != nil {
			return plan, err
		}
		plan.Pose = trajectory.NewPose(x, y, theta)
		plan.MapID, _ = stringParam(params, "mapId")
		plan.LastNodeID, _ = stringParam(params, "lastNodeId")

	case TypeWait:
		d, has, err := floatParam(params, "duration")
		if err != nil {
			return plan, err
		}
		if d < 0 {
			return plan, apperr.NewValidationError("duration", fmt.Sprintf("%v", d), "must not be negative")
		}
		plan.Duration, plan.HasDuration = d, has

	case TypePick, TypeDrop:
		plan.LoadID, _ = stringParam(params, "loadId")

	case TypeMapUpload, TypeMapDelete:
		id, ok := stringParam(params, "mapId")
		if !ok || id == "" {
			return plan, apperr.NewValidationError("mapId", "", "map id required")
		}
		plan.MapID = id
		plan.MapVersion, _ = stringParam(params, "mapVersion")

	case TypeStateRequest, TypeFactsheetRequest, TypeCancelOrder, TypePause, TypeResume,
		TypeStartCharging, TypeStopCharging:
		// 파라미터 없음

	case TypeUnknown:
		return plan, apperr.NewValidationError("actionType", spec.Name(), "unknown action type")
	}

	return plan, nil
}

func parseAngle(params map[string]interface{}, plan *Plan) error {
	theta, hasTheta, err := floatParam(params, "theta")
	if err != nil {
		return err
	}
	angle, hasAngle, err := floatParam(params, "angle")
	if err != nil {
		return err
	}
	if !hasTheta && !hasAngle {
		return apperr.NewValidationError("angle", "", "rotation needs theta or angle")
	}
	plan.Theta, plan.HasTheta = theta, hasTheta
	plan.Angle = angle
	return nil
}
