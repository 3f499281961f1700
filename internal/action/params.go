// internal/action/params.go
package action

import (
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/trajectory"
	"encoding/json"
	"fmt"
	"strconv"
)

// floatParam 숫자 파라미터. 문자열로 온 값도 받아들인다
func floatParam(params map[string]interface{}, key string) (float64, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	v, err := toFloat(raw)
	if err != nil {
		return 0, true, apperr.NewValidationError(key, fmt.Sprintf("%v", raw), "must be a number")
	}
	return v, true, nil
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported number type %T", raw)
	}
}

// stringParam 문자열 파라미터
func stringParam(params map[string]interface{}, key string) (string, bool) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", false
	}
	if s, ok := raw.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", raw), true
}

// pointsParam [{x,y}, ...] 또는 [[x,y], ...] 형식의 점 목록
func pointsParam(params map[string]interface{}, key string) ([]trajectory.Point, error) {
	raw, ok := params[key]
	if !ok {
		return nil, apperr.NewValidationError(key, "", "missing control points")
	}

	switch v := raw.(type) {
	case []trajectory.Point:
		return v, nil
	case []interface{}:
		points := make([]trajectory.Point, 0, len(v))
		for i, item := range v {
			p, err := toPoint(item)
			if err != nil {
				return nil, apperr.NewValidationError(fmt.Sprintf("%s[%d]", key, i), fmt.Sprintf("%v", item), err.Error())
			}
			points = append(points, p)
		}
		return points, nil
	case string:
		// 문자열로 인코딩된 JSON 배열도 허용
		var decoded []interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, apperr.NewValidationError(key, v, "not a point list")
		}
		return pointsParam(map[string]interface{}{key: decoded}, key)
	default:
		return nil, apperr.NewValidationError(key, fmt.Sprintf("%v", raw), "not a point list")
	}
}

func toPoint(item interface{}) (trajectory.Point, error) {
	switch p := item.(type) {
	case map[string]interface{}:
		x, errX := toFloat(p["x"])
		y, errY := toFloat(p["y"])
		if errX != nil || errY != nil {
			return trajectory.Point{}, fmt.Errorf("point needs numeric x and y")
		}
		return trajectory.Point{X: x, Y: y}, nil
	case []interface{}:
		if len(p) < 2 {
			return trajectory.Point{}, fmt.Errorf("point needs two coordinates")
		}
		x, errX := toFloat(p[0])
		y, errY := toFloat(p[1])
		if errX != nil || errY != nil {
			return trajectory.Point{}, fmt.Errorf("point needs numeric coordinates")
		}
		return trajectory.Point{X: x, Y: y}, nil
	default:
		return trajectory.Point{}, fmt.Errorf("unsupported point type %T", item)
	}
}
