// internal/handlers/api.go
package handlers

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/converter"
	"agv-simulator/internal/engine"
	"agv-simulator/internal/interfaces"
	"agv-simulator/internal/mapdata"
	"agv-simulator/internal/models"
	"agv-simulator/internal/order"
	"agv-simulator/internal/vehicle"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Vehicle API 가 다루는 엔진 기능
type Vehicle interface {
	Snapshot() vehicle.State
	SubmitOrder(o *order.Order) error
	SubmitInstantActions(specs []action.Spec) []engine.InstantResult
	Pause() error
	Resume() error
	CancelOrder() error
}

// FactsheetSource 헤더 없는 factsheet 본문
type FactsheetSource interface {
	Factsheet() models.FactsheetMessage
}

// APIHandler 관리용 HTTP API
type APIHandler struct {
	vehicle   Vehicle
	conv      *converter.Converter
	factsheet FactsheetSource
	mapData   *mapdata.Map
	history   interfaces.DatabaseService
	publisher interfaces.MessagePublisher
	started   time.Time
}

// Options 선택 의존성. nil 이면 해당 엔드포인트가 404 또는 빈 값
type Options struct {
	Map       *mapdata.Map
	History   interfaces.DatabaseService
	Publisher interfaces.MessagePublisher
}

// NewAPIHandler 새 API 핸들러. conv 는 MQTT 발행과 별도의 headerId 를 쓴다
func NewAPIHandler(v Vehicle, conv *converter.Converter, factsheet FactsheetSource, opts Options) *APIHandler {
	return &APIHandler{
		vehicle:   v,
		conv:      conv,
		factsheet: factsheet,
		mapData:   opts.Map,
		history:   opts.History,
		publisher: opts.Publisher,
		started:   time.Now(),
	}
}

// HealthCheck 서비스 상태
func (h *APIHandler) HealthCheck(c echo.Context) error {
	snap := h.vehicle.Snapshot()
	data := map[string]interface{}{
		"service":        "agv-simulator",
		"serialNumber":   h.conv.Identity().SerialNumber,
		"uptimeSeconds":  int(time.Since(h.started).Seconds()),
		"tick":           snap.Seq,
		"orderStatus":    snap.OrderStatus,
		"mqttConnected":  h.publisher != nil && h.publisher.IsConnected(),
		"historyEnabled": h.history != nil,
	}
	return c.JSON(http.StatusOK, SuccessResponse("Service is healthy", data))
}

// GetState 마지막 스냅샷을 state 메시지 형식으로
func (h *APIHandler) GetState(c echo.Context) error {
	msg := h.conv.StateMessage(h.vehicle.Snapshot())
	return c.JSON(http.StatusOK, SuccessResponse("State retrieved", msg))
}

// GetFactsheet factsheet 조회
func (h *APIHandler) GetFactsheet(c echo.Context) error {
	msg := h.factsheet.Factsheet()
	msg.Header = h.conv.Header(constants.TopicFactsheet, time.Now())
	return c.JSON(http.StatusOK, SuccessResponse("Factsheet retrieved", msg))
}

// GetMap 로드된 맵
func (h *APIHandler) GetMap(c echo.Context) error {
	if h.mapData == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No map loaded")
	}
	return c.JSON(http.StatusOK, SuccessResponse("Map retrieved", h.mapData))
}

// GetOrderHistory 최근 오더 이력. ?limit= 최대 100
func (h *APIHandler) GetOrderHistory(c echo.Context) error {
	if h.history == nil {
		return echo.NewHTTPError(http.StatusNotFound, "History is disabled")
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = v
	}

	records, err := h.history.RecentOrders(c.Request().Context(), h.conv.Identity().SerialNumber, limit)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"items": records,
		"count": len(records),
	}
	return c.JSON(http.StatusOK, SuccessResponse("Order history retrieved", data))
}

// SubmitOrder order 메시지 본문으로 오더 제출
func (h *APIHandler) SubmitOrder(c echo.Context) error {
	var msg models.OrderMessage
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	o := converter.OrderFromMessage(&msg)
	if err := h.vehicle.SubmitOrder(o); err != nil {
		return c.JSON(StatusFor(err), ErrorResponse(err.Error(), map[string]interface{}{
			"orderId":       o.ID,
			"orderUpdateId": o.UpdateID,
		}))
	}

	return c.JSON(http.StatusAccepted, SuccessResponse("Order accepted", map[string]interface{}{
		"orderId":       o.ID,
		"orderUpdateId": o.UpdateID,
	}))
}

// actionResult instant action 하나의 수락 결과
type actionResult struct {
	ActionID string `json:"actionId"`
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// SubmitInstantActions instantActions 메시지 본문 제출. 하나라도 거부되면 400
func (h *APIHandler) SubmitInstantActions(c echo.Context) error {
	var msg models.InstantActionsMessage
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	actions := msg.AllActions()
	if len(actions) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No actions given")
	}

	results := h.vehicle.SubmitInstantActions(converter.ActionSpecs(actions))
	out := make([]actionResult, 0, len(results))
	rejected := 0
	for _, r := range results {
		res := actionResult{ActionID: r.ActionID, Accepted: r.Err == nil}
		if r.Err != nil {
			res.Error = r.Err.Error()
			rejected++
		}
		out = append(out, res)
	}

	if rejected > 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse(
			strconv.Itoa(rejected)+" of "+strconv.Itoa(len(out))+" actions rejected", out))
	}
	return c.JSON(http.StatusAccepted, SuccessResponse("Instant actions accepted", out))
}

// Pause startPause 제출
func (h *APIHandler) Pause(c echo.Context) error {
	return h.control(c, h.vehicle.Pause, "Pause requested")
}

// Resume stopPause 제출
func (h *APIHandler) Resume(c echo.Context) error {
	return h.control(c, h.vehicle.Resume, "Resume requested")
}

// Cancel cancelOrder 제출
func (h *APIHandler) Cancel(c echo.Context) error {
	return h.control(c, h.vehicle.CancelOrder, "Cancel requested")
}

func (h *APIHandler) control(c echo.Context, submit func() error, message string) error {
	if err := submit(); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, SuccessResponse(message, nil))
}
