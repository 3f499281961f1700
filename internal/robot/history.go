// internal/robot/history.go
package robot

import (
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/interfaces"
	"agv-simulator/internal/models"
	"agv-simulator/internal/vehicle"
	"context"
	"fmt"
)

// HistoryStore 오더/액션 이력 저장소
type HistoryStore = interfaces.DatabaseService

// HistoryRecorder 스냅샷에서 오더 종료와 액션 종료를 찾아 이력에 남긴다.
// 제어 루프 밖의 고루틴에서 돈다
type HistoryRecorder struct {
	store        HistoryStore
	logger       interfaces.Logger
	serialNumber string

	lastOrder string            // 마지막으로 기록한 오더 종료 키
	actions   map[string]string // actionId → 기록한 상태
}

// NewHistoryRecorder 새 기록기
func NewHistoryRecorder(store HistoryStore, logger interfaces.Logger, serialNumber string) *HistoryRecorder {
	return &HistoryRecorder{
		store:        store,
		logger:       logger,
		serialNumber: serialNumber,
		actions:      make(map[string]string),
	}
}

// Run ctx 가 끝날 때까지 스냅샷을 관찰
func (h *HistoryRecorder) Run(ctx context.Context, src StateSource) error {
	updates, unsubscribe := src.Subscribe()
	defer unsubscribe()

	h.Observe(ctx, src.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-updates:
			h.Observe(ctx, st)
		}
	}
}

// Observe 스냅샷 하나 처리
func (h *HistoryRecorder) Observe(ctx context.Context, st vehicle.State) {
	h.observeOrder(ctx, st)
	h.observeActions(ctx, st)
}

func (h *HistoryRecorder) observeOrder(ctx context.Context, st vehicle.State) {
	if st.LastOrderID == "" || !terminalOrder(st.OrderStatus) {
		return
	}
	key := fmt.Sprintf("%s/%d/%s", st.LastOrderID, st.LastOrderUpdateID, st.OrderStatus)
	if key == h.lastOrder {
		return
	}

	rec := &models.OrderRecord{
		SerialNumber:  h.serialNumber,
		OrderID:       st.LastOrderID,
		OrderUpdateID: st.LastOrderUpdateID,
		Status:        st.OrderStatus,
		LastNodeID:    st.LastNodeID,
		ErrorCount:    len(st.Errors),
		ActionCount:   len(st.ActionStates),
		CompletedAt:   st.Timestamp,
	}
	if err := h.store.RecordOrder(ctx, rec); err != nil {
		h.logger.Errorf("Failed to record order %s: %v", st.LastOrderID, err)
		return
	}
	h.lastOrder = key
	h.logger.Infof("Recorded order %s as %s", st.LastOrderID, st.OrderStatus)
}

func (h *HistoryRecorder) observeActions(ctx context.Context, st vehicle.State) {
	orderID := st.OrderID
	if orderID == "" {
		orderID = st.LastOrderID
	}

	present := make(map[string]bool, len(st.ActionStates))
	for _, a := range st.ActionStates {
		present[a.ID] = true
		if !terminalAction(a.Status) || h.actions[a.ID] == a.Status {
			continue
		}

		rec := &models.ActionRecord{
			SerialNumber:      h.serialNumber,
			OrderID:           orderID,
			ActionID:          a.ID,
			ActionType:        a.Type,
			Status:            a.Status,
			ResultDescription: a.ResultDescription,
			CompletedAt:       st.Timestamp,
		}
		if err := h.store.RecordAction(ctx, rec); err != nil {
			h.logger.Errorf("Failed to record action %s: %v", a.ID, err)
			continue
		}
		h.actions[a.ID] = a.Status
	}

	for id := range h.actions {
		if !present[id] {
			delete(h.actions, id)
		}
	}
}

func terminalOrder(status string) bool {
	return status == constants.OrderStatusFinished || status == constants.OrderStatusFailed
}

func terminalAction(status string) bool {
	return status == constants.ActionStatusFinished || status == constants.ActionStatusFailed
}
