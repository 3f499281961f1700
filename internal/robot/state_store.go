// internal/robot/state_store.go
package robot

import (
	"agv-simulator/internal/common/redis"
	"agv-simulator/internal/interfaces"
	"agv-simulator/internal/models"
	"agv-simulator/internal/utils"
	"agv-simulator/internal/vehicle"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StateSource 스냅샷 제공자 (engine.Engine)
type StateSource interface {
	Snapshot() vehicle.State
	Subscribe() (<-chan vehicle.State, func())
}

// StateStore 마지막 스냅샷을 캐시에 보관한다. 재시작 시 자세/배터리/맵 복원용
type StateStore struct {
	cache   interfaces.CacheService
	logger  interfaces.Logger
	key     string
	factKey string
	ttl     time.Duration
	limiter *utils.RateLimiter
}

// NewStateStore saveInterval 보다 자주 저장하지 않는다
func NewStateStore(cache interfaces.CacheService, logger interfaces.Logger, serialNumber string,
	ttl, saveInterval time.Duration) *StateStore {
	return &StateStore{
		cache:   cache,
		logger:  logger,
		key:     redis.VehicleState(serialNumber),
		factKey: redis.Factsheet(serialNumber),
		ttl:     ttl,
		limiter: utils.NewRateLimiter(saveInterval, nil),
	}
}

// Key 캐시 키
func (s *StateStore) Key() string { return s.key }

// Save 스냅샷 저장
func (s *StateStore) Save(ctx context.Context, st vehicle.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return s.cache.Set(ctx, s.key, payload, s.ttl)
}

// Load 저장된 스냅샷. 없으면 nil, nil
func (s *StateStore) Load(ctx context.Context) (*vehicle.State, error) {
	raw, err := s.cache.Get(ctx, s.key)
	if errors.Is(err, interfaces.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var st vehicle.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		// 다음 시작 때 같은 에러가 반복되지 않도록 지운다
		if delErr := s.cache.Del(ctx, s.key); delErr != nil {
			s.logger.Warnf("Failed to drop corrupt cached state %s: %v", s.key, delErr)
		}
		return nil, fmt.Errorf("cached state %s is corrupt: %w", s.key, err)
	}
	return &st, nil
}

// SaveFactsheet factsheet 보관. 만료 없음
func (s *StateStore) SaveFactsheet(ctx context.Context, msg models.FactsheetMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal factsheet: %w", err)
	}
	return s.cache.Set(ctx, s.factKey, payload, 0)
}

// CachedVehicles 상태가 캐시된 차량 키 목록
func (s *StateStore) CachedVehicles(ctx context.Context) ([]string, error) {
	return s.cache.Keys(ctx, redis.AllVehicleStates())
}

// Run ctx 가 끝날 때까지 스냅샷을 저장. 종료 직전 마지막 스냅샷을 한 번 더 저장한다
func (s *StateStore) Run(ctx context.Context, src StateSource) error {
	updates, unsubscribe := src.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.Save(final, src.Snapshot()); err != nil {
				s.logger.Warnf("Failed to save final state: %v", err)
				return err
			}
			s.logger.Infof("Saved final state under %s", s.key)
			return nil
		case st := <-updates:
			if !s.limiter.Allow(s.key) {
				continue
			}
			if err := s.Save(ctx, st); err != nil {
				s.logger.Warnf("Failed to cache state: %v", err)
			}
		}
	}
}
