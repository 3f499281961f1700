// internal/di/mocks.go
package di

import (
	"agv-simulator/internal/interfaces"
	"agv-simulator/internal/models"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// =============================================================================
// Mock 구현체들 (테스트용)
// =============================================================================

type MockDatabaseService struct {
	mu      sync.Mutex
	orders  []models.OrderRecord
	actions []models.ActionRecord
	// Err 가 있으면 모든 쓰기가 실패한다
	Err error
}

func NewMockDatabaseService() *MockDatabaseService {
	return &MockDatabaseService{}
}

func (m *MockDatabaseService) RecordOrder(ctx context.Context, record *models.OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	record.ID = uint(len(m.orders) + 1)
	m.orders = append(m.orders, *record)
	return nil
}

func (m *MockDatabaseService) RecordAction(ctx context.Context, record *models.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	record.ID = uint(len(m.actions) + 1)
	m.actions = append(m.actions, *record)
	return nil
}

func (m *MockDatabaseService) RecentOrders(ctx context.Context, serialNumber string, limit int) ([]models.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OrderRecord
	for i := len(m.orders) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.orders[i].SerialNumber == serialNumber {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *MockDatabaseService) RecentActions(ctx context.Context, serialNumber string, limit int) ([]models.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionRecord
	for i := len(m.actions) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.actions[i].SerialNumber == serialNumber {
			out = append(out, m.actions[i])
		}
	}
	return out, nil
}

func (m *MockDatabaseService) Close() error { return nil }

// 테스트 헬퍼 메서드들
func (m *MockDatabaseService) Orders() []models.OrderRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OrderRecord(nil), m.orders...)
}

func (m *MockDatabaseService) Actions() []models.ActionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActionRecord(nil), m.actions...)
}

type MockCacheService struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprintf("%v", v)
	}
	m.ttls[key] = expiration
	return nil
}

func (m *MockCacheService) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", interfaces.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCacheService) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.ttls, key)
	}
	return nil
}

func (m *MockCacheService) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// TTL 마지막 Set 의 만료 시간
func (m *MockCacheService) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

type MockMessagePublisher struct {
	mu                sync.Mutex
	publishedMessages []MockMessage
	subscriptions     map[string]mqtt.MessageHandler
	connected         bool
}

type MockMessage struct {
	Topic    string
	Retained bool
	Payload  interface{}
}

func NewMockMessagePublisher() *MockMessagePublisher {
	return &MockMessagePublisher{
		publishedMessages: make([]MockMessage, 0),
		subscriptions:     make(map[string]mqtt.MessageHandler),
		connected:         true,
	}
}

func (m *MockMessagePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedMessages = append(m.publishedMessages, MockMessage{
		Topic:    topic,
		Retained: retained,
		Payload:  payload,
	})
	return nil
}

func (m *MockMessagePublisher) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[topic] = callback
	return nil
}

func (m *MockMessagePublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMessagePublisher) Disconnect(quiesce uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

func (m *MockMessagePublisher) GetLastMessage() *MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.publishedMessages) == 0 {
		return nil
	}
	msg := m.publishedMessages[len(m.publishedMessages)-1]
	return &msg
}

func (m *MockMessagePublisher) GetPublishedMessages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockMessage(nil), m.publishedMessages...)
}

// Subscriptions 구독한 토픽 목록
func (m *MockMessagePublisher) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.subscriptions))
	for t := range m.subscriptions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

type MockLogger struct {
	mu   sync.Mutex
	logs []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{logs: make([]string, 0)}
}

func (m *MockLogger) add(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, line)
}

func (m *MockLogger) Debug(args ...interface{}) {
	m.add(fmt.Sprintf("DEBUG: %v", args))
}

func (m *MockLogger) Debugf(format string, args ...interface{}) {
	m.add(fmt.Sprintf("DEBUG: "+format, args...))
}

func (m *MockLogger) Info(args ...interface{}) {
	m.add(fmt.Sprintf("INFO: %v", args))
}

func (m *MockLogger) Infof(format string, args ...interface{}) {
	m.add(fmt.Sprintf("INFO: "+format, args...))
}

func (m *MockLogger) Warn(args ...interface{}) {
	m.add(fmt.Sprintf("WARN: %v", args))
}

func (m *MockLogger) Warnf(format string, args ...interface{}) {
	m.add(fmt.Sprintf("WARN: "+format, args...))
}

func (m *MockLogger) Error(args ...interface{}) {
	m.add(fmt.Sprintf("ERROR: %v", args))
}

func (m *MockLogger) Errorf(format string, args ...interface{}) {
	m.add(fmt.Sprintf("ERROR: "+format, args...))
}

func (m *MockLogger) Fatal(args ...interface{}) {
	m.add(fmt.Sprintf("FATAL: %v", args))
}

func (m *MockLogger) Fatalf(format string, args ...interface{}) {
	m.add(fmt.Sprintf("FATAL: "+format, args...))
}

func (m *MockLogger) ContainsLog(substring string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range m.logs {
		if strings.Contains(log, substring) {
			return true
		}
	}
	return false
}

func (m *MockLogger) GetLogs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logs...)
}
