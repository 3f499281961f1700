// internal/interfaces/services.go
package interfaces

import (
	"agv-simulator/internal/models"
	"context"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrCacheMiss 키가 없을 때 CacheService.Get 이 돌려주는 에러
var ErrCacheMiss = errors.New("cache miss")

// DatabaseService 오더/액션 이력 저장소 인터페이스
type DatabaseService interface {
	RecordOrder(ctx context.Context, record *models.OrderRecord) error
	RecordAction(ctx context.Context, record *models.ActionRecord) error
	RecentOrders(ctx context.Context, serialNumber string, limit int) ([]models.OrderRecord, error)
	RecentActions(ctx context.Context, serialNumber string, limit int) ([]models.ActionRecord, error)
	Close() error
}

// CacheService Redis 캐시 관련 서비스 인터페이스
type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// MessagePublisher MQTT 메시지 발행 인터페이스
type MessagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) error
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) error
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Logger 로깅 인터페이스
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

// HeaderIDGenerator 토픽별 헤더 ID 생성 인터페이스
type HeaderIDGenerator interface {
	Next(topic string) int64
}

// UniqueIDGenerator 고유 ID 생성 인터페이스
type UniqueIDGenerator interface {
	ActionID() string
}
