// internal/services/implementations.go
package services

import (
	"agv-simulator/internal/common/idgen"
	"agv-simulator/internal/interfaces"
	"agv-simulator/internal/models"
	"agv-simulator/internal/utils"
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxHistoryRows 이력 조회 상한
const MaxHistoryRows = 100

// =============================================================================
// Database Service Implementation
// =============================================================================

type DatabaseServiceImpl struct {
	db *gorm.DB
}

func NewDatabaseService(db *gorm.DB) interfaces.DatabaseService {
	return &DatabaseServiceImpl{db: db}
}

func (d *DatabaseServiceImpl) RecordOrder(ctx context.Context, record *models.OrderRecord) error {
	return d.db.WithContext(ctx).Create(record).Error
}

func (d *DatabaseServiceImpl) RecordAction(ctx context.Context, record *models.ActionRecord) error {
	return d.db.WithContext(ctx).Create(record).Error
}

func (d *DatabaseServiceImpl) RecentOrders(ctx context.Context, serialNumber string, limit int) ([]models.OrderRecord, error) {
	var records []models.OrderRecord
	err := d.db.WithContext(ctx).
		Where("serial_number = ?", serialNumber).
		Order("completed_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&records).Error
	return records, err
}

func (d *DatabaseServiceImpl) RecentActions(ctx context.Context, serialNumber string, limit int) ([]models.ActionRecord, error) {
	var records []models.ActionRecord
	err := d.db.WithContext(ctx).
		Where("serial_number = ?", serialNumber).
		Order("completed_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&records).Error
	return records, err
}

func (d *DatabaseServiceImpl) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxHistoryRows {
		return MaxHistoryRows
	}
	return limit
}

// =============================================================================
// Cache Service Implementation
// =============================================================================

type CacheServiceImpl struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) interfaces.CacheService {
	return &CacheServiceImpl{client: client}
}

func (c *CacheServiceImpl) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *CacheServiceImpl) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", interfaces.ErrCacheMiss
	}
	return val, err
}

func (c *CacheServiceImpl) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *CacheServiceImpl) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// =============================================================================
// Logger Implementation
// =============================================================================

type LoggerImpl struct {
	logger *logrus.Logger
}

// NewLogger 전역 logrus 로거를 감싼다
func NewLogger(level string) interfaces.Logger {
	utils.SetupLogger(level)
	return &LoggerImpl{logger: utils.Logger}
}

func (l *LoggerImpl) Debug(args ...interface{}) {
	l.logger.Debug(args...)
}

func (l *LoggerImpl) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *LoggerImpl) Info(args ...interface{}) {
	l.logger.Info(args...)
}

func (l *LoggerImpl) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *LoggerImpl) Warn(args ...interface{}) {
	l.logger.Warn(args...)
}

func (l *LoggerImpl) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *LoggerImpl) Error(args ...interface{}) {
	l.logger.Error(args...)
}

func (l *LoggerImpl) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *LoggerImpl) Fatal(args ...interface{}) {
	l.logger.Fatal(args...)
}

func (l *LoggerImpl) Fatalf(format string, args ...interface{}) {
	l.logger.Fatalf(format, args...)
}

// =============================================================================
// ID Generators Implementation
// =============================================================================

type HeaderIDGeneratorImpl struct {
	counter *utils.HeaderCounter
}

func NewHeaderIDGenerator() interfaces.HeaderIDGenerator {
	return &HeaderIDGeneratorImpl{counter: utils.NewHeaderCounter()}
}

func (h *HeaderIDGeneratorImpl) Next(topic string) int64 {
	return h.counter.Next(topic)
}

type UniqueIDGeneratorImpl struct {
	gen *idgen.Generator
}

func NewUniqueIDGenerator(prefix string) interfaces.UniqueIDGenerator {
	return &UniqueIDGeneratorImpl{gen: idgen.NewGenerator(prefix)}
}

func (u *UniqueIDGeneratorImpl) ActionID() string {
	return u.gen.ActionID()
}

