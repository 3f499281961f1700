package utils

import (
	"sync"
	"time"
)

// PublishCache 토픽별로 마지막 발행 내용을 기억해 변경과 하트비트를 판단한다
type PublishCache struct {
	mu        sync.RWMutex
	entries   map[string]*PublishEntry
	heartbeat time.Duration
	now       func() time.Time
}

// PublishEntry 캐시 엔트리
type PublishEntry struct {
	Fingerprint string
	LastSent    time.Time
	SendCount   int
}

// NewPublishCache 새 발행 캐시. now 가 nil 이면 time.Now
func NewPublishCache(heartbeat time.Duration, now func() time.Time) *PublishCache {
	if now == nil {
		now = time.Now
	}
	return &PublishCache{
		entries:   make(map[string]*PublishEntry),
		heartbeat: heartbeat,
		now:       now,
	}
}

// ShouldPublish 처음이거나 내용이 바뀌었거나 하트비트가 지났으면 true
func (c *PublishCache) ShouldPublish(key, fingerprint string) bool {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || entry.Fingerprint != fingerprint {
		return true
	}
	return c.heartbeat > 0 && c.now().Sub(entry.LastSent) >= c.heartbeat
}

// Due 마지막 발행 후 하트비트가 지났는지
func (c *PublishCache) Due(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return true
	}
	return c.now().Sub(entry.LastSent) >= c.heartbeat
}

// Mark 발행 기록
func (c *PublishCache) Mark(key, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		entry = &PublishEntry{}
		c.entries[key] = entry
	}
	entry.Fingerprint = fingerprint
	entry.LastSent = c.now()
	entry.SendCount++
}

// Get 엔트리 복사본 조회
func (c *PublishCache) Get(key string) (PublishEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, exists := c.entries[key]; exists {
		return *entry, true
	}
	return PublishEntry{}, false
}

// Stats 캐시 통계
func (c *PublishCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sent := make(map[string]int, len(c.entries))
	for k, v := range c.entries {
		sent[k] = v.SendCount
	}
	return map[string]interface{}{
		"total_entries":     len(c.entries),
		"sent":              sent,
		"heartbeat_seconds": c.heartbeat.Seconds(),
	}
}

// RateLimiter 키별 최소 전송 간격
type RateLimiter struct {
	mu          sync.Mutex
	lastSent    map[string]time.Time
	minInterval time.Duration
	now         func() time.Time
}

// NewRateLimiter 새 속도 제한기 생성. now 가 nil 이면 time.Now
func NewRateLimiter(minInterval time.Duration, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		lastSent:    make(map[string]time.Time),
		minInterval: minInterval,
		now:         now,
	}
}

// Allow 전송 허용 여부. 허용하면 시각을 기록한다
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, exists := r.lastSent[key]; exists && now.Sub(last) < r.minInterval {
		return false
	}
	r.lastSent[key] = now
	return true
}

// Reset 속도 제한 초기화
func (r *RateLimiter) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.lastSent, key)
}
