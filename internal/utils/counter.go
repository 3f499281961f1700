package utils

import (
	"sync"
	"sync/atomic"
)

// HeaderCounter 토픽별로 1씩 증가하는 headerId
type HeaderCounter struct {
	mu       sync.Mutex
	counters map[string]*int64
}

// NewHeaderCounter 새 카운터 생성
func NewHeaderCounter() *HeaderCounter {
	return &HeaderCounter{counters: make(map[string]*int64)}
}

// Next 토픽의 다음 headerId. 첫 값은 1
func (c *HeaderCounter) Next(topic string) int64 {
	c.mu.Lock()
	n, ok := c.counters[topic]
	if !ok {
		n = new(int64)
		c.counters[topic] = n
	}
	c.mu.Unlock()
	return atomic.AddInt64(n, 1)
}
