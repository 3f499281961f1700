// internal/common/idgen/generator.go
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generator ID 생성기
type Generator struct {
	prefix string
}

// NewGenerator 새 ID 생성기 생성
func NewGenerator(prefix ...string) *Generator {
	var p string
	if len(prefix) > 0 {
		p = prefix[0]
	}
	return &Generator{
		prefix: p,
	}
}

// ActionID 액션 ID 생성 (uuid)
func (g *Generator) ActionID() string {
	return g.withPrefix(uuid.NewString())
}

// ShortID 짧은 ID 생성 (8자리 hex)
func (g *Generator) ShortID() string {
	return g.withPrefix(generateHex(4))
}

func (g *Generator) withPrefix(id string) string {
	if g.prefix != "" {
		return fmt.Sprintf("%s_%s", g.prefix, id)
	}
	return id
}

// generateHex 지정된 바이트 수만큼 hex 문자열 생성
func generateHex(byteCount int) string {
	randomBytes := make([]byte, byteCount)
	if _, err := rand.Read(randomBytes); err != nil {
		// 랜덤 생성 실패 시 타임스탬프 기반 fallback
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(randomBytes)
}

// 전역 ID 생성기 인스턴스들
var (
	// Default 기본 생성기
	Default = NewGenerator()

	// Client MQTT 클라이언트 ID 접미사
	Client = NewGenerator("agvsim")
)

// ClientID MQTT 클라이언트 ID 생성
func ClientID() string {
	return Client.ShortID()
}
