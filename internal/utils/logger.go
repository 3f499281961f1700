package utils

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
}

// SetupLogger 로그 레벨 설정. 알 수 없는 값은 info
func SetupLogger(level string) {
	switch strings.ToLower(level) {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "info":
		Logger.SetLevel(logrus.InfoLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput 로그 출력 대상 변경 (테스트에서 io.Discard 등)
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Component 컴포넌트 이름이 붙은 로그 엔트리
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
