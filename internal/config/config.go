package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// History backends
const (
	HistoryNone     = "none"
	HistoryPostgres = "postgres"
	HistorySQLite   = "sqlite"
)

type Config struct {
	// MQTT
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTQoS      byte

	// VDA5050
	VDAInterface      string
	VDAMajorVersion   string
	VDAVersion        string
	RobotManufacturer string
	RobotSerialNumber string

	// Engine
	TickPeriod             time.Duration
	Speed                  float64
	AngularSpeed           float64
	PalletAngularSpeed     float64
	AllowedDeviationXY     float64
	AllowedDeviationTheta  float64
	ActionTime             float64
	BatteryDrainPerSecond  float64
	BatteryChargePerSecond float64
	MapID                  string
	MapFile                string
	InitialX               float64
	InitialY               float64
	InitialTheta           float64
	PositionInitialized    bool

	// Reporting
	StateFrequency         float64
	VisualizationFrequency float64

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	StateCacheTTL time.Duration

	// History database
	HistoryBackend string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	SQLitePath     string

	// Application
	HTTPAddr string
	LogLevel string
}

// Load .env 파일(없어도 됨)과 환경변수에서 설정을 읽는다
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	p := &parser{}
	cfg := &Config{
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", ""),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:      byte(p.int("MQTT_QOS", 0)),

		VDAInterface:      getEnv("VDA_INTERFACE", "uagv"),
		VDAMajorVersion:   getEnv("VDA_MAJOR_VERSION", "v2"),
		VDAVersion:        getEnv("VDA_VERSION", "2.0.0"),
		RobotManufacturer: getEnv("ROBOT_MANUFACTURER", "agvsim"),
		RobotSerialNumber: getEnv("ROBOT_SERIAL_NUMBER", "AGV-001"),

		TickPeriod:             time.Duration(p.int("TICK_PERIOD_MS", 100)) * time.Millisecond,
		Speed:                  p.float("SPEED", 1.0),
		AngularSpeed:           p.float("ANGULAR_SPEED", 1.0),
		PalletAngularSpeed:     p.float("PALLET_ANGULAR_SPEED", 0.5),
		AllowedDeviationXY:     p.float("ALLOWED_DEVIATION_XY", 0.1),
		AllowedDeviationTheta:  p.float("ALLOWED_DEVIATION_THETA", 0.1),
		ActionTime:             p.float("ACTION_TIME", 1.0),
		BatteryDrainPerSecond:  p.float("BATTERY_DRAIN_PER_SECOND", 0.01),
		BatteryChargePerSecond: p.float("BATTERY_CHARGE_PER_SECOND", 0.5),
		MapID:                  getEnv("MAP_ID", "default"),
		MapFile:                getEnv("MAP_FILE", ""),
		InitialX:               p.float("INITIAL_X", 0),
		InitialY:               p.float("INITIAL_Y", 0),
		InitialTheta:           p.float("INITIAL_THETA", 0),
		PositionInitialized:    p.bool("POSITION_INITIALIZED", true),

		StateFrequency:         p.float("STATE_FREQUENCY", 1),
		VisualizationFrequency: p.float("VISUALIZATION_FREQUENCY", 10),

		RedisEnabled:  p.bool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       p.int("REDIS_DB", 0),
		StateCacheTTL: time.Duration(p.int("STATE_CACHE_TTL_SECONDS", 300)) * time.Second,

		HistoryBackend: getEnv("HISTORY_BACKEND", HistoryNone),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "password"),
		DBName:         getEnv("DB_NAME", "agv_simulator"),
		SQLitePath:     getEnv("SQLITE_PATH", "agvsim.db"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// Validate 값 범위 검사
func (c *Config) Validate() error {
	switch {
	case c.TickPeriod <= 0:
		return fmt.Errorf("TICK_PERIOD_MS must be positive")
	case c.Speed <= 0:
		return fmt.Errorf("SPEED must be positive")
	case c.AngularSpeed <= 0:
		return fmt.Errorf("ANGULAR_SPEED must be positive")
	case c.PalletAngularSpeed <= 0:
		return fmt.Errorf("PALLET_ANGULAR_SPEED must be positive")
	case c.ActionTime < 0:
		return fmt.Errorf("ACTION_TIME must not be negative")
	case c.AllowedDeviationXY < 0 || c.AllowedDeviationTheta < 0:
		return fmt.Errorf("allowed deviations must not be negative")
	case c.StateFrequency <= 0 || c.VisualizationFrequency <= 0:
		return fmt.Errorf("reporting frequencies must be positive")
	case c.MQTTQoS > 2:
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2")
	case c.RobotSerialNumber == "" || c.RobotManufacturer == "":
		return fmt.Errorf("ROBOT_MANUFACTURER and ROBOT_SERIAL_NUMBER are required")
	}
	switch c.HistoryBackend {
	case HistoryNone, HistoryPostgres, HistorySQLite:
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}
	return nil
}

// StateInterval state 발행 주기
func (c *Config) StateInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.StateFrequency)
}

// VisualizationInterval visualization 발행 주기
func (c *Config) VisualizationInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.VisualizationFrequency)
}

// RedisAddr host:port
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// parser 첫 번째 변환 오류를 기억한다
type parser struct {
	err error
}

func (p *parser) int(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
