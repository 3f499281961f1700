// internal/di/container.go
package di

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/common/idgen"
	"agv-simulator/internal/config"
	"agv-simulator/internal/converter"
	"agv-simulator/internal/database"
	"agv-simulator/internal/engine"
	"agv-simulator/internal/handlers"
	"agv-simulator/internal/interfaces"
	"agv-simulator/internal/mapdata"
	"agv-simulator/internal/messaging"
	"agv-simulator/internal/redis"
	"agv-simulator/internal/robot"
	"agv-simulator/internal/services"
	"agv-simulator/internal/trajectory"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout HTTP 서버와 최종 저장에 주는 시간
const shutdownTimeout = 5 * time.Second

// Container 의존성 주입 컨테이너
type Container struct {
	Config *config.Config
	Map    *mapdata.Map

	// Core Services
	Logger      interfaces.Logger
	HeaderIDGen interfaces.HeaderIDGenerator
	UniqueIDGen interfaces.UniqueIDGenerator

	// Infra Services (nil 이면 비활성)
	Database         interfaces.DatabaseService
	Cache            interfaces.CacheService
	MessagePublisher interfaces.MessagePublisher

	// Simulation
	Engine     *engine.Engine
	Converter  *converter.Converter
	Factsheet  *robot.FactsheetBuilder
	Reporter   *messaging.Reporter
	Router     *messaging.Router
	Subscriber *messaging.Subscriber
	StateStore *robot.StateStore
	History    *robot.HistoryRecorder

	// HTTP
	API    *handlers.APIHandler
	Server *echo.Echo

	closers []func() error
}

// NewContainer 설정으로 브로커, 캐시, 이력 DB 에 연결하고 전체 그래프를 만든다
func NewContainer(ctx context.Context, cfg *config.Config, m *mapdata.Map) (*Container, error) {
	container := &Container{Config: cfg, Map: m}

	// 1. 기본 서비스들 초기화
	container.initCoreServices()

	// 2. 저장소 초기화
	if err := container.initStorage(ctx); err != nil {
		container.Cleanup()
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 3. 엔진 초기화 (캐시에서 복원)
	container.initEngine(ctx)

	// 4. MQTT 초기화
	if err := container.initMessaging(); err != nil {
		container.Cleanup()
		return nil, fmt.Errorf("failed to init messaging: %w", err)
	}

	// 5. 핸들러들 초기화
	container.initHandlers()

	return container, nil
}

// NewTestContainer 외부 연결 없이 주어진 의존성으로 컨테이너 생성
func NewTestContainer(
	cfg *config.Config,
	m *mapdata.Map,
	publisher interfaces.MessagePublisher,
	database interfaces.DatabaseService,
	cache interfaces.CacheService,
	logger interfaces.Logger,
) *Container {
	container := &Container{
		Config:           cfg,
		Map:              m,
		Logger:           logger,
		HeaderIDGen:      services.NewHeaderIDGenerator(),
		UniqueIDGen:      services.NewUniqueIDGenerator(""),
		Database:         database,
		Cache:            cache,
		MessagePublisher: publisher,
	}
	container.initEngine(context.Background())
	container.wireMessaging()
	container.initHandlers()
	return container
}

// NewMockContainer Mock 구현체들로 구성된 테스트 컨테이너 생성
func NewMockContainer(cfg *config.Config) *Container {
	return NewTestContainer(
		cfg,
		nil,
		NewMockMessagePublisher(),
		NewMockDatabaseService(),
		NewMockCacheService(),
		NewMockLogger(),
	)
}

// initCoreServices 핵심 서비스들 초기화
func (c *Container) initCoreServices() {
	c.Logger = services.NewLogger(c.Config.LogLevel)
	c.HeaderIDGen = services.NewHeaderIDGenerator()
	c.UniqueIDGen = services.NewUniqueIDGenerator("")
}

// initStorage 상태 캐시와 이력 DB. 설정에서 끈 것은 nil 로 남긴다
func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config

	if cfg.RedisEnabled {
		client, err := redis.NewRedisClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		c.Cache = services.NewCacheService(client)
		c.Logger.Infof("State cache enabled at %s", cfg.RedisAddr())
	}

	switch cfg.HistoryBackend {
	case config.HistoryPostgres:
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			return fmt.Errorf("database init failed: %w", err)
		}
		c.Database = services.NewDatabaseService(db)
	case config.HistorySQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("database init failed: %w", err)
		}
		c.Database = services.NewSQLiteDatabaseService(db)
	}
	if c.Database != nil {
		c.closers = append(c.closers, c.Database.Close)
		c.Logger.Infof("Order history stored in %s", cfg.HistoryBackend)
	}
	return nil
}

// EngineParams 설정과 맵으로 엔진 파라미터 생성
func EngineParams(cfg *config.Config, m *mapdata.Map) engine.Params {
	params := engine.Params{
		MapID: cfg.MapID,
		Limits: action.Limits{
			Speed:              cfg.Speed,
			AngularSpeed:       cfg.AngularSpeed,
			PalletAngularSpeed: cfg.PalletAngularSpeed,
			ActionTime:         cfg.ActionTime,
		},
		AllowedDeviationXY:     cfg.AllowedDeviationXY,
		AllowedDeviationTheta:  cfg.AllowedDeviationTheta,
		BatteryDrainPerSecond:  cfg.BatteryDrainPerSecond,
		BatteryChargePerSecond: cfg.BatteryChargePerSecond,
		TickPeriod:             cfg.TickPeriod,
		InitialPose:            trajectory.NewPose(cfg.InitialX, cfg.InitialY, cfg.InitialTheta),
		PositionInitialized:    cfg.PositionInitialized,
	}
	if m != nil {
		params.Map = m
		if m.ID != "" {
			params.MapID = m.ID
		}
	}
	return params
}

// initEngine 캐시에 남은 상태가 있으면 이어서 시작한다
func (c *Container) initEngine(ctx context.Context) {
	cfg := c.Config
	opts := []engine.Option{engine.WithIDSource(c.UniqueIDGen)}

	if c.Cache != nil {
		c.StateStore = robot.NewStateStore(c.Cache, c.Logger, cfg.RobotSerialNumber, cfg.StateCacheTTL, cfg.StateInterval())
		restored, err := c.StateStore.Load(ctx)
		switch {
		case err != nil:
			c.Logger.Warnf("Ignoring cached state: %v", err)
		case restored != nil:
			opts = append(opts, engine.WithInitialState(restored))
		}
	}

	c.Engine = engine.New(EngineParams(cfg, c.Map), opts...)
	c.Factsheet = robot.NewFactsheetBuilder(cfg)
	if c.Database != nil {
		c.History = robot.NewHistoryRecorder(c.Database, c.Logger, cfg.RobotSerialNumber)
	}
}

func (c *Container) identity() converter.Identity {
	return converter.Identity{
		Version:      c.Config.VDAVersion,
		Manufacturer: c.Config.RobotManufacturer,
		SerialNumber: c.Config.RobotSerialNumber,
	}
}

// initMessaging last will 을 실어 브로커에 연결
func (c *Container) initMessaging() error {
	cfg := c.Config
	c.Converter = converter.NewConverterWithHeaders(c.identity(), c.HeaderIDGen)
	topics := messaging.NewTopics(cfg)

	will, err := json.Marshal(c.Converter.ConnectionMessage(constants.ConnectionStateConnectionBroken, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to encode last will: %w", err)
	}

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = idgen.ClientID()
	}
	client, err := messaging.NewMQTTClient(cfg, clientID, &messaging.Will{
		Topic:   topics.Topic(constants.TopicConnection),
		Payload: will,
		QoS:     cfg.MQTTQoS,
	})
	if err != nil {
		return fmt.Errorf("mqtt init failed: %w", err)
	}
	c.MessagePublisher = client

	c.wireMessaging()
	return nil
}

// wireMessaging MessagePublisher 위에 라우터, 구독자, 리포터를 얹는다
func (c *Container) wireMessaging() {
	cfg := c.Config
	if c.Converter == nil {
		c.Converter = converter.NewConverterWithHeaders(c.identity(), c.HeaderIDGen)
	}
	topics := messaging.NewTopics(cfg)

	c.Router = messaging.NewRouter(c.Engine)
	c.Subscriber = messaging.NewSubscriber(c.MessagePublisher, c.Router, topics, cfg.MQTTQoS)
	c.Reporter = messaging.NewReporter(c.MessagePublisher, c.Converter, topics, c.Engine, c.Factsheet,
		messaging.ReporterConfig{
			StateInterval:         cfg.StateInterval(),
			VisualizationInterval: cfg.VisualizationInterval(),
			RequestInterval:       cfg.TickPeriod,
			QoS:                   cfg.MQTTQoS,
		})
}

// initHandlers HTTP API. 헤더 번호는 MQTT 발행과 섞이지 않게 따로 센다
func (c *Container) initHandlers() {
	apiConv := converter.NewConverter(c.identity())
	c.API = handlers.NewAPIHandler(c.Engine, apiConv, c.Factsheet, handlers.Options{
		Map:       c.Map,
		History:   c.Database,
		Publisher: c.MessagePublisher,
	})
	c.Server = handlers.NewServer(c.API)
}

// Start ctx 가 끝날 때까지 제어 루프, 발행, 저장, HTTP 서버를 돌린다
func (c *Container) Start(ctx context.Context) error {
	if err := c.Subscriber.SubscribeAll(); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := c.Engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error { return c.Reporter.Run(ctx) })

	if c.StateStore != nil {
		g.Go(func() error {
			msg := c.Factsheet.Factsheet()
			msg.Header = converter.NewConverter(c.identity()).Header(constants.TopicFactsheet, time.Now())
			if err := c.StateStore.SaveFactsheet(ctx, msg); err != nil {
				c.Logger.Warnf("Failed to cache factsheet: %v", err)
			}
			return c.StateStore.Run(ctx, c.Engine)
		})
	}
	if c.History != nil {
		g.Go(func() error { return c.History.Run(ctx, c.Engine) })
	}

	if c.Config.HTTPAddr != "" {
		g.Go(func() error {
			c.Logger.Infof("HTTP API listening on %s", c.Config.HTTPAddr)
			if err := c.Server.Start(c.Config.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return c.Server.Shutdown(shutdownCtx)
		})
	}

	c.Logger.Infof("🚀 AGV simulator %s/%s started", c.Config.RobotManufacturer, c.Config.RobotSerialNumber)
	return g.Wait()
}

// Cleanup 리소스 정리
func (c *Container) Cleanup() {
	if c.MessagePublisher != nil {
		c.MessagePublisher.Disconnect(250)
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warnf("Cleanup failed: %v", err)
		}
	}
	c.closers = nil
	c.Logger.Infof("Container cleanup completed")
}
