package di

import (
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/config"
	"agv-simulator/internal/mapdata"
	"agv-simulator/internal/models"
	"agv-simulator/internal/robot"
	"agv-simulator/internal/trajectory"
	"agv-simulator/internal/utils"
	"agv-simulator/internal/vehicle"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"
)

func testConfig() *config.Config {
	return &config.Config{
		VDAInterface:           "uagv",
		VDAMajorVersion:        "v2",
		VDAVersion:             "2.0.0",
		RobotManufacturer:      "acme",
		RobotSerialNumber:      "agv-1",
		TickPeriod:             10 * time.Millisecond,
		Speed:                  1,
		AngularSpeed:           1,
		PalletAngularSpeed:     1,
		AllowedDeviationXY:     0.1,
		AllowedDeviationTheta:  0.1,
		MapID:                  "default",
		InitialX:               2,
		InitialY:               1,
		PositionInitialized:    true,
		StateFrequency:         10,
		VisualizationFrequency: 10,
		StateCacheTTL:          time.Minute,
		HistoryBackend:         config.HistorySQLite,
	}
}

func TestEngineParams(t *testing.T) {
	cfg := testConfig()

	p := EngineParams(cfg, nil)
	if p.Map != nil || p.MapID != "default" || p.InitialPose != trajectory.NewPose(2, 1, 0) {
		t.Errorf("params without map = %+v", p)
	}
	if p.Limits.Speed != 1 || p.TickPeriod != cfg.TickPeriod {
		t.Errorf("limits = %+v", p.Limits)
	}

	m, err := mapdata.FromYAML([]byte("mapId: hall\nnodes:\n  - {id: A, x: 0, y: 0}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p := EngineParams(cfg, m); p.Map == nil || p.MapID != "hall" {
		t.Errorf("params with map = %+v", p)
	}
}

func TestMockContainerWiring(t *testing.T) {
	utils.SetOutput(io.Discard)
	c := NewMockContainer(testConfig())

	if c.StateStore == nil || c.History == nil || c.Server == nil {
		t.Fatalf("container not fully wired: %+v", c)
	}
	if err := c.Subscriber.SubscribeAll(); err != nil {
		t.Fatal(err)
	}

	pub := c.MessagePublisher.(*MockMessagePublisher)
	want := []string{"uagv/v2/acme/agv-1/instantActions", "uagv/v2/acme/agv-1/order"}
	got := pub.Subscriptions()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("subscriptions = %v, want %v", got, want)
	}
}

func TestContainerRestoresCachedState(t *testing.T) {
	utils.SetOutput(io.Discard)
	ctx := context.Background()
	cfg := testConfig()
	cache := NewMockCacheService()

	store := robot.NewStateStore(cache, NewMockLogger(), cfg.RobotSerialNumber, time.Minute, 0)
	saved := vehicle.State{
		Pose:                trajectory.NewPose(7, 8, 0),
		MapID:               "hall",
		PositionInitialized: true,
		Battery:             vehicle.Battery{Charge: 55},
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatal(err)
	}

	c := NewTestContainer(cfg, nil, NewMockMessagePublisher(), nil, cache, NewMockLogger())
	snap := c.Engine.Snapshot()
	if snap.Pose.X != 7 || snap.Pose.Y != 8 || snap.MapID != "hall" || snap.Battery.Charge != 55 {
		t.Errorf("engine did not restore cached state: %+v", snap)
	}
	if c.History != nil {
		t.Error("history recorder needs a database")
	}
}

func TestContainerStartAndStop(t *testing.T) {
	utils.SetOutput(io.Discard)
	cfg := testConfig()
	c := NewMockContainer(cfg)
	pub := c.MessagePublisher.(*MockMessagePublisher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("container did not stop")
	}
	c.Cleanup()

	var states []string
	for _, m := range pub.GetPublishedMessages() {
		if constants.TopicName(m.Topic) != constants.TopicConnection {
			continue
		}
		var msg models.ConnectionMessage
		if err := json.Unmarshal(m.Payload.([]byte), &msg); err != nil {
			t.Fatal(err)
		}
		states = append(states, msg.ConnectionState)
	}
	if len(states) != 2 || states[0] != constants.ConnectionStateOnline || states[1] != constants.ConnectionStateOffline {
		t.Errorf("connection states = %v", states)
	}

	if pub.IsConnected() {
		t.Error("Cleanup should disconnect")
	}
	if _, err := c.Cache.Get(context.Background(), c.StateStore.Key()); err != nil {
		t.Errorf("state not cached on shutdown: %v", err)
	}
}
