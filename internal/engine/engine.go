// internal/engine/engine.go
package engine

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/idgen"
	"agv-simulator/internal/order"
	"agv-simulator/internal/trajectory"
	"agv-simulator/internal/utils"
	"agv-simulator/internal/vehicle"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTickPeriod 제어 루프 기본 주기 (10 Hz)
const DefaultTickPeriod = 100 * time.Millisecond

// Params 엔진 생성 시 주입되는 차량/맵 파라미터
type Params struct {
	MapID                  string
	Map                    order.Locator // nil 이면 오더에 좌표가 모두 있어야 한다
	Limits                 action.Limits
	AllowedDeviationXY     float64
	AllowedDeviationTheta  float64
	BatteryDrainPerSecond  float64
	BatteryChargePerSecond float64
	TickPeriod             time.Duration
	InitialPose            trajectory.Pose
	PositionInitialized    bool
}

// Option 엔진 옵션
type Option func(*Engine)

// WithClock 타임스탬프용 시계 교체 (테스트)
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithInitialState 캐시에서 복원한 자세/배터리/맵으로 시작
func WithInitialState(s *vehicle.State) Option {
	return func(e *Engine) {
		if s != nil {
			e.restored = s
		}
	}
}

// IDSource 엔진이 직접 만드는 instant action 의 id
type IDSource interface {
	ActionID() string
}

// WithIDSource pause/resume/cancel 요청에 붙는 action id 생성기
func WithIDSource(ids IDSource) Option {
	return func(e *Engine) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// WithPauseExempt pause 중에도 계속 진행할 액션 종류
func WithPauseExempt(types ...action.Type) Option {
	return func(e *Engine) {
		for _, t := range types {
			e.pauseExempt[t] = true
		}
	}
}

// command 큐에 쌓이는 제출 단위
type command struct {
	order     *order.Order
	instant   []action.Spec
	rejection *vehicle.ErrorRecord
}

// Engine 차량 상태의 유일한 writer. Tick 은 제어 루프 고루틴에서만 호출한다
type Engine struct {
	params      Params
	now         func() time.Time
	log         *logrus.Entry
	pauseExempt map[action.Type]bool
	restored    *vehicle.State
	ids         IDSource

	// 입력 큐 (다중 producer)
	mu    sync.Mutex
	queue []command

	// 제어 루프 전용
	state      *vehicle.State
	graph      *order.Graph
	pending    *order.Order // 마지막 노드의 액션이 끝나기를 기다리는 새 오더
	runs       []*tracked
	nodeRuns   []*tracked
	edgeRuns   []*tracked
	motion     *motion
	cancelRun  *tracked
	teleported bool
	arrived    bool

	// 스냅샷 발행
	snapshot atomic.Pointer[vehicle.State]
	subMu    sync.Mutex
	subs     map[int]chan vehicle.State
	nextSub  int
}

// New 엔진 생성. 초기 스냅샷을 바로 발행한다
func New(params Params, opts ...Option) *Engine {
	if params.TickPeriod <= 0 {
		params.TickPeriod = DefaultTickPeriod
	}
	e := &Engine{
		params:      params,
		now:         time.Now,
		log:         utils.Component("engine"),
		pauseExempt: map[action.Type]bool{},
		subs:        map[int]chan vehicle.State{},
		ids:         idgen.Default,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.state = vehicle.New(params.InitialPose, params.MapID, params.PositionInitialized)
	if e.restored != nil {
		e.restore(e.restored)
		e.restored = nil
	}
	e.state.Timestamp = e.now()
	e.publish()
	return e
}

// restore 캐시 상태 중 오더와 무관한 부분만 가져온다
func (e *Engine) restore(s *vehicle.State) {
	e.state.SetPose(s.Pose)
	e.state.PositionInitialized = s.PositionInitialized
	if s.MapID != "" {
		e.state.MapID = s.MapID
	}
	e.state.PalletTheta = s.PalletTheta
	e.state.Battery = s.Battery
	e.state.LastNodeID = s.LastNodeID
	e.state.LastNodeSequenceID = s.LastNodeSequenceID
	e.state.LastOrderID = s.LastOrderID
	e.state.LastOrderUpdateID = s.LastOrderUpdateID
	e.state.Loads = append([]vehicle.Load(nil), s.Loads...)
	e.state.Maps = append([]vehicle.MapInfo(nil), s.Maps...)
	e.log.WithField("lastOrderId", s.LastOrderID).Info("Restored vehicle state from cache")
}

// Params 엔진 파라미터
func (e *Engine) Params() Params { return e.params }

// Snapshot 마지막으로 발행된 상태의 복사본
func (e *Engine) Snapshot() vehicle.State {
	return e.snapshot.Load().Clone()
}

// Subscribe tick 마다 스냅샷을 받는 채널. 느린 구독자는 중간 스냅샷을 건너뛴다
func (e *Engine) Subscribe() (<-chan vehicle.State, func()) {
	ch := make(chan vehicle.State, 1)

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	if s := e.snapshot.Load(); s != nil {
		ch <- s.Clone()
	}
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
		})
	}
}

// publish 불변 스냅샷 교체 후 구독자에게 last-value-wins 로 전달
func (e *Engine) publish() {
	snap := e.state.Clone()
	e.snapshot.Store(&snap)

	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.Clone():
		default:
		}
	}
}

// enqueue 다음 tick 경계에서 적용될 명령 추가
func (e *Engine) enqueue(cmd command) {
	e.mu.Lock()
	e.queue = append(e.queue, cmd)
	e.mu.Unlock()
}

func (e *Engine) drain() []command {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmds := e.queue
	e.queue = nil
	return cmds
}

// Run 고정 주기로 Tick 을 호출한다. ctx 가 끝나면 반환
func (e *Engine) Run(ctx context.Context) error {
	period := e.params.TickPeriod
	e.log.Infof("Control loop started (period=%s)", period)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("Control loop stopped")
			return ctx.Err()
		case <-ticker.C:
			e.Tick(period)
		}
	}
}
