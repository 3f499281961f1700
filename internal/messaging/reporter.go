// internal/messaging/reporter.go
package messaging

import (
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/converter"
	"agv-simulator/internal/models"
	"agv-simulator/internal/utils"
	"agv-simulator/internal/vehicle"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Publisher 발행만 하는 클라이언트
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) error
}

// StateSource 스냅샷 제공자 (engine.Engine)
type StateSource interface {
	Snapshot() vehicle.State
	Subscribe() (<-chan vehicle.State, func())
}

// FactsheetSource 헤더 없는 factsheet 본문
type FactsheetSource interface {
	Factsheet() models.FactsheetMessage
}

// ReporterConfig 발행 주기
type ReporterConfig struct {
	StateInterval         time.Duration
	VisualizationInterval time.Duration
	// 같은 토픽의 요청 응답 최소 간격
	RequestInterval time.Duration
	QoS             byte
}

// Reporter 엔진 스냅샷을 state/visualization/connection/factsheet 로 발행
type Reporter struct {
	client    Publisher
	conv      *converter.Converter
	topics    Topics
	source    StateSource
	factsheet FactsheetSource
	cfg       ReporterConfig
	now       func() time.Time

	cache   *utils.PublishCache
	limiter *utils.RateLimiter
	log     *logrus.Entry

	stateRequests     uint64
	factsheetRequests uint64
}

// NewReporter 새 리포터 생성
func NewReporter(client Publisher, conv *converter.Converter, topics Topics, source StateSource,
	factsheet FactsheetSource, cfg ReporterConfig) *Reporter {
	return &Reporter{
		client:    client,
		conv:      conv,
		topics:    topics,
		source:    source,
		factsheet: factsheet,
		cfg:       cfg,
		now:       time.Now,
		cache:     utils.NewPublishCache(cfg.StateInterval, nil),
		limiter:   utils.NewRateLimiter(cfg.RequestInterval, nil),
		log:       utils.Component("reporter"),
	}
}

// Run ctx 가 끝날 때까지 발행. 시작 시 ONLINE, 종료 시 OFFLINE
func (r *Reporter) Run(ctx context.Context) error {
	updates, unsubscribe := r.source.Subscribe()
	defer unsubscribe()

	if err := r.PublishConnection(constants.ConnectionStateOnline); err != nil {
		return err
	}

	latest := r.source.Snapshot()
	r.stateRequests = latest.StateRequests
	r.factsheetRequests = latest.FactsheetRequests
	r.publishState(latest)
	r.publishFactsheet()

	stateTicker := time.NewTicker(r.cfg.StateInterval)
	defer stateTicker.Stop()
	visTicker := time.NewTicker(r.cfg.VisualizationInterval)
	defer visTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := r.PublishConnection(constants.ConnectionStateOffline); err != nil {
				r.log.Warnf("Failed to publish OFFLINE: %v", err)
			}
			return nil
		case s := <-updates:
			latest = s
			r.OnSnapshot(s)
		case <-stateTicker.C:
			if r.cache.Due(constants.TopicState) {
				r.publishState(latest)
			}
		case <-visTicker.C:
			r.publishVisualization(latest)
		}
	}
}

// OnSnapshot 새 스냅샷 처리. 변경이 있거나 요청이 들어왔으면 바로 발행
func (r *Reporter) OnSnapshot(s vehicle.State) {
	if s.FactsheetRequests != r.factsheetRequests && r.limiter.Allow(constants.TopicFactsheet) {
		r.factsheetRequests = s.FactsheetRequests
		r.publishFactsheet()
	}

	requested := s.StateRequests != r.stateRequests
	if requested && !r.limiter.Allow(constants.TopicState) {
		requested = false
	}
	if requested {
		r.stateRequests = s.StateRequests
	}
	if requested || r.cache.ShouldPublish(constants.TopicState, Fingerprint(s)) {
		r.publishState(s)
	}
}

// PublishConnection connection 토픽 발행 (retained)
func (r *Reporter) PublishConnection(state string) error {
	msg := r.conv.ConnectionMessage(state, r.now())
	return r.publish(constants.TopicConnection, true, msg)
}

func (r *Reporter) publishState(s vehicle.State) {
	if err := r.publish(constants.TopicState, false, r.conv.StateMessage(s)); err != nil {
		r.log.Warnf("Failed to publish state: %v", err)
		return
	}
	r.cache.Mark(constants.TopicState, Fingerprint(s))
}

func (r *Reporter) publishVisualization(s vehicle.State) {
	if err := r.publish(constants.TopicVisualization, false, r.conv.VisualizationMessage(s)); err != nil {
		r.log.Debugf("Failed to publish visualization: %v", err)
	}
}

func (r *Reporter) publishFactsheet() {
	if r.factsheet == nil {
		return
	}
	msg := r.factsheet.Factsheet()
	msg.Header = r.conv.Header(constants.TopicFactsheet, r.now())
	if err := r.publish(constants.TopicFactsheet, true, msg); err != nil {
		r.log.Warnf("Failed to publish factsheet: %v", err)
	}
}

func (r *Reporter) publish(name string, retained bool, msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return r.client.Publish(r.topics.Topic(name), r.cfg.QoS, retained, payload)
}

// Fingerprint state 발행 여부를 가르는 필드 요약. 자세와 속도는 제외
func Fingerprint(s vehicle.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%s|%d|%v|%v|%v|%s|%s|%v|",
		s.OrderID, s.LastOrderID, s.LastOrderUpdateID, s.LastNodeID, s.LastNodeSequenceID,
		s.Driving, s.Paused, s.PositionInitialized, s.MapID, s.OperatingMode, s.Battery.Charging)
	fmt.Fprintf(&b, "%s|%s|", s.OrderStatus, s.Safety.EStop)
	for _, n := range s.NodeStates {
		fmt.Fprintf(&b, "n%s:%d:%v;", n.ID, n.SequenceID, n.Released)
	}
	for _, e := range s.EdgeStates {
		fmt.Fprintf(&b, "e%s:%d:%v;", e.ID, e.SequenceID, e.Released)
	}
	for _, a := range s.ActionStates {
		fmt.Fprintf(&b, "a%s:%s;", a.ID, a.Status)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(&b, "x%s:%s;", e.Type, e.Description)
	}
	for _, l := range s.Loads {
		fmt.Fprintf(&b, "l%s;", l.ID)
	}
	for _, m := range s.Maps {
		fmt.Fprintf(&b, "m%s:%s:%s;", m.ID, m.Version, m.Status)
	}
	return b.String()
}
