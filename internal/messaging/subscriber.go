// internal/messaging/subscriber.go
package messaging

import (
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/config"
	"agv-simulator/internal/utils"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Topics 차량 한 대의 VDA5050 토픽 접두사
type Topics struct {
	Interface    string
	MajorVersion string
	Manufacturer string
	SerialNumber string
}

// NewTopics 설정에서 토픽 접두사 생성
func NewTopics(cfg *config.Config) Topics {
	return Topics{
		Interface:    cfg.VDAInterface,
		MajorVersion: cfg.VDAMajorVersion,
		Manufacturer: cfg.RobotManufacturer,
		SerialNumber: cfg.RobotSerialNumber,
	}
}

// Topic 토픽 이름의 전체 경로
func (t Topics) Topic(name string) string {
	return constants.Topic(t.Interface, t.MajorVersion, t.Manufacturer, t.SerialNumber, name)
}

// Subscriber MQTT 구독 관리자
type Subscriber struct {
	client Client
	router *Router
	topics Topics
	qos    byte
}

// NewSubscriber 새 구독자 생성
func NewSubscriber(client Client, router *Router, topics Topics, qos byte) *Subscriber {
	return &Subscriber{
		client: client,
		router: router,
		topics: topics,
		qos:    qos,
	}
}

// SubscribeAll order 와 instantActions 토픽 구독
func (s *Subscriber) SubscribeAll() error {
	subscriptions := []struct {
		topic       string
		description string
	}{
		{
			topic:       s.topics.Topic(constants.TopicOrder),
			description: "Orders",
		},
		{
			topic:       s.topics.Topic(constants.TopicInstantActions),
			description: "Instant Actions",
		},
	}

	for _, sub := range subscriptions {
		utils.Logger.Infof("Subscribing to %s (%s)", sub.topic, sub.description)
		if err := s.client.Subscribe(sub.topic, s.qos, s.handleMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", sub.topic, err)
		}
	}
	return nil
}

// handleMessage 수신된 메시지를 라우터에 전달
func (s *Subscriber) handleMessage(client mqtt.Client, msg mqtt.Message) {
	utils.Logger.Debugf("Message received on %s: %s", msg.Topic(), string(msg.Payload()))
	s.router.RouteMessage(client, msg)
}
