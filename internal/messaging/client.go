// internal/messaging/client.go
package messaging

import (
	"agv-simulator/internal/config"
	"agv-simulator/internal/utils"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client MQTT 클라이언트 인터페이스
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) error
	Subscribe(topic string, qos byte, callback MessageHandler) error
	Disconnect(quiesce uint)
	IsConnected() bool
}

// MessageHandler 메시지 핸들러 타입
type MessageHandler = mqtt.MessageHandler

// Will 비정상 종료 시 브로커가 대신 발행할 메시지
type Will struct {
	Topic   string
	Payload []byte
	QoS     byte
}

// MQTTClient MQTT 클라이언트 구현체
type MQTTClient struct {
	client mqtt.Client
	config *config.Config
}

// NewMQTTClient 새 MQTT 클라이언트 생성 후 브로커에 연결
func NewMQTTClient(cfg *config.Config, clientID string, will *Will) (*MQTTClient, error) {
	log := utils.Component("mqtt")
	log.Infof("Creating MQTT client %s for %s", clientID, cfg.MQTTBroker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	if will != nil {
		opts.SetBinaryWill(will.Topic, will.Payload, will.QoS, true)
	}

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Info("MQTT client connected")
	})

	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info("MQTT client created")
	return &MQTTClient{
		client: client,
		config: cfg,
	}, nil
}

// Publish 메시지 발행
func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}

	utils.Logger.Debugf("MQTT publish %s (qos=%d retained=%v)", topic, qos, retained)

	token := c.client.Publish(topic, qos, retained, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, token.Error())
	}
	return nil
}

// Subscribe 토픽 구독
func (c *MQTTClient) Subscribe(topic string, qos byte, callback MessageHandler) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}

	token := c.client.Subscribe(topic, qos, callback)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	utils.Logger.Infof("Subscribed to topic: %s", topic)
	return nil
}

// Disconnect 연결 해제
func (c *MQTTClient) Disconnect(quiesce uint) {
	if c.client.IsConnected() {
		c.client.Disconnect(quiesce)
		utils.Logger.Info("MQTT client disconnected")
	}
}

// IsConnected 연결 상태 확인
func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}
