// internal/messaging/router.go
package messaging

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/converter"
	"agv-simulator/internal/engine"
	"agv-simulator/internal/order"
	"agv-simulator/internal/utils"
	"agv-simulator/internal/vehicle"
	"strconv"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Vehicle 라우터가 메시지를 넘기는 대상 (engine.Engine)
type Vehicle interface {
	SubmitOrder(o *order.Order) error
	SubmitInstantActions(specs []action.Spec) []engine.InstantResult
	RecordRejection(err error, refs ...vehicle.ErrorReference)
	RecordError(rec vehicle.ErrorRecord)
}

// Router 수신 토픽별 메시지 라우터
type Router struct {
	vehicle Vehicle
	log     *logrus.Entry
}

// NewRouter 새 메시지 라우터 생성
func NewRouter(v Vehicle) *Router {
	return &Router{
		vehicle: v,
		log:     utils.Component("router"),
	}
}

// RouteMessage 토픽 이름에 따라 메시지 라우팅
func (r *Router) RouteMessage(client mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	r.log.Debugf("Routing message from topic: %s", topic)

	switch constants.TopicName(topic) {
	case constants.TopicOrder:
		r.handleOrder(msg.Payload())
	case constants.TopicInstantActions:
		r.handleInstantActions(msg.Payload())
	default:
		r.log.Warnf("Unhandled topic: %s", topic)
	}
}

func (r *Router) handleOrder(payload []byte) {
	msg, err := converter.DecodeOrder(payload)
	if err != nil {
		r.log.Warnf("Malformed order message: %v", err)
		r.vehicle.RecordError(vehicle.NewError(constants.ErrorTypeMessageMalformed, err.Error(),
			vehicle.ErrorReference{Key: vehicle.RefTopic, Value: constants.TopicOrder}))
		return
	}

	o := converter.OrderFromMessage(msg)
	fields := logrus.Fields{"orderId": o.ID, "orderUpdateId": o.UpdateID}
	if err := r.vehicle.SubmitOrder(o); err != nil {
		r.log.WithFields(fields).Warnf("Order rejected: %v", err)
		r.vehicle.RecordRejection(err,
			vehicle.ErrorReference{Key: vehicle.RefTopic, Value: constants.TopicOrder},
			vehicle.ErrorReference{Key: vehicle.RefOrderID, Value: o.ID},
			vehicle.ErrorReference{Key: vehicle.RefOrderUpdateID, Value: strconv.Itoa(o.UpdateID)},
		)
		return
	}
	r.log.WithFields(fields).Info("Order accepted")
}

func (r *Router) handleInstantActions(payload []byte) {
	msg, err := converter.DecodeInstantActions(payload)
	if err != nil {
		r.log.Warnf("Malformed instantActions message: %v", err)
		r.vehicle.RecordError(vehicle.NewError(constants.ErrorTypeMessageMalformed, err.Error(),
			vehicle.ErrorReference{Key: vehicle.RefTopic, Value: constants.TopicInstantActions}))
		return
	}

	for _, res := range r.vehicle.SubmitInstantActions(converter.ActionSpecs(msg.AllActions())) {
		if res.Err == nil {
			continue
		}
		r.vehicle.RecordError(vehicle.NewError(constants.ErrorTypeInstantAction, res.Err.Error(),
			vehicle.ErrorReference{Key: vehicle.RefTopic, Value: constants.TopicInstantActions},
			vehicle.ErrorReference{Key: vehicle.RefActionID, Value: res.ActionID},
		))
	}
}
