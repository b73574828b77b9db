package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Subscribe registers handler for topic at the configured QoS. The subscription is
// remembered: when not connected it is applied on the next successful connect.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	sub := subscription{topic: topic, qos: c.cfg.QoS, handler: handler}
	c.subMu.Lock()
	c.subscriptions[topic] = sub
	c.subMu.Unlock()

	if !c.IsConnected() {
		c.log.Debug("Subscription deferred until connected", zap.String("topic", topic))
		return nil
	}

	if err := c.subscribe(sub); err != nil {
		return err
	}
	c.log.Info("Subscribed to topic", zap.String("topic", topic), zap.Uint8("qos", sub.qos))
	return nil
}

// Unsubscribe forgets topic and removes it from the broker session if connected.
func (c *Client) Unsubscribe(topic string) error {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(c.cfg.PublishTimeout) {
		return fmt.Errorf("%w: unsubscribe %s", ErrTimeout, topic)
	}
	return token.Error()
}

func (c *Client) subscribe(sub subscription) error {
	token := c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	if !token.WaitTimeout(c.cfg.PublishTimeout) {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, sub.topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, sub.topic, err)
	}
	return nil
}

func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	subs := make([]subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.subMu.RUnlock()

	for _, sub := range subs {
		if err := c.subscribe(sub); err != nil {
			c.log.Warn("Failed to restore subscription", zap.String("topic", sub.topic), zap.Error(err))
			continue
		}
		c.log.Info("Subscribed to topic", zap.String("topic", sub.topic), zap.Uint8("qos", sub.qos))
	}
}

// wrapHandler isolates handler failures so one bad message cannot stop delivery.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("MQTT handler panic recovered",
					zap.String("topic", msg.Topic()),
					zap.Any("panic", r),
				)
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.log.Warn("MQTT handler returned error",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	}
}
