package mqtt

import (
	"fmt"

	"go.uber.org/zap"
)

// Publish sends payload at the configured QoS.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		c.log.Warn("Publish rejected, not connected", zap.String("topic", topic), zap.Stringer("state", c.State()))
		return ErrNotConnected
	}

	token := c.client.Publish(topic, c.cfg.QoS, retained, payload)
	if !token.WaitTimeout(c.cfg.PublishTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrPublishFailed, ErrTimeout, c.cfg.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishRetained publishes a message the broker keeps as the topic's current value.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, true)
}

// ClearRetained removes the retained message of a topic by publishing an empty retained payload.
func (c *Client) ClearRetained(topic string) error {
	return c.Publish(topic, []byte{}, true)
}
