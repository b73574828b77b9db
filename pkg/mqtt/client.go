package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Client owns the single broker connection of the service.
//
// paho's auto-reconnect is disabled: after a failed connect or a lost
// connection the Client retries on a fixed interval, forever, until Close.
// Publishing while not connected fails fast with ErrNotConnected; nothing is queued.
// Subscriptions are remembered and restored after every successful connect.
type Client struct {
	cfg    Config
	log    *zap.Logger
	client pahomqtt.Client

	mu           sync.Mutex
	state        State
	listeners    []StateListener
	reconnecting bool
	closed       bool
	stop         chan struct{}
	wg           sync.WaitGroup

	subMu         sync.RWMutex
	subscriptions map[string]subscription
}

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler receives every message on a subscribed topic. A returned error is logged.
type MessageHandler func(topic string, payload []byte) error

type pahoFactory func(*pahomqtt.ClientOptions) pahomqtt.Client

func NewClient(cfg Config) *Client {
	return newClient(cfg, pahomqtt.NewClient)
}

func newClient(cfg Config, factory pahoFactory) *Client {
	c := &Client{
		cfg:           cfg.withDefaults(),
		state:         StateDisconnected,
		stop:          make(chan struct{}),
		subscriptions: make(map[string]subscription),
	}
	c.log = c.cfg.Logger.With(zap.String("component", "mqtt"), zap.String("broker", c.cfg.Broker))

	opts := buildClientOptions(c.cfg)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})
	c.client = factory(opts)

	return c
}

// Connect makes the first connection attempt. On failure the error is returned
// and the reconnect loop is already running, so callers may carry on without a broker.
func (c *Client) Connect() error {
	if c.isClosed() {
		return ErrClosed
	}

	c.log.Info("Connecting to MQTT broker")
	c.setState(StateConnecting)

	if err := c.connectOnce(); err != nil {
		c.setState(StateErrored)
		c.log.Warn("MQTT connect failed, will retry",
			zap.Error(err),
			zap.Duration("interval", c.cfg.ReconnectInterval),
		)
		c.startReconnectLoop()
		return err
	}

	c.onConnected()
	return nil
}

func (c *Client) connectOnce() error {
	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrConnectionFailed, ErrTimeout, c.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

func (c *Client) onConnected() {
	c.setState(StateConnected)
	c.log.Info("MQTT client connected")
	c.restoreSubscriptions()
}

func (c *Client) handleConnectionLost(err error) {
	if c.isClosed() {
		return
	}
	c.log.Warn("MQTT connection lost", zap.Error(err))
	c.setState(StateClosed)
	c.startReconnectLoop()
}

func (c *Client) startReconnectLoop() {
	c.mu.Lock()
	if c.reconnecting || c.closed {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.reconnectLoop()
}

func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.ReconnectInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		if c.isClosed() {
			return
		}

		c.setState(StateReconnecting)
		if err := c.connectOnce(); err != nil {
			c.setState(StateDisconnected)
			c.log.Warn("MQTT reconnect attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()

		c.log.Info("MQTT reconnected", zap.Int("attempts", attempt))
		c.onConnected()
		return
	}
}

// Close stops reconnecting and disconnects. The Client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.stop)
	c.mu.Unlock()

	c.wg.Wait()

	if c.client.IsConnected() {
		c.client.Disconnect(defaultDisconnectQuiesce)
	}
	c.setState(StateDisconnected)
	c.log.Info("Disconnected from MQTT broker")

	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) setState(to State) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	listeners := make([]StateListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.log.Debug("MQTT state change", zap.Stringer("from", from), zap.Stringer("to", to))
	for _, l := range listeners {
		l(from, to)
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// OnStateChange registers a listener. Listeners run synchronously and must not block.
func (c *Client) OnStateChange(l StateListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// HealthCheck reports ErrNotConnected unless the broker connection is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}
	if !c.IsConnected() {
		return fmt.Errorf("%w (state %s)", ErrNotConnected, c.State())
	}
	return nil
}
