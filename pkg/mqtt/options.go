package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultReconnectInterval = 5 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultKeepAlive         = 60 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	maxPayloadSize           = 1 << 20
)

type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	QoS               byte
	ConnectTimeout    time.Duration
	ReconnectInterval time.Duration
	PublishTimeout    time.Duration
	KeepAlive         time.Duration
	Logger            *zap.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = defaultConnectTimeout
	}
	if out.ReconnectInterval <= 0 {
		out.ReconnectInterval = defaultReconnectInterval
	}
	if out.PublishTimeout <= 0 {
		out.PublishTimeout = defaultPublishTimeout
	}
	if out.KeepAlive <= 0 {
		out.KeepAlive = defaultKeepAlive
	}
	if out.QoS > 2 {
		out.QoS = 1
	}
	if out.ClientID == "" {
		out.ClientID = fmt.Sprintf("pet-tracker-%d", time.Now().UnixNano())
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

// buildClientOptions disables paho's own reconnect; the Client runs a fixed-interval loop instead.
func buildClientOptions(cfg Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetOrderMatters(true)
	return opts
}
