package config

import (
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoadAppliesDefaults(t *testing.T) {
	is := is.New(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	is.NoErr(err)

	is.Equal(cfg.MQTT.TopicPrefix, "pets")
	is.Equal(cfg.MQTT.QoS, byte(1))
	is.Equal(cfg.MQTT.ReconnectInterval, 5*time.Second)
	is.Equal(cfg.Sync.DispatchDelay, time.Second)
	is.Equal(cfg.SafeZone.MaxZones, 30)
	is.Equal(cfg.SafeZone.WarnThreshold, 20)
	is.Equal(cfg.Device.UpdateIntervalMs, 30000)
	is.Equal(cfg.Device.MQTTHost, cfg.MQTT.Host) // device broker falls back to the backend broker
}

func TestLoadReadsEnvironment(t *testing.T) {
	is := is.New(t)
	chdir(t, t.TempDir())
	t.Setenv("MQTT_BROKER_HOST", "broker.internal")
	t.Setenv("DEVICE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("SYNC_DISPATCH_DELAY_MS", "250")

	cfg, err := Load()
	is.NoErr(err)

	is.Equal(cfg.MQTT.BrokerURL(), "tcp://broker.internal:1883")
	is.Equal(cfg.Device.MQTTHost, "mqtt.example.com")
	is.Equal(cfg.Sync.DispatchDelay, 250*time.Millisecond)
}

func TestDSN(t *testing.T) {
	is := is.New(t)
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "pets", SSLMode: "disable"}
	is.Equal(db.DSN(), "host=db port=5432 user=u password=p dbname=pets sslmode=disable")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
