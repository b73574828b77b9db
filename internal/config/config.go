package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	MQTT      MQTTConfig
	Device    DeviceConfig
	Sync      SyncConfig
	SafeZone  SafeZoneConfig
	InfluxDB  InfluxDBConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
	OwnerRPS     float64 // Per-owner requests per second on /api/v1
	OwnerBurst   int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// MQTTConfig is the backend's own broker connection.
type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	ClientID          string
	QoS               byte
	TopicPrefix       string
	ConnectTimeout    time.Duration
	ReconnectInterval time.Duration
	KeepAlive         time.Duration
}

// DeviceConfig holds the values pushed to trackers inside every configuration payload.
type DeviceConfig struct {
	ServerURL        string
	UpdateIntervalMs int
	MQTTHost         string
	MQTTPort         int
	MQTTUsername     string
	MQTTPassword     string
}

type SyncConfig struct {
	DispatchDelay time.Duration
	Workers       int
	BufferSize    int
}

type SafeZoneConfig struct {
	WarnThreshold int
	MaxZones      int
}

type InfluxDBConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	viper.SetDefault("RATE_LIMIT_OWNER_RPS", 5)
	viper.SetDefault("RATE_LIMIT_OWNER_BURST", 15)

	viper.SetDefault("MQTT_BROKER_HOST", "localhost")
	viper.SetDefault("MQTT_BROKER_PORT", 1883)
	viper.SetDefault("MQTT_CLIENT_ID", "pet-tracker-backend")
	viper.SetDefault("MQTT_QOS", 1)
	viper.SetDefault("MQTT_TOPIC_PREFIX", "pets")
	viper.SetDefault("MQTT_CONNECT_TIMEOUT_SEC", 10)
	viper.SetDefault("MQTT_RECONNECT_INTERVAL_SEC", 5)
	viper.SetDefault("MQTT_KEEPALIVE_SEC", 60)

	viper.SetDefault("DEVICE_UPDATE_INTERVAL_MS", 30000)
	viper.SetDefault("DEVICE_MQTT_PORT", 1883)

	viper.SetDefault("SYNC_DISPATCH_DELAY_MS", 1000)
	viper.SetDefault("SYNC_WORKERS", 4)
	viper.SetDefault("SYNC_BUFFER_SIZE", 256)

	viper.SetDefault("SAFEZONE_WARN_THRESHOLD", 20)
	viper.SetDefault("SAFEZONE_MAX", 30)

	viper.SetDefault("INFLUXDB_ENABLED", false)
	viper.SetDefault("INFLUXDB_BUCKET", "pet_telemetry")
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &configFileNotFoundError) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	mqttHost := viper.GetString("MQTT_BROKER_HOST")
	deviceHost := viper.GetString("DEVICE_MQTT_HOST")
	if deviceHost == "" {
		deviceHost = mqttHost
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
			OwnerRPS:     viper.GetFloat64("RATE_LIMIT_OWNER_RPS"),
			OwnerBurst:   viper.GetInt("RATE_LIMIT_OWNER_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
		MQTT: MQTTConfig{
			Host:              mqttHost,
			Port:              viper.GetInt("MQTT_BROKER_PORT"),
			Username:          viper.GetString("MQTT_USERNAME"),
			Password:          viper.GetString("MQTT_PASSWORD"),
			ClientID:          viper.GetString("MQTT_CLIENT_ID"),
			QoS:               byte(viper.GetUint("MQTT_QOS")),
			TopicPrefix:       viper.GetString("MQTT_TOPIC_PREFIX"),
			ConnectTimeout:    time.Duration(viper.GetInt("MQTT_CONNECT_TIMEOUT_SEC")) * time.Second,
			ReconnectInterval: time.Duration(viper.GetInt("MQTT_RECONNECT_INTERVAL_SEC")) * time.Second,
			KeepAlive:         time.Duration(viper.GetInt("MQTT_KEEPALIVE_SEC")) * time.Second,
		},
		Device: DeviceConfig{
			ServerURL:        viper.GetString("DEVICE_SERVER_URL"),
			UpdateIntervalMs: viper.GetInt("DEVICE_UPDATE_INTERVAL_MS"),
			MQTTHost:         deviceHost,
			MQTTPort:         viper.GetInt("DEVICE_MQTT_PORT"),
			MQTTUsername:     viper.GetString("DEVICE_MQTT_USERNAME"),
			MQTTPassword:     viper.GetString("DEVICE_MQTT_PASSWORD"),
		},
		Sync: SyncConfig{
			DispatchDelay: time.Duration(viper.GetInt("SYNC_DISPATCH_DELAY_MS")) * time.Millisecond,
			Workers:       viper.GetInt("SYNC_WORKERS"),
			BufferSize:    viper.GetInt("SYNC_BUFFER_SIZE"),
		},
		SafeZone: SafeZoneConfig{
			WarnThreshold: viper.GetInt("SAFEZONE_WARN_THRESHOLD"),
			MaxZones:      viper.GetInt("SAFEZONE_MAX"),
		},
		InfluxDB: InfluxDBConfig{
			Enabled: viper.GetBool("INFLUXDB_ENABLED"),
			URL:     viper.GetString("INFLUXDB_URL"),
			Token:   viper.GetString("INFLUXDB_TOKEN"),
			Org:     viper.GetString("INFLUXDB_ORG"),
			Bucket:  viper.GetString("INFLUXDB_BUCKET"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// BrokerURL builds the paho broker address.
func (c *MQTTConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}
