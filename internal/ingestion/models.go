package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var ErrMalformedPayload = errors.New("malformed payload")

// LocationMessage is a GPS fix published on <prefix>/<deviceId>/location.
type LocationMessage struct {
	Latitude     float64
	Longitude    float64
	Speed        *float64
	Accuracy     *float64
	BatteryLevel *int
	RecordedAt   time.Time
}

type rawLocation struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Speed        *float64 `json:"speed"`
	Accuracy     *float64 `json:"accuracy"`
	BatteryLevel *int     `json:"batteryLevel"`
	Battery      *int     `json:"battery"`
	Timestamp    *int64   `json:"timestamp"`
}

// StatusReport is the canonical form of a status/heartbeat message after alias normalization.
type StatusReport struct {
	BatteryLevel   *int
	SignalStrength *int
	NeedConfig     bool
	ConfigReceived bool
}

// rawStatus accepts both field spellings trackers use in the field.
type rawStatus struct {
	BatteryLevel   *int  `json:"batteryLevel"`
	Battery        *int  `json:"battery"`
	SignalStrength *int  `json:"signalStrength"`
	RSSI           *int  `json:"rssi"`
	NeedConfig     *bool `json:"needConfig"`
	ConfigReceived *bool `json:"configReceived"`
}

// AlertMessage is passed through as-is; the alert schema belongs to the firmware.
type AlertMessage struct {
	Type   string
	Fields map[string]any
}

// ConfigMessageKind classifies traffic seen on the config topic.
type ConfigMessageKind int

const (
	ConfigUnknown ConfigMessageKind = iota
	ConfigRequest
	// ConfigEcho is a configuration payload this service published, delivered back to us.
	ConfigEcho
	// ConfigCleared is the empty retained message left by an administrative reset.
	ConfigCleared
)

func (k ConfigMessageKind) String() string {
	switch k {
	case ConfigRequest:
		return "request"
	case ConfigEcho:
		return "echo"
	case ConfigCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

const configRequestType = "config_request"

type rawConfigMessage struct {
	Type          string `json:"type"`
	ConfigRequest bool   `json:"configRequest"`
	DeviceID      string `json:"deviceId"`
	ConfigSentAt  string `json:"configSentAt"`
}

func decode(payload []byte, v any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// ParseLocation decodes and validates a location payload.
func ParseLocation(payload []byte, receivedAt time.Time) (*LocationMessage, error) {
	var raw rawLocation
	if err := decode(payload, &raw); err != nil {
		return nil, err
	}

	lat, lng := raw.Latitude, raw.Longitude
	if lat == nil {
		lat = raw.Lat
	}
	if lng == nil {
		lng = raw.Lng
	}
	if lat == nil {
		return nil, &ValidationError{Field: "latitude", Message: "latitude is required"}
	}
	if lng == nil {
		return nil, &ValidationError{Field: "longitude", Message: "longitude is required"}
	}

	msg := &LocationMessage{
		Latitude:     *lat,
		Longitude:    *lng,
		Speed:        raw.Speed,
		Accuracy:     raw.Accuracy,
		BatteryLevel: raw.BatteryLevel,
		RecordedAt:   receivedAt,
	}
	if msg.BatteryLevel == nil {
		msg.BatteryLevel = raw.Battery
	}
	// device clocks are only trusted when they look like unix milliseconds
	if raw.Timestamp != nil && *raw.Timestamp > 1_000_000_000_000 {
		msg.RecordedAt = time.UnixMilli(*raw.Timestamp)
	}

	if err := ValidateLocation(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ParseStatus decodes a status payload into its canonical form. batteryLevel wins
// over battery and signalStrength over rssi when both are present.
func ParseStatus(payload []byte) (*StatusReport, error) {
	var raw rawStatus
	if err := decode(payload, &raw); err != nil {
		return nil, err
	}

	report := &StatusReport{
		BatteryLevel:   raw.BatteryLevel,
		SignalStrength: raw.SignalStrength,
	}
	if report.BatteryLevel == nil {
		report.BatteryLevel = raw.Battery
	}
	if report.SignalStrength == nil {
		report.SignalStrength = raw.RSSI
	}
	if raw.NeedConfig != nil {
		report.NeedConfig = *raw.NeedConfig
	}
	if raw.ConfigReceived != nil {
		report.ConfigReceived = *raw.ConfigReceived
	}

	if err := ValidateStatus(report); err != nil {
		return nil, err
	}
	return report, nil
}

// ParseAlert only requires the payload to be a JSON object.
func ParseAlert(payload []byte) (*AlertMessage, error) {
	fields := map[string]any{}
	if err := decode(payload, &fields); err != nil {
		return nil, err
	}

	alert := &AlertMessage{Fields: fields}
	for _, key := range []string{"type", "alertType", "alert"} {
		if v, ok := fields[key].(string); ok && v != "" {
			alert.Type = v
			break
		}
	}
	if alert.Type == "" {
		alert.Type = "unspecified"
	}
	return alert, nil
}

// ClassifyConfigMessage tells device requests apart from our own retained payloads.
func ClassifyConfigMessage(payload []byte) (ConfigMessageKind, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return ConfigCleared, nil
	}

	var raw rawConfigMessage
	if err := decode(payload, &raw); err != nil {
		return ConfigUnknown, err
	}

	switch {
	case strings.EqualFold(raw.Type, configRequestType), raw.ConfigRequest:
		return ConfigRequest, nil
	case raw.DeviceID != "" && raw.ConfigSentAt != "":
		return ConfigEcho, nil
	default:
		return ConfigUnknown, nil
	}
}
