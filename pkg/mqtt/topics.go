package mqtt

import (
	"fmt"
	"strings"
)

// Message classes carried under <prefix>/<deviceId>/<class>.
const (
	ClassLocation = "location"
	ClassStatus   = "status"
	ClassAlert    = "alert"
	ClassConfig   = "config"
)

const DefaultTopicPrefix = "pets"

// Topics builds per-device topic names under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "pets"}
//	topics.Config("PT-0001") // "pets/PT-0001/config"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

func (t Topics) device(deviceID, class string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), deviceID, class)
}

func (t Topics) Location(deviceID string) string { return t.device(deviceID, ClassLocation) }
func (t Topics) Status(deviceID string) string   { return t.device(deviceID, ClassStatus) }
func (t Topics) Alert(deviceID string) string    { return t.device(deviceID, ClassAlert) }
func (t Topics) Config(deviceID string) string   { return t.device(deviceID, ClassConfig) }

// Pattern returns the single-level wildcard subscription for a message class.
//
// Example: pets/+/location
func (t Topics) Pattern(class string) string {
	return t.device("+", class)
}

// Parse splits a concrete device topic into its device id and message class.
func (t Topics) Parse(topic string) (deviceID, class string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.prefix()+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
