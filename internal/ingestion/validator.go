package ingestion

import (
	"fmt"
	"math"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ValidateLocation validates a decoded location message
func ValidateLocation(msg *LocationMessage) error {
	if math.IsNaN(msg.Latitude) || msg.Latitude < -90 || msg.Latitude > 90 {
		return &ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"}
	}
	if math.IsNaN(msg.Longitude) || msg.Longitude < -180 || msg.Longitude > 180 {
		return &ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"}
	}

	if msg.Speed != nil && *msg.Speed < 0 {
		return &ValidationError{Field: "speed", Message: "speed must be non-negative"}
	}
	if msg.Accuracy != nil && *msg.Accuracy < 0 {
		return &ValidationError{Field: "accuracy", Message: "accuracy must be non-negative"}
	}

	return validateBattery(msg.BatteryLevel)
}

// ValidateStatus validates a normalized status report
func ValidateStatus(report *StatusReport) error {
	if err := validateBattery(report.BatteryLevel); err != nil {
		return err
	}

	// Signal strength is RSSI in dBm
	if report.SignalStrength != nil {
		if *report.SignalStrength < -120 || *report.SignalStrength > 0 {
			return &ValidationError{Field: "signalStrength", Message: "signalStrength must be between -120 and 0"}
		}
	}

	return nil
}

func validateBattery(level *int) error {
	if level != nil && (*level < 0 || *level > 100) {
		return &ValidationError{Field: "batteryLevel", Message: "batteryLevel must be between 0 and 100"}
	}
	return nil
}
