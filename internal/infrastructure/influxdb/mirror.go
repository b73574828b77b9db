package influxdb

import (
	"pet-tracker/internal/domain/telemetry"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurementPetLocation = "pet_location"

// WriteSample queues a location sample. It never blocks the caller.
func (c *Client) WriteSample(sample *telemetry.Sample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(samplePoint(sample))
}

func samplePoint(sample *telemetry.Sample) *write.Point {
	fields := map[string]interface{}{
		"latitude":  sample.Latitude,
		"longitude": sample.Longitude,
	}
	if sample.Speed != nil {
		fields["speed"] = *sample.Speed
	}
	if sample.Accuracy != nil {
		fields["accuracy"] = *sample.Accuracy
	}
	if sample.BatteryLevel != nil {
		fields["battery_level"] = *sample.BatteryLevel
	}
	if sample.SignalStrength != nil {
		fields["signal_strength"] = *sample.SignalStrength
	}

	return write.NewPoint(
		measurementPetLocation,
		map[string]string{
			"device_id": sample.DeviceID,
			"pet_id":    sample.PetID.String(),
		},
		fields,
		sample.RecordedAt,
	)
}
