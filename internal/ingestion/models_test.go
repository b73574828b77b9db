package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseStatusNormalizesAliases(t *testing.T) {
	is := is.New(t)

	report, err := ParseStatus([]byte(`{"battery": 64, "rssi": -71, "needConfig": true}`))
	is.NoErr(err)
	is.Equal(*report.BatteryLevel, 64)
	is.Equal(*report.SignalStrength, -71)
	is.True(report.NeedConfig)
	is.True(!report.ConfigReceived)

	// canonical names take precedence
	report, err = ParseStatus([]byte(`{"batteryLevel": 80, "battery": 10, "signalStrength": -50, "rssi": -90, "configReceived": true}`))
	is.NoErr(err)
	is.Equal(*report.BatteryLevel, 80)
	is.Equal(*report.SignalStrength, -50)
	is.True(report.ConfigReceived)

	report, err = ParseStatus([]byte(`{}`))
	is.NoErr(err)
	is.Equal(report.BatteryLevel, nil)
	is.True(!report.NeedConfig)
}

func TestParseStatusRejectsOutOfRange(t *testing.T) {
	is := is.New(t)

	_, err := ParseStatus([]byte(`{"battery": 140}`))
	var verr *ValidationError
	is.True(errors.As(err, &verr))
	is.Equal(verr.Field, "batteryLevel")

	_, err = ParseStatus([]byte(`{"rssi": 12}`))
	is.True(errors.As(err, &verr))
	is.Equal(verr.Field, "signalStrength")
}

func TestParseLocation(t *testing.T) {
	is := is.New(t)
	now := time.Now()

	msg, err := ParseLocation([]byte(`{"latitude": 10.77, "longitude": 106.69, "speed": 1.5, "batteryLevel": 90}`), now)
	is.NoErr(err)
	is.Equal(msg.Latitude, 10.77)
	is.Equal(*msg.Speed, 1.5)
	is.Equal(*msg.BatteryLevel, 90)
	is.True(msg.RecordedAt.Equal(now))

	msg, err = ParseLocation([]byte(`{"lat": 1, "lng": 2, "timestamp": 1717171717000}`), now)
	is.NoErr(err)
	is.Equal(msg.RecordedAt.UnixMilli(), int64(1717171717000))

	_, err = ParseLocation([]byte(`{"longitude": 106}`), now)
	var verr *ValidationError
	is.True(errors.As(err, &verr))
	is.Equal(verr.Field, "latitude")

	_, err = ParseLocation([]byte(`{"latitude": 91, "longitude": 0}`), now)
	is.True(errors.As(err, &verr))

	_, err = ParseLocation([]byte(`{"latitude": `), now)
	is.True(errors.Is(err, ErrMalformedPayload))
}

func TestClassifyConfigMessage(t *testing.T) {
	is := is.New(t)

	cases := []struct {
		payload string
		want    ConfigMessageKind
	}{
		{`{"type":"config_request"}`, ConfigRequest},
		{`{"configRequest":true}`, ConfigRequest},
		{`{"deviceId":"PT-1","configSentAt":"2024-01-01T00:00:00Z","petName":"Milo"}`, ConfigEcho},
		{``, ConfigCleared},
		{`{"type":"hello"}`, ConfigUnknown},
	}
	for _, c := range cases {
		got, err := ClassifyConfigMessage([]byte(c.payload))
		is.NoErr(err)
		is.Equal(got, c.want)
	}

	_, err := ClassifyConfigMessage([]byte(`not json`))
	is.True(errors.Is(err, ErrMalformedPayload))
}

func TestParseAlert(t *testing.T) {
	is := is.New(t)

	alert, err := ParseAlert([]byte(`{"type":"low_battery","level":5}`))
	is.NoErr(err)
	is.Equal(alert.Type, "low_battery")

	alert, err = ParseAlert([]byte(`{"level":5}`))
	is.NoErr(err)
	is.Equal(alert.Type, "unspecified")

	_, err = ParseAlert([]byte(`[1,2]`))
	is.True(errors.Is(err, ErrMalformedPayload))
}
