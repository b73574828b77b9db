package configsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-tracker/internal/domain/device"
	"pet-tracker/internal/domain/telemetry"
	"pet-tracker/internal/ingestion"
	"pet-tracker/internal/logger"
	"pet-tracker/internal/metrics"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Trigger names why a dispatch was attempted.
type Trigger string

const (
	TriggerTelemetry    Trigger = "telemetry"
	TriggerStatus       Trigger = "status"
	TriggerRequest      Trigger = "config_request"
	TriggerSafeZone     Trigger = "safe_zone"
	TriggerRegistration Trigger = "registration"
	TriggerProfile      Trigger = "profile"
	TriggerManual       Trigger = "manual"
)

// TelemetryMirror receives a copy of every stored sample. Writes must not block.
type TelemetryMirror interface {
	WriteSample(sample *telemetry.Sample)
}

type Options struct {
	DispatchDelay time.Duration
	Topics        pkgmqtt.Topics
	Stats         *ingestion.StatsTracker
	Mirror        TelemetryMirror
}

// Coordinator decides, for every inbound event and owner edit, whether a device
// needs its configuration re-published, and performs the dispatch.
// It keeps no per-device state in memory; the device registry is the only source of truth.
type Coordinator struct {
	devices   device.Repository
	samples   telemetry.Repository
	assembler *Assembler
	publisher Publisher
	scheduler *Scheduler
	topics    pkgmqtt.Topics
	stats     *ingestion.StatsTracker
	mirror    TelemetryMirror
	now       func() time.Time
}

var _ ingestion.Handler = (*Coordinator)(nil)

func NewCoordinator(devices device.Repository, samples telemetry.Repository, assembler *Assembler, publisher Publisher, opts Options) *Coordinator {
	if opts.Stats == nil {
		opts.Stats = ingestion.NewStatsTracker()
	}
	return &Coordinator{
		devices:   devices,
		samples:   samples,
		assembler: assembler,
		publisher: publisher,
		scheduler: NewScheduler(opts.DispatchDelay),
		topics:    opts.Topics,
		stats:     opts.Stats,
		mirror:    opts.Mirror,
		now:       time.Now,
	}
}

// activeDevice loads a device and reports whether events for it should be processed.
func (c *Coordinator) activeDevice(ctx context.Context, deviceID string) (*device.Device, bool, error) {
	dev, err := c.devices.GetByDeviceID(ctx, deviceID)
	if errors.Is(err, device.ErrDeviceNotFound) {
		logger.WithDevice(deviceID).Warn("Message from unregistered device dropped")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !dev.IsActive {
		logger.WithDevice(deviceID).Info("Message from inactive device ignored")
		return nil, false, nil
	}
	return dev, true, nil
}

// HandleLocation records the sample, refreshes lastSeen and dispatches immediately:
// a device that just transmitted is listening.
func (c *Coordinator) HandleLocation(ctx context.Context, deviceID string, msg *ingestion.LocationMessage) error {
	dev, ok, err := c.activeDevice(ctx, deviceID)
	if err != nil || !ok {
		return err
	}

	sample := &telemetry.Sample{
		PetID:        dev.PetID,
		DeviceID:     deviceID,
		RecordedAt:   msg.RecordedAt,
		Latitude:     msg.Latitude,
		Longitude:    msg.Longitude,
		Speed:        msg.Speed,
		Accuracy:     msg.Accuracy,
		BatteryLevel: msg.BatteryLevel,
	}
	if err := c.samples.Append(ctx, sample); err != nil {
		return fmt.Errorf("store location: %w", err)
	}
	if c.mirror != nil {
		c.mirror.WriteSample(sample)
	}

	hb := device.Heartbeat{SeenAt: c.now(), BatteryLevel: msg.BatteryLevel}
	if err := c.devices.TouchLastSeen(ctx, deviceID, hb); err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}

	_ = c.Dispatch(ctx, deviceID, TriggerTelemetry)
	return nil
}

// HandleStatus refreshes the registry and schedules a dispatch when the device
// asks for one or has never been configured.
func (c *Coordinator) HandleStatus(ctx context.Context, deviceID string, report *ingestion.StatusReport) error {
	dev, ok, err := c.activeDevice(ctx, deviceID)
	if err != nil || !ok {
		return err
	}

	now := c.now()
	hb := device.Heartbeat{SeenAt: now, BatteryLevel: report.BatteryLevel, SignalStrength: report.SignalStrength}
	if err := c.devices.TouchLastSeen(ctx, deviceID, hb); err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}

	if report.ConfigReceived {
		if err := c.devices.MarkConfigAcknowledged(ctx, deviceID, now); err != nil {
			return fmt.Errorf("record config ack: %w", err)
		}
	}

	if report.NeedConfig || !dev.ConfigSent {
		logger.WithDevice(deviceID).Debug("Status requires config",
			zap.Bool("need_config", report.NeedConfig),
			zap.Bool("config_sent", dev.ConfigSent),
		)
		c.scheduleDispatch(deviceID, TriggerStatus)
	}
	return nil
}

// HandleConfigRequest answers an explicit request right away.
func (c *Coordinator) HandleConfigRequest(ctx context.Context, deviceID string) error {
	logger.WithDevice(deviceID).Info("Config requested by device")
	_ = c.Dispatch(ctx, deviceID, TriggerRequest)
	return nil
}

// HandleAlert logs the alert and counts as a sign of life. Alerts never trigger a dispatch.
func (c *Coordinator) HandleAlert(ctx context.Context, deviceID string, alert *ingestion.AlertMessage) error {
	_, ok, err := c.activeDevice(ctx, deviceID)
	if err != nil || !ok {
		return err
	}

	logger.WithDevice(deviceID).Warn("Device alert received",
		zap.String("alert_type", alert.Type),
		zap.Any("fields", alert.Fields),
	)
	return c.devices.TouchLastSeen(ctx, deviceID, device.Heartbeat{SeenAt: c.now()})
}

// TriggerAutoConfig is called after an owner edits safe zones. The dispatch is delayed
// and best effort: the next telemetry cycle repairs any miss.
func (c *Coordinator) TriggerAutoConfig(deviceID string) {
	c.scheduleDispatch(deviceID, TriggerSafeZone)
}

// TriggerRegistration schedules the first dispatch for a newly paired device.
func (c *Coordinator) TriggerRegistration(deviceID string) {
	c.scheduleDispatch(deviceID, TriggerRegistration)
}

// TriggerProfileChange re-publishes after the owner's name or phone changed.
func (c *Coordinator) TriggerProfileChange(deviceID string) {
	c.scheduleDispatch(deviceID, TriggerProfile)
}

func (c *Coordinator) scheduleDispatch(deviceID string, trigger Trigger) {
	scheduled := c.scheduler.Schedule(func(ctx context.Context) {
		_ = c.Dispatch(ctx, deviceID, trigger)
	})
	if !scheduled {
		logger.WithDevice(deviceID).Debug("Dispatch not scheduled, shutting down", zap.String("trigger", string(trigger)))
	}
}

// Dispatch assembles and publishes a retained configuration, then records the delivery.
// Every outcome is logged here; the error is returned for callers that report it.
func (c *Coordinator) Dispatch(ctx context.Context, deviceID string, trigger Trigger) error {
	start := time.Now()
	log := logger.WithDevice(deviceID).With(zap.String("trigger", string(trigger)))

	res, err := c.assembler.Assemble(ctx, deviceID)
	if err != nil {
		if IsResolutionError(err) {
			log.Info("Config dispatch skipped", zap.Error(err))
			c.record(trigger, metrics.ResultSkipped, start)
		} else {
			log.Error("Config dispatch aborted", zap.Error(err))
			c.record(trigger, metrics.ResultFailed, start)
		}
		return err
	}

	body, err := json.Marshal(res.Payload)
	if err != nil {
		log.Error("Failed to encode config payload", zap.Error(err))
		c.record(trigger, metrics.ResultFailed, start)
		return fmt.Errorf("encode payload: %w", err)
	}

	if err := c.publisher.PublishRetained(c.topics.Config(deviceID), body); err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, pkgmqtt.ErrNotConnected) {
			result = metrics.ResultRejected
		}
		log.Warn("Config publish failed", zap.Error(err))
		c.record(trigger, result, start)
		return fmt.Errorf("publish config: %w", err)
	}

	if err := c.devices.MarkConfigSent(ctx, deviceID, c.now()); err != nil {
		log.Error("Config published but registry update failed", zap.Error(err))
		c.record(trigger, metrics.ResultFailed, start)
		return fmt.Errorf("mark config sent: %w", err)
	}

	log.Info("Config dispatched",
		zap.Bool("safe_zone", res.Payload.SafeZone != nil),
		zap.Int("update_interval", res.Payload.UpdateInterval),
		zap.Duration("took", time.Since(start)),
	)
	c.record(trigger, metrics.ResultOK, start)
	return nil
}

func (c *Coordinator) record(trigger Trigger, result string, start time.Time) {
	metrics.RecordDispatch(string(trigger), result, start)
	c.stats.Update(func(s *ingestion.SyncStats) {
		switch result {
		case metrics.ResultOK:
			s.ConfigsDispatched++
			s.LastDispatchAt = time.Now()
		case metrics.ResultSkipped:
			s.DispatchesSkipped++
		default:
			s.DispatchesFailed++
		}
	})
}

// ResetConfig clears the retained configuration on the broker and marks the device unconfigured.
func (c *Coordinator) ResetConfig(ctx context.Context, deviceID string) error {
	if _, err := c.devices.GetByDeviceID(ctx, deviceID); err != nil {
		return err
	}
	if err := c.publisher.ClearRetained(c.topics.Config(deviceID)); err != nil {
		return fmt.Errorf("clear retained config: %w", err)
	}
	if err := c.devices.ResetConfigSent(ctx, deviceID); err != nil {
		return err
	}
	logger.WithDevice(deviceID).Info("Retained config cleared")
	return nil
}

// Stats returns the shared sync statistics.
func (c *Coordinator) Stats() ingestion.SyncStats {
	return c.stats.Snapshot()
}

// PendingDispatches is the number of delayed dispatches not yet fired.
func (c *Coordinator) PendingDispatches() int {
	return c.scheduler.Pending()
}

// Close drops pending delayed dispatches and waits for running ones.
func (c *Coordinator) Close() {
	c.scheduler.Stop()
}
