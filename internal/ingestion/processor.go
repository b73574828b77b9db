package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"pet-tracker/internal/logger"
	"pet-tracker/internal/metrics"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const defaultHandleTimeout = 30 * time.Second

// Handler reacts to decoded device messages.
type Handler interface {
	HandleLocation(ctx context.Context, deviceID string, msg *LocationMessage) error
	HandleStatus(ctx context.Context, deviceID string, report *StatusReport) error
	HandleConfigRequest(ctx context.Context, deviceID string) error
	HandleAlert(ctx context.Context, deviceID string, alert *AlertMessage) error
}

// Event is one raw inbound message waiting in a lane.
type Event struct {
	DeviceID   string
	Class      string
	Payload    []byte
	ReceivedAt time.Time
}

// Processor fans inbound events out to worker lanes. All events of one device hash
// to the same lane, so a device's messages are handled in arrival order while
// different devices proceed concurrently.
type Processor struct {
	handler Handler
	stats   *StatsTracker

	lanes         []chan Event
	handleTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewProcessor creates a processor with workerCount lanes of bufferSize events each.
func NewProcessor(handler Handler, stats *StatsTracker, workerCount, bufferSize int) *Processor {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if stats == nil {
		stats = NewStatsTracker()
	}

	ctx, cancel := context.WithCancel(context.Background())
	lanes := make([]chan Event, workerCount)
	for i := range lanes {
		lanes[i] = make(chan Event, bufferSize)
	}

	return &Processor{
		handler:       handler,
		stats:         stats,
		lanes:         lanes,
		handleTimeout: defaultHandleTimeout,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start starts one worker per lane
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := range p.lanes {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.Info("Processor started", zap.Int("workers", len(p.lanes)), zap.Int("buffer_size", cap(p.lanes[0])))
}

// Stop drains the lanes and waits for in-flight events.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, lane := range p.lanes {
		close(lane)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()

	logger.Info("Processor stopped")
}

func (p *Processor) laneFor(deviceID string) int {
	return int(xxhash.Sum64String(deviceID) % uint64(len(p.lanes)))
}

// Submit queues an event without blocking. A full lane drops the event.
func (p *Processor) Submit(ev Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}

	idx := p.laneFor(ev.DeviceID)
	select {
	case p.lanes[idx] <- ev:
		p.stats.Update(func(s *SyncStats) {
			s.MessagesReceived++
		})
		metrics.LaneQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(p.lanes[idx])))
		return true
	default:
		logger.Warn("Lane buffer full, dropping message",
			zap.String("device_id", ev.DeviceID),
			zap.String("class", ev.Class),
			zap.Int("lane", idx),
		)
		p.stats.Update(func(s *SyncStats) {
			s.MessagesDropped++
		})
		metrics.RecordInbound(ev.Class, metrics.ResultDropped)
		return false
	}
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()
	lane := p.lanes[id]
	label := strconv.Itoa(id)

	for ev := range lane {
		metrics.LaneQueueDepth.WithLabelValues(label).Set(float64(len(lane)))
		p.handle(ev)
	}
}

// handle isolates one event: a panic or error never reaches the other events in the lane.
func (p *Processor) handle(ev Event) {
	start := time.Now()
	log := logger.WithDevice(ev.DeviceID).With(zap.String("class", ev.Class))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Event handler panic recovered", zap.Any("panic", r))
			p.stats.Update(func(s *SyncStats) { s.MessagesFailed++ })
			metrics.RecordInbound(ev.Class, metrics.ResultFailed)
		}
	}()

	ctx, cancel := context.WithTimeout(p.ctx, p.handleTimeout)
	defer cancel()

	err := p.process(ctx, ev)

	var verr *ValidationError
	switch {
	case err == nil:
		p.stats.Update(func(s *SyncStats) {
			s.MessagesProcessed++
			s.LastProcessedAt = time.Now()
			elapsed := time.Since(start)
			if s.AverageProcessingTime == 0 {
				s.AverageProcessingTime = elapsed
			} else {
				s.AverageProcessingTime = (s.AverageProcessingTime + elapsed) / 2
			}
		})
		metrics.RecordInbound(ev.Class, metrics.ResultOK)
	case errors.Is(err, ErrMalformedPayload), errors.As(err, &verr):
		log.Warn("Dropping invalid payload", zap.Error(err))
		p.stats.Update(func(s *SyncStats) { s.MessagesInvalid++ })
		metrics.RecordInbound(ev.Class, metrics.ResultInvalid)
	default:
		log.Error("Failed to process message", zap.Error(err))
		p.stats.Update(func(s *SyncStats) { s.MessagesFailed++ })
		metrics.RecordInbound(ev.Class, metrics.ResultFailed)
	}
}

func (p *Processor) process(ctx context.Context, ev Event) error {
	switch ev.Class {
	case pkgmqtt.ClassLocation:
		msg, err := ParseLocation(ev.Payload, ev.ReceivedAt)
		if err != nil {
			return err
		}
		return p.handler.HandleLocation(ctx, ev.DeviceID, msg)

	case pkgmqtt.ClassStatus:
		report, err := ParseStatus(ev.Payload)
		if err != nil {
			return err
		}
		return p.handler.HandleStatus(ctx, ev.DeviceID, report)

	case pkgmqtt.ClassConfig:
		kind, err := ClassifyConfigMessage(ev.Payload)
		if err != nil {
			return err
		}
		if kind != ConfigRequest {
			logger.Debug("Ignoring config topic message",
				zap.String("device_id", ev.DeviceID),
				zap.Stringer("kind", kind),
			)
			return nil
		}
		return p.handler.HandleConfigRequest(ctx, ev.DeviceID)

	case pkgmqtt.ClassAlert:
		alert, err := ParseAlert(ev.Payload)
		if err != nil {
			return err
		}
		p.stats.Update(func(s *SyncStats) { s.AlertsReceived++ })
		return p.handler.HandleAlert(ctx, ev.DeviceID, alert)

	default:
		return &ValidationError{Field: "topic", Message: fmt.Sprintf("unrecognized message class %q", ev.Class)}
	}
}

// Stats returns the shared stats tracker
func (p *Processor) Stats() *StatsTracker {
	return p.stats
}
