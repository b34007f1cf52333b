// Package acquisition runs the MQTT acquisition engine: one Subscriber
// session per enabled subscriber row, each decoding its topics' payloads
// and batching decoded points into the store.
package acquisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bemserver/acquisition-engine/internal/decoder"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// heartbeatPollInterval bounds how often the supervisor goroutine checks
// subscribers for reception silence; heartbeatLossFactor is the multiple
// of a subscriber's keep-alive after which silence is treated as a lost
// connection, per the idle-subscriber heartbeat-loss decision.
const (
	heartbeatPollInterval = 10 * time.Second
	heartbeatLossFactor   = 3
	disconnectGrace       = 5 * time.Second
)

// ServiceError reports that the engine could not start.
type ServiceError struct {
	Reason string
}

func (e *ServiceError) Error() string {
	return "acquisition service: " + e.Reason
}

// Service owns every running Subscriber session for the lifetime of one
// acquisition run.
type Service struct {
	st         *store.Store
	registry   *decoder.Registry
	workingDir string
	clientID   string
	log        zerolog.Logger

	writerBatchSize int
	writerInterval  time.Duration

	mu          sync.Mutex
	subscribers []*Subscriber

	supervisorCancel context.CancelFunc
	supervisorDone   chan struct{}
}

// NewService constructs a Service. clientID is used verbatim for every
// persistent-session subscriber and suffixed per subscriber otherwise.
// writerBatchSize and writerInterval tune each subscriber's point-write
// batching; zero values fall back to the package defaults.
func NewService(st *store.Store, registry *decoder.Registry, workingDir, clientID string, writerBatchSize int, writerInterval time.Duration, log zerolog.Logger) *Service {
	return &Service{
		st:              st,
		registry:        registry,
		workingDir:      workingDir,
		clientID:        clientID,
		writerBatchSize: writerBatchSize,
		writerInterval:  writerInterval,
		log:             log.With().Str("component", "acquisition").Logger(),
	}
}

// Run registers every built-in decoder, connects every enabled
// subscriber, and starts the heartbeat-loss supervisor. It returns once
// every subscriber has attempted to connect; a per-subscriber failure is
// logged and does not abort the others.
func (svc *Service) Run(ctx context.Context) error {
	for _, d := range svc.registry.All() {
		if _, err := svc.st.RegisterDecoder(ctx, d.Name(), d.Description(), d.Fields()); err != nil {
			return &ServiceError{Reason: fmt.Sprintf("register decoder %s: %v", d.Name(), err)}
		}
	}

	subs, err := svc.st.ListEnabledSubscribers(ctx)
	if err != nil {
		return &ServiceError{Reason: "list enabled subscribers: " + err.Error()}
	}
	if len(subs) == 0 {
		return &ServiceError{Reason: "no enabled subscribers configured"}
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	for _, sub := range subs {
		broker, err := svc.st.GetBroker(ctx, sub.BrokerID)
		if err != nil {
			svc.log.Error().Err(err).Int64("subscriber_id", sub.ID).Msg("failed to load broker")
			continue
		}
		if err := broker.Verify(); err != nil {
			svc.log.Error().Err(err).Int64("subscriber_id", sub.ID).Msg("broker configuration is invalid")
			continue
		}

		runner := newSubscriber(sub, broker, svc.st, svc.registry, svc.workingDir, svc.writerBatchSize, svc.writerInterval, svc.log)
		clientID := svc.clientID
		if !sub.UsePersistentSession {
			clientID = fmt.Sprintf("%s-%d", svc.clientID, sub.ID)
		}
		if err := runner.Connect(ctx, clientID); err != nil {
			svc.log.Error().Err(err).Int64("subscriber_id", sub.ID).Msg("failed to connect subscriber")
			continue
		}
		svc.subscribers = append(svc.subscribers, runner)
	}

	if len(svc.subscribers) == 0 {
		return &ServiceError{Reason: "every subscriber failed to connect"}
	}

	supCtx, cancel := context.WithCancel(context.Background())
	svc.supervisorCancel = cancel
	svc.supervisorDone = make(chan struct{})
	go svc.superviseHeartbeats(supCtx)

	return nil
}

// Stop disconnects every running subscriber, giving each up to
// disconnectGrace before moving on, and stops the supervisor.
func (svc *Service) Stop(ctx context.Context) {
	svc.mu.Lock()
	if svc.supervisorCancel != nil {
		svc.supervisorCancel()
		<-svc.supervisorDone
	}
	subs := svc.subscribers
	svc.subscribers = nil
	svc.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *Subscriber) {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, disconnectGrace)
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- s.Disconnect(dctx) }()
			select {
			case err := <-done:
				if err != nil {
					svc.log.Error().Err(err).Msg("subscriber disconnect failed")
				}
			case <-dctx.Done():
				svc.log.Warn().Msg("subscriber disconnect exceeded grace period; dropped")
			}
		}(sub)
	}
	wg.Wait()
}

// ConnectedSubscriberCount reports how many managed subscribers currently
// report connected, for metrics.AcquisitionStats.
func (svc *Service) ConnectedSubscriberCount() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	n := 0
	for _, sub := range svc.subscribers {
		if sub.IsConnected() {
			n++
		}
	}
	return n
}

// RunningSubscriberCount reports how many subscribers the engine is
// currently managing, for metrics.AcquisitionStats.
func (svc *Service) RunningSubscriberCount() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.subscribers)
}

// superviseHeartbeats periodically checks every running subscriber for
// reception silence past heartbeatLossFactor times its keep-alive.
func (svc *Service) superviseHeartbeats(ctx context.Context) {
	defer close(svc.supervisorDone)

	ticker := time.NewTicker(heartbeatPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.checkHeartbeats(ctx)
		}
	}
}

func (svc *Service) checkHeartbeats(ctx context.Context) {
	svc.mu.Lock()
	subs := append([]*Subscriber(nil), svc.subscribers...)
	svc.mu.Unlock()

	now := time.Now().UTC()
	for _, sub := range subs {
		keepAlive := sub.model.KeepAlive
		if keepAlive <= 0 || !sub.IsConnected() {
			continue
		}
		last := sub.events.lastReceptionAt()
		if last.IsZero() {
			continue
		}
		if now.Sub(last) > time.Duration(heartbeatLossFactor)*keepAlive {
			source := fmt.Sprintf("subscriber:%d", sub.model.ID)
			sub.events.recordHeartbeatLoss(ctx, now, source)
		}
	}
}
