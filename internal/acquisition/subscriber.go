package acquisition

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/bemserver/acquisition-engine/internal/decoder"
	"github.com/bemserver/acquisition-engine/internal/model"
	"github.com/bemserver/acquisition-engine/internal/mqttclient"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// connectPollInterval and connectTimeout bound the wait for a state
// transition to become effective, replacing the source implementation's
// unbounded `while not connected: sleep(0.1)` busy loop with a hard cap
// plus periodic poll.
const (
	connectPollInterval = 100 * time.Millisecond
	connectTimeout      = 30 * time.Second
)

// Subscriber is the runtime session for one model.Subscriber: its MQTT
// client, its point writer, and its lifecycle state.
type Subscriber struct {
	mu    sync.Mutex
	model model.Subscriber
	state model.SessionState

	broker model.Broker
	client *mqttclient.Client
	writer *writer
	topics []store.TopicForSubscriber
	events *eventTracker

	st       *store.Store
	registry *decoder.Registry
	log      zerolog.Logger

	workingDir      string
	writerBatchSize int
	writerInterval  time.Duration
}

// newSubscriber constructs a Subscriber runtime wrapper in state
// Disconnected. It does not touch the network.
func newSubscriber(sub model.Subscriber, broker model.Broker, st *store.Store, registry *decoder.Registry, workingDir string, writerBatchSize int, writerInterval time.Duration, log zerolog.Logger) *Subscriber {
	l := log.With().Int64("subscriber_id", sub.ID).Logger()
	return &Subscriber{
		model:           sub,
		broker:          broker,
		state:           model.Disconnected,
		events:          newEventTracker(st, l),
		st:              st,
		registry:        registry,
		workingDir:      workingDir,
		writerBatchSize: writerBatchSize,
		writerInterval:  writerInterval,
		log:             l,
	}
}

// State returns the subscriber's current lifecycle state.
func (s *Subscriber) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the underlying client currently reports
// connected.
func (s *Subscriber) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil && s.client.IsConnected()
}

// Connect constructs the MQTT client, applies security, subscribes to
// all enabled topics from within the connect callback (so subscriptions
// are registered before any incoming message is processed — the
// equivalent, under this library's design, of "subscribe before
// starting the network loop"), then blocks until the broker confirms
// the connection.
func (s *Subscriber) Connect(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model.UsePersistentSession && clientID == "" {
		return fmt.Errorf("subscriber %d: client_id is required for a persistent session", s.model.ID)
	}
	if err := s.model.Verify(s.broker); err != nil {
		return err
	}
	s.state = model.Connecting

	topics, err := s.st.ListTopicsForSubscriber(ctx, s.model.ID, s.broker.ID)
	if err != nil {
		s.state = model.Disconnected
		return err
	}
	s.topics = topics

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		s.state = model.Disconnected
		return err
	}

	s.writer = newWriter(s.st, s.log, s.writerBatchSize, s.writerInterval)

	opts := mqttclient.Options{
		BrokerURL:            brokerURL(s.broker),
		ClientID:             clientID,
		Username:             s.model.Username,
		Password:             s.model.Password,
		KeepAlive:            s.model.KeepAlive,
		UsePersistentSession: s.model.UsePersistentSession,
		SessionExpiry:        s.model.SessionExpiry,
		TLSConfig:            tlsConfig,
		OnConnect: func(_ *mqttclient.Client) error {
			return s.subscribeAllLocked(ctx)
		},
		Log: s.log,
	}
	s.client = mqttclient.New(opts)

	if err := s.client.Connect(connectTimeout); err != nil {
		s.state = model.Disconnected
		return err
	}

	if err := s.waitUntil(func() bool { return s.client.IsConnected() }); err != nil {
		s.state = model.Disconnected
		return err
	}

	now := time.Now().UTC()
	s.model.IsConnected = true
	s.model.TimestampLastConnection = now
	if err := s.st.SetSubscriberConnected(ctx, s.model.ID, true, now); err != nil {
		s.log.Error().Err(err).Msg("failed to persist subscriber connected state")
	}
	s.state = model.Connected
	return nil
}

// subscribeAllLocked issues Subscribe for every enabled topic. It is
// called synchronously as part of Connect so registration happens before
// the client reports connected to the caller.
func (s *Subscriber) subscribeAllLocked(ctx context.Context) error {
	for _, t := range s.topics {
		if !t.Topic.IsEnabled || !t.Link.IsEnabled {
			continue
		}
		if err := s.subscribeLocked(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Subscriber) subscribeLocked(ctx context.Context, t store.TopicForSubscriber) error {
	dec, err := s.registry.Get(t.Decoder.Name)
	if err != nil {
		return err
	}
	links, err := s.st.TopicLinksForTopic(ctx, t.Topic.ID)
	if err != nil {
		return err
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		onMessage(ctx, dec, links, s.writer, s.events, s.log, msg.Topic(), msg.Payload())
	}

	if err := s.client.Subscribe(t.Topic.Name, byte(t.Topic.QoS), handler, connectTimeout); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.st.SetTopicSubscribed(ctx, t.Topic.ID, s.model.ID, true, now); err != nil {
		return err
	}
	return nil
}

// Unsubscribe tears down the MQTT subscription for topicID and clears its
// subscribed state, without disconnecting the session.
func (s *Subscriber) Unsubscribe(ctx context.Context, topicID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribeLocked(ctx, topicID)
}

func (s *Subscriber) unsubscribeLocked(ctx context.Context, topicID int64) error {
	var topicName string
	for _, t := range s.topics {
		if t.Topic.ID == topicID {
			topicName = t.Topic.Name
			break
		}
	}
	if topicName == "" {
		return fmt.Errorf("subscriber %d: topic %d is not subscribed", s.model.ID, topicID)
	}
	if s.client != nil {
		if err := s.client.Unsubscribe(topicName, connectTimeout); err != nil {
			return err
		}
	}
	return s.st.SetTopicSubscribed(ctx, topicID, s.model.ID, false, time.Now().UTC())
}

// UnsubscribeAll tears down the MQTT subscription of every enabled topic
// (the set subscribeAllLocked subscribes to) and clears subscription
// state, without disconnecting the underlying session.
func (s *Subscriber) UnsubscribeAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics {
		if !t.Topic.IsEnabled || !t.Link.IsEnabled || s.client == nil {
			continue
		}
		if err := s.client.Unsubscribe(t.Topic.Name, connectTimeout); err != nil {
			s.log.Error().Err(err).Int64("topic_id", t.Topic.ID).Msg("mqtt unsubscribe failed")
		}
	}
	return s.st.ClearAllSubscriptions(ctx, s.model.ID)
}

// Disconnect clears subscription state first, then disconnects the
// client and waits for the transition, finally stopping the writer.
func (s *Subscriber) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = model.Disconnecting

	if err := s.st.ClearAllSubscriptions(ctx, s.model.ID); err != nil {
		s.log.Error().Err(err).Msg("failed to clear subscription state")
	}

	if s.client != nil {
		s.client.Disconnect(250 * time.Millisecond)
		_ = s.waitUntil(func() bool { return !s.client.IsConnected() })
	}

	now := time.Now().UTC()
	s.model.IsConnected = false
	if err := s.st.SetSubscriberConnected(ctx, s.model.ID, false, now); err != nil {
		s.log.Error().Err(err).Msg("failed to persist subscriber disconnected state")
	}

	if s.writer != nil {
		s.writer.stop()
	}

	s.state = model.Disconnected
	return nil
}

// waitUntil polls cond at connectPollInterval until it is true or
// connectTimeout elapses.
func (s *Subscriber) waitUntil(cond func() bool) error {
	deadline := time.Now().Add(connectTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			return fmt.Errorf("subscriber %d: timed out waiting for state transition", s.model.ID)
		}
		time.Sleep(connectPollInterval)
	}
	return nil
}

func (s *Subscriber) buildTLSConfig() (*tls.Config, error) {
	if !s.broker.UseTLS {
		return nil, nil
	}
	if _, err := materializeCert(s.workingDir, s.broker.Host, []byte(s.broker.TLSCertificate)); err != nil {
		return nil, err
	}
	insecure := s.broker.TLSVerifyMode == model.TLSVerifyNone
	minVersion := uint16(tls.VersionTLS12)
	if s.broker.TLSVersion == model.TLSVersion13 {
		minVersion = tls.VersionTLS13
	}
	return mqttclient.NewTLSConfig([]byte(s.broker.TLSCertificate), insecure, minVersion)
}

func brokerURL(b model.Broker) string {
	scheme := "tcp"
	if b.UseTLS {
		scheme = "ssl"
	}
	if b.Transport == model.TransportWebsockets {
		scheme = "ws"
		if b.UseTLS {
			scheme = "wss"
		}
	}
	return fmt.Sprintf("%s://%s:%d", scheme, b.Host, b.Port)
}
