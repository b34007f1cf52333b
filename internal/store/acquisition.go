package store

import (
	"context"
	"time"

	"github.com/bemserver/acquisition-engine/internal/model"
)

// GetBroker fetches a Broker by id.
func (s *Store) GetBroker(ctx context.Context, id int64) (model.Broker, error) {
	const q = `SELECT id, host, port, protocol_version, transport, is_auth_required,
		use_tls, tls_version, tls_verifymode, tls_certificate
		FROM brokers WHERE id = $1`
	var b model.Broker
	row := s.Pool.QueryRow(ctx, q, id)
	if err := row.Scan(&b.ID, &b.Host, &b.Port, &b.ProtocolVersion, &b.Transport, &b.IsAuthRequired,
		&b.UseTLS, &b.TLSVersion, &b.TLSVerifyMode, &b.TLSCertificate); err != nil {
		return model.Broker{}, &Error{Op: "get_broker", Err: err}
	}
	return b, nil
}

// ListEnabledSubscribers returns every Subscriber with is_enabled = true.
func (s *Store) ListEnabledSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	const q = `SELECT id, is_enabled, keep_alive_seconds, use_persistent_session,
		session_expiry_seconds, username, password, broker_id, is_connected,
		COALESCE(timestamp_last_connection, 'epoch'::timestamptz)
		FROM subscribers WHERE is_enabled = TRUE ORDER BY id`

	rowsx, err := s.Pool.Query(ctx, q)
	if err != nil {
		return nil, &Error{Op: "list_enabled_subscribers", Err: err}
	}
	defer rowsx.Close()

	var out []model.Subscriber
	for rowsx.Next() {
		var sub model.Subscriber
		var keepAlive, sessionExpiry int
		if err := rowsx.Scan(&sub.ID, &sub.IsEnabled, &keepAlive, &sub.UsePersistentSession,
			&sessionExpiry, &sub.Username, &sub.Password, &sub.BrokerID, &sub.IsConnected,
			&sub.TimestampLastConnection); err != nil {
			return nil, &Error{Op: "list_enabled_subscribers", Err: err}
		}
		sub.KeepAlive = time.Duration(keepAlive) * time.Second
		sub.SessionExpiry = time.Duration(sessionExpiry) * time.Second
		out = append(out, sub)
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "list_enabled_subscribers", Err: err}
	}
	return out, nil
}

// SetSubscriberConnected persists Subscriber.IsConnected and, when true,
// TimestampLastConnection = now.
func (s *Store) SetSubscriberConnected(ctx context.Context, subscriberID int64, connected bool, now time.Time) error {
	const q = `UPDATE subscribers SET is_connected = $2,
		timestamp_last_connection = CASE WHEN $2 THEN $3 ELSE timestamp_last_connection END
		WHERE id = $1`
	if _, err := s.Pool.Exec(ctx, q, subscriberID, connected, now.UTC()); err != nil {
		return &Error{Op: "set_subscriber_connected", Err: err}
	}
	return nil
}

// SetBrokerTLSCertificate persists the certificate PEM for a broker. The
// acquisition engine does not call it; it writes the certificate to disk
// with materializeCert instead.
func (s *Store) SetBrokerTLSCertificate(ctx context.Context, brokerID int64, pemCert string) error {
	const q = `UPDATE brokers SET tls_certificate = $2 WHERE id = $1`
	if _, err := s.Pool.Exec(ctx, q, brokerID, pemCert); err != nil {
		return &Error{Op: "set_broker_tls_certificate", Err: err}
	}
	return nil
}

// TopicForSubscriber is a Topic joined with its per-subscriber link state,
// as needed to drive subscribe/unsubscribe.
type TopicForSubscriber struct {
	Topic   model.Topic
	Link    model.TopicBySubscriber
	Decoder model.PayloadDecoder
}

// ListTopicsForSubscriber returns every enabled topic associated with
// subscriber (via topics_by_broker on the subscriber's broker), joined
// with its topics_by_subscriber row and its bound decoder. When that row
// is absent, the link fields take defaults (not subscribed, enabled) and
// no row is created here; SetTopicSubscribed creates it.
func (s *Store) ListTopicsForSubscriber(ctx context.Context, subscriberID, brokerID int64) ([]TopicForSubscriber, error) {
	const q = `SELECT t.id, t.name, t.qos, t.description, t.payload_decoder_id, t.is_enabled,
		pd.id, pd.name, pd.description,
		COALESCE(tbs.is_subscribed, FALSE), COALESCE(tbs.timestamp_last_subscription, 'epoch'::timestamptz), COALESCE(tbs.is_enabled, TRUE)
		FROM topics t
		JOIN topics_by_broker tbb ON tbb.topic_id = t.id AND tbb.broker_id = $2 AND tbb.is_enabled
		JOIN payload_decoders pd ON pd.id = t.payload_decoder_id
		LEFT JOIN topics_by_subscriber tbs ON tbs.topic_id = t.id AND tbs.subscriber_id = $1
		WHERE t.is_enabled = TRUE
		ORDER BY t.id`

	rowsx, err := s.Pool.Query(ctx, q, subscriberID, brokerID)
	if err != nil {
		return nil, &Error{Op: "list_topics_for_subscriber", Err: err}
	}
	defer rowsx.Close()

	var out []TopicForSubscriber
	for rowsx.Next() {
		var r TopicForSubscriber
		if err := rowsx.Scan(&r.Topic.ID, &r.Topic.Name, &r.Topic.QoS, &r.Topic.Description,
			&r.Topic.PayloadDecoderID, &r.Topic.IsEnabled,
			&r.Decoder.ID, &r.Decoder.Name, &r.Decoder.Description,
			&r.Link.IsSubscribed, &r.Link.TimestampLastSubscription, &r.Link.IsEnabled); err != nil {
			return nil, &Error{Op: "list_topics_for_subscriber", Err: err}
		}
		r.Link.TopicID = r.Topic.ID
		r.Link.SubscriberID = subscriberID
		out = append(out, r)
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "list_topics_for_subscriber", Err: err}
	}
	return out, nil
}

// SetTopicSubscribed upserts topics_by_subscriber, setting IsSubscribed and
// (when true) TimestampLastSubscription = now.
func (s *Store) SetTopicSubscribed(ctx context.Context, topicID, subscriberID int64, subscribed bool, now time.Time) error {
	const q = `INSERT INTO topics_by_subscriber (topic_id, subscriber_id, is_subscribed, timestamp_last_subscription, is_enabled)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (topic_id, subscriber_id) DO UPDATE SET
			is_subscribed = EXCLUDED.is_subscribed,
			timestamp_last_subscription = CASE WHEN EXCLUDED.is_subscribed THEN EXCLUDED.timestamp_last_subscription ELSE topics_by_subscriber.timestamp_last_subscription END`
	if _, err := s.Pool.Exec(ctx, q, topicID, subscriberID, subscribed, now.UTC()); err != nil {
		return &Error{Op: "set_topic_subscribed", Err: err}
	}
	return nil
}

// ClearAllSubscriptions marks every topic of subscriberID as unsubscribed;
// called at the start of Subscriber.Disconnect.
func (s *Store) ClearAllSubscriptions(ctx context.Context, subscriberID int64) error {
	const q = `UPDATE topics_by_subscriber SET is_subscribed = FALSE WHERE subscriber_id = $1`
	if _, err := s.Pool.Exec(ctx, q, subscriberID); err != nil {
		return &Error{Op: "clear_all_subscriptions", Err: err}
	}
	return nil
}

// ResolvedTopicLink is a TopicLink together with the name of its payload
// field.
type ResolvedTopicLink struct {
	Link      model.TopicLink
	FieldName string
}

// TopicLinksForTopic returns every TopicLink bound to topicID, with each
// link's payload field name resolved.
func (s *Store) TopicLinksForTopic(ctx context.Context, topicID int64) ([]ResolvedTopicLink, error) {
	const q = `SELECT tl.topic_id, tl.payload_field_id, tl.timeseries_id, pf.name
		FROM topic_links tl
		JOIN payload_fields pf ON pf.id = tl.payload_field_id
		WHERE tl.topic_id = $1`

	rowsx, err := s.Pool.Query(ctx, q, topicID)
	if err != nil {
		return nil, &Error{Op: "topic_links_for_topic", Err: err}
	}
	defer rowsx.Close()

	var out []ResolvedTopicLink
	for rowsx.Next() {
		var r ResolvedTopicLink
		if err := rowsx.Scan(&r.Link.TopicID, &r.Link.PayloadFieldID, &r.Link.TimeseriesID, &r.FieldName); err != nil {
			return nil, &Error{Op: "topic_links_for_topic", Err: err}
		}
		out = append(out, r)
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "topic_links_for_topic", Err: err}
	}
	return out, nil
}

// RegisterDecoder ensures a PayloadDecoder row with the given name and
// description exists, then ensures a PayloadField row exists for each of
// fields. Removal of fields no longer declared by the decoder is not
// automatic.
func (s *Store) RegisterDecoder(ctx context.Context, name, description string, fields []string) (int64, error) {
	const upsertDecoder = `INSERT INTO payload_decoders (name, description) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`
	var id int64
	if err := s.Pool.QueryRow(ctx, upsertDecoder, name, description).Scan(&id); err != nil {
		return 0, &Error{Op: "register_decoder", Err: err}
	}

	const upsertField = `INSERT INTO payload_fields (payload_decoder_id, name) VALUES ($1, $2)
		ON CONFLICT (payload_decoder_id, name) DO NOTHING`
	for _, f := range fields {
		if _, err := s.Pool.Exec(ctx, upsertField, id, f); err != nil {
			return 0, &Error{Op: "register_decoder", Err: err}
		}
	}
	return id, nil
}
