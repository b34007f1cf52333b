package model

import "time"

// SessionState is the lifecycle state of a Subscriber's MQTT client
// session, as tracked by the acquisition engine.
type SessionState int

const (
	Disconnected SessionState = iota
	Connecting
	Connected
	Disconnecting
)

func (s SessionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Subscriber is an aggregate root for one live MQTT session. Deletion is
// allowed by the store only when IsConnected is false.
type Subscriber struct {
	ID                      int64
	IsEnabled               bool
	KeepAlive               time.Duration
	UsePersistentSession    bool
	SessionExpiry           time.Duration
	Username                string
	Password                string
	BrokerID                int64
	IsConnected             bool
	TimestampLastConnection time.Time
}

// RequiresUsername reports whether broker auth requires this subscriber
// to carry a non-empty username.
func (s Subscriber) RequiresUsername(broker Broker) bool {
	return broker.IsAuthRequired
}

// Verify checks the cross-entity invariant tying Subscriber to its Broker.
func (s Subscriber) Verify(broker Broker) error {
	if s.RequiresUsername(broker) && s.Username == "" {
		return &SubscriberError{Reason: "broker requires auth but username is empty"}
	}
	return nil
}

// SubscriberError reports an invalid Subscriber/Broker pairing.
type SubscriberError struct {
	Reason string
}

func (e *SubscriberError) Error() string {
	return "subscriber: " + e.Reason
}
