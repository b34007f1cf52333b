// Package mqttclient wraps github.com/eclipse/paho.mqtt.golang with the
// per-broker configuration the acquisition engine needs: transport (via
// the broker URL scheme), TLS, and persistent-session parameters. The
// broker's MQTT protocol version is not passed to the client; the
// library's default protocol selection applies.
package mqttclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Options parameterizes a single client session. One Client is created
// per Subscriber connect attempt; it is not reused across reconnects.
type Options struct {
	BrokerURL            string // e.g. tcp://host:1883, ssl://host:8883, ws://host:1883
	ClientID             string
	Username             string
	Password             string
	KeepAlive            time.Duration
	UsePersistentSession bool
	SessionExpiry        time.Duration // MQTT5 only; not passed to the underlying client
	TLSConfig            *tls.Config
	OnConnectionLost     func(error)
	// OnConnect runs synchronously as part of CONNACK handling, before the
	// client begins dispatching any other incoming packet. The acquisition
	// engine uses this to subscribe to all of a subscriber's topics before
	// the network loop can deliver a message to an unregistered callback —
	// the nearest equivalent, under this library's connect/loop model, of
	// subscribing before starting the network loop.
	OnConnect func(*Client) error
	Log       zerolog.Logger
}

// Client is one MQTT session.
type Client struct {
	inner mqtt.Client
	log   zerolog.Logger
}

// New constructs the underlying paho client without connecting. Per-topic
// message handlers are registered via Subscribe, not here, so each
// topic's decoder receives only its own messages.
func New(opts Options) *Client {
	o := mqtt.NewClientOptions()
	o.AddBroker(opts.BrokerURL)
	o.SetClientID(opts.ClientID)
	if opts.Username != "" {
		o.SetUsername(opts.Username)
		o.SetPassword(opts.Password)
	}
	if opts.KeepAlive > 0 {
		o.SetKeepAlive(opts.KeepAlive)
	}
	// CleanSession=false requests that the broker retain this client's
	// subscriptions and queued QoS>=1 messages across a disconnect,
	// identified by ClientID — the nearest equivalent this library
	// exposes to MQTT5's CleanStart/SessionExpiryInterval split.
	o.SetCleanSession(!opts.UsePersistentSession)
	if opts.TLSConfig != nil {
		o.SetTLSConfig(opts.TLSConfig)
	}
	o.SetOrderMatters(true) // preserve per-topic delivery order, see concurrency model
	o.SetAutoReconnect(false) // reconnection is driven by Subscriber's own state machine, not this library
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		opts.Log.Warn().Err(err).Msg("mqtt connection lost")
		if opts.OnConnectionLost != nil {
			opts.OnConnectionLost(err)
		}
	})

	c := &Client{log: opts.Log}
	o.SetOnConnectHandler(func(_ mqtt.Client) {
		if opts.OnConnect == nil {
			return
		}
		if err := opts.OnConnect(c); err != nil {
			opts.Log.Error().Err(err).Msg("mqtt: on-connect subscribe failed")
		}
	})
	c.inner = mqtt.NewClient(o)
	return c
}

// Connect starts the network loop and blocks until the client reports
// connected or timeout elapses. It issues no subscriptions itself; the
// acquisition engine subscribes from Options.OnConnect.
func (c *Client) Connect(timeout time.Duration) error {
	token := c.inner.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt connect: timed out after %s", timeout)
	}
	return token.Error()
}

// Disconnect waits up to quiesce for in-flight work to finish, then tears
// down the network loop.
func (c *Client) Disconnect(quiesce time.Duration) {
	c.inner.Disconnect(uint(quiesce.Milliseconds()))
}

// IsConnected reports the client's current connection state.
func (c *Client) IsConnected() bool {
	return c.inner.IsConnectionOpen()
}

// Subscribe registers handler as the callback for topic at qos and blocks
// until the subscribe request is acknowledged or timeout elapses.
func (c *Client) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, timeout time.Duration) error {
	token := c.inner.Subscribe(topic, qos, handler)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt subscribe %s: timed out after %s", topic, timeout)
	}
	return token.Error()
}

// Unsubscribe tears down the subscription for topic.
func (c *Client) Unsubscribe(topic string, timeout time.Duration) error {
	token := c.inner.Unsubscribe(topic)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt unsubscribe %s: timed out after %s", topic, timeout)
	}
	return token.Error()
}

// NewTLSConfig builds a tls.Config trusting pemCert in addition to the
// system root pool, honoring verifyMode via insecureSkipVerify.
func NewTLSConfig(pemCert []byte, insecureSkipVerify bool, minVersion uint16) (*tls.Config, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if len(pemCert) > 0 {
		if !pool.AppendCertsFromPEM(pemCert) {
			return nil, fmt.Errorf("mqttclient: failed to parse broker certificate PEM")
		}
	}
	return &tls.Config{
		RootCAs:            pool,
		InsecureSkipVerify: insecureSkipVerify,
		MinVersion:         minVersion,
	}, nil
}
