package acquisition

import (
	"testing"

	"github.com/bemserver/acquisition-engine/internal/model"
)

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		name string
		b    model.Broker
		want string
	}{
		{
			"plain_tcp",
			model.Broker{Host: "mqtt.example.com", Port: 1883},
			"tcp://mqtt.example.com:1883",
		},
		{
			"tls_tcp",
			model.Broker{Host: "mqtt.example.com", Port: 8883, UseTLS: true},
			"ssl://mqtt.example.com:8883",
		},
		{
			"plain_websockets",
			model.Broker{Host: "mqtt.example.com", Port: 80, Transport: model.TransportWebsockets},
			"ws://mqtt.example.com:80",
		},
		{
			"tls_websockets",
			model.Broker{Host: "mqtt.example.com", Port: 443, Transport: model.TransportWebsockets, UseTLS: true},
			"wss://mqtt.example.com:443",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := brokerURL(tt.b); got != tt.want {
				t.Errorf("brokerURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
