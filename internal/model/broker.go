package model

// ProtocolVersion selects the MQTT wire protocol a broker speaks.
type ProtocolVersion string

const (
	ProtocolV31  ProtocolVersion = "3.1"
	ProtocolV311 ProtocolVersion = "3.1.1"
	ProtocolV5   ProtocolVersion = "5"
)

// Transport selects the underlying connection type.
type Transport string

const (
	TransportTCP        Transport = "tcp"
	TransportWebsockets Transport = "websockets"
)

// TLSVerifyMode mirrors the verification strictness applied to the
// broker's certificate.
type TLSVerifyMode string

const (
	TLSVerifyNone     TLSVerifyMode = "CERT_NONE"
	TLSVerifyOptional TLSVerifyMode = "CERT_OPTIONAL"
	TLSVerifyRequired TLSVerifyMode = "CERT_REQUIRED"
)

// TLSVersion is the minimum TLS version accepted for a broker connection.
type TLSVersion string

const (
	TLSVersion12 TLSVersion = "TLSv1_2"
	TLSVersion13 TLSVersion = "TLSv1_3"
)

// Broker describes a remote MQTT endpoint. Deletion is refused by the
// store while any Subscriber references it.
type Broker struct {
	ID              int64
	Host            string
	Port            int
	ProtocolVersion ProtocolVersion
	Transport       Transport
	IsAuthRequired  bool
	UseTLS          bool
	TLSVersion      TLSVersion
	TLSVerifyMode   TLSVerifyMode
	TLSCertificate  string // PEM contents, materialized to disk at connect time
}

// DefaultBroker returns a Broker populated with the defaults the acquisition
// engine applies when a field is left zero-valued.
func DefaultBroker() Broker {
	return Broker{
		Port:            1883,
		ProtocolVersion: ProtocolV5,
		Transport:       TransportTCP,
		TLSVersion:      TLSVersion12,
		TLSVerifyMode:   TLSVerifyOptional,
	}
}

// Verify checks that, when UseTLS is set, TLSCertificate is non-empty
// and TLSVersion/TLSVerifyMode are one of the recognized values.
func (b Broker) Verify() error {
	switch b.ProtocolVersion {
	case ProtocolV31, ProtocolV311, ProtocolV5:
	default:
		return &BrokerError{Field: "protocol_version", Value: string(b.ProtocolVersion)}
	}
	switch b.Transport {
	case TransportTCP, TransportWebsockets:
	default:
		return &BrokerError{Field: "transport", Value: string(b.Transport)}
	}
	if b.UseTLS {
		if b.TLSCertificate == "" {
			return &BrokerError{Field: "tls_certificate", Value: "empty"}
		}
		switch b.TLSVersion {
		case TLSVersion12, TLSVersion13:
		default:
			return &BrokerError{Field: "tls_version", Value: string(b.TLSVersion)}
		}
		switch b.TLSVerifyMode {
		case TLSVerifyNone, TLSVerifyOptional, TLSVerifyRequired:
		default:
			return &BrokerError{Field: "tls_verifymode", Value: string(b.TLSVerifyMode)}
		}
	}
	return nil
}

// BrokerError reports an invalid Broker field.
type BrokerError struct {
	Field string
	Value string
}

func (e *BrokerError) Error() string {
	return "broker: invalid " + e.Field + ": " + e.Value
}
