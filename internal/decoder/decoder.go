// Package decoder implements the payload decoder contract and the
// process-wide registry of decoders, per the decoder registry component:
// a name-keyed, immutable-after-construction map from decoder name to a
// decoder implementation.
package decoder

import (
	"fmt"
	"time"
)

// Decoder translates a raw MQTT payload into a timestamp and a set of
// named numeric values. Implementations are pure and hold no mutable
// state; on_message — the routine that records reception time and writes
// decoded values to the store — is owned by the acquisition engine, not
// by the decoder, per the re-architecture guidance on class inheritance.
type Decoder interface {
	Name() string
	Description() string
	Fields() []string
	Decode(raw []byte) (time.Time, map[string]float64, error)
}

// Error reports that a payload could not be decoded. The message is
// dropped by the caller; it is never propagated as a hard failure.
type Error struct {
	Decoder string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("decoder %s: %s", e.Decoder, e.Reason)
}

// NotFoundError reports that a topic references an unregistered decoder
// name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("decoder %q not found", e.Name)
}

// RegistrationError reports an attempt to register a value that does not
// satisfy the Decoder contract (unreachable in Go at the type level, but
// kept for a decoder built from external configuration, e.g. Name() ==
// "").
type RegistrationError struct {
	Reason string
}

func (e *RegistrationError) Error() string {
	return "decoder registration: " + e.Reason
}

// Registry is an immutable-after-construction, name-keyed map of
// Decoders. It is built once at service construction time; there is no
// late registration.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry builds a Registry from decoders. Registration is validated
// against duplicate or malformed names at construction time.
func NewRegistry(decoders ...Decoder) (*Registry, error) {
	m := make(map[string]Decoder, len(decoders))
	for _, d := range decoders {
		if d.Name() == "" {
			return nil, &RegistrationError{Reason: "decoder has empty name"}
		}
		if _, exists := m[d.Name()]; exists {
			return nil, &RegistrationError{Reason: "duplicate decoder name " + d.Name()}
		}
		m[d.Name()] = d
	}
	return &Registry{decoders: m}, nil
}

// Get resolves a decoder by name.
func (r *Registry) Get(name string) (Decoder, error) {
	d, ok := r.decoders[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return d, nil
}

// All returns every registered decoder, in no particular order. Used at
// service start to persist PayloadDecoder/PayloadField rows.
func (r *Registry) All() []Decoder {
	out := make([]Decoder, 0, len(r.decoders))
	for _, d := range r.decoders {
		out = append(out, d)
	}
	return out
}

// Builtin returns the registry of decoders shipped with the engine: the
// default BEMServer JSON decoder plus the ChirpStack vendor-JSON family.
func Builtin() []Decoder {
	return []Decoder{
		NewBEMServerDecoder(),
		NewChirpstackARF8200AA(),
		NewChirpstackEM300TH868(),
		NewChirpstackUC11(),
		NewChirpstackEAGLE1500(),
	}
}
