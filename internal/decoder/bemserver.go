package decoder

import (
	"encoding/json"
	"time"
)

// bemserverPayload is the default BEMServer wire format: UTF-8 JSON
// {"ts": "<ISO-8601 with offset or Z>", "value": <number>}.
type bemserverPayload struct {
	Timestamp string  `json:"ts"`
	Value     float64 `json:"value"`
}

// BEMServerDecoder is the default decoder: it emits a single "value"
// field from a flat {ts, value} JSON object.
type BEMServerDecoder struct{}

// NewBEMServerDecoder constructs the default decoder.
func NewBEMServerDecoder() *BEMServerDecoder {
	return &BEMServerDecoder{}
}

func (d *BEMServerDecoder) Name() string        { return "bemserver" }
func (d *BEMServerDecoder) Description() string { return "Default BEMServer payload decoder" }
func (d *BEMServerDecoder) Fields() []string     { return []string{"value"} }

func (d *BEMServerDecoder) Decode(raw []byte) (time.Time, map[string]float64, error) {
	var p bemserverPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return time.Time{}, nil, &Error{Decoder: d.Name(), Reason: err.Error()}
	}
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return time.Time{}, nil, &Error{Decoder: d.Name(), Reason: "bad ts: " + err.Error()}
	}
	return ts.UTC(), map[string]float64{"value": p.Value}, nil
}
