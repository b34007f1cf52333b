package decoder

import (
	"encoding/json"
	"time"
)

// chirpstackEnvelope is the ChirpStack "vendor JSON" uplink envelope: a
// receive-time nested in an rxInfo array, and a vendor-specific object
// under objectJSON, either inline or as a JSON-encoded string (which is
// unwrapped before decoding). This is the generic vendor JSON family: it extracts
// a receive-time from a nested array and emits a named value map.
type chirpstackEnvelope struct {
	RxInfo []struct {
		Time string `json:"time"`
	} `json:"rxInfo"`
	ObjectJSON json.RawMessage `json:"objectJSON"`
}

func decodeChirpstackEnvelope(decoderName string, raw []byte) (time.Time, chirpstackEnvelope, error) {
	var env chirpstackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, env, &Error{Decoder: decoderName, Reason: err.Error()}
	}
	if len(env.RxInfo) == 0 {
		return time.Time{}, env, &Error{Decoder: decoderName, Reason: "rxInfo is empty"}
	}
	ts, err := time.Parse(time.RFC3339, env.RxInfo[0].Time)
	if err != nil {
		return time.Time{}, env, &Error{Decoder: decoderName, Reason: "bad rxInfo[0].time: " + err.Error()}
	}
	if len(env.ObjectJSON) > 0 && env.ObjectJSON[0] == '"' {
		var s string
		if err := json.Unmarshal(env.ObjectJSON, &s); err != nil {
			return time.Time{}, env, &Error{Decoder: decoderName, Reason: "bad objectJSON: " + err.Error()}
		}
		env.ObjectJSON = json.RawMessage(s)
	}
	return ts.UTC(), env, nil
}

// ChirpstackARF8200AA decodes ARF8200AA two-channel dry-contact devices.
type ChirpstackARF8200AA struct{}

func NewChirpstackARF8200AA() *ChirpstackARF8200AA { return &ChirpstackARF8200AA{} }

func (d *ChirpstackARF8200AA) Name() string        { return "chirpstack_ARF8200AA" }
func (d *ChirpstackARF8200AA) Description() string { return "Chirpstack payload decoder for ARF8200AA devices" }
func (d *ChirpstackARF8200AA) Fields() []string     { return []string{"channelA", "channelB"} }

func (d *ChirpstackARF8200AA) Decode(raw []byte) (time.Time, map[string]float64, error) {
	ts, env, err := decodeChirpstackEnvelope(d.Name(), raw)
	if err != nil {
		return time.Time{}, nil, err
	}
	var obj struct {
		ChannelA struct {
			Value float64 `json:"value"`
		} `json:"channelA"`
		ChannelB struct {
			Value float64 `json:"value"`
		} `json:"channelB"`
	}
	if err := json.Unmarshal(env.ObjectJSON, &obj); err != nil {
		return time.Time{}, nil, &Error{Decoder: d.Name(), Reason: err.Error()}
	}
	return ts, map[string]float64{"channelA": obj.ChannelA.Value, "channelB": obj.ChannelB.Value}, nil
}

// ChirpstackEM300TH868 decodes EM300-TH-868 temperature/humidity sensors.
type ChirpstackEM300TH868 struct{}

func NewChirpstackEM300TH868() *ChirpstackEM300TH868 { return &ChirpstackEM300TH868{} }

func (d *ChirpstackEM300TH868) Name() string { return "chirpstack_EM300-TH-868" }
func (d *ChirpstackEM300TH868) Description() string {
	return "Chirpstack payload decoder for EM300-TH-868 devices"
}
func (d *ChirpstackEM300TH868) Fields() []string { return []string{"temperature", "humidity"} }

func (d *ChirpstackEM300TH868) Decode(raw []byte) (time.Time, map[string]float64, error) {
	ts, env, err := decodeChirpstackEnvelope(d.Name(), raw)
	if err != nil {
		return time.Time{}, nil, err
	}
	var obj struct {
		Temperature float64 `json:"temperature"`
		Humidity    float64 `json:"humidity"`
	}
	if err := json.Unmarshal(env.ObjectJSON, &obj); err != nil {
		return time.Time{}, nil, &Error{Decoder: d.Name(), Reason: err.Error()}
	}
	return ts, map[string]float64{"temperature": obj.Temperature, "humidity": obj.Humidity}, nil
}

// ChirpstackUC11 decodes UC11 devices, which share EM300-TH-868's wire
// shape under a distinct decoder name.
type ChirpstackUC11 struct {
	ChirpstackEM300TH868
}

func NewChirpstackUC11() *ChirpstackUC11 { return &ChirpstackUC11{} }

func (d *ChirpstackUC11) Name() string        { return "chirpstack_UC11" }
func (d *ChirpstackUC11) Description() string { return "Chirpstack payload decoder for UC11 devices" }

func (d *ChirpstackUC11) Decode(raw []byte) (time.Time, map[string]float64, error) {
	ts, env, err := decodeChirpstackEnvelope(d.Name(), raw)
	if err != nil {
		return time.Time{}, nil, err
	}
	var obj struct {
		Temperature float64 `json:"temperature"`
		Humidity    float64 `json:"humidity"`
	}
	if err := json.Unmarshal(env.ObjectJSON, &obj); err != nil {
		return time.Time{}, nil, &Error{Decoder: d.Name(), Reason: err.Error()}
	}
	return ts, map[string]float64{"temperature": obj.Temperature, "humidity": obj.Humidity}, nil
}

// ChirpstackEAGLE1500 decodes EAGLE 1500(80) power meters.
type ChirpstackEAGLE1500 struct{}

func NewChirpstackEAGLE1500() *ChirpstackEAGLE1500 { return &ChirpstackEAGLE1500{} }

func (d *ChirpstackEAGLE1500) Name() string { return "chirpstack_EAGLE1500" }
func (d *ChirpstackEAGLE1500) Description() string {
	return "Chirpstack payload decoder for EAGLE 1500(80) devices"
}
func (d *ChirpstackEAGLE1500) Fields() []string {
	return []string{
		"active_power", "current", "export_active_energy",
		"import_active_energy", "power_factor", "reactive_energy",
		"relay_state", "voltage",
	}
}

func (d *ChirpstackEAGLE1500) Decode(raw []byte) (time.Time, map[string]float64, error) {
	ts, env, err := decodeChirpstackEnvelope(d.Name(), raw)
	if err != nil {
		return time.Time{}, nil, err
	}
	var obj struct {
		ActivePower         float64 `json:"active_power"`
		Current             float64 `json:"current"`
		ExportActiveEnergy  float64 `json:"export_active_energy"`
		ImportActiveEnergy  float64 `json:"import_active_energy"`
		PowerFactor         float64 `json:"power_factor"`
		ReactiveEnergy      float64 `json:"reactive_energy"`
		RelayState          float64 `json:"relay_state"`
		Voltage             float64 `json:"voltage"`
	}
	if err := json.Unmarshal(env.ObjectJSON, &obj); err != nil {
		return time.Time{}, nil, &Error{Decoder: d.Name(), Reason: err.Error()}
	}
	return ts, map[string]float64{
		"active_power":          obj.ActivePower,
		"current":               obj.Current,
		"export_active_energy":  obj.ExportActiveEnergy,
		"import_active_energy":  obj.ImportActiveEnergy,
		"power_factor":          obj.PowerFactor,
		"reactive_energy":       obj.ReactiveEnergy,
		"relay_state":           obj.RelayState,
		"voltage":               obj.Voltage,
	}, nil
}
