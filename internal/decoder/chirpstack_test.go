package decoder

import "testing"

const chirpstackEM300Payload = `{
	"rxInfo": [{"time": "2026-01-01T08:30:00Z"}],
	"objectJSON": "{\"temperature\":19.2,\"humidity\":54.1}"
}`

func TestChirpstackEM300TH868Decode(t *testing.T) {
	d := NewChirpstackEM300TH868()
	ts, values, err := d.Decode([]byte(chirpstackEM300Payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ts.UTC().Hour() != 8 {
		t.Errorf("ts hour = %d, want 8", ts.UTC().Hour())
	}
	if values["temperature"] != 19.2 || values["humidity"] != 54.1 {
		t.Errorf("values = %v", values)
	}
}

func TestChirpstackUC11SharesEM300Wire(t *testing.T) {
	d := NewChirpstackUC11()
	_, values, err := d.Decode([]byte(chirpstackEM300Payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if values["temperature"] != 19.2 {
		t.Errorf("temperature = %v, want 19.2", values["temperature"])
	}
	if d.Name() != "chirpstack_UC11" {
		t.Errorf("Name() = %q, want chirpstack_UC11", d.Name())
	}
}

func TestDecodeChirpstackEnvelopeMissingRxInfo(t *testing.T) {
	d := NewChirpstackEM300TH868()
	_, _, err := d.Decode([]byte(`{"rxInfo": [], "objectJSON": "{}"}`))
	if err == nil {
		t.Fatal("expected an error for an empty rxInfo array")
	}
}

func TestChirpstackEAGLE1500Decode(t *testing.T) {
	d := NewChirpstackEAGLE1500()
	payload := `{
		"rxInfo": [{"time": "2026-01-01T00:00:00Z"}],
		"objectJSON": "{\"active_power\":100,\"current\":5,\"export_active_energy\":1,\"import_active_energy\":2,\"power_factor\":0.9,\"reactive_energy\":3,\"relay_state\":1,\"voltage\":230}"
	}`
	_, values, err := d.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(values) != len(d.Fields()) {
		t.Errorf("got %d values, want %d", len(values), len(d.Fields()))
	}
	if values["voltage"] != 230 {
		t.Errorf("voltage = %v, want 230", values["voltage"])
	}
}
