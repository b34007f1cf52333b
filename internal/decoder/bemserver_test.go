package decoder

import "testing"

func TestBEMServerDecoderDecode(t *testing.T) {
	d := NewBEMServerDecoder()
	ts, values, err := d.Decode([]byte(`{"ts":"2026-01-01T12:00:00Z","value":21.5}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ts.UTC().Hour() != 12 {
		t.Errorf("ts hour = %d, want 12", ts.UTC().Hour())
	}
	if values["value"] != 21.5 {
		t.Errorf("value = %v, want 21.5", values["value"])
	}
}

func TestBEMServerDecoderBadJSON(t *testing.T) {
	d := NewBEMServerDecoder()
	if _, _, err := d.Decode([]byte("not json")); err == nil {
		t.Fatal("expected a decode error for malformed JSON")
	}
}

func TestBEMServerDecoderBadTimestamp(t *testing.T) {
	d := NewBEMServerDecoder()
	if _, _, err := d.Decode([]byte(`{"ts":"not-a-date","value":1}`)); err == nil {
		t.Fatal("expected a decode error for a malformed timestamp")
	}
}
