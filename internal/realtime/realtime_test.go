package realtime

import (
	"encoding/json"
	"testing"
)

func TestOrgChannel(t *testing.T) {
	if got := OrgChannel("42"); got != "org-42" {
		t.Fatalf("OrgChannel = %q", got)
	}
}

func TestZoneChannel(t *testing.T) {
	if got := ZoneChannel("North"); got != "zone-North" {
		t.Fatalf("ZoneChannel = %q", got)
	}
}

func TestEnvelopeShape(t *testing.T) {
	data, err := json.Marshal(envelope{Event: "alert.new", Payload: map[string]string{"alertId": "A1"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Event   string            `json:"event"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Event != "alert.new" || decoded.Payload["alertId"] != "A1" {
		t.Fatalf("unexpected envelope: %s", data)
	}
}
