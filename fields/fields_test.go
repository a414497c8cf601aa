package fields

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestTimerRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     TimerRequest
		wantErr bool
	}{
		{"valid", TimerRequest{DurationMicros: 1_000_000}, false},
		{"valid with webhook", TimerRequest{DurationMicros: 500, WebhookURL: "http://localhost:9000/hook"}, false},
		{"missing duration", TimerRequest{}, true},
		{"negative duration", TimerRequest{DurationMicros: -1}, true},
		{"bad webhook url", TimerRequest{DurationMicros: 500, WebhookURL: "not a url"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationResponse(t *testing.T) {
	err := ValidateStruct(TimerRequest{DurationMicros: -1})
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("expected validator.ValidationErrors, got %T", err)
	}
	payload := ValidationResponse(errs)
	if payload.Code != "validation_error" {
		t.Errorf("Code = %q", payload.Code)
	}
	if len(payload.Details) == 0 {
		t.Fatal("no details rendered")
	}
	// field names come from the json tag
	if _, ok := payload.Details[0]["duration_micros"]; !ok {
		t.Errorf("details = %v, want duration_micros key", payload.Details[0])
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.Defaults()
	if c.Port != "8080" {
		t.Errorf("Port = %q", c.Port)
	}
	if c.DatabasePath != "timerd.db" {
		t.Errorf("DatabasePath = %q", c.DatabasePath)
	}
	if c.WebhookTimeoutSeconds != 30 {
		t.Errorf("WebhookTimeoutSeconds = %d", c.WebhookTimeoutSeconds)
	}
	if c.RecentFiringsLimit != 100 {
		t.Errorf("RecentFiringsLimit = %d", c.RecentFiringsLimit)
	}

	// defaults never clobber explicit values
	c = Config{Port: "9090"}
	c.Defaults()
	if c.Port != "9090" {
		t.Errorf("Port = %q, want 9090", c.Port)
	}
}

func TestFiringEventEncode(t *testing.T) {
	event := FiringEvent{TimerUUID: "uuid-1", ElapsedMicros: 1500, Expired: true}
	data, err := event.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeFiringEvent(data)
	if err != nil {
		t.Fatalf("DecodeFiringEvent: %v", err)
	}
	if decoded.TimerUUID != "uuid-1" || decoded.ElapsedMicros != 1500 || !decoded.Expired {
		t.Errorf("decoded = %+v", decoded)
	}
}
