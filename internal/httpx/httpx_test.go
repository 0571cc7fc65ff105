package httpx

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestOKWrapsData(t *testing.T) {
	t.Parallel()

	resp, err := OK(http.StatusCreated, map[string]string{"id": "C1"})
	if err != nil {
		t.Fatalf("OK error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if ct := resp.Headers["Content-Type"]; ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if !body.Success || body.Data["id"] != "C1" {
		t.Errorf("unexpected body: %s", resp.Body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	t.Parallel()

	resp, err := Error(http.StatusNotFound, "not_found", "claim not found")
	if err != nil {
		t.Fatalf("Error error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Success {
		t.Error("expected success=false")
	}
	if body.Error.Code != "not_found" || body.Error.Message != "claim not found" {
		t.Errorf("unexpected error body: %s", resp.Body)
	}
}
