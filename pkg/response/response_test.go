package response

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestSuccessEnvelope(t *testing.T) {
	resp := Success(http.StatusCreated, map[string]string{"id": "42"})
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status_code = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), `"error"`) {
		t.Errorf("success envelope must omit the error field: %s", body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	resp := Error(http.StatusBadRequest, "invalid payload")
	if resp.Status != "error" {
		t.Errorf("status = %q, want error", resp.Status)
	}
	if resp.Error != "invalid payload" {
		t.Errorf("error = %q, want the given message", resp.Error)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), `"data"`) {
		t.Errorf("error envelope must omit the data field: %s", body)
	}
}
