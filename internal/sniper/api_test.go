package sniper

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAPIServer_StatusHandler(t *testing.T) {
	now := time.Date(2024, 1, 22, 16, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, now)
	s := NewAPIServer(e, zap.NewNop())

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	s.statusHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Name      string `json:"name"`
		LastScan  string `json:"last_scan"`
		ScanCount int    `json:"scan_count"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "dse-sniper", status.Name)
	assert.Empty(t, status.LastScan) // no scan has run yet
	assert.Zero(t, status.ScanCount)
}

func TestAPIServer_HealthHandler(t *testing.T) {
	now := time.Date(2024, 1, 22, 16, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, now)
	s := NewAPIServer(e, zap.NewNop())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.healthHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}
