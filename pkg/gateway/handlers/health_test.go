package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/gateway/lifecycle"
)

func TestHealthHandler(t *testing.T) {
	store := session.NewStore()
	release, err := store.Begin("s1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer release()

	lc := &lifecycle.Lifecycle{}
	h := HealthHandler{Sessions: store, Lifecycle: lc}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}

	var resp struct {
		Status         string `json:"status"`
		Service        string `json:"service"`
		ActiveSessions int    `json:"active_sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("status=%q, want healthy", resp.Status)
	}
	if resp.Service != "maurice-backend" {
		t.Fatalf("service=%q", resp.Service)
	}
	if resp.ActiveSessions != 1 {
		t.Fatalf("active_sessions=%d, want 1", resp.ActiveSessions)
	}
}

func TestHealthHandler_DrainingStays200(t *testing.T) {
	lc := &lifecycle.Lifecycle{}
	lc.SetDraining(true)
	h := HealthHandler{Sessions: session.NewStore(), Lifecycle: lc}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200 while draining", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "draining" {
		t.Fatalf("status=%q, want draining", resp.Status)
	}
}
