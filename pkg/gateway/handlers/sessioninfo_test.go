package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maurice-chat/maurice/pkg/core/session"
	"github.com/maurice-chat/maurice/pkg/gateway/apierror"
)

func sessionRequest(method, id string) *http.Request {
	req := httptest.NewRequest(method, "/api/session/"+id, nil)
	req.SetPathValue("id", id)
	return req
}

func TestSessionHandler_Get(t *testing.T) {
	store := session.NewStore()
	release, err := store.Begin("s1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	store.Append("s1", "hi", "hello")
	release()

	h := SessionHandler{Sessions: store}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(http.MethodGet, "s1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var info session.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.ID != "s1" {
		t.Fatalf("id=%q", info.ID)
	}
	if info.Turns != 2 {
		t.Fatalf("message_count=%d, want 2", info.Turns)
	}
	if info.Processing {
		t.Fatal("is_processing should be false after release")
	}
}

func TestSessionHandler_GetUnknown(t *testing.T) {
	h := SessionHandler{Sessions: session.NewStore()}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(http.MethodGet, "nope"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error.Type != apierror.ErrNotFound {
		t.Fatalf("type=%q", env.Error.Type)
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	store := session.NewStore()
	release, err := store.Begin("s1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	release()

	h := SessionHandler{Sessions: store}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(http.MethodDelete, "s1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if store.Count() != 0 {
		t.Fatalf("count=%d after delete", store.Count())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(http.MethodDelete, "s1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", rec.Code)
	}
}
