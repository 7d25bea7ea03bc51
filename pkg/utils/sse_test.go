package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendSSEEventFormatsFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	if err := SendSSEEvent(rec, rec, "state", map[string]bool{"awaitingResponse": true}); err != nil {
		t.Fatalf("SendSSEEvent err: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	want := "event: state\ndata: {\"awaitingResponse\":true}\n\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected frame %q", rec.Body.String())
	}
	if !rec.Flushed {
		t.Fatal("expected flush")
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := RespondError(rec, http.StatusConflict, "busy"); err != nil {
		t.Fatalf("RespondError err: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if rec.Body.String() != "{\"error\":\"busy\"}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
