package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=x", nil)

	if _, err := ParseQueryInt(req, "limit", 50, 1, 200); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for out of range, got %v", err)
	}
	if _, err := ParseQueryInt(req, "offset", 0, 0, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for non numeric, got %v", err)
	}
	value, err := ParseQueryInt(req, "missing", 7, 0, 10)
	if err != nil || value != 7 {
		t.Fatalf("expected default 7, got %d (%v)", value, err)
	}
}

func TestParseQueryList(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?status=not_started,%20in_progress&status=completed&status=", nil)
	got := ParseQueryList(req, "status")
	want := []string{"not_started", "in_progress", "completed"}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}
}

func TestParseQueryTimeAndUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?since=2026-03-01T10:00:00-03:00&client_id="+id.String()+"&bad=nope", nil)

	since, err := ParseQueryTime(req, "since")
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	if since.Hour() != 13 || since.Location().String() != "UTC" {
		t.Fatalf("expected UTC normalised time, got %v", since)
	}

	parsed, err := ParseQueryUUID(req, "client_id")
	if err != nil || parsed == nil || *parsed != id {
		t.Fatalf("expected %s got %v (%v)", id, parsed, err)
	}
	if _, err := ParseQueryUUID(req, "bad"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if missing, err := ParseQueryTime(req, "absent"); err != nil || missing != nil {
		t.Fatalf("expected nil for absent parameter")
	}
}

func TestParsePathUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParsePathUUID(req, "orderId")
	if err != nil || got != id {
		t.Fatalf("expected %s got %s (%v)", id, got, err)
	}
	if _, err := ParsePathUUID(req, "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
