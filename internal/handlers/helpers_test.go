package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"oncohelper/internal/audio"
	"oncohelper/internal/session"
	"oncohelper/internal/storage"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "not found",
			err:        storage.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   "not found",
		},
		{
			name:       "resource busy",
			err:        session.ErrResourceBusy,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid transition",
			err:        session.ErrInvalidTransition,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "recorder unavailable",
			err:        audio.ErrRecorderUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "player init failure",
			err:        audio.ErrPlayerInit,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unknown error is opaque",
			err:        errors.New("sqlite exploded"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			writeDomainError(w, r, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("writeDomainError() status = %v, want %v", w.Code, tt.wantStatus)
			}
			var resp errorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if tt.wantBody != "" && resp.Error != tt.wantBody {
				t.Errorf("writeDomainError() body = %q, want %q", resp.Error, tt.wantBody)
			}
		})
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		wantID int64
		wantOK bool
	}{
		{name: "numeric id", value: "42", wantID: 42, wantOK: true},
		{name: "non-numeric id", value: "abc", wantOK: false},
		{name: "empty id", value: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.value)
			r := httptest.NewRequest(http.MethodGet, "/test", nil)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			id, ok := idParam(w, r, "id")

			if ok != tt.wantOK {
				t.Fatalf("idParam() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("idParam() id = %v, want %v", id, tt.wantID)
			}
			if !ok && w.Code != http.StatusBadRequest {
				t.Errorf("idParam() status = %v, want %v", w.Code, http.StatusBadRequest)
			}
		})
	}
}
