package gotransit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestServiceUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ServiceUpdates/GetServiceUpdates" || r.URL.Query().Get("key") != "k" {
			t.Errorf("request = %s", r.URL)
		}
		w.Write([]byte(`[{"message":"Route 1 detour"},{"description":"Elevator out of service at Union"}]`))
	}))
	defer srv.Close()

	updates, err := New(srv.URL, "k", time.Second).ServiceUpdates(context.Background())
	if err != nil {
		t.Fatalf("ServiceUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d", len(updates))
	}
	if updates[0].Text() != "Route 1 detour" || updates[1].Text() != "Elevator out of service at Union" {
		t.Errorf("texts = %q, %q", updates[0].Text(), updates[1].Text())
	}
}

func TestServiceUpdates_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"forbidden", http.StatusForbidden, `{}`},
		{"not an array", http.StatusOK, `{"error":"bad key"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := New(srv.URL, "k", time.Second).ServiceUpdates(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
