package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRunQuery(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		Parameters Params `json:"parameters"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"rows": []map[string]string{{"addresses": "0xaaa,0xbbb"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "4321", 5*time.Second)
	rows, err := c.RunQuery(context.Background(), Params{
		DateFrom: "2024-02-01 00:00",
		DateTo:   "2024-02-29 23:59",
	})
	if err != nil {
		t.Fatalf("RunQuery returned error: %v", err)
	}

	if gotPath != "/api/v1/query/4321/results" {
		t.Errorf("path = %q, want /api/v1/query/4321/results", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotBody.Parameters.DateFrom != "2024-02-01 00:00" {
		t.Errorf("date_from = %q, want 2024-02-01 00:00", gotBody.Parameters.DateFrom)
	}

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Addresses != "0xaaa,0xbbb" {
		t.Errorf("addresses = %q, want 0xaaa,0xbbb", rows[0].Addresses)
	}
}

func TestRunQueryNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "query not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "4321", 5*time.Second)
	_, err := c.RunQuery(context.Background(), Params{})
	if err == nil {
		t.Fatal("RunQuery should fail on non-2xx status")
	}
}

func TestRunQueryContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "test-key", "4321", 5*time.Second)
	if _, err := c.RunQuery(ctx, Params{}); err == nil {
		t.Fatal("RunQuery should fail when context is cancelled")
	}
}
