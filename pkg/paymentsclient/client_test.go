package paymentsclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetChargeSendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ch_1","currency":"USD","amount":6300}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret")
	charge, err := client.GetCharge(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("GetCharge returned error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/charges/ch_1" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if charge.ID != "ch_1" || charge.Currency != "usd" || charge.Amount != 6300 {
		t.Fatalf("unexpected charge %+v", charge)
	}
}

func TestGetDisputeMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").GetDispute(context.Background(), "dp_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTimelineReportsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").ListTimeline(context.Background(), "ch_1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected generic upstream error, got %v", err)
	}
}

func TestListTimelineDecodesEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"Captured","datetime":1715299200,"amount":6300,"currency":"usd"}]`))
	}))
	defer server.Close()

	events, err := NewClient(server.URL, "").ListTimeline(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("ListTimeline returned error: %v", err)
	}
	if len(events) != 1 || events[0].Type != "captured" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestUnconfiguredClientFails(t *testing.T) {
	if _, err := NewClient("", "").GetCharge(context.Background(), "ch_1"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}
