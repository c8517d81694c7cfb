package crmapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCallSetsHeadersAndOmitsGetBody(t *testing.T) {
	var gotKey, gotType, gotReqID string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotType = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-Id")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New(nil, srv.URL+"/", "secret-key")
	health, err := c.WebsiteHealth(context.Background())
	if err != nil {
		t.Fatalf("WebsiteHealth() error = %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("Status = %q, want %q", health.Status, "ok")
	}
	if gotKey != "secret-key" {
		t.Fatalf("X-Api-Key = %q, want %q", gotKey, "secret-key")
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q, want %q", gotType, "application/json")
	}
	if gotReqID == "" {
		t.Fatal("X-Request-Id missing")
	}
	if len(gotBody) != 0 {
		t.Fatalf("GET carried a body: %q", gotBody)
	}
}

func TestErrorFieldOnSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	c := New(nil, srv.URL, "")
	_, err := c.CRMStats(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error = %q, want it to contain %q", err, "boom")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want %d", reqErr.StatusCode, http.StatusOK)
	}
}

func TestErrorFieldOnFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"db down"}`))
	}))
	defer srv.Close()

	c := New(nil, srv.URL, "")
	_, err := c.Analytics(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "db down") {
		t.Fatalf("error = %q, want it to contain %q", err, "db down")
	}
}

func TestFailureStatusWithoutErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(nil, srv.URL, "")
	_, err := c.KPI(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "http 503") {
		t.Fatalf("error = %q, want it to contain %q", err, "http 503")
	}
}

func TestAnalyticsRequestsDays(t *testing.T) {
	var gotPath, gotDays string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDays = r.URL.Query().Get("days")
		w.Write([]byte(`{"revenue":1200.5,"onlineOrders":8}`))
	}))
	defer srv.Close()

	c := New(nil, srv.URL, "")
	a, err := c.Analytics(context.Background(), 30)
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if gotPath != "/api/analytics" {
		t.Fatalf("path = %q, want %q", gotPath, "/api/analytics")
	}
	if gotDays != "30" {
		t.Fatalf("days = %q, want %q", gotDays, "30")
	}
	if a.Revenue != 1200.5 || a.OnlineOrders != 8 {
		t.Fatalf("decoded = %+v", a)
	}
	if a.NewCustomers != 0 {
		t.Fatalf("NewCustomers = %d, want zero default", a.NewCustomers)
	}
}

func TestGenerateCampaignPostsSegmentAndLimit(t *testing.T) {
	var gotMethod string
	var gotBody struct {
		Segment string `json:"segment"`
		Limit   int    `json:"limit"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"campaignId":"c_9","messages":12}`))
	}))
	defer srv.Close()

	c := New(nil, srv.URL, "")
	camp, err := c.GenerateCampaign(context.Background(), "vip", 15)
	if err != nil {
		t.Fatalf("GenerateCampaign() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("method = %q, want POST", gotMethod)
	}
	if gotBody.Segment != "vip" || gotBody.Limit != 15 {
		t.Fatalf("body = %+v, want segment vip limit 15", gotBody)
	}
	if camp.CampaignID != "c_9" || camp.Messages != 12 {
		t.Fatalf("decoded = %+v", camp)
	}
}

func TestTransitionMessagePath(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(nil, srv.URL, "")
	if err := c.TransitionMessage(context.Background(), 42, ActionSent); err != nil {
		t.Fatalf("TransitionMessage() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/api/crm/messages/42/sent" {
		t.Fatalf("path = %q, want %q", gotPath, "/api/crm/messages/42/sent")
	}
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(nil, srv.URL, "")
	_, err := c.Segments(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if !strings.Contains(reqErr.Message, "unreachable") {
		t.Fatalf("Message = %q, want it to mention unreachable", reqErr.Message)
	}
}
