package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %q, expected test-agent", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"data":[{"id":1}],"totalRecords":1}`))
	}))
	defer server.Close()

	c := NewClient(5*time.Second, "test-agent")

	var out map[string]any
	if err := c.FetchJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("FetchJSON returned error: %v", err)
	}
	if out["totalRecords"].(float64) != 1 {
		t.Errorf("totalRecords = %v, expected 1", out["totalRecords"])
	}
}

func TestFetchJSONHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(5*time.Second, "test")

	var out map[string]any
	err := c.FetchJSON(context.Background(), server.URL, &out)
	if err == nil {
		t.Fatal("FetchJSON expected error for 500 response, got nil")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, expected 500", httpErr.Status)
	}
}

func TestFetchJSONTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(50*time.Millisecond, "test")

	var out map[string]any
	err := c.FetchJSON(context.Background(), server.URL, &out)
	if err == nil {
		t.Fatal("FetchJSON expected timeout error, got nil")
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
}

func TestFetchJSONBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	c := NewClient(5*time.Second, "test")

	var out map[string]any
	if err := c.FetchJSON(context.Background(), server.URL, &out); err == nil {
		t.Error("FetchJSON expected decode error, got nil")
	}
}

func TestNewClientDefaultTimeout(t *testing.T) {
	c := NewClient(0, "test")
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, expected %v", c.timeout, DefaultTimeout)
	}
}
