package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/mftypes/pkg/errors"
)

func TestClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte(`["@types/shop/index.d.ts"]`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	data, err := client.Fetch(context.Background(), server.URL+"/@types.json")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != `["@types/shop/index.d.ts"]` {
		t.Errorf("Fetch() = %q", data)
	}
}

func TestClientFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["a","b"]`))
	}))
	defer server.Close()

	var got []string
	if err := NewClient(server.Client()).FetchJSON(context.Background(), server.URL, &got); err != nil {
		t.Fatalf("FetchJSON() error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" {
		t.Errorf("FetchJSON() = %v", got)
	}
}

func TestClientFetchJSONMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	var got []string
	err := NewClient(server.Client()).FetchJSON(context.Background(), server.URL, &got)
	if !errors.Is(err, errors.ErrCodeSerialization) {
		t.Errorf("FetchJSON() error = %v, want SERIALIZATION", err)
	}
}

func TestClientHeaders(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := NewClient(server.Client(), WithHeaders(map[string]string{"Authorization": "Bearer token"}))
	if _, err := client.Fetch(context.Background(), server.URL); err != nil {
		t.Fatal(err)
	}
	if received != "Bearer token" {
		t.Errorf("Authorization = %q, want %q", received, "Bearer token")
	}
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		code      errors.Code
		retryable bool
	}{
		{http.StatusNotFound, errors.ErrCodeNotFound, false},
		{http.StatusForbidden, errors.ErrCodeNetwork, false},
		{http.StatusInternalServerError, errors.ErrCodeNetwork, true},
		{http.StatusBadGateway, errors.ErrCodeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := NewClient(server.Client()).Fetch(context.Background(), server.URL)
			if !errors.Is(err, tt.code) {
				t.Errorf("Fetch() error = %v, want %s", err, tt.code)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestClientNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewClient(server.Client()).Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("Fetch() should fail")
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}
}

func TestClientRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), WithRetries(2), WithRetryDelay(time.Millisecond))
	data, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "ok" || calls.Load() != 3 {
		t.Errorf("Fetch() = %q after %d requests, want ok after 3", data, calls.Load())
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.Client()).Fetch(ctx, server.URL)
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("Fetch() error = %v, want TIMEOUT", err)
	}
}

func TestClientDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/@types/shop/Button/index.d.ts" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("export {};"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "node_modules", "@types", "shop", "Button")
	got, err := NewClient(server.Client()).Download(context.Background(),
		server.URL+"/v2/@types/shop/Button/index.d.ts", dir)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if want := filepath.Join(dir, "index.d.ts"); got != want {
		t.Errorf("Download() = %q, want %q", got, want)
	}
	data, _ := os.ReadFile(got)
	if string(data) != "export {};" {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestClientDownloadNotFoundLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dir := t.TempDir()
	_, err := NewClient(server.Client()).Download(context.Background(), server.URL+"/x/index.d.ts", dir)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("Download() error = %v, want NOT_FOUND", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Download() left %d entries behind", len(entries))
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://cdn.example.com/v2/@types/shop/index.d.ts", "index.d.ts", false},
		{"https://cdn.example.com/types.tar?v=3", "types.tar", false},
		{"https://cdn.example.com/", "", true},
		{"https://cdn.example.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := FileName(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FileName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(0, false)
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
	tr := c.Transport.(*http.Transport)
	if tr.TLSClientConfig != nil && tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("certificate verification must be on by default")
	}

	insecure := NewHTTPClient(time.Second, true)
	if !insecure.Transport.(*http.Transport).TLSClientConfig.InsecureSkipVerify {
		t.Error("insecureTLS should disable verification")
	}
}

func TestClientInsecureTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secure"))
	}))
	defer server.Close()

	if _, err := NewClient(NewHTTPClient(time.Second, false)).Fetch(context.Background(), server.URL); err == nil {
		t.Error("self-signed certificate should be rejected by default")
	}
	data, err := NewClient(NewHTTPClient(time.Second, true)).Fetch(context.Background(), server.URL)
	if err != nil || string(data) != "secure" {
		t.Errorf("Fetch() = %q, %v", data, err)
	}
}
