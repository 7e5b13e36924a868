package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// ///////////////////////////////////////////////
// Less
// ///////////////////////////////////////////////

func TestLess(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "1.2.3", "1.2.3", false},
		{"major", "0.9.9", "1.0.0", true},
		{"major reversed", "2.0.0", "1.9.9", false},
		{"minor", "1.0.0", "1.1.0", true},
		{"patch", "1.0.0", "1.0.1", true},
		{"v prefix", "v0.1.0", "0.2.0", true},
		{"pre-release before release", "0.1.0-dev", "0.1.0", true},
		{"release not before pre-release", "0.1.0", "0.1.0-dev", false},
		{"pre-releases unordered", "1.0.0-alpha", "1.0.0-beta", false},
		{"build metadata ignored", "1.0.0+abc", "1.0.0", false},
		{"dev build", "dev", "1.0.0", false},
		{"two parts", "1.2", "1.3.0", false},
		{"four parts", "1.2.3.4", "2.0.0", false},
		{"negative", "1.-2.0", "1.0.0", false},
		{"empty", "", "1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Less(tt.a, tt.b); got != tt.want {
				t.Errorf("Less(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Checker
// ///////////////////////////////////////////////

func serve(t *testing.T, status int, body string) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewChecker(srv.URL)
	c.client.RetryMax = 0
	return c
}

func TestCheck_Newer(t *testing.T) {
	res, err := serve(t, http.StatusOK, `{".": "1.2.0"}`).Check(context.Background(), "1.0.0")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Newer || res.Latest != "1.2.0" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCheck_Current(t *testing.T) {
	res, err := serve(t, http.StatusOK, `{".": "1.0.0"}`).Check(context.Background(), "1.0.0")
	if err != nil || res.Newer {
		t.Fatalf("result = %+v, err = %v", res, err)
	}
}

func TestLatest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, ""},
		{"invalid json", http.StatusOK, "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := serve(t, tt.status, tt.body).Latest(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNotify_NoURL(t *testing.T) {
	old := ManifestURL
	ManifestURL = ""
	t.Cleanup(func() { ManifestURL = old })

	Notify(context.Background(), "1.0.0")
}
