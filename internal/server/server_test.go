package server

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestNormalizeAddr(t *testing.T) {
	for in, want := range map[string]string{"": "", "8080": ":8080", ":9090": ":9090"} {
		if got := normalizeAddr(in); got != want {
			t.Errorf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewHTTPServer_WriteTimeout(t *testing.T) {
	if s := newHTTPServer(":0", http.NotFoundHandler(), 0); s.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("want default %v, got %v", defaultWriteTimeout, s.WriteTimeout)
	}
	if s := newHTTPServer(":0", http.NotFoundHandler(), 45*time.Second); s.WriteTimeout != 45*time.Second {
		t.Fatalf("want 45s, got %v", s.WriteTimeout)
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	if err := (&Server{}).Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
