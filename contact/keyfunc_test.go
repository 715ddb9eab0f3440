package contact

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP_PrefersHeaderWhenSet(t *testing.T) {
	fn := ClientIP("CF-Connecting-IP", false)

	r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("CF-Connecting-IP", " 198.51.100.23 ")

	if got := fn(r); got != "198.51.100.23" {
		t.Fatalf("expected header ip, got %q", got)
	}
}

func TestClientIP_TrustXForwardedForUsesFirstIP(t *testing.T) {
	fn := ClientIP("", true)

	r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	if got := fn(r); got != "1.2.3.4" {
		t.Fatalf("expected first XFF ip, got %q", got)
	}
}

func TestClientIP_IgnoresXForwardedForWhenNotTrusted(t *testing.T) {
	fn := ClientIP("", false)

	r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")

	if got := fn(r); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestClientIP_EmptyXForwardedForFallsBack(t *testing.T) {
	fn := ClientIP("", true)

	r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r.RemoteAddr = "[2001:db8::1]:443"
	r.Header.Set("X-Forwarded-For", " , 5.6.7.8")

	if got := fn(r); got != "2001:db8::1" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestClientIP_EmptyWhenNothingKnown(t *testing.T) {
	fn := ClientIP("", false)

	r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r.RemoteAddr = ""

	if got := fn(r); got != "" {
		t.Fatalf("expected empty ip, got %q", got)
	}
}
