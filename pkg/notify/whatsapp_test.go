package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akinalp/puerta/models"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5411644455566", "54911644455566"}, // AR sabit format, 9 eklenir
		{"549116444555", "549116444555"},    // zaten mobil önekli
		{"5491155554444", "5491155554444"},
		{"14155552671", "14155552671"}, // AR dışı, dokunulmaz
		{"", ""},
	}
	for _, c := range cases {
		if got := normalizePhone(c.in); got != c.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWhatsAppNotifierPostsForm(t *testing.T) {
	var gotPhone, gotMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/send/message" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		gotPhone = r.PostFormValue("phone")
		gotMessage = r.PostFormValue("message")
	}))
	defer srv.Close()

	phone := "5411655443322"
	n := NewWhatsAppNotifier(srv.URL)
	err := n.NotifyApproved(context.Background(), models.Invitation{
		Code:      "abc123",
		GuestName: "Pedro Gómez",
	}, models.User{Phone: &phone})
	if err != nil {
		t.Fatalf("NotifyApproved: %v", err)
	}

	if gotPhone != "54911655443322" {
		t.Errorf("phone = %q, want normalized 549 prefix", gotPhone)
	}
	if gotMessage == "" {
		t.Errorf("empty message")
	}
}

func TestWhatsAppNotifierSkipsHostWithoutPhone(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(srv.URL)
	err := n.NotifyApproved(context.Background(), models.Invitation{Code: "x"}, models.User{})
	if err != nil {
		t.Fatalf("NotifyApproved: %v", err)
	}
	if called {
		t.Fatalf("bridge called for host without phone")
	}
}
