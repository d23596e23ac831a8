package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akinalp/puerta/models"
)

// WhatsAppNotifier, onay mesajını bir WhatsApp köprü servisine gönderir.
// Köprü, form-encoded phone + message POST'u bekler ve mesajı
// anfitrionun telefonuna iletir. Telefonu olmayan host'lar sessizce atlanır.
type WhatsAppNotifier struct {
	bridgeURL string
	client    *http.Client
}

// NewWhatsAppNotifier, verilen köprü URL'i ile bir WhatsAppNotifier döner.
func NewWhatsAppNotifier(bridgeURL string) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		bridgeURL: strings.TrimRight(bridgeURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WhatsAppNotifier) NotifyApproved(ctx context.Context, inv models.Invitation, host models.User) error {
	if host.Phone == nil || *host.Phone == "" {
		return nil
	}

	msg := fmt.Sprintf("Su invitado %s ingresó al barrio (código %s)", inv.GuestName, inv.Code)

	form := url.Values{}
	form.Set("phone", normalizePhone(*host.Phone))
	form.Set("message", msg)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.bridgeURL+"/send/message", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp send: status %d", resp.StatusCode)
	}
	return nil
}

// normalizePhone, Arjantin numaralarına WhatsApp'ın istediği mobil
// öneki ekler: 54 ile başlayıp 9 içermeyen numaralar 549'a çevrilir.
func normalizePhone(phone string) string {
	if strings.HasPrefix(phone, "54") && !strings.HasPrefix(phone, "549") {
		return "549" + phone[2:]
	}
	return phone
}
