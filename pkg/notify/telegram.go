package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/akinalp/puerta/models"
)

// TelegramNotifier, onayları Telegram Bot API üzerinden duyurur.
// Güvenlik ekibinin ortak kanalına tek mesaj atılır.
type TelegramNotifier struct {
	token  string
	chatID string
	client *http.Client
}

// NewTelegramNotifier, verilen bot token ve chat ID ile bir
// TelegramNotifier döner.
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) NotifyApproved(ctx context.Context, inv models.Invitation, host models.User) error {
	text := fmt.Sprintf("Ingreso aprobado: %s (lote %s, anfitrión %s) código %s",
		inv.GuestName, inv.Host.Lot, inv.Host.Name, inv.Code)

	q := url.Values{}
	q.Set("chat_id", t.chatID)
	q.Set("text", text)
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage?%s", t.token, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send: status %d", resp.StatusCode)
	}
	return nil
}
