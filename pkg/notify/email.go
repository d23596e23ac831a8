package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v3"

	"github.com/akinalp/puerta/models"
)

// EmailNotifier, onay bildirimini Resend API ile anfitrionun email
// adresine gönderir. Email'i olmayan host'lar sessizce atlanır.
type EmailNotifier struct {
	client    *resend.Client
	fromEmail string
}

// NewEmailNotifier, Resend client'ı ile yeni bir EmailNotifier oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
// fromEmail: Gönderici adresi — Resend'de doğrulanmış domain altında olmalı.
func NewEmailNotifier(apiKey, fromEmail string) *EmailNotifier {
	return &EmailNotifier{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
	}
}

func (e *EmailNotifier) NotifyApproved(ctx context.Context, inv models.Invitation, host models.User) error {
	if host.Email == nil || *host.Email == "" {
		return nil
	}

	approvedAt := time.Unix(inv.ApprovedAt, 0).Format("02/01/2006 15:04")

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
</head>
<body style="margin:0;padding:0;background-color:#f4f4f5;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#f4f4f5;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#18181b;font-size:22px;margin:0 0 16px 0;">Ingreso aprobado</h1>
              <p style="color:#52525b;font-size:15px;line-height:1.6;margin:0 0 16px 0;">
                Su invitado <strong>%s</strong> ingresó al barrio el %s.
              </p>
              <p style="color:#a1a1aa;font-size:13px;line-height:1.6;margin:0;">
                Código de invitación: %s
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, inv.GuestName, approvedAt, inv.Code)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Puerta <%s>", e.fromEmail),
		To:      []string{*host.Email},
		Subject: fmt.Sprintf("Ingreso aprobado: %s", inv.GuestName),
		Html:    html,
	}

	if _, err := e.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send approval email: %w", err)
	}
	return nil
}
