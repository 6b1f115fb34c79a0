package invoices

import (
	"context"
	"log/slog"
	"time"

	"vetclinic-backend/internal/notifications"
)

type Mailer interface {
	SendPaymentReceipt(ctx context.Context, toEmail, toName string, data notifications.PaymentReceipt) (string, error)
}

type ContactDirectory interface {
	Contact(ctx context.Context, id string) (string, string, error)
}

// EnableEmail attaches the receipt mailer. Payments succeed regardless
// of whether the receipt could be sent.
func (h *Handler) EnableEmail(mailer Mailer, contacts ContactDirectory) {
	h.mailer = mailer
	h.contacts = contacts
}

func (h *Handler) sendReceiptEmail(log *slog.Logger, invoice Invoice) {
	if h.mailer == nil || h.contacts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	email, name, err := h.contacts.Contact(ctx, invoice.ClienteID)
	if err != nil {
		log.Warn("facturas email: contact lookup failed",
			slog.String("factura_id", invoice.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if email == "" {
		return
	}

	fechaPago := ""
	if invoice.FechaPago != nil {
		fechaPago = invoice.FechaPago.Format("2006-01-02")
	}
	messageID, err := h.mailer.SendPaymentReceipt(ctx, email, name, notifications.PaymentReceipt{
		NumeroFactura: invoice.NumeroFactura,
		MetodoPago:    invoice.MetodoPago,
		FechaPago:     fechaPago,
		Subtotal:      invoice.Subtotal.String(),
		IVA:           invoice.IVA.String(),
		Total:         invoice.Total.String(),
	})
	if err != nil {
		log.Warn("facturas email: send failed",
			slog.String("factura_id", invoice.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	log.Info("facturas email: sent",
		slog.String("factura_id", invoice.ID),
		slog.String("message_id", messageID),
	)
}
