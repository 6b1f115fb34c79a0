package appointments

import (
	"context"
	"log/slog"
	"time"

	"vetclinic-backend/internal/notifications"
	"vetclinic-backend/internal/pets"
)

type Mailer interface {
	SendAppointmentConfirmation(ctx context.Context, toEmail, toName string, data notifications.AppointmentConfirmation) (string, error)
}

type RecipientDirectory interface {
	OwnerContact(ctx context.Context, mascotaID string) (pets.OwnerContact, error)
}

// EnableEmail attaches the confirmation mailer. Both fields stay nil
// when email is not configured and bookings proceed without sends.
func (h *Handler) EnableEmail(mailer Mailer, contacts RecipientDirectory) {
	h.mailer = mailer
	h.contacts = contacts
}

func (h *Handler) sendConfirmationEmail(log *slog.Logger, appointment Appointment) {
	if h.mailer == nil || h.contacts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	contact, err := h.contacts.OwnerContact(ctx, appointment.MascotaID)
	if err != nil {
		log.Warn("citas email: contact lookup failed",
			slog.String("cita_id", appointment.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if contact.Email == "" {
		return
	}

	messageID, err := h.mailer.SendAppointmentConfirmation(ctx, contact.Email, contact.Nombre, notifications.AppointmentConfirmation{
		CitaID:        appointment.ID,
		MascotaNombre: contact.MascotaNombre,
		Fecha:         appointment.FechaCita,
		Hora:          appointment.HoraCita,
		Motivo:        appointment.Motivo,
	})
	if err != nil {
		log.Warn("citas email: send failed",
			slog.String("cita_id", appointment.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	log.Info("citas email: sent",
		slog.String("cita_id", appointment.ID),
		slog.String("message_id", messageID),
	)
}
