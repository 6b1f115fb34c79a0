package appointments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vetclinic-backend/internal/cache"
	"vetclinic-backend/internal/httpx"
	"vetclinic-backend/internal/middleware"
	"vetclinic-backend/internal/schedule"
	"vetclinic-backend/internal/transport"
	"vetclinic-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service  *Service
	val      *validation.Validator
	log      *slog.Logger
	cache    cache.Cache
	cacheTTL time.Duration
	mailer   Mailer
	contacts RecipientDirectory
	limit    func(http.Handler) http.Handler
}

// SetBookingLimiter rate limits the booking endpoint only; reads stay
// unthrottled.
func (h *Handler) SetBookingLimiter(mw func(http.Handler) http.Handler) {
	h.limit = mw
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, c cache.Cache, cacheTTL time.Duration) *Handler {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Handler{
		service:  service,
		val:      val,
		log:      log,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	if h.limit != nil {
		r.With(h.limit).Post("/", h.Create)
	} else {
		r.Post("/", h.Create)
	}
	r.Get("/horarios-disponibles/", h.AvailableSlots)
	r.Get("/validar-horario/", h.ValidateSlot)
	r.Get("/{id}/", h.GetByID)
	r.Put("/{id}/", h.Update)
	r.Patch("/{id}/", h.ChangeEstado)
	r.Delete("/{id}/", h.Delete)
}

type availabilityQuery struct {
	Fecha string `validate:"required,date"`
}

type slotQuery struct {
	Fecha string `validate:"required,date"`
	Hora  string `validate:"required,clock"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	filter := ListFilter{
		Fecha:  strings.TrimSpace(r.URL.Query().Get("fecha")),
		Estado: strings.TrimSpace(r.URL.Query().Get("estado")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrInvalidEstado) {
			transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		log.Error("citas list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("citas list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("citas create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("citas create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointment, err := h.service.Create(ctx, req, time.Now())
	if err != nil {
		h.writeServiceError(w, log, "citas create", err)
		return
	}

	_ = h.cache.DeletePrefix(r.Context(), "disponibilidad:"+appointment.FechaCita)

	if h.mailer != nil {
		go h.sendConfirmationEmail(log, appointment)
	}

	log.Info("citas create: ok",
		slog.String("cita_id", appointment.ID),
		slog.String("fecha", appointment.FechaCita),
		slog.String("hora", appointment.HoraCita),
	)
	transport.WriteJSON(w, http.StatusCreated, appointment)
}

func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := availabilityQuery{Fecha: r.URL.Query().Get("fecha")}
	if err := h.val.Struct(q); err != nil {
		log.Warn("citas horarios: invalid query")
		transport.WriteError(w, http.StatusBadRequest, "consulta invalida", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	cacheKey := "disponibilidad:" + q.Fecha
	if cached, ok, err := h.cache.Get(r.Context(), cacheKey); err == nil && ok {
		log.Info("citas horarios: cache hit", slog.String("fecha", q.Fecha))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	slots, err := h.service.AvailableSlots(ctx, q.Fecha)
	if err != nil {
		h.writeServiceError(w, log, "citas horarios", err)
		return
	}

	transport.WriteCached(w, r.Context(), h.cache, cacheKey, h.cacheTTL, http.StatusOK, slots)
	log.Info("citas horarios: ok", slog.String("fecha", q.Fecha), slog.Int("slots", len(slots)))
}

func (h *Handler) ValidateSlot(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := slotQuery{
		Fecha: r.URL.Query().Get("fecha"),
		Hora:  r.URL.Query().Get("hora"),
	}
	if err := h.val.Struct(q); err != nil {
		log.Warn("citas validar-horario: invalid query")
		transport.WriteError(w, http.StatusBadRequest, "consulta invalida", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	disponible, err := h.service.ValidateSlot(ctx, q.Fecha, q.Hora, time.Now())
	if err != nil {
		h.writeServiceError(w, log, "citas validar-horario", err)
		return
	}

	log.Info("citas validar-horario: ok", slog.String("fecha", q.Fecha), slog.String("hora", q.Hora), slog.Bool("disponible", disponible))
	transport.WriteJSON(w, http.StatusOK, map[string]bool{"disponible": disponible})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "falta el id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "citas get", err)
		return
	}

	log.Info("citas get: ok", slog.String("cita_id", id))
	transport.WriteJSON(w, http.StatusOK, appointment)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "falta el id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("citas update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("citas update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointment, err := h.service.Update(ctx, id, req, time.Now())
	if err != nil {
		h.writeServiceError(w, log, "citas update", err)
		return
	}

	_ = h.cache.DeletePrefix(r.Context(), "disponibilidad:")

	log.Info("citas update: ok", slog.String("cita_id", appointment.ID))
	transport.WriteJSON(w, http.StatusOK, appointment)
}

func (h *Handler) ChangeEstado(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "falta el id", nil)
		return
	}

	var req StatusRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("citas estado: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("citas estado: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.ChangeEstado(ctx, id, req.Estado)
	if err != nil {
		h.writeServiceError(w, log, "citas estado", err)
		return
	}

	// A cancellation frees the slot for rebooking.
	_ = h.cache.DeletePrefix(r.Context(), "disponibilidad:"+appointment.FechaCita)

	log.Info("citas estado: ok", slog.String("cita_id", appointment.ID), slog.String("estado", appointment.Estado))
	transport.WriteJSON(w, http.StatusOK, appointment)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "falta el id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, log, "citas delete", err)
		return
	}

	_ = h.cache.DeletePrefix(r.Context(), "disponibilidad:")

	log.Info("citas delete: ok", slog.String("cita_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrSlotTaken):
		log.Warn(op + ": slot taken")
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrIllegalTransition):
		log.Warn(op + ": illegal transition")
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrSlotNotInTemplate),
		errors.Is(err, ErrDatePast),
		errors.Is(err, ErrInvalidEstado),
		errors.Is(err, ErrPetInactive),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidTime):
		log.Warn(op+": rejected", slog.String("reason", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrPetNotFound), errors.Is(err, ErrVetNotFound):
		log.Warn(op+": bad reference", slog.String("reason", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		log.Error(op+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
