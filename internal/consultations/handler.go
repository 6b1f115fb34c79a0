package consultations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"vetclinic-backend/internal/httpx"
	"vetclinic-backend/internal/middleware"
	"vetclinic-backend/internal/transport"
	"vetclinic-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/mascotas-con-historial/", h.PetsWithHistory)
	r.Get("/estadisticas/", h.Stats)
	r.Get("/por-mascota/{id}/", h.ListByMascota)
	r.Get("/{id}/", h.GetByID)
	r.Put("/{id}/", h.Update)
	r.Delete("/{id}/", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	query := r.URL.Query()
	estado := query.Get("estado")

	paged := httpx.PageRequested(query)
	var limit, offset int64
	if paged {
		var err error
		limit, offset, err = httpx.ParseLimitOffset(query, 50, 200)
		if err != nil {
			log.Warn("consultas list: invalid query", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusBadRequest, "parametros de paginacion invalidos", nil)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, estado)
	if err != nil {
		h.writeServiceError(w, log, "consultas list", err)
		return
	}
	if paged {
		items = httpx.Window(items, limit, offset)
	}

	log.Info("consultas list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("consultas create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("consultas create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	consultation, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeServiceError(w, log, "consultas create", err)
		return
	}

	log.Info("consultas create: ok",
		slog.String("consulta_id", consultation.ID),
		slog.String("mascota_id", consultation.MascotaID),
		slog.String("estado", consultation.Estado))
	transport.WriteJSON(w, http.StatusCreated, consultation)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	consultation, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "consultas get", err)
		return
	}

	log.Info("consultas get: ok", slog.String("consulta_id", id))
	transport.WriteJSON(w, http.StatusOK, consultation)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("consultas update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("consultas update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	consultation, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.writeServiceError(w, log, "consultas update", err)
		return
	}

	log.Info("consultas update: ok", slog.String("consulta_id", consultation.ID))
	transport.WriteJSON(w, http.StatusOK, consultation)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, log, "consultas delete", err)
		return
	}

	log.Info("consultas delete: ok", slog.String("consulta_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListByMascota(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	mascotaID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListByMascota(ctx, mascotaID)
	if err != nil {
		h.writeServiceError(w, log, "consultas por-mascota", err)
		return
	}

	log.Info("consultas por-mascota: ok", slog.String("mascota_id", mascotaID), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) PetsWithHistory(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.PetsWithHistory(ctx)
	if err != nil {
		h.writeServiceError(w, log, "consultas mascotas-con-historial", err)
		return
	}

	log.Info("consultas mascotas-con-historial: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.writeServiceError(w, log, "consultas estadisticas", err)
		return
	}

	log.Info("consultas estadisticas: ok", slog.Int64("total", stats.TotalConsultas))
	transport.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrPetNotFound), errors.Is(err, ErrVetNotFound):
		log.Warn(op+": missing reference", slog.String("reason", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrInvalidEstado):
		log.Warn(op + ": invalid estado")
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
