package pets

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

// Routes mounts under /mascotas/mascotas/. The nested segment mirrors
// the resource router the front end was wired against.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/por-cliente/", h.ListByOwner)
	r.Get("/estadisticas/", h.Stats)
	r.Get("/especies/", h.Species)
	r.Get("/{id}/", h.GetByID)
	r.Put("/{id}/", h.Update)
	r.Delete("/{id}/", h.Delete)
	r.Post("/{id}/activar/", h.Activate)
	r.Post("/{id}/desactivar/", h.Deactivate)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	search := r.URL.Query().Get("search")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, search)
	if err != nil {
		log.Error("mascotas list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("mascotas list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("mascotas create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("mascotas create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	pet, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeServiceError(w, log, "mascotas create", err)
		return
	}

	log.Info("mascotas create: ok", slog.String("mascota_id", pet.ID), slog.String("nombre", pet.Nombre))
	transport.WriteJSON(w, http.StatusCreated, pet)
}

func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ownerID := r.URL.Query().Get("cliente_id")
	if ownerID == "" {
		transport.WriteError(w, http.StatusBadRequest, "falta cliente_id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListByOwner(ctx, ownerID)
	if err != nil {
		log.Error("mascotas por-cliente: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("mascotas por-cliente: ok", slog.String("cliente_id", ownerID), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pet, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "mascotas get", err)
		return
	}

	log.Info("mascotas get: ok", slog.String("mascota_id", id))
	transport.WriteJSON(w, http.StatusOK, pet)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("mascotas update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("mascotas update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	pet, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.writeServiceError(w, log, "mascotas update", err)
		return
	}

	log.Info("mascotas update: ok", slog.String("mascota_id", pet.ID))
	transport.WriteJSON(w, http.StatusOK, pet)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setEstado(w, r, "mascotas activar", EstadoActivo)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setEstado(w, r, "mascotas desactivar", EstadoInactivo)
}

func (h *Handler) setEstado(w http.ResponseWriter, r *http.Request, op, estado string) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		pet Pet
		err error
	)
	if estado == EstadoActivo {
		pet, err = h.service.Activate(ctx, id)
	} else {
		pet, err = h.service.Deactivate(ctx, id)
	}
	if err != nil {
		h.writeServiceError(w, log, op, err)
		return
	}

	log.Info(op+": ok", slog.String("mascota_id", pet.ID), slog.String("estado", pet.Estado))
	transport.WriteJSON(w, http.StatusOK, pet)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, log, "mascotas delete", err)
		return
	}

	log.Info("mascotas delete: ok", slog.String("mascota_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Species(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	species, err := h.service.Species(ctx)
	if err != nil {
		log.Error("mascotas especies: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("mascotas especies: ok", slog.Int("count", len(species)))
	transport.WriteJSON(w, http.StatusOK, species)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		log.Error("mascotas estadisticas: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("mascotas estadisticas: ok", slog.Int64("total", stats.TotalMascotas))
	transport.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrOwnerNotFound):
		log.Warn(op + ": owner not found")
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
