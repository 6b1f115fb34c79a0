package clients

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
	r.Get("/{id}/", h.GetByID)
	r.Put("/{id}/", h.Update)
	r.Patch("/{id}/", h.SetEstado)
	r.Delete("/{id}/", h.Delete)
	r.Get("/{id}/validar-eliminacion/", h.ValidateDeletion)
	r.Get("/{id}/validar-desactivacion/", h.ValidateDeactivation)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	estado := r.URL.Query().Get("estado")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, estado)
	if err != nil {
		log.Error("clientes list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("clientes list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("clientes create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("clientes create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	client, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeServiceError(w, log, "clientes create", err)
		return
	}

	log.Info("clientes create: ok", slog.String("cliente_id", client.ID))
	transport.WriteJSON(w, http.StatusCreated, client)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	client, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "clientes get", err)
		return
	}

	log.Info("clientes get: ok", slog.String("cliente_id", id))
	transport.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("clientes update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("clientes update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	client, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.writeServiceError(w, log, "clientes update", err)
		return
	}

	log.Info("clientes update: ok", slog.String("cliente_id", client.ID))
	transport.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) SetEstado(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("clientes estado: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("clientes estado: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	client, err := h.service.SetEstado(ctx, id, req.Estado)
	if err != nil {
		h.writeServiceError(w, log, "clientes estado", err)
		return
	}

	log.Info("clientes estado: ok", slog.String("cliente_id", client.ID), slog.String("estado", client.Estado))
	transport.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, log, "clientes delete", err)
		return
	}

	log.Info("clientes delete: ok", slog.String("cliente_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ValidateDeletion(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	check, err := h.service.ValidateDeletion(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "clientes validar-eliminacion", err)
		return
	}

	log.Info("clientes validar-eliminacion: ok", slog.String("cliente_id", id), slog.Bool("puede_eliminar", check.PuedeEliminar))
	transport.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) ValidateDeactivation(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	check, err := h.service.ValidateDeactivation(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "clientes validar-desactivacion", err)
		return
	}

	log.Info("clientes validar-desactivacion: ok", slog.String("cliente_id", id), slog.Bool("puede_desactivar", check.PuedeDesactivar))
	transport.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrDuplicateCorreo):
		log.Warn(op + ": duplicate correo")
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrHasPets), errors.Is(err, ErrHasActivePets):
		log.Warn(op+": blocked", slog.String("reason", err.Error()))
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)
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
