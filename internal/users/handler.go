package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("usuarios login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("usuarios login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	session, err := h.service.Login(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			log.Warn("usuarios login: invalid credentials", slog.String("correo", req.Correo))
			transport.WriteError(w, http.StatusUnauthorized, err.Error(), nil)
		case errors.Is(err, ErrInactiveAccount):
			log.Warn("usuarios login: inactive account", slog.String("correo", req.Correo))
			transport.WriteError(w, http.StatusForbidden, err.Error(), nil)
		case errors.Is(err, ErrAuthNotConfigured):
			transport.WriteError(w, http.StatusServiceUnavailable, err.Error(), nil)
		default:
			log.Error("usuarios login: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		}
		return
	}

	log.Info("usuarios login: ok", slog.String("user_id", session.User.ID), slog.String("rol", session.User.RolNombre))
	transport.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req RegisterRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("usuarios register: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("usuarios register: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	session, err := h.service.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateCorreo):
			log.Warn("usuarios register: duplicate", slog.String("correo", req.Correo))
			transport.WriteError(w, http.StatusConflict, err.Error(), nil)
		case errors.Is(err, ErrAuthNotConfigured):
			transport.WriteError(w, http.StatusServiceUnavailable, err.Error(), nil)
		default:
			log.Error("usuarios register: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		}
		return
	}

	log.Info("usuarios register: ok", slog.String("user_id", session.User.ID))
	transport.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req RefreshRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("usuarios refresh: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := h.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactiveAccount):
			log.Warn("usuarios refresh: rejected")
			transport.WriteError(w, http.StatusUnauthorized, "token invalido", nil)
		case errors.Is(err, ErrAuthNotConfigured):
			transport.WriteError(w, http.StatusServiceUnavailable, err.Error(), nil)
		default:
			log.Error("usuarios refresh: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		}
		return
	}

	log.Info("usuarios refresh: ok", slog.String("user_id", session.User.ID))
	transport.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	filter := ListFilter{
		RolNombre: strings.TrimSpace(r.URL.Query().Get("rol")),
		Estado:    strings.TrimSpace(r.URL.Query().Get("estado")),
	}
	if filter.RolNombre != "" && !IsValidRol(filter.RolNombre) {
		transport.WriteError(w, http.StatusBadRequest, "rol invalido", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, filter)
	if err != nil {
		log.Error("usuarios list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("usuarios list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("usuarios create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("usuarios create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	user, err := h.service.Create(ctx, req)
	if err != nil {
		if errors.Is(err, ErrDuplicateCorreo) {
			log.Warn("usuarios create: duplicate", slog.String("correo", req.Correo))
			transport.WriteError(w, http.StatusConflict, err.Error(), nil)
			return
		}
		log.Error("usuarios create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("usuarios create: ok", slog.String("user_id", user.ID), slog.String("rol", user.RolNombre))
	transport.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.service.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
			return
		}
		log.Error("usuarios get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		return
	}

	log.Info("usuarios get: ok", slog.String("user_id", id))
	transport.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("usuarios update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("usuarios update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	user, err := h.service.Update(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, ErrDuplicateCorreo):
			transport.WriteError(w, http.StatusConflict, err.Error(), nil)
		default:
			log.Error("usuarios update: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		}
		return
	}

	log.Info("usuarios update: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	currentUserID := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		currentUserID = claims.Subject
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id, currentUserID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, ErrSelfDeletion):
			log.Warn("usuarios delete: self deletion attempt", slog.String("user_id", id))
			transport.WriteError(w, http.StatusConflict, err.Error(), nil)
		default:
			log.Error("usuarios delete: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "error de base de datos", nil)
		}
		return
	}

	log.Info("usuarios delete: ok", slog.String("user_id", id))
	w.WriteHeader(http.StatusNoContent)
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
