package invoices

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
	service  *Service
	val      *validation.Validator
	log      *slog.Logger
	mailer   Mailer
	contacts ContactDirectory
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
	r.Get("/consultas-pendientes/", h.PendingConsultations)
	r.Get("/estadisticas/", h.Stats)
	r.Get("/{id}/", h.GetByID)
	r.Patch("/{id}/registrar-pago/", h.RegisterPayment)
	r.Patch("/{id}/anular/", h.Void)
	r.Get("/{id}/validar-anulacion/", h.ValidateVoid)
	r.Get("/{id}/generar-pdf/", h.GeneratePDF)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	query := r.URL.Query()

	paged := httpx.PageRequested(query)
	var limit, offset int64
	if paged {
		var err error
		limit, offset, err = httpx.ParseLimitOffset(query, 50, 200)
		if err != nil {
			log.Warn("facturas list: invalid query", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusBadRequest, "parametros de paginacion invalidos", nil)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx)
	if err != nil {
		h.writeServiceError(w, log, "facturas list", err)
		return
	}
	if paged {
		items = httpx.Window(items, limit, offset)
	}

	log.Info("facturas list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("facturas create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("facturas create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	invoice, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeServiceError(w, log, "facturas create", err)
		return
	}

	log.Info("facturas create: ok",
		slog.String("factura_id", invoice.ID),
		slog.String("numero_factura", invoice.NumeroFactura),
		slog.String("consulta_id", invoice.ConsultaID))
	transport.WriteJSON(w, http.StatusCreated, invoice)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	invoice, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "facturas get", err)
		return
	}

	log.Info("facturas get: ok", slog.String("factura_id", id))
	transport.WriteJSON(w, http.StatusOK, invoice)
}

func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req PaymentRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("facturas registrar-pago: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("facturas registrar-pago: validation error")
		transport.WriteError(w, http.StatusBadRequest, "error de validacion", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	invoice, err := h.service.RegisterPayment(ctx, id, req)
	if err != nil {
		h.writeServiceError(w, log, "facturas registrar-pago", err)
		return
	}

	if h.mailer != nil {
		go h.sendReceiptEmail(log, invoice)
	}

	log.Info("facturas registrar-pago: ok",
		slog.String("factura_id", invoice.ID),
		slog.String("metodo_pago", invoice.MetodoPago))
	transport.WriteJSON(w, http.StatusOK, invoice)
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req VoidRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("facturas anular: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "json invalido", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	invoice, err := h.service.Void(ctx, id, req)
	if err != nil {
		h.writeServiceError(w, log, "facturas anular", err)
		return
	}

	log.Info("facturas anular: ok", slog.String("factura_id", invoice.ID))
	transport.WriteJSON(w, http.StatusOK, invoice)
}

func (h *Handler) ValidateVoid(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	check, err := h.service.ValidateVoid(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "facturas validar-anulacion", err)
		return
	}

	log.Info("facturas validar-anulacion: ok", slog.String("factura_id", id), slog.Bool("puede_anular", check.PuedeAnular))
	transport.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) PendingConsultations(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.PendingConsultations(ctx)
	if err != nil {
		h.writeServiceError(w, log, "facturas consultas-pendientes", err)
		return
	}

	log.Info("facturas consultas-pendientes: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.writeServiceError(w, log, "facturas estadisticas", err)
		return
	}

	log.Info("facturas estadisticas: ok", slog.Int64("vencidas", stats.FacturasVencidas))
	transport.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	link, err := h.service.PDFLink(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "facturas generar-pdf", err)
		return
	}

	log.Info("facturas generar-pdf: ok", slog.String("factura_id", id))
	transport.WriteJSON(w, http.StatusOK, link)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrConsultationNotFound):
		log.Warn(op + ": consultation not found")
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrConsultationNotCompleted):
		log.Warn(op + ": consultation not completed")
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrDuplicateInvoice):
		log.Warn(op + ": duplicate invoice")
		transport.WriteError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrIllegalTransition):
		log.Warn(op + ": illegal transition")
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
