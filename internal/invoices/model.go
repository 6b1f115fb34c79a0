package invoices

import (
	"time"

	"vetclinic-backend/internal/consultations"
	"vetclinic-backend/internal/money"
)

const (
	EstadoPendiente = "Pendiente"
	EstadoPagada    = "Pagada"
	EstadoAnulada   = "Anulada"

	// EstadoVencida is never stored. It is the view state of a
	// Pendiente factura whose due date has passed.
	EstadoVencida = "Vencida"
)

// CanTransition reports whether an invoice may move between stored
// estados. Pagada and Anulada are terminal.
func CanTransition(from, to string) bool {
	if from != EstadoPendiente {
		return false
	}
	return to == EstadoPagada || to == EstadoAnulada
}

type Invoice struct {
	ID               string      `bson:"_id,omitempty" json:"id"`
	NumeroFactura    string      `bson:"numero_factura" json:"numero_factura"`
	ConsultaID       string      `bson:"consulta_id" json:"consulta_id"`
	ClienteID        string      `bson:"cliente_id" json:"cliente_id"`
	FechaEmision     time.Time   `bson:"fecha_emision" json:"fecha_emision"`
	FechaVencimiento time.Time   `bson:"fecha_vencimiento" json:"fecha_vencimiento"`
	Subtotal         money.Cents `bson:"subtotal" json:"subtotal"`
	IVA              money.Cents `bson:"iva" json:"iva"`
	Total            money.Cents `bson:"total" json:"total"`
	Estado           string      `bson:"estado" json:"estado"`
	MetodoPago       string      `bson:"metodo_pago,omitempty" json:"metodo_pago,omitempty"`
	FechaPago        *time.Time  `bson:"fecha_pago,omitempty" json:"fecha_pago,omitempty"`
	Observaciones    string      `bson:"observaciones,omitempty" json:"observaciones,omitempty"`
}

// IsOverdue is the derived Vencida predicate. Overdue is never written
// back to the document.
func (f Invoice) IsOverdue(now time.Time) bool {
	return f.Estado == EstadoPendiente && now.After(f.FechaVencimiento)
}

// DisplayEstado folds the derived Vencida state into the estado shown
// on listings.
func (f Invoice) DisplayEstado(now time.Time) string {
	if f.IsOverdue(now) {
		return EstadoVencida
	}
	return f.Estado
}

// Detailed joins the names the billing page shows onto the factura.
type Detailed struct {
	Invoice
	EstadoActual      string `json:"estado_actual"`
	ClienteNombre     string `json:"cliente_nombre"`
	MascotaNombre     string `json:"mascota_nombre"`
	ConsultaMotivo    string `json:"consulta_motivo"`
	VeterinarioNombre string `json:"veterinario_nombre"`
}

type CreateRequest struct {
	ConsultaID    string `json:"consulta_id" validate:"required"`
	MetodoPago    string `json:"metodo_pago"`
	Observaciones string `json:"observaciones"`
}

type PaymentRequest struct {
	MetodoPago    string `json:"metodo_pago" validate:"required"`
	Observaciones string `json:"observaciones"`
}

type VoidRequest struct {
	Motivo string `json:"motivo"`
}

type VoidCheck struct {
	PuedeAnular bool   `json:"puede_anular"`
	Razon       string `json:"razon,omitempty"`
}

type PDFLink struct {
	PDFURL string `json:"pdf_url"`
}

// PendingConsultation is a completed consulta awaiting its factura,
// with the totals it would produce.
type PendingConsultation struct {
	consultations.Detailed
	money.Totals
}

type MonthlyTotal struct {
	Mes   string      `json:"mes"`
	Total money.Cents `json:"total"`
}

type Stats struct {
	TotalFacturado   money.Cents    `json:"total_facturado"`
	TotalPagado      money.Cents    `json:"total_pagado"`
	TotalPendiente   money.Cents    `json:"total_pendiente"`
	FacturasVencidas int64          `json:"facturas_vencidas"`
	FacturasPorMes   []MonthlyTotal `json:"facturas_por_mes"`
}
