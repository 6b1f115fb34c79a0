package invoices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/consultations"
	"vetclinic-backend/internal/money"
)

const paymentTermDays = 30

var (
	ErrNotFound                 = errors.New("factura no encontrada")
	ErrConsultationNotFound     = errors.New("consulta no encontrada")
	ErrConsultationNotCompleted = errors.New("la consulta no esta completada")
	ErrDuplicateInvoice         = errors.New("la consulta ya tiene una factura")
	ErrIllegalTransition        = errors.New("transicion de estado no permitida")
)

// ConsultationSource is the slice of the consultations service the
// billing module reads from.
type ConsultationSource interface {
	GetByID(ctx context.Context, id string) (consultations.Detailed, error)
	List(ctx context.Context, estado string) ([]consultations.Detailed, error)
}

type Service struct {
	repo       Repository
	consultas  ConsultationSource
	pdfBaseURL string
	location   *time.Location
	now        func() time.Time
}

func NewService(repo Repository, consultas ConsultationSource, pdfBaseURL string, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		repo:       repo,
		consultas:  consultas,
		pdfBaseURL: strings.TrimRight(pdfBaseURL, "/"),
		location:   location,
		now:        time.Now,
	}
}

// Create issues a factura from a completed consulta. The unique index
// on consulta_id is the authority on one-factura-per-consulta; the
// lookup here is the fast path.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Invoice, error) {
	consulta, err := s.consultas.GetByID(ctx, req.ConsultaID)
	if err != nil {
		if errors.Is(err, consultations.ErrNotFound) {
			return Invoice{}, ErrConsultationNotFound
		}
		return Invoice{}, err
	}
	if consulta.Estado != consultations.EstadoCompletada {
		return Invoice{}, ErrConsultationNotCompleted
	}

	totals, err := money.ComputeTotals(consulta.Costo)
	if err != nil {
		return Invoice{}, err
	}
	numero, err := s.repo.NextNumber(ctx)
	if err != nil {
		return Invoice{}, err
	}

	issuedAt := s.now().In(s.location)
	invoice := Invoice{
		ID:               primitive.NewObjectID().Hex(),
		NumeroFactura:    numero,
		ConsultaID:       consulta.ID,
		ClienteID:        consulta.ClienteID,
		FechaEmision:     issuedAt,
		FechaVencimiento: issuedAt.AddDate(0, 0, paymentTermDays),
		Subtotal:         totals.Subtotal,
		IVA:              totals.Tax,
		Total:            totals.Total,
		Estado:           EstadoPendiente,
		MetodoPago:       req.MetodoPago,
		Observaciones:    req.Observaciones,
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Invoice{}, ErrDuplicateInvoice
		}
		return Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context) ([]Detailed, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(ctx, items)
}

func (s *Service) GetByID(ctx context.Context, id string) (Detailed, error) {
	invoice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Detailed{}, ErrNotFound
		}
		return Detailed{}, err
	}
	decorated, err := s.decorateAll(ctx, []Invoice{invoice})
	if err != nil {
		return Detailed{}, err
	}
	return decorated[0], nil
}

// RegisterPayment moves a Pendiente factura to Pagada. An overdue
// factura is still Pendiente underneath, so it can be paid.
func (s *Service) RegisterPayment(ctx context.Context, id string, req PaymentRequest) (Invoice, error) {
	invoice, err := s.repo.MarkPaid(ctx, id, req.MetodoPago, req.Observaciones, s.now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Invoice{}, s.transitionFailure(ctx, id)
		}
		return Invoice{}, err
	}
	return invoice, nil
}

// Void cancels a Pendiente factura. The optional motivo is appended to
// the observaciones so the paper trail keeps the reason.
func (s *Service) Void(ctx context.Context, id string, req VoidRequest) (Invoice, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	observaciones := current.Observaciones
	if motivo := strings.TrimSpace(req.Motivo); motivo != "" {
		nota := fmt.Sprintf("Anulada: %s", motivo)
		if observaciones != "" {
			observaciones = observaciones + " | " + nota
		} else {
			observaciones = nota
		}
	}
	invoice, err := s.repo.MarkVoided(ctx, id, observaciones)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Invoice{}, s.transitionFailure(ctx, id)
		}
		return Invoice{}, err
	}
	return invoice, nil
}

// transitionFailure tells a missing factura apart from one whose
// estado already left Pendiente.
func (s *Service) transitionFailure(ctx context.Context, id string) error {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return ErrIllegalTransition
}

func (s *Service) ValidateVoid(ctx context.Context, id string) (VoidCheck, error) {
	invoice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return VoidCheck{}, ErrNotFound
		}
		return VoidCheck{}, err
	}
	if !CanTransition(invoice.Estado, EstadoAnulada) {
		return VoidCheck{PuedeAnular: false, Razon: fmt.Sprintf("la factura esta %s", strings.ToLower(invoice.Estado))}, nil
	}
	return VoidCheck{PuedeAnular: true}, nil
}

// PendingConsultations lists completed consultas that have no factura
// yet, each with the totals invoicing it would produce.
func (s *Service) PendingConsultations(ctx context.Context) ([]PendingConsultation, error) {
	completed, err := s.consultas.List(ctx, consultations.EstadoCompletada)
	if err != nil {
		return nil, err
	}
	invoiced, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(invoiced))
	for _, inv := range invoiced {
		taken[inv.ConsultaID] = struct{}{}
	}

	items := make([]PendingConsultation, 0, len(completed))
	for _, consulta := range completed {
		if _, ok := taken[consulta.ID]; ok {
			continue
		}
		totals, err := money.ComputeTotals(consulta.Costo)
		if err != nil {
			return nil, err
		}
		items = append(items, PendingConsultation{Detailed: consulta, Totals: totals})
	}
	return items, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	now := s.now().In(s.location)

	var stats Stats
	byMonth := make(map[string]money.Cents)
	for _, inv := range items {
		if inv.Estado == EstadoAnulada {
			continue
		}
		stats.TotalFacturado += inv.Total
		switch {
		case inv.Estado == EstadoPagada:
			stats.TotalPagado += inv.Total
		case inv.Estado == EstadoPendiente:
			stats.TotalPendiente += inv.Total
		}
		if inv.IsOverdue(now) {
			stats.FacturasVencidas++
		}
		mes := inv.FechaEmision.In(s.location).Format("2006-01")
		byMonth[mes] += inv.Total
	}

	stats.FacturasPorMes = make([]MonthlyTotal, 0, len(byMonth))
	for mes, total := range byMonth {
		stats.FacturasPorMes = append(stats.FacturasPorMes, MonthlyTotal{Mes: mes, Total: total})
	}
	sort.Slice(stats.FacturasPorMes, func(i, j int) bool {
		return stats.FacturasPorMes[i].Mes < stats.FacturasPorMes[j].Mes
	})
	return stats, nil
}

// PDFLink points at the rendered document for a factura. Rendering
// itself happens outside this service.
func (s *Service) PDFLink(ctx context.Context, id string) (PDFLink, error) {
	invoice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return PDFLink{}, ErrNotFound
		}
		return PDFLink{}, err
	}
	return PDFLink{PDFURL: fmt.Sprintf("%s/facturas/%s.pdf", s.pdfBaseURL, invoice.NumeroFactura)}, nil
}

func (s *Service) decorateAll(ctx context.Context, items []Invoice) ([]Detailed, error) {
	consultas, err := s.consultas.List(ctx, "")
	if err != nil {
		return nil, err
	}
	byID := make(map[string]consultations.Detailed, len(consultas))
	for _, c := range consultas {
		byID[c.ID] = c
	}

	now := s.now().In(s.location)
	detailed := make([]Detailed, 0, len(items))
	for _, inv := range items {
		row := Detailed{Invoice: inv, EstadoActual: inv.DisplayEstado(now)}
		if consulta, ok := byID[inv.ConsultaID]; ok {
			row.ClienteNombre = consulta.ClienteNombre
			row.MascotaNombre = consulta.MascotaNombre
			row.ConsultaMotivo = consulta.Motivo
			row.VeterinarioNombre = consulta.VeterinarioNombre
		}
		detailed = append(detailed, row)
	}
	return detailed, nil
}
