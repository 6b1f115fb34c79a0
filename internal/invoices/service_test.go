package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"vetclinic-backend/internal/consultations"
	"vetclinic-backend/internal/money"
)

type memoryRepo struct {
	items      map[string]Invoice
	byConsulta map[string]string
	seq        int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items:      make(map[string]Invoice),
		byConsulta: make(map[string]string),
	}
}

func (r *memoryRepo) Create(_ context.Context, invoice Invoice) error {
	if _, ok := r.byConsulta[invoice.ConsultaID]; ok {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	r.items[invoice.ID] = invoice
	r.byConsulta[invoice.ConsultaID] = invoice.ID
	return nil
}

func (r *memoryRepo) List(_ context.Context) ([]Invoice, error) {
	out := make([]Invoice, 0, len(r.items))
	for _, invoice := range r.items {
		out = append(out, invoice)
	}
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (Invoice, error) {
	invoice, ok := r.items[id]
	if !ok {
		return Invoice{}, mongo.ErrNoDocuments
	}
	return invoice, nil
}

func (r *memoryRepo) MarkPaid(_ context.Context, id, metodoPago, observaciones string, paidAt time.Time) (Invoice, error) {
	invoice, ok := r.items[id]
	if !ok || invoice.Estado != EstadoPendiente {
		return Invoice{}, mongo.ErrNoDocuments
	}
	invoice.Estado = EstadoPagada
	invoice.MetodoPago = metodoPago
	invoice.FechaPago = &paidAt
	if observaciones != "" {
		invoice.Observaciones = observaciones
	}
	r.items[id] = invoice
	return invoice, nil
}

func (r *memoryRepo) MarkVoided(_ context.Context, id, observaciones string) (Invoice, error) {
	invoice, ok := r.items[id]
	if !ok || invoice.Estado != EstadoPendiente {
		return Invoice{}, mongo.ErrNoDocuments
	}
	invoice.Estado = EstadoAnulada
	if observaciones != "" {
		invoice.Observaciones = observaciones
	}
	r.items[id] = invoice
	return invoice, nil
}

func (r *memoryRepo) NextNumber(_ context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("FAC-%06d", r.seq), nil
}

type fakeConsultations struct {
	items map[string]consultations.Detailed
}

func (f fakeConsultations) GetByID(_ context.Context, id string) (consultations.Detailed, error) {
	consulta, ok := f.items[id]
	if !ok {
		return consultations.Detailed{}, consultations.ErrNotFound
	}
	return consulta, nil
}

func (f fakeConsultations) List(_ context.Context, estado string) ([]consultations.Detailed, error) {
	out := make([]consultations.Detailed, 0)
	for _, consulta := range f.items {
		if estado != "" && consulta.Estado != estado {
			continue
		}
		out = append(out, consulta)
	}
	return out, nil
}

func testConsulta(id string, costo money.Cents, estado string) consultations.Detailed {
	return consultations.Detailed{
		Consultation: consultations.Consultation{
			ID:            id,
			MascotaID:     "pet-1",
			VeterinarioID: "vet-1",
			FechaConsulta: "2026-02-10",
			Motivo:        "vacunacion",
			Costo:         costo,
			Estado:        estado,
		},
		ClienteID:         "cli-1",
		MascotaNombre:     "Rocky",
		ClienteNombre:     "Maria Solis",
		VeterinarioNombre: "Laura Jimenez",
	}
}

var testNow = time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository, source ConsultationSource) *Service {
	svc := NewService(repo, source, "https://files.vetclinic.local", time.UTC)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestInvoiceLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	source := fakeConsultations{items: map[string]consultations.Detailed{
		"con-1": testConsulta("con-1", 20000, consultations.EstadoCompletada),
	}}
	svc := newTestService(repo, source)

	invoice, err := svc.Create(context.Background(), CreateRequest{ConsultaID: "con-1"})
	require.NoError(t, err)
	assert.Equal(t, "FAC-000001", invoice.NumeroFactura)
	assert.Equal(t, EstadoPendiente, invoice.Estado)
	assert.Equal(t, money.Cents(20000), invoice.Subtotal)
	assert.Equal(t, money.Cents(2600), invoice.IVA)
	assert.Equal(t, money.Cents(22600), invoice.Total)
	assert.Equal(t, "cli-1", invoice.ClienteID)
	assert.Equal(t, invoice.FechaEmision.AddDate(0, 0, 30), invoice.FechaVencimiento)

	paid, err := svc.RegisterPayment(context.Background(), invoice.ID, PaymentRequest{MetodoPago: "Efectivo"})
	require.NoError(t, err)
	assert.Equal(t, EstadoPagada, paid.Estado)
	assert.Equal(t, "Efectivo", paid.MetodoPago)
	require.NotNil(t, paid.FechaPago)
	assert.Equal(t, testNow, *paid.FechaPago)

	_, err = svc.Void(context.Background(), invoice.ID, VoidRequest{Motivo: "error"})
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCreateGuards(t *testing.T) {
	repo := newMemoryRepo()
	source := fakeConsultations{items: map[string]consultations.Detailed{
		"con-1": testConsulta("con-1", 10000, consultations.EstadoCompletada),
		"con-2": testConsulta("con-2", 10000, consultations.EstadoPendiente),
	}}
	svc := newTestService(repo, source)

	_, err := svc.Create(context.Background(), CreateRequest{ConsultaID: "missing"})
	assert.ErrorIs(t, err, ErrConsultationNotFound)

	_, err = svc.Create(context.Background(), CreateRequest{ConsultaID: "con-2"})
	assert.ErrorIs(t, err, ErrConsultationNotCompleted)

	_, err = svc.Create(context.Background(), CreateRequest{ConsultaID: "con-1"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateRequest{ConsultaID: "con-1"})
	assert.ErrorIs(t, err, ErrDuplicateInvoice)
}

func TestVoidAppendsMotivo(t *testing.T) {
	repo := newMemoryRepo()
	source := fakeConsultations{items: map[string]consultations.Detailed{
		"con-1": testConsulta("con-1", 10000, consultations.EstadoCompletada),
	}}
	svc := newTestService(repo, source)

	invoice, err := svc.Create(context.Background(), CreateRequest{ConsultaID: "con-1"})
	require.NoError(t, err)

	voided, err := svc.Void(context.Background(), invoice.ID, VoidRequest{Motivo: "cobro duplicado"})
	require.NoError(t, err)
	assert.Equal(t, EstadoAnulada, voided.Estado)
	assert.Equal(t, "Anulada: cobro duplicado", voided.Observaciones)

	check, err := svc.ValidateVoid(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.False(t, check.PuedeAnular)
	assert.NotEmpty(t, check.Razon)
}

func TestOverdueIsDerived(t *testing.T) {
	invoice := Invoice{
		Estado:           EstadoPendiente,
		FechaVencimiento: testNow.AddDate(0, 0, -1),
	}
	assert.True(t, invoice.IsOverdue(testNow))
	assert.Equal(t, EstadoVencida, invoice.DisplayEstado(testNow))

	// Paying clears the overdue view because the stored estado moves on.
	invoice.Estado = EstadoPagada
	assert.False(t, invoice.IsOverdue(testNow))
	assert.Equal(t, EstadoPagada, invoice.DisplayEstado(testNow))

	invoice.Estado = EstadoPendiente
	invoice.FechaVencimiento = testNow.AddDate(0, 0, 1)
	assert.False(t, invoice.IsOverdue(testNow))
	assert.Equal(t, EstadoPendiente, invoice.DisplayEstado(testNow))
}

func TestPendingConsultationsExcludesInvoiced(t *testing.T) {
	repo := newMemoryRepo()
	source := fakeConsultations{items: map[string]consultations.Detailed{
		"con-1": testConsulta("con-1", 10000, consultations.EstadoCompletada),
		"con-2": testConsulta("con-2", 5000, consultations.EstadoCompletada),
		"con-3": testConsulta("con-3", 7500, consultations.EstadoPendiente),
	}}
	svc := newTestService(repo, source)

	_, err := svc.Create(context.Background(), CreateRequest{ConsultaID: "con-1"})
	require.NoError(t, err)

	pending, err := svc.PendingConsultations(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "con-2", pending[0].ID)
	assert.Equal(t, money.Cents(5000), pending[0].Subtotal)
	assert.Equal(t, money.Cents(650), pending[0].Tax)
	assert.Equal(t, money.Cents(5650), pending[0].Total)
}

func TestStats(t *testing.T) {
	repo := newMemoryRepo()
	source := fakeConsultations{items: map[string]consultations.Detailed{
		"con-1": testConsulta("con-1", 10000, consultations.EstadoCompletada),
		"con-2": testConsulta("con-2", 10000, consultations.EstadoCompletada),
		"con-3": testConsulta("con-3", 10000, consultations.EstadoCompletada),
	}}
	svc := newTestService(repo, source)

	paidInv, err := svc.Create(context.Background(), CreateRequest{ConsultaID: "con-1"})
	require.NoError(t, err)
	_, err = svc.RegisterPayment(context.Background(), paidInv.ID, PaymentRequest{MetodoPago: "Tarjeta"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRequest{ConsultaID: "con-2"})
	require.NoError(t, err)

	voidInv, err := svc.Create(context.Background(), CreateRequest{ConsultaID: "con-3"})
	require.NoError(t, err)
	_, err = svc.Void(context.Background(), voidInv.ID, VoidRequest{})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, money.Cents(22600), stats.TotalFacturado)
	assert.Equal(t, money.Cents(11300), stats.TotalPagado)
	assert.Equal(t, money.Cents(11300), stats.TotalPendiente)
	assert.Equal(t, int64(0), stats.FacturasVencidas)
	require.Len(t, stats.FacturasPorMes, 1)
	assert.Equal(t, "2026-02", stats.FacturasPorMes[0].Mes)
	assert.Equal(t, money.Cents(22600), stats.FacturasPorMes[0].Total)
}

func TestPDFLink(t *testing.T) {
	repo := newMemoryRepo()
	source := fakeConsultations{items: map[string]consultations.Detailed{
		"con-1": testConsulta("con-1", 10000, consultations.EstadoCompletada),
	}}
	svc := newTestService(repo, source)

	invoice, err := svc.Create(context.Background(), CreateRequest{ConsultaID: "con-1"})
	require.NoError(t, err)

	link, err := svc.PDFLink(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.vetclinic.local/facturas/FAC-000001.pdf", link.PDFURL)

	_, err = svc.PDFLink(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
