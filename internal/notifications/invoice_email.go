package notifications

import (
	"bytes"
	"html/template"
)

type PaymentReceipt struct {
	NumeroFactura string
	MascotaNombre string
	MetodoPago    string
	FechaPago     string
	Subtotal      string
	IVA           string
	Total         string
}

const paymentReceiptTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hola {{.Name}},</p>
  <p>Hemos registrado su pago. Detalle de la factura:</p>
  <ul>
    <li>Factura: {{.NumeroFactura}}</li>
    {{if .MascotaNombre}}<li>Mascota: {{.MascotaNombre}}</li>{{end}}
    <li>Metodo de pago: {{.MetodoPago}}</li>
    <li>Fecha de pago: {{.FechaPago}}</li>
    <li>Subtotal: {{.Subtotal}}</li>
    <li>IVA (13%): {{.IVA}}</li>
    <li>Total: {{.Total}}</li>
  </ul>
  <p>Gracias por su preferencia.</p>
</body>
</html>`

var paymentReceiptTmpl = template.Must(template.New("payment_receipt").Parse(paymentReceiptTemplate))

type paymentReceiptData struct {
	Name string
	PaymentReceipt
}

func buildPaymentReceiptHTML(name string, data PaymentReceipt) (string, error) {
	var buf bytes.Buffer
	err := paymentReceiptTmpl.Execute(&buf, paymentReceiptData{Name: name, PaymentReceipt: data})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
