package notifications

import (
	"bytes"
	"html/template"
)

type AppointmentConfirmation struct {
	CitaID        string
	MascotaNombre string
	Fecha         string
	Hora          string
	Motivo        string
}

const appointmentConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hola {{.Name}},</p>
  <p>Su cita ha quedado agendada. Estos son los detalles:</p>
  <ul>
    <li>Mascota: {{.MascotaNombre}}</li>
    <li>Fecha: {{.Fecha}}</li>
    <li>Hora: {{.Hora}}</li>
    <li>Motivo: {{.Motivo}}</li>
    <li>Numero de cita: {{.CitaID}}</li>
  </ul>
  <p>Si no puede asistir, por favor cancele la cita con anticipacion.</p>
  <p>Gracias.</p>
</body>
</html>`

var appointmentConfirmationTmpl = template.Must(template.New("appointment_confirmation").Parse(appointmentConfirmationTemplate))

type appointmentConfirmationData struct {
	Name string
	AppointmentConfirmation
}

func buildAppointmentConfirmationHTML(name string, data AppointmentConfirmation) (string, error) {
	var buf bytes.Buffer
	err := appointmentConfirmationTmpl.Execute(&buf, appointmentConfirmationData{Name: name, AppointmentConfirmation: data})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
