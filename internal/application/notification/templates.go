package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/pkg/money"
)

// Content texto listo para un canal. Push e in-app usan Subject como título.
type Content struct {
	Subject string
	Body    string
}

type eventTemplate struct {
	subject string
	body    string
}

var defaultTemplates = map[string]eventTemplate{
	entity.EventQuotationSent: {
		subject: `Cotización {{.Number}} de {{.CompanyName}}`,
		body: `Hola {{.RecipientName}},

{{.CompanyName}} le envió la cotización {{.Number}} por {{money .GrandTotal .Currency .Scale}}, válida hasta el {{date .ValidUntil}}.
{{- if .Link}}

Puede revisarla, aceptarla o rechazarla en: {{.Link}}{{end}}`,
	},
	entity.EventQuotationViewed: {
		subject: `{{.CustomerName}} abrió la cotización {{.Number}}`,
		body:    `El cliente {{.CustomerName}} abrió la cotización {{.Number}} por {{money .GrandTotal .Currency .Scale}}.`,
	},
	entity.EventQuotationAccepted: {
		subject: `Cotización {{.Number}} aceptada`,
		body:    `{{.CustomerName}} aceptó la cotización {{.Number}} por {{money .GrandTotal .Currency .Scale}}.`,
	},
	entity.EventQuotationRejected: {
		subject: `Cotización {{.Number}} rechazada`,
		body: `{{.CustomerName}} rechazó la cotización {{.Number}}.
Motivo: {{.Reason}}`,
	},
	entity.EventQuotationCancelled: {
		subject: `Cotización {{.Number}} anulada`,
		body: `Hola {{.RecipientName}},

{{.CompanyName}} anuló la cotización {{.Number}}.{{if .Reason}}
Motivo: {{.Reason}}{{end}}`,
	},
}

// Templates sustituye las variables del mensaje en los textos de cada evento.
type Templates struct {
	subjects      map[string]*template.Template
	bodies        map[string]*template.Template
	publicBaseURL string
}

// templateData lo que ven las plantillas: el mensaje más el enlace público.
type templateData struct {
	Message
	Link string
}

// NewTemplates compila las plantillas por defecto. publicBaseURL arma el enlace del cliente
// (vacío = sin enlace). overrides reemplaza el cuerpo de eventos puntuales.
func NewTemplates(publicBaseURL string, fmtr *money.Formatter, overrides map[string]string) (*Templates, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("02/01/2006") },
		"money": func(d decimal.Decimal, code string, scale int32) string {
			return fmtr.Format(d, code, scale)
		},
	}
	t := &Templates{
		subjects:      make(map[string]*template.Template, len(defaultTemplates)),
		bodies:        make(map[string]*template.Template, len(defaultTemplates)),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
	for event, et := range defaultTemplates {
		body := et.body
		if o, ok := overrides[event]; ok && strings.TrimSpace(o) != "" {
			body = o
		}
		s, err := template.New(event + ".subject").Funcs(funcs).Parse(et.subject)
		if err != nil {
			return nil, fmt.Errorf("plantilla %s: %w", event, err)
		}
		b, err := template.New(event + ".body").Funcs(funcs).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("plantilla %s: %w", event, err)
		}
		t.subjects[event] = s
		t.bodies[event] = b
	}
	return t, nil
}

// Render genera asunto y cuerpo para el mensaje.
func (t *Templates) Render(m Message) (Content, error) {
	s, ok := t.subjects[m.Event]
	if !ok {
		return Content{}, fmt.Errorf("%w: sin plantilla para el evento %q", ErrPermanent, m.Event)
	}
	data := templateData{Message: m}
	if m.PublicToken != "" && t.publicBaseURL != "" {
		data.Link = t.publicBaseURL + "/" + m.PublicToken
	}
	var subj, body bytes.Buffer
	if err := s.Execute(&subj, data); err != nil {
		return Content{}, fmt.Errorf("%w: render asunto: %v", ErrPermanent, err)
	}
	if err := t.bodies[m.Event].Execute(&body, data); err != nil {
		return Content{}, fmt.Errorf("%w: render cuerpo: %v", ErrPermanent, err)
	}
	return Content{Subject: subj.String(), Body: body.String()}, nil
}
