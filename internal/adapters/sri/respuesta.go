package sri

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const estadoAutorizado = "AUTORIZADO"

// ErrNoAutorizado is returned when the SRI has no authorized voucher for
// the requested access key.
var ErrNoAutorizado = errors.New("comprobante no autorizado por el SRI")

// Autorizacion is one authorization attempt reported by the SRI.
type Autorizacion struct {
	Estado             string
	NumeroAutorizacion string
	FechaAutorizacion  string
	Mensajes           []string
}

// Respuesta is the summary of an autorizacionComprobante response.
type Respuesta struct {
	ClaveAcceso        string
	NumeroComprobantes int
	Autorizaciones     []Autorizacion
}

// ParseRespuesta reads the authorization summary out of a SOAP response.
// The embedded voucher itself is left untouched.
func ParseRespuesta(body []byte) (Respuesta, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return Respuesta{}, fmt.Errorf("respuesta del SRI ilegible: %w", err)
	}

	if fault := doc.FindElement(".//faultstring"); fault != nil {
		return Respuesta{}, fmt.Errorf("el SRI devolvió un error SOAP: %s", strings.TrimSpace(fault.Text()))
	}

	root := doc.FindElement(".//RespuestaAutorizacionComprobante")
	if root == nil {
		return Respuesta{}, errors.New("respuesta del SRI sin RespuestaAutorizacionComprobante")
	}

	var r Respuesta
	r.ClaveAcceso = childText(root, "claveAccesoConsultada")
	if n := childText(root, "numeroComprobantes"); n != "" {
		count, err := strconv.Atoi(n)
		if err != nil {
			return Respuesta{}, fmt.Errorf("numeroComprobantes inválido %q: %w", n, err)
		}
		r.NumeroComprobantes = count
	}

	for _, el := range root.FindElements("./autorizaciones/autorizacion") {
		a := Autorizacion{
			Estado:             childText(el, "estado"),
			NumeroAutorizacion: childText(el, "numeroAutorizacion"),
			FechaAutorizacion:  childText(el, "fechaAutorizacion"),
		}
		for _, m := range el.FindElements("./mensajes/mensaje") {
			if text := mensajeText(m); text != "" {
				a.Mensajes = append(a.Mensajes, text)
			}
		}
		r.Autorizaciones = append(r.Autorizaciones, a)
	}
	return r, nil
}

// Check returns nil when at least one authorization is AUTORIZADO.
func (r Respuesta) Check() error {
	if r.NumeroComprobantes == 0 || len(r.Autorizaciones) == 0 {
		return fmt.Errorf("%w: sin comprobantes para la clave", ErrNoAutorizado)
	}
	for _, a := range r.Autorizaciones {
		if a.Estado == estadoAutorizado {
			return nil
		}
	}
	last := r.Autorizaciones[len(r.Autorizaciones)-1]
	if len(last.Mensajes) > 0 {
		return fmt.Errorf("%w: %s (%s)", ErrNoAutorizado, last.Estado, strings.Join(last.Mensajes, "; "))
	}
	return fmt.Errorf("%w: %s", ErrNoAutorizado, last.Estado)
}

// Estado returns the state of the first authorization, or "".
func (r Respuesta) Estado() string {
	if len(r.Autorizaciones) == 0 {
		return ""
	}
	return r.Autorizaciones[0].Estado
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

// mensajeText joins the identifier and message of a <mensaje> block.
func mensajeText(m *etree.Element) string {
	id := childText(m, "identificador")
	msg := childText(m, "mensaje")
	if msg == "" {
		msg = strings.TrimSpace(m.Text())
	}
	if id != "" && msg != "" {
		return id + ": " + msg
	}
	return id + msg
}
