package comprobante

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ClaveAccesoLength is the number of digits in an SRI access key.
const ClaveAccesoLength = 49

var (
	ErrClaveLongitud    = errors.New("la clave de acceso debe tener 49 dígitos")
	ErrClaveNoNumerica  = errors.New("la clave de acceso solo admite dígitos")
	ErrClaveVerificador = errors.New("dígito verificador de la clave de acceso inválido")
)

// tipoComprobanteCodes maps the voucher code embedded in the key.
var tipoComprobanteCodes = map[string]DocumentType{
	"01": TypeFactura,
	"03": TypeLiquidacionCompra,
	"04": TypeNotaCredito,
	"07": TypeRetencion,
}

// ClaveAcceso is the decoded form of a 49-digit access key.
type ClaveAcceso struct {
	Clave           string
	FechaEmision    time.Time
	CodigoTipo      string
	Tipo            DocumentType // empty for voucher codes outside FC/NC/LC/RET
	RUC             string
	Ambiente        string
	Establecimiento string
	PuntoEmision    string
	Secuencial      string
	CodigoNumerico  string
	TipoEmision     string
	Verificador     int
}

// Numero returns the voucher number as estab-ptoEmi-secuencial.
func (c ClaveAcceso) Numero() string {
	return FormatNumero(c.Establecimiento, c.PuntoEmision, c.Secuencial)
}

// ParseClaveAcceso validates and decodes an access key.
func ParseClaveAcceso(raw string) (ClaveAcceso, error) {
	clave := strings.TrimSpace(raw)
	if len(clave) != ClaveAccesoLength {
		return ClaveAcceso{}, ErrClaveLongitud
	}
	if !isDigits(clave) {
		return ClaveAcceso{}, ErrClaveNoNumerica
	}

	verificador := int(clave[48] - '0')
	if DigitoVerificador(clave[:48]) != verificador {
		return ClaveAcceso{}, ErrClaveVerificador
	}

	fecha, err := time.Parse("02012006", clave[0:8])
	if err != nil {
		return ClaveAcceso{}, fmt.Errorf("fecha de emisión inválida en la clave de acceso: %w", err)
	}

	codigo := clave[8:10]
	return ClaveAcceso{
		Clave:           clave,
		FechaEmision:    fecha,
		CodigoTipo:      codigo,
		Tipo:            tipoComprobanteCodes[codigo],
		RUC:             clave[10:23],
		Ambiente:        clave[23:24],
		Establecimiento: clave[24:27],
		PuntoEmision:    clave[27:30],
		Secuencial:      clave[30:39],
		CodigoNumerico:  clave[39:47],
		TipoEmision:     clave[47:48],
		Verificador:     verificador,
	}, nil
}

// DigitoVerificador computes the module-11 check digit over a string of
// digits, weighting 2..7 cyclically from the rightmost digit.
func DigitoVerificador(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	d := 11 - sum%11
	switch d {
	case 11:
		return 0
	case 10:
		return 1
	}
	return d
}
