package comprobante

import "strings"

// numeroDigits is the length of a full voucher number without separators:
// 3 establecimiento + 3 punto de emisión + 9 secuencial.
const numeroDigits = 15

// NormalizeNumero renders a voucher number as NNN-NNN-NNNNNNNNN when it
// carries exactly fifteen digits once hyphens are removed. Any other value
// is returned trimmed and unchanged.
func NormalizeNumero(raw string) string {
	trimmed := strings.TrimSpace(raw)
	digits := strings.ReplaceAll(trimmed, "-", "")
	if len(digits) != numeroDigits || !isDigits(digits) {
		return trimmed
	}
	return digits[0:3] + "-" + digits[3:6] + "-" + digits[6:]
}

// FormatNumero joins the three parts of a voucher number, left-padding
// numeric parts with zeros to 3-3-9 digits. Non-numeric parts are kept as
// given. Absent parts produce an empty number rather than a string of
// separators.
func FormatNumero(estab, ptoEmi, secuencial string) string {
	estab, ptoEmi, secuencial = strings.TrimSpace(estab), strings.TrimSpace(ptoEmi), strings.TrimSpace(secuencial)
	if estab == "" && ptoEmi == "" && secuencial == "" {
		return ""
	}
	return padDigits(estab, 3) + "-" + padDigits(ptoEmi, 3) + "-" + padDigits(secuencial, 9)
}

func padDigits(part string, width int) string {
	if !isDigits(part) || len(part) >= width {
		return part
	}
	return strings.Repeat("0", width-len(part)) + part
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
