package iso

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ISO 8583 field numbers used by both dialects. Field 0 is the MTI slot the
// codec exposes.
const (
	FieldMTI                  = 0
	FieldProcessingCode       = 3
	FieldAmount               = 4
	FieldTransmissionDateTime = 7
	FieldStan                 = 11
	FieldFee                  = 28
	FieldAcquirerID           = 32
	FieldForwarderID          = 33
	FieldResponseCode         = 39
	FieldTerminalID           = 41
	FieldCardAcceptorID       = 42
	FieldCurrencyCode         = 49
	FieldOriginalData         = 90
	FieldPayerAccount         = 102
	FieldPayeeAccount         = 103
)

var hundred = decimal.NewFromInt(100)

// parseAmount converts a zero-padded minor-unit amount field to a major-unit
// decimal string ("000000040000" -> "400").
func parseAmount(raw string) (string, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("amount field %q: %w", raw, err)
	}
	return d.Div(hundred).String(), nil
}

// parseFee reads a sign+digits fee field ("D00000400" -> "4"). An empty field
// is a zero fee.
func parseFee(raw string) (string, error) {
	if raw == "" {
		return "0", nil
	}
	digits := raw
	if c := raw[0]; c == 'D' || c == 'C' {
		digits = raw[1:]
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return "", fmt.Errorf("fee field %q: %w", raw, err)
	}
	return d.Div(hundred).String(), nil
}

// formatAmount renders a major-unit decimal string back into the zero-padded
// 12-digit minor-unit wire form.
func formatAmount(amount string) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("amount %q: %w", amount, err)
	}
	minor := d.Mul(hundred).Truncate(0).String()
	if len(minor) < 12 {
		minor = strings.Repeat("0", 12-len(minor)) + minor
	}
	return minor, nil
}

// formatFee renders a major-unit fee as the sign+8-digit wire form.
func formatFee(amount string) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("fee %q: %w", amount, err)
	}
	minor := d.Mul(hundred).Truncate(0).String()
	if len(minor) < 8 {
		minor = strings.Repeat("0", 8-len(minor)) + minor
	}
	return "D" + minor, nil
}

// stripInstitutionID removes leading zeros from an original-data-elements
// institution id. An all-zero (or empty) id means the id was not supplied.
func stripInstitutionID(raw string) string {
	return strings.TrimLeft(raw, "0")
}
