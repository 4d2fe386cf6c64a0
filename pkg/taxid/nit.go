// Package taxid dígito de verificación del NIT colombiano (módulo 11).
package taxid

import (
	"errors"
	"fmt"
	"unicode"
)

// SchemeNIT código del tipo de documento NIT en la lista de identificación fiscal.
const SchemeNIT = "31"

// ErrCheckDigit el dígito recibido no coincide con el calculado.
var ErrCheckDigit = errors.New("taxid: dígito de verificación inválido")

// pesos sobre los 9 dígitos base, de izquierda a derecha.
var nitWeights = [9]int{41, 37, 29, 23, 19, 17, 13, 7, 3}

// CheckDigit calcula el dígito de verificación de los 9 primeros dígitos de taxID.
func CheckDigit(taxID string) (byte, error) {
	digits := extractDigits(taxID)
	if len(digits) < 9 {
		return 0, fmt.Errorf("taxid: se requieren 9 dígitos, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:9] {
		sum += int(d-'0') * nitWeights[i]
	}
	r := sum % 11
	if r == 0 || r == 1 {
		return byte('0' + r), nil
	}
	return byte('0' + (11 - r)), nil
}

// SplitNIT separa base y dígito de verificación. Acepta "800197268", "800.197.268-4"
// o "8001972684". ok es false si no tiene forma de NIT; err solo si el dígito no cuadra.
func SplitNIT(taxID string) (base string, dv byte, ok bool, err error) {
	digits := extractDigits(taxID)
	if len(digits) != 9 && len(digits) != 10 {
		return "", 0, false, nil
	}
	dv, _ = CheckDigit(string(digits))
	if len(digits) == 10 && digits[9] != dv {
		return "", 0, true, fmt.Errorf("%w: esperado %c, recibido %c", ErrCheckDigit, dv, digits[9])
	}
	return string(digits[:9]), dv, true, nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
