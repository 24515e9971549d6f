// money.go formats centavo amounts for display. All money in this service is
// stored as int64 centavos; floats only ever appear as commission rates and
// are rounded away immediately.
package common

import (
	"fmt"
	"strings"
)

// FormatBRL renders centavos as a pt-BR currency string.
//
// Examples:
//
//	FormatBRL(5000)     → "R$ 50,00"
//	FormatBRL(123456789) → "R$ 1.234.567,89"
//	FormatBRL(-2500)    → "-R$ 25,00"
func FormatBRL(centavos int64) string {
	sign := ""
	if centavos < 0 {
		sign = "-"
		centavos = -centavos
	}
	reais := centavos / 100
	cents := centavos % 100
	return fmt.Sprintf("%sR$ %s,%02d", sign, groupThousands(reais), cents)
}

// groupThousands inserts pt-BR thousand separators: 1234567 → "1.234.567".
func groupThousands(n int64) string {
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
