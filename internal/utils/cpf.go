package utils

import (
	"tickethub/internal/apperr"
)

// NormalizeCPF strips everything that is not a digit.
func NormalizeCPF(cpf string) string {
	out := make([]byte, 0, len(cpf))
	for i := 0; i < len(cpf); i++ {
		if cpf[i] >= '0' && cpf[i] <= '9' {
			out = append(out, cpf[i])
		}
	}
	return string(out)
}

// ValidCPFFormat accepts exactly 11 digits after stripping punctuation and
// rejects the all-identical sequences (000..., 111..., etc).
func ValidCPFFormat(cpf string) bool {
	digits := NormalizeCPF(cpf)
	if len(digits) != 11 {
		return false
	}
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return true
		}
	}
	return false
}

// ValidateCPF returns a typed InvalidInput error when the format is rejected.
func ValidateCPF(cpf string) error {
	if !ValidCPFFormat(cpf) {
		return apperr.New(apperr.InvalidInput, cpf, "CPF format is invalid")
	}
	return nil
}
