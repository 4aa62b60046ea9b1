package domain

// VATRate is the VAT (IVA) percentage selected for a service.
type VATRate string

const (
	VATUnset   VATRate = ""
	VATReduced VATRate = "6"
	VATNormal  VATRate = "23"
)

// ParseVATRate accepts only the rates the business invoices with.
func ParseVATRate(raw string) (VATRate, error) {
	switch r := VATRate(raw); r {
	case VATUnset, VATReduced, VATNormal:
		return r, nil
	default:
		return VATUnset, &ErrValidation{Field: string(FieldTaxaIVA), Message: "taxa de IVA deve ser 6, 23 ou vazia"}
	}
}

// Percent returns the rate as an integer percentage (0 when unset).
func (r VATRate) Percent() int64 {
	switch r {
	case VATReduced:
		return 6
	case VATNormal:
		return 23
	default:
		return 0
	}
}

// ApplyVAT returns base plus VAT, rounded half-up to the cent.
func ApplyVAT(base Cents, rate VATRate) Cents {
	total := int64(base)*(100+rate.Percent()) + 50
	return Cents(total / 100)
}

// ComputeVAT derives the VAT-inclusive total shown in valorIva and valorTotal.
// It returns "" while either the base amount or the rate is still undetermined.
func ComputeVAT(valor string, rate VATRate) string {
	if isBlank(valor) || rate == VATUnset {
		return ""
	}
	base, err := ParseMoney(string(FieldValor), valor)
	if err != nil {
		return ""
	}
	return ApplyVAT(base, rate).Display()
}
