// Package domain defines the client record handled by GO-Entulho together
// with the pure formatting, validation and pricing rules applied to it.
package domain

import (
	"strings"
	"time"
)

// ============================================================
// Client record
// ============================================================

// ClientRecord is one registered waste-removal service. The JSON names are the
// persisted snapshot format and must not change.
type ClientRecord struct {
	NIF                string  `json:"nif"`
	Nome               string  `json:"nome"`
	Numero             string  `json:"numero"`
	Tipo               string  `json:"tipo"`
	Local              string  `json:"local"`
	Valor              string  `json:"valor"`
	TaxaIVA            VATRate `json:"taxaIva"`
	ValorIVA           string  `json:"valorIva"`
	ValorTotal         string  `json:"valorTotal"`
	Descarga           string  `json:"descarga"`
	Data               string  `json:"data"`
	Hora               string  `json:"hora"`
	TrabalhoConcluido  bool    `json:"trabalhoConcluido"`
	PagamentoRealizado bool    `json:"pagamentoRealizado"`
}

// Field names a form field of ClientRecord.
type Field string

const (
	FieldNIF        Field = "nif"
	FieldNome       Field = "nome"
	FieldNumero     Field = "numero"
	FieldTipo       Field = "tipo"
	FieldLocal      Field = "local"
	FieldValor      Field = "valor"
	FieldTaxaIVA    Field = "taxaIva"
	FieldValorIVA   Field = "valorIva"
	FieldValorTotal Field = "valorTotal"
	FieldDescarga   Field = "descarga"
	FieldData       Field = "data"
	FieldHora       Field = "hora"
)

// Flag names one of the two status toggles.
type Flag string

const (
	FlagTrabalho  Flag = "trabalhoConcluido"
	FlagPagamento Flag = "pagamentoRealizado"
)

// ParseFlag maps a flag name to a Flag.
func ParseFlag(raw string) (Flag, error) {
	switch f := Flag(raw); f {
	case FlagTrabalho, FlagPagamento:
		return f, nil
	default:
		return "", &ErrValidation{Field: "flag", Message: "flag desconhecida: " + raw}
	}
}

// requiredFields lists what must be non-empty on submission. The VAT fields
// and the two flags are the only exemptions.
var requiredFields = []Field{
	FieldNIF, FieldNome, FieldNumero, FieldTipo, FieldLocal,
	FieldValor, FieldDescarga, FieldData, FieldHora,
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Value returns the current string value of a form field.
func (c ClientRecord) Value(f Field) string {
	switch f {
	case FieldNIF:
		return c.NIF
	case FieldNome:
		return c.Nome
	case FieldNumero:
		return c.Numero
	case FieldTipo:
		return c.Tipo
	case FieldLocal:
		return c.Local
	case FieldValor:
		return c.Valor
	case FieldTaxaIVA:
		return string(c.TaxaIVA)
	case FieldValorIVA:
		return c.ValorIVA
	case FieldValorTotal:
		return c.ValorTotal
	case FieldDescarga:
		return c.Descarga
	case FieldData:
		return c.Data
	case FieldHora:
		return c.Hora
	}
	return ""
}

// WithField returns a copy of c with one form field updated from raw input.
// NIF and phone are grouped, valor is normalised and VAT is re-derived when
// valor or taxaIva change. On error the receiver is returned unchanged, which
// is how a rejected keystroke behaves in the form.
func (c ClientRecord) WithField(f Field, raw string) (ClientRecord, error) {
	next := c
	switch f {
	case FieldNIF:
		next.NIF = FormatGroupedDigits(raw)
	case FieldNumero:
		next.Numero = FormatGroupedDigits(raw)
	case FieldNome:
		next.Nome = raw
	case FieldTipo:
		next.Tipo = raw
	case FieldLocal:
		next.Local = raw
	case FieldDescarga:
		next.Descarga = raw
	case FieldData:
		next.Data = raw
	case FieldHora:
		next.Hora = raw
	case FieldValor:
		if isBlank(raw) {
			next.Valor = ""
			break
		}
		v, err := NormalizeMoney(string(FieldValor), raw)
		if err != nil {
			return c, err
		}
		next.Valor = v
	case FieldTaxaIVA:
		rate, err := ParseVATRate(raw)
		if err != nil {
			return c, err
		}
		next.TaxaIVA = rate
	case FieldValorIVA, FieldValorTotal:
		return c, &ErrValidation{Field: string(f), Message: "campo calculado a partir do valor e da taxa de IVA"}
	default:
		return c, &ErrValidation{Field: string(f), Message: "campo desconhecido"}
	}

	if f == FieldValor || f == FieldTaxaIVA {
		next = next.WithDerivedVAT()
	}
	return next, nil
}

// CheckField runs the blur-time check for a single field value.
func CheckField(f Field, raw string) error {
	switch f {
	case FieldNIF, FieldNumero:
		return CheckGroupedDigits(string(f), raw)
	case FieldValor:
		if isBlank(raw) {
			return nil
		}
		_, err := NormalizeMoney(string(f), raw)
		return err
	case FieldTaxaIVA:
		_, err := ParseVATRate(raw)
		return err
	}
	return nil
}

// Validate checks everything a submission needs and reports all offending
// fields together. It returns nil or a FieldErrors value.
func (c ClientRecord) Validate() error {
	errs := FieldErrors{}
	for _, f := range requiredFields {
		if isBlank(c.Value(f)) {
			errs[string(f)] = &ErrMissingField{Field: string(f)}
		}
	}

	for _, f := range []Field{FieldNIF, FieldNumero} {
		if _, missing := errs[string(f)]; missing {
			continue
		}
		if err := CheckGroupedDigits(string(f), c.Value(f)); err != nil {
			errs[string(f)] = err
		}
	}

	if _, missing := errs[string(FieldValor)]; !missing {
		if _, err := NormalizeMoney(string(FieldValor), c.Valor); err != nil {
			errs[string(FieldValor)] = err
		}
	}
	if _, err := ParseVATRate(string(c.TaxaIVA)); err != nil {
		errs[string(FieldTaxaIVA)] = err
	}
	if _, missing := errs[string(FieldData)]; !missing {
		if _, err := time.Parse(dateLayout, strings.TrimSpace(c.Data)); err != nil {
			errs[string(FieldData)] = &ErrValidation{Field: string(FieldData), Message: "data deve estar no formato AAAA-MM-DD"}
		}
	}
	if _, missing := errs[string(FieldHora)]; !missing {
		if _, err := time.Parse(timeLayout, strings.TrimSpace(c.Hora)); err != nil {
			errs[string(FieldHora)] = &ErrValidation{Field: string(FieldHora), Message: "hora deve estar no formato HH:MM"}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Normalized returns the canonical form stored by the record store: trimmed
// text, grouped NIF/phone, dot-separated valor and freshly derived VAT.
// Call it on records that already passed Validate.
func (c ClientRecord) Normalized() ClientRecord {
	out := c
	out.NIF = FormatGroupedDigits(c.NIF)
	out.Numero = FormatGroupedDigits(c.Numero)
	out.Nome = strings.TrimSpace(c.Nome)
	out.Tipo = strings.TrimSpace(c.Tipo)
	out.Local = strings.TrimSpace(c.Local)
	out.Descarga = strings.TrimSpace(c.Descarga)
	out.Data = strings.TrimSpace(c.Data)
	out.Hora = strings.TrimSpace(c.Hora)
	if v, err := NormalizeMoney(string(FieldValor), c.Valor); err == nil {
		out.Valor = v
	}
	return out.WithDerivedVAT()
}

// NeedsVATBackfill reports a record with a price and a rate whose derived
// fields are missing or stale, as in snapshots saved before valorIva existed.
func (c ClientRecord) NeedsVATBackfill() bool {
	if isBlank(c.Valor) || c.TaxaIVA == VATUnset {
		return false
	}
	vat := ComputeVAT(c.Valor, c.TaxaIVA)
	return c.ValorIVA != vat || c.ValorTotal != vat
}

// WithDerivedVAT returns c with valorIva and valorTotal recomputed from
// valor and taxaIva.
func (c ClientRecord) WithDerivedVAT() ClientRecord {
	vat := ComputeVAT(c.Valor, c.TaxaIVA)
	c.ValorIVA = vat
	c.ValorTotal = vat
	return c
}
