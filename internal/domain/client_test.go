package domain_test

import (
	"errors"
	"testing"

	"github.com/boddenberg/go-entulho/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatGroupedDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"12", "12"},
		{"123", "123"},
		{"1234", "123-4"},
		{"123456", "123-456"},
		{"1234567", "123-456-7"},
		{"123456789", "123-456-789"},
		{"1234567890", "123-456-789"},
		{"12a3-45 6", "123-456"},
		{"abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.FormatGroupedDigits(tt.in))
		})
	}
}

func TestFormatGroupedDigits_Idempotent(t *testing.T) {
	for _, in := range []string{"9", "91234", "912345678", "912-345-678", "(+351) 912 345 678 99"} {
		once := domain.FormatGroupedDigits(in)
		assert.Equal(t, once, domain.FormatGroupedDigits(once), in)
		assert.LessOrEqual(t, len(domain.DigitsOnly(once)), domain.GroupedDigitsLen)
	}
}

func TestCheckGroupedDigits(t *testing.T) {
	assert.NoError(t, domain.CheckGroupedDigits("nif", "123-456-789"))

	err := domain.CheckGroupedDigits("nif", "123-45")
	var il *domain.ErrInvalidLength
	require.ErrorAs(t, err, &il)
	assert.Equal(t, 5, il.Digits)
	assert.Contains(t, err.Error(), "NIF deve ter 9 dígitos")

	err = domain.CheckGroupedDigits("numero", "91")
	assert.Contains(t, err.Error(), "número deve ter 9 dígitos")
}

func TestSameNIF(t *testing.T) {
	assert.True(t, domain.SameNIF("123-456-789", "123456789"))
	assert.False(t, domain.SameNIF("123-456-789", "123-456-788"))
	assert.False(t, domain.SameNIF("", ""))
}

func TestNormalizeMoney(t *testing.T) {
	valid := map[string]string{
		"100":     "100",
		"100.5":   "100.5",
		"100,50":  "100.50",
		" 7,1 ":   "7.1",
		"0":       "0",
		"0012.00": "0012.00",
	}
	for in, want := range valid {
		got, err := domain.NormalizeMoney("valor", in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "1.234", "1,2,3", "-5", "1.", ".5", "1e3", "12345678901234"} {
		_, err := domain.NormalizeMoney("valor", in)
		var ia *domain.ErrInvalidAmount
		assert.ErrorAs(t, err, &ia, in)
	}
}

func TestParseMoneyAndDisplay(t *testing.T) {
	c, err := domain.ParseMoney("valor", "100,5")
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(10050), c)
	assert.Equal(t, "100.50", c.String())
	assert.Equal(t, "100,50", c.Display())
	assert.Equal(t, "-0.05", domain.Cents(-5).String())
}

func TestComputeVAT(t *testing.T) {
	tests := []struct {
		name  string
		valor string
		rate  domain.VATRate
		want  string
	}{
		{"normal rate", "100", domain.VATNormal, "123,00"},
		{"reduced rate", "100", domain.VATReduced, "106,00"},
		{"comma input", "50,50", domain.VATNormal, "62,12"},
		{"rounds half up", "0.50", domain.VATNormal, "0,62"},
		{"no rate", "100", domain.VATUnset, ""},
		{"no valor", "", domain.VATNormal, ""},
		{"bad valor", "abc", domain.VATNormal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ComputeVAT(tt.valor, tt.rate))
		})
	}
}

func TestParseVATRate(t *testing.T) {
	for _, raw := range []string{"", "6", "23"} {
		_, err := domain.ParseVATRate(raw)
		assert.NoError(t, err, raw)
	}
	_, err := domain.ParseVATRate("13")
	var ve *domain.ErrValidation
	assert.ErrorAs(t, err, &ve)
}

func TestWithField_DerivesVAT(t *testing.T) {
	rec := domain.ClientRecord{}

	rec, err := rec.WithField(domain.FieldValor, "100")
	require.NoError(t, err)
	assert.Empty(t, rec.ValorTotal)

	rec, err = rec.WithField(domain.FieldTaxaIVA, "23")
	require.NoError(t, err)
	assert.Equal(t, "123,00", rec.ValorIVA)
	assert.Equal(t, "123,00", rec.ValorTotal)

	rec, err = rec.WithField(domain.FieldTaxaIVA, "")
	require.NoError(t, err)
	assert.Empty(t, rec.ValorIVA)
	assert.Empty(t, rec.ValorTotal)
}

func TestWithField_RejectedKeystrokeKeepsRecord(t *testing.T) {
	rec, err := domain.ClientRecord{}.WithField(domain.FieldValor, "12,5")
	require.NoError(t, err)

	got, err := rec.WithField(domain.FieldValor, "12,555")
	var ia *domain.ErrInvalidAmount
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, rec, got)

	_, err = rec.WithField(domain.FieldValorTotal, "1")
	assert.Error(t, err)
}

func TestWithField_GroupsDigits(t *testing.T) {
	rec, err := domain.ClientRecord{}.WithField(domain.FieldNIF, "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "123-456-789", rec.NIF)

	rec, err = rec.WithField(domain.FieldNumero, "91234")
	require.NoError(t, err)
	assert.Equal(t, "912-34", rec.Numero)
}

func TestCheckField(t *testing.T) {
	assert.Error(t, domain.CheckField(domain.FieldNIF, "123"))
	assert.NoError(t, domain.CheckField(domain.FieldNumero, "912-345-678"))
	assert.NoError(t, domain.CheckField(domain.FieldValor, ""))
	assert.Error(t, domain.CheckField(domain.FieldValor, "1,234"))
	assert.NoError(t, domain.CheckField(domain.FieldNome, ""))
}

func validForm() domain.ClientRecord {
	return domain.ClientRecord{
		NIF:      "123456789",
		Nome:     "Ana",
		Numero:   "912345678",
		Tipo:     "Entulho de obra",
		Local:    "Porto",
		Valor:    "100",
		TaxaIVA:  domain.VATNormal,
		Descarga: "15",
		Data:     "2024-05-10",
		Hora:     "09:30",
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validForm().Validate())

	noRate := validForm()
	noRate.TaxaIVA = domain.VATUnset
	assert.NoError(t, noRate.Validate(), "taxaIva is optional")

	err := domain.ClientRecord{}.Validate()
	var fe domain.FieldErrors
	require.True(t, errors.As(err, &fe))
	for _, f := range []string{"nif", "nome", "numero", "tipo", "local", "valor", "descarga", "data", "hora"} {
		var mf *domain.ErrMissingField
		assert.ErrorAs(t, fe[f], &mf, f)
	}
	assert.NotContains(t, fe, "taxaIva")
	assert.NotContains(t, fe, "valorTotal")
}

func TestValidate_FormatErrors(t *testing.T) {
	bad := validForm()
	bad.NIF = "1234"
	bad.Numero = "91234567890"
	bad.Valor = "10,999"
	bad.Data = "10/05/2024"
	bad.Hora = "9h30"

	err := bad.Validate()
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)

	var il *domain.ErrInvalidLength
	assert.ErrorAs(t, fe["nif"], &il)
	// more than 9 digits is still a length error when validating raw input
	assert.ErrorAs(t, fe["numero"], &il)
	var ia *domain.ErrInvalidAmount
	assert.ErrorAs(t, fe["valor"], &ia)
	assert.Contains(t, fe.Messages(), "data")
	assert.Contains(t, fe.Messages(), "hora")
}

func TestNormalized(t *testing.T) {
	in := validForm()
	in.Nome = "  Ana  "
	in.Valor = "100,5"

	out := in.Normalized()
	assert.Equal(t, "123-456-789", out.NIF)
	assert.Equal(t, "912-345-678", out.Numero)
	assert.Equal(t, "Ana", out.Nome)
	assert.Equal(t, "100.5", out.Valor)
	assert.Equal(t, "123,62", out.ValorTotal)
	assert.Equal(t, out, out.Normalized())
}

func TestParseFlag(t *testing.T) {
	f, err := domain.ParseFlag("trabalhoConcluido")
	require.NoError(t, err)
	assert.Equal(t, domain.FlagTrabalho, f)

	_, err = domain.ParseFlag("pago")
	assert.Error(t, err)
}

func TestNeedsVATBackfill(t *testing.T) {
	fresh := validForm().Normalized()
	assert.False(t, fresh.NeedsVATBackfill())

	noIVA := fresh
	noIVA.ValorIVA = ""
	assert.True(t, noIVA.NeedsVATBackfill())
	assert.Equal(t, fresh, noIVA.WithDerivedVAT())

	stale := fresh
	stale.ValorTotal = "1,00"
	assert.True(t, stale.NeedsVATBackfill())

	noRate := fresh
	noRate.TaxaIVA = domain.VATUnset
	assert.False(t, noRate.NeedsVATBackfill())
}
