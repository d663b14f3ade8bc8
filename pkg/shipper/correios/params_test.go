package correios_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/correios/pkg/shipper/correios"
)

func TestParsePackageFormat(t *testing.T) {
	tests := []struct {
		input string
		want  correios.PackageFormat
		code  string
	}{
		{"caixa", correios.FormatBox, "1"},
		{"1", correios.FormatBox, "1"},
		{"Box", correios.FormatBox, "1"},
		{"rolo", correios.FormatRoll, "2"},
		{"2", correios.FormatRoll, "2"},
		{"envelope", correios.FormatEnvelope, "3"},
		{" 3 ", correios.FormatEnvelope, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := correios.ParsePackageFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.code, got.Code())
		})
	}
}

func TestParsePackageFormat_Invalid(t *testing.T) {
	for _, input := range []string{"anatomico", "4", "0", ""} {
		t.Run(input, func(t *testing.T) {
			_, err := correios.ParsePackageFormat(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, correios.ErrInvalidParameter))

			var perr *correios.InvalidParameterError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "package format", perr.Field)
			assert.Equal(t, input, perr.Value)
		})
	}
}

func TestParseServiceCode(t *testing.T) {
	tests := []struct {
		input string
		want  correios.ServiceCode
		name  string
	}{
		{"40010", correios.ServiceSEDEX, "SEDEX"},
		{"40045", correios.ServiceSEDEXCollect, "SEDEX a Cobrar"},
		{"40215", correios.ServiceSEDEX10, "SEDEX 10"},
		{"40290", correios.ServiceSEDEXToday, "SEDEX Hoje"},
		{"41106", correios.ServicePAC, "PAC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := correios.ParseServiceCode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
			assert.Equal(t, tt.name, got.Name())
		})
	}
}

func TestParseServiceCode_Invalid(t *testing.T) {
	for _, input := range []string{"12345", "pac", "", "4110", "041106x"} {
		t.Run(input, func(t *testing.T) {
			_, err := correios.ParseServiceCode(input)
			require.Error(t, err)

			var perr *correios.InvalidParameterError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "service code", perr.Field)
			assert.Contains(t, err.Error(), "invalid service code")
		})
	}
}

func TestAllServices(t *testing.T) {
	assert.Len(t, correios.AllServices, 5)
	for _, svc := range correios.AllServices {
		parsed, err := correios.ParseServiceCode(svc.String())
		require.NoError(t, err)
		assert.Equal(t, svc, parsed)
	}
}
