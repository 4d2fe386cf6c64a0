package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateYParse(t *testing.T) {
	tok, err := Generate("secreto", "u-1", "c-1", "vendedor", "cotizador", 5)
	require.NoError(t, err)

	c, err := Parse("secreto", "cotizador", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, "c-1", c.CompanyID)
	assert.Equal(t, "vendedor", c.Role)

	_, err = Parse("otro-secreto", "cotizador", tok)
	assert.Error(t, err)
	_, err = Parse("secreto", "otro-emisor", tok)
	assert.Error(t, err)
}

func TestParse_ExpiracionPorDefectoYTokenInvalido(t *testing.T) {
	tok, err := Generate("secreto", "u-1", "c-1", "admin", "", -5)
	require.NoError(t, err)
	// expMinutes <= 0 usa el valor por defecto, así que sigue vigente
	_, err = Parse("secreto", "", tok)
	assert.NoError(t, err)

	_, err = Parse("secreto", "", "no.es.un.token")
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "u-1", "c-1", "admin", "", 5)
	assert.Error(t, err)
}
