package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/money"
)

func TestPromoteNumericIntDecimal(t *testing.T) {
	d, err := money.NewDecimal(10, 2, "5.00")
	require.NoError(t, err)

	a, b, err := promoteNumeric(IntValue(5), DecimalValue(d))
	require.NoError(t, err)
	c, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestValueEqualMoneyCurrencyMismatch(t *testing.T) {
	usd, _ := money.NewDecimal(10, 2, "5.00")
	eur, _ := money.NewDecimal(10, 2, "5.00")
	a := MoneyValue(money.Money{Currency: "USD", Amount: usd})
	b := MoneyValue(money.Money{Currency: "EUR", Amount: eur})

	_, err := a.Equal(b)
	require.Error(t, err)
}

func TestValueEqualText(t *testing.T) {
	eq, err := TextValue("a").Equal(TextValue("a"))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = TextValue("a").Equal(TextValue("b"))
	require.NoError(t, err)
	assert.False(t, eq)
}
