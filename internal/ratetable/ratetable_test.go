package ratetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

func TestBaseCommissionBracketHit(t *testing.T) {
	got, err := BaseCommission(CategorySmallTrader, money.FromPounds(3000))
	require.NoError(t, err)
	assert.Equal(t, money.FromPounds(250), got)

	got, err = BaseCommission(CategorySmallTrader, money.FromPounds(12000))
	require.NoError(t, err)
	assert.Equal(t, money.FromPounds(500), got)

	got, err = BaseCommission(CategoryMultisite, money.FromPounds(800000))
	require.NoError(t, err)
	assert.Equal(t, money.FromPounds(4000), got)
}

func TestBaseCommissionBoundsInclusive(t *testing.T) {
	got, err := BaseCommission(CategoryHospitality, money.FromPounds(10000))
	require.NoError(t, err)
	assert.Equal(t, money.FromPounds(400), got)

	got, err = BaseCommission(CategoryHospitality, money.FromPence(1000001))
	require.NoError(t, err)
	assert.Equal(t, money.FromPounds(850), got)
}

func TestBaseCommissionNearestFallback(t *testing.T) {
	// Above every bracket: the top bracket is nearest.
	got, err := BaseCommission(CategorySmallTrader, money.FromPounds(2000000))
	require.NoError(t, err)
	assert.Equal(t, money.FromPounds(900), got)

	// Negative volumes fall back to the lowest bracket.
	got, err = BaseCommission(CategoryMultisite, money.FromPounds(-50))
	require.NoError(t, err)
	assert.Equal(t, money.FromPounds(1200), got)
}

func TestBaseCommissionUnknownCategory(t *testing.T) {
	_, err := BaseCommission(Category("florists"), money.FromPounds(100))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestLevelPercentsSumBelowHundred(t *testing.T) {
	var sum int64
	for _, p := range LevelPercents {
		sum += p
	}
	assert.Equal(t, int64(90), sum)
	assert.Len(t, LevelPercents, MaxLevels)
}
