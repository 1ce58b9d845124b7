// internal/ratetable/ratetable.go
package ratetable

import (
	"errors"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// Referral chain override percentages. Fixed across categories; change
// them here, the calculator never hardcodes them.
const (
	Level1Percent int64 = 60 // direct referrer
	Level2Percent int64 = 20 // referrer's inviter
	Level3Percent int64 = 10 // inviter's inviter
)

// LevelPercents lists the override percentages in level order.
var LevelPercents = []int64{Level1Percent, Level2Percent, Level3Percent}

// MaxLevels bounds the upline walk.
const MaxLevels = 3

// Category is the business category a deal is priced under.
type Category string

const (
	CategorySmallTrader Category = "small-trader"
	CategoryHospitality Category = "hospitality"
	CategoryMultisite   Category = "multisite"
)

var ErrUnknownCategory = errors.New("unknown business category")

// Bracket is one volume band with a flat base commission. Base is a
// fixed amount, not a rate; the source data prices brackets that way.
type Bracket struct {
	Min  money.Money `json:"min"`
	Max  money.Money `json:"max"`
	Base money.Money `json:"base"`
}

// Contains reports whether the volume falls inside the bracket bounds.
func (b Bracket) Contains(volume money.Money) bool {
	return volume >= b.Min && volume <= b.Max
}

// brackets per category, ordered by ascending volume.
var table = map[Category][]Bracket{
	CategorySmallTrader: {
		{Min: 0, Max: money.FromPounds(5000), Base: money.FromPounds(250)},
		{Min: money.FromPence(500001), Max: money.FromPounds(20000), Base: money.FromPounds(500)},
		{Min: money.FromPence(2000001), Max: money.FromPounds(100000), Base: money.FromPounds(900)},
	},
	CategoryHospitality: {
		{Min: 0, Max: money.FromPounds(10000), Base: money.FromPounds(400)},
		{Min: money.FromPence(1000001), Max: money.FromPounds(50000), Base: money.FromPounds(850)},
		{Min: money.FromPence(5000001), Max: money.FromPounds(250000), Base: money.FromPounds(1500)},
	},
	CategoryMultisite: {
		{Min: 0, Max: money.FromPounds(50000), Base: money.FromPounds(1200)},
		{Min: money.FromPence(5000001), Max: money.FromPounds(250000), Base: money.FromPounds(2500)},
		{Min: money.FromPence(25000001), Max: money.FromPounds(1000000), Base: money.FromPounds(4000)},
	},
}

// Categories returns the seeded category names.
func Categories() []Category {
	return []Category{CategorySmallTrader, CategoryHospitality, CategoryMultisite}
}

// Brackets returns the bracket list for a category.
func Brackets(c Category) ([]Bracket, error) {
	brs, ok := table[c]
	if !ok {
		return nil, ErrUnknownCategory
	}
	return brs, nil
}

// BaseCommission resolves the flat base commission for a category and a
// monthly volume (or funding amount). When no bracket contains the
// volume the nearest bracket by volume distance wins; ties go to the
// lower bracket. The lookup is total: any volume resolves to a value.
func BaseCommission(c Category, volume money.Money) (money.Money, error) {
	brs, ok := table[c]
	if !ok {
		return 0, ErrUnknownCategory
	}

	best := brs[0]
	bestDist := distance(brs[0], volume)
	for _, b := range brs {
		if b.Contains(volume) {
			return b.Base, nil
		}
		if d := distance(b, volume); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best.Base, nil
}

func distance(b Bracket, volume money.Money) money.Money {
	switch {
	case volume < b.Min:
		return b.Min - volume
	case volume > b.Max:
		return volume - b.Max
	default:
		return 0
	}
}
