package pricing

import (
	"errors"

	"github.com/karrelday/TaraLaba/internal/services/converter"
)

const MaxWeight = 10.0

var ErrInvalidWeight = errors.New("laundry weight must be greater than 0 and at most 10kg")

type tier struct {
	upTo  float64
	price float64
}

// tiers are ordered by upper bound, inclusive.
var tiers = []tier{
	{upTo: 5, price: 150},
	{upTo: 8, price: 240},
	{upTo: MaxWeight, price: 300},
}

// AmountForWeight returns the amount to pay in centavos.
func AmountForWeight(weight float64) (int, error) {
	if weight <= 0 || weight > MaxWeight {
		return 0, ErrInvalidWeight
	}

	for _, t := range tiers {
		if weight <= t.upTo {
			return converter.ConvertAmount(t.price), nil
		}
	}

	return 0, ErrInvalidWeight
}
