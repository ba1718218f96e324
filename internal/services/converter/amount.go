package converter

import "math"

const amountMulti = 100

func FormatAmount(amount int) float64 {
	return float64(amount) / amountMulti
}

func ConvertAmount(amount float64) int {
	return int(math.Round(amount * amountMulti))
}
