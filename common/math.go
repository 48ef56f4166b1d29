package common

import "math"

func Round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

// DecimalToFixed truncates num to the given decimal precision.
func DecimalToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return float64(Round(num*output)) / output
}
