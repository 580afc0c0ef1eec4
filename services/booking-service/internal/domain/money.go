package domain

import "math"

const (
	DefaultHostSharePercent = 90
	DefaultCurrency         = "NGN"
)

// HostShare is the host's cut of a gross amount in whole currency units,
// rounded half away from zero.
func HostShare(gross float64, percent int) int64 {
	if percent <= 0 {
		percent = DefaultHostSharePercent
	}
	return int64(math.Round(gross * (float64(percent) / 100)))
}

// KoboToNaira converts minor units to whole units.
func KoboToNaira(kobo float64) int64 {
	return int64(math.Round(kobo / 100))
}
