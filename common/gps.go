package common

// Decimal-degree precision versus ground length.
// https://en.wikipedia.org/wiki/Decimal_degrees
//
// 4 decimal places resolves an individual street or a large building (~11m),
// 5 resolves individual trees and houses (~1.1m).

const (
	// GPSPrecision4 is the precision for an individual street or large building.
	GPSPrecision4 = 4
	// GPSPrecision5 is the precision for individual trees and houses.
	GPSPrecision5 = 5
	// GPSPrecision6 is the precision for an individual pedestrian.
	GPSPrecision6 = 6
)
