package common

// Reference speeds, m/s.
// Useful as sanity rails for segmentation thresholds and outlier ceilings.

const SpeedOfWalkingMin = 0.23  // or 0.8 km/h or 0.5 mph
const SpeedOfWalkingSlow = 0.5  // or 1.8 km/h or 1.1 mph
const SpeedOfWalkingMean = 1.2  // or 4.3 km/h or 2.7 mph
const SpeedOfWalkingMax = 1.78  // or 6.4 km/h or 4 mph

const SpeedOfRunningMin = 2.23 // or 8 km/h or 5 mph
const SpeedOfRunningMax = 5.56 // or 20 km/h or 12 mph

const SpeedOfCyclingMin = SpeedOfRunningMin
const SpeedOfCyclingMax = 11.76 // or 42 km/h or 26 mph

const SpeedOfDrivingMin = 4.47      // or 16 km/h or 10 mph
const SpeedOfDrivingCityMean = 13.9 // or 50 km/h or 31 mph
const SpeedOfDrivingFreeway = 33.33 // or 120 km/h or 75 mph

const SpeedOfCommercialFlight = 250.0 // or 900 km/h
const SpeedOfSound = 343.0
