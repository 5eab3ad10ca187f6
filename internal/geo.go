package internal

import (
	"math"
)

// Inspired by https://github.com/LucaTheHacker/go-haversine

const (
	earthRadiusKilometers float64 = 6371 // Radius of Earth in kilometers
	piHalf                float64 = math.Pi / 180
	// compassStep is the angle covered by a single compass point [degrees].
	compassStep float64 = 360.0 / 16
)

// compassPoints goes clockwise, starting at north.
var compassPoints = [16]string{ //nolint: gochecknoglobals // lookup table
	"north", "north-northeast", "northeast", "east-northeast",
	"east", "east-southeast", "southeast", "south-southeast",
	"south", "south-southwest", "southwest", "west-southwest",
	"west", "west-northwest", "northwest", "north-northwest",
}

func degreesToRadian(d float64) float64 {
	return d * piHalf
}

func radianToDegrees(r float64) float64 {
	return r / piHalf
}

// Coordinates is a position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinates) toRadians() Coordinates {
	return Coordinates{
		Latitude:  degreesToRadian(c.Latitude),
		Longitude: degreesToRadian(c.Longitude),
	}
}

// newCoordinates returns a coordinates struct based on parameters passed.
func newCoordinates(latitude, longitude float64) Coordinates {
	return Coordinates{
		Latitude:  latitude,
		Longitude: longitude,
	}
}

// NewCoordinates is the exported constructor, used for the listener location.
func NewCoordinates(latitude, longitude float64) Coordinates {
	return newCoordinates(latitude, longitude)
}

// DistanceStruct is the central angle between two points. Multiply with a
// sphere radius to get the distance.
type DistanceStruct struct {
	C float64
}

func (d DistanceStruct) Kilometers() float64 {
	return d.C * earthRadiusKilometers
}

// Distance calculates distance using the haversine formula.
//
//nolint:mnd // readability of mathmatic formula
func Distance(p, q Coordinates) DistanceStruct {
	fromPos := p.toRadians()
	toPos := q.toRadians()

	deltaLat := toPos.Latitude - fromPos.Latitude
	deltaLon := toPos.Longitude - fromPos.Longitude

	a := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(fromPos.Latitude)*
			math.Cos(toPos.Latitude)*
			math.Pow(math.Sin(deltaLon/2), 2)

	return DistanceStruct{C: 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))}
}

// Bearing calculates the initial bearing (forward azimuth) from p to q in
// [degrees], normalised to [0, 360).
func Bearing(p, q Coordinates) float64 {
	fromPos := p.toRadians()
	toPos := q.toRadians()

	dLon := toPos.Longitude - fromPos.Longitude

	y := math.Sin(dLon) * math.Cos(toPos.Latitude)
	x := math.Cos(fromPos.Latitude)*math.Sin(toPos.Latitude) -
		math.Sin(fromPos.Latitude)*math.Cos(toPos.Latitude)*math.Cos(dLon)

	// Atan2 ranges from -180 to +180
	return math.Mod(radianToDegrees(math.Atan2(y, x))+360.0, 360.0) //nolint: mnd // readability
}

// Direction maps a bearing onto one of the 16 compass points.
func Direction(bearing float64) string {
	idx := int(math.Floor(math.Mod(bearing+compassStep/2, 360.0) / compassStep))
	if idx < 0 || idx >= len(compassPoints) {
		return "unknown"
	}

	return compassPoints[idx]
}
