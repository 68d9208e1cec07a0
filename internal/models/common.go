// server/internal/models/common.go
package models

import "fmt"

// Address is a structured address used by facilities.
type Address struct {
	FullText  string  `bson:"fullText" json:"fullText"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude] so the
// field can back a 2dsphere index.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a point from latitude/longitude, validating ranges.
func NewGeoPoint(lat, lng float64) (*GeoPoint, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude %v out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return nil, fmt.Errorf("longitude %v out of range", lng)
	}
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}, nil
}

func (g *GeoPoint) String() string {
	if g == nil || len(g.Coordinates) != 2 {
		return ""
	}
	return fmt.Sprintf("%.5f,%.5f", g.Coordinates[1], g.Coordinates[0])
}
