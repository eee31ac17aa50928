package geo

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var citiesYAML []byte

type cityTable struct {
	Fallback Coordinate            `yaml:"fallback"`
	Cities   map[string]Coordinate `yaml:"cities"`
}

// CityCenters resolves a city name to a center coordinate
type CityCenters struct {
	fallback Coordinate
	cities   map[string]Coordinate
}

// LoadCityCenters parses a YAML city table
func LoadCityCenters(data []byte) (*CityCenters, error) {
	var table cityTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse city table: %w", err)
	}

	cities := make(map[string]Coordinate, len(table.Cities))
	for name, c := range table.Cities {
		cities[normalizeCity(name)] = c
	}
	return &CityCenters{fallback: table.Fallback, cities: cities}, nil
}

// DefaultCityCenters returns the embedded table
func DefaultCityCenters() *CityCenters {
	cc, err := LoadCityCenters(citiesYAML)
	if err != nil {
		panic(err)
	}
	return cc
}

// Lookup returns the center for city and whether it was recognized.
// Unrecognized cities resolve to the fallback center.
func (cc *CityCenters) Lookup(city string) (Coordinate, bool) {
	if c, ok := cc.cities[normalizeCity(city)]; ok {
		return c, true
	}
	return cc.fallback, false
}

// Fallback returns the center used for unrecognized cities
func (cc *CityCenters) Fallback() Coordinate {
	return cc.fallback
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}
