// Package request builds validated MET API requests and their cache keys.
package request

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when an enum-constrained argument is
// outside its accepted set. It is always returned before any network access.
var ErrInvalidArgument = errors.New("invalid argument")

// LocationType is a MET location category (locationcategoryid).
type LocationType string

const (
	LocationState       LocationType = "STATE"
	LocationDistrict    LocationType = "DISTRICT"
	LocationTown        LocationType = "TOWN"
	LocationTouristDest LocationType = "TOURISTDEST"
	LocationWaters      LocationType = "WATERS"
)

// LocationTypes lists every accepted LocationType.
var LocationTypes = []LocationType{
	LocationState,
	LocationDistrict,
	LocationTown,
	LocationTouristDest,
	LocationWaters,
}

// Validate returns ErrInvalidArgument if t is not an accepted location type.
func (t LocationType) Validate() error {
	for _, v := range LocationTypes {
		if t == v {
			return nil
		}
	}
	return fmt.Errorf("%w: location type %q must be one of %v", ErrInvalidArgument, string(t), LocationTypes)
}

// ForecastType is the datacategoryid of a FORECAST request.
type ForecastType string

const (
	ForecastGeneral ForecastType = "GENERAL"
	ForecastMarine  ForecastType = "MARINE"
)

// ForecastTypes lists every accepted ForecastType.
var ForecastTypes = []ForecastType{ForecastGeneral, ForecastMarine}

// Validate returns ErrInvalidArgument if t is not an accepted forecast type.
func (t ForecastType) Validate() error {
	for _, v := range ForecastTypes {
		if t == v {
			return nil
		}
	}
	return fmt.Errorf("%w: forecast type %q must be one of %v", ErrInvalidArgument, string(t), ForecastTypes)
}

// WarningCategory is the datacategoryid of a WARNING request.
type WarningCategory string

const (
	WarningQuakeTsunami WarningCategory = "QUAKETSUNAMI2"
	WarningWindSea      WarningCategory = "WINDSEA2"
	WarningThunderstorm WarningCategory = "THUNDERSTORM2"
	WarningRain         WarningCategory = "RAIN2"
	WarningCyclone      WarningCategory = "CYCLONE2"
)

// WarningCategories lists every accepted WarningCategory.
var WarningCategories = []WarningCategory{
	WarningQuakeTsunami,
	WarningWindSea,
	WarningThunderstorm,
	WarningRain,
	WarningCyclone,
}

// Validate returns ErrInvalidArgument if c is not an accepted warning category.
func (c WarningCategory) Validate() error {
	for _, v := range WarningCategories {
		if c == v {
			return nil
		}
	}
	return fmt.Errorf("%w: warning category %q must be one of %v", ErrInvalidArgument, string(c), WarningCategories)
}
