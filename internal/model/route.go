package model

import "strings"

// RouteType is the transport mode of a trade route.
type RouteType string

const (
	RouteSea  RouteType = "sea"
	RouteAir  RouteType = "air"
	RouteLand RouteType = "land"
)

// Normalize lower-cases and trims the route type.
func (t RouteType) Normalize() RouteType {
	return RouteType(strings.ToLower(strings.TrimSpace(string(t))))
}

// RouteAttributes holds the inputs of the trade route scorer.
type RouteAttributes struct {
	DistanceKM      *float64  `json:"distance_km,omitempty" yaml:"distance_km,omitempty"`
	TransitTimeDays *float64  `json:"transit_time_days,omitempty" yaml:"transit_time_days,omitempty"`
	CostPerTon      *float64  `json:"cost_per_ton,omitempty" yaml:"cost_per_ton,omitempty"`
	RouteType       RouteType `json:"route_type,omitempty" yaml:"route_type,omitempty"`
	ChokepointRisk  *float64  `json:"chokepoint_risk,omitempty" yaml:"chokepoint_risk,omitempty"` // 0-100
}

// TradeRoute is a scorable route between two countries.
type TradeRoute struct {
	ID                   string `json:"id" yaml:"id"`
	Name                 string `json:"route_name,omitempty" yaml:"route_name,omitempty"`
	OriginCountryID      string `json:"origin_country_id,omitempty" yaml:"origin_country_id,omitempty"`
	DestinationCountryID string `json:"destination_country_id,omitempty" yaml:"destination_country_id,omitempty"`

	RouteAttributes `yaml:",inline"`
}
