package domain

import "fmt"

// Viewpoint enumerates the camera positions a trainer can request.
type Viewpoint string

const (
	ViewpointAerial          Viewpoint = "aerial"
	ViewpointHelicopterNorth Viewpoint = "helicopter_north"
	ViewpointHelicopterEast  Viewpoint = "helicopter_east"
	ViewpointHelicopterSouth Viewpoint = "helicopter_south"
	ViewpointHelicopterWest  Viewpoint = "helicopter_west"
	ViewpointHelicopterAbove Viewpoint = "helicopter_above"
	ViewpointGroundNorth     Viewpoint = "ground_north"
	ViewpointGroundEast      Viewpoint = "ground_east"
	ViewpointGroundSouth     Viewpoint = "ground_south"
	ViewpointGroundWest      Viewpoint = "ground_west"
	ViewpointGroundAbove     Viewpoint = "ground_above"
	ViewpointRidge           Viewpoint = "ridge"
)

// MaxRequestedViews caps how many viewpoints one scenario may request.
const MaxRequestedViews = 10

var knownViewpoints = map[Viewpoint]bool{
	ViewpointAerial:          true,
	ViewpointHelicopterNorth: true,
	ViewpointHelicopterEast:  true,
	ViewpointHelicopterSouth: true,
	ViewpointHelicopterWest:  true,
	ViewpointHelicopterAbove: true,
	ViewpointGroundNorth:     true,
	ViewpointGroundEast:      true,
	ViewpointGroundSouth:     true,
	ViewpointGroundWest:      true,
	ViewpointGroundAbove:     true,
	ViewpointRidge:           true,
}

// Valid reports whether the viewpoint is one of the supported camera positions.
func (v Viewpoint) Valid() bool {
	return knownViewpoints[v]
}

// Category groups viewpoints by camera platform. The consistency validator
// uses it to decide whether an image set spans multiple vantage classes.
func (v Viewpoint) Category() string {
	switch v {
	case ViewpointAerial:
		return "aerial"
	case ViewpointHelicopterNorth, ViewpointHelicopterEast, ViewpointHelicopterSouth,
		ViewpointHelicopterWest, ViewpointHelicopterAbove:
		return "helicopter"
	case ViewpointGroundNorth, ViewpointGroundEast, ViewpointGroundSouth,
		ViewpointGroundWest, ViewpointGroundAbove:
		return "ground"
	case ViewpointRidge:
		return "ridge"
	default:
		return "unknown"
	}
}

// FireIntensity enumerates the six fire-intensity classes.
type FireIntensity string

const (
	IntensityLow          FireIntensity = "low"
	IntensityModerate     FireIntensity = "moderate"
	IntensityHigh         FireIntensity = "high"
	IntensityVeryHigh     FireIntensity = "veryHigh"
	IntensityExtreme      FireIntensity = "extreme"
	IntensityCatastrophic FireIntensity = "catastrophic"
)

// FireStage describes how developed the fire front is.
type FireStage string

const (
	StageIgnition    FireStage = "ignition"
	StageDeveloping  FireStage = "developing"
	StageEstablished FireStage = "established"
	StagePeak        FireStage = "peak"
	StageWaning      FireStage = "waning"
)

// TimeOfDay enumerates the lighting windows supported by the composer.
type TimeOfDay string

const (
	TimeDawn      TimeOfDay = "dawn"
	TimeMorning   TimeOfDay = "morning"
	TimeMidday    TimeOfDay = "midday"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeDusk      TimeOfDay = "dusk"
	TimeNight     TimeOfDay = "night"
)

// CompassDirection is an 8-point compass bearing.
type CompassDirection string

const (
	North     CompassDirection = "N"
	NorthEast CompassDirection = "NE"
	East      CompassDirection = "E"
	SouthEast CompassDirection = "SE"
	South     CompassDirection = "S"
	SouthWest CompassDirection = "SW"
	West      CompassDirection = "W"
	NorthWest CompassDirection = "NW"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Perimeter is the drawn fire boundary plus its measured footprint.
type Perimeter struct {
	Points             []LatLng `json:"points"`
	AreaHectares       float64  `json:"area_hectares"`
	ExtentNorthSouthKm float64  `json:"extent_ns_km"`
	ExtentEastWestKm   float64  `json:"extent_ew_km"`
}

// FireInputs bundles the weather and fire-behaviour parameters set by the trainer.
type FireInputs struct {
	WindSpeedKmh    float64          `json:"wind_speed_kmh"`
	WindDirection   CompassDirection `json:"wind_direction"`
	TemperatureC    float64          `json:"temperature_c"`
	HumidityPct     float64          `json:"humidity_pct"`
	TimeOfDay       TimeOfDay        `json:"time_of_day"`
	Intensity       FireIntensity    `json:"intensity"`
	Stage           FireStage        `json:"stage"`
	FlameHeightM    *float64         `json:"flame_height_m,omitempty"`
	RateOfSpreadKmh *float64         `json:"rate_of_spread_kmh,omitempty"`
}

// GeoContext carries terrain and vegetation data for the perimeter area,
// supplied by the geo lookup collaborator.
type GeoContext struct {
	VegetationType string   `json:"vegetation_type"`
	ElevationM     float64  `json:"elevation_m"`
	SlopeMeanDeg   float64  `json:"slope_mean_deg"`
	SlopeMaxDeg    float64  `json:"slope_max_deg"`
	Aspect         string   `json:"aspect"`
	NearbyFeatures []string `json:"nearby_features,omitempty"`
	Confidence     string   `json:"confidence,omitempty"`
}

// IsZero reports whether no geo context was supplied at all.
func (g GeoContext) IsZero() bool {
	return g.VegetationType == "" && g.ElevationM == 0 && g.SlopeMeanDeg == 0 &&
		g.SlopeMaxDeg == 0 && g.Aspect == "" && len(g.NearbyFeatures) == 0
}

// ScenarioRequest is the immutable input describing one bushfire scenario.
type ScenarioRequest struct {
	Perimeter      Perimeter   `json:"perimeter"`
	Inputs         FireInputs  `json:"inputs"`
	GeoContext     GeoContext  `json:"geo_context"`
	RequestedViews []Viewpoint `json:"requested_views"`
}

// Validate rejects requests that must never become jobs.
func (r *ScenarioRequest) Validate() error {
	if len(r.Perimeter.Points) < 3 {
		return fmt.Errorf("%w: perimeter needs at least 3 points", ErrInvalidScenario)
	}
	if r.Inputs.WindDirection == "" || r.Inputs.TimeOfDay == "" || r.Inputs.Intensity == "" {
		return fmt.Errorf("%w: wind direction, time of day, and intensity are required", ErrInvalidScenario)
	}
	if r.GeoContext.VegetationType == "" {
		return fmt.Errorf("%w: geo context is required", ErrInvalidScenario)
	}
	if len(r.RequestedViews) < 1 || len(r.RequestedViews) > MaxRequestedViews {
		return fmt.Errorf("%w: requested views must be between 1 and %d", ErrInvalidScenario, MaxRequestedViews)
	}
	for _, v := range r.RequestedViews {
		if !v.Valid() {
			return fmt.Errorf("%w: unknown viewpoint %q", ErrInvalidScenario, v)
		}
	}
	return nil
}
