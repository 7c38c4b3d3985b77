package prompt

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// lightingDescriptions keys the fixed lighting sentence by time of day. Each
// sentence restates its time-of-day token so downstream consistency checks can
// find it in stored prompt text.
var lightingDescriptions = map[domain.TimeOfDay]string{
	domain.TimeDawn:      "Lighting: first light of dawn, a low golden sun throwing long shadows, smoke catching pink and orange light.",
	domain.TimeMorning:   "Lighting: clear morning sun at a low angle with crisp shadows and good visibility.",
	domain.TimeMidday:    "Lighting: harsh overhead midday sun, flat shadows, heat shimmer above the fire ground.",
	domain.TimeAfternoon: "Lighting: warm late-afternoon sun with lengthening shadows and a smoke-filtered amber cast.",
	domain.TimeDusk:      "Lighting: fading dusk light, the fire glowing intensely against a darkening sky.",
	domain.TimeNight:     "Lighting: night scene, the landscape lit only by firelight and the orange glow reflected off the smoke.",
}

func atmosphere(inputs domain.FireInputs) string {
	conditions := fmt.Sprintf(
		"Conditions: %.0f degrees Celsius, %.0f percent relative humidity, wind %.0f km/h blowing from the %s.",
		inputs.TemperatureC, inputs.HumidityPct, inputs.WindSpeedKmh,
		strings.ToLower(string(inputs.WindDirection)))
	lighting, ok := lightingDescriptions[inputs.TimeOfDay]
	if !ok {
		lighting = lightingDescriptions[domain.TimeMidday]
	}
	return conditions + " " + lighting
}
