package prompt

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// intensityTier maps a fire-intensity class to its visual vocabulary.
type intensityTier struct {
	flames    string
	smoke     string
	crowning  string
	qualifier string
}

var intensityTiers = map[domain.FireIntensity]intensityTier{
	domain.IntensityLow: {
		flames:    "flames 0.5 to 1.5 metres tall",
		smoke:     "thin wisps of pale grey smoke drifting low over the ground",
		crowning:  "",
		qualifier: "a low-intensity burn creeping through surface fuels",
	},
	domain.IntensityModerate: {
		flames:    "flames 1.5 to 3 metres tall",
		smoke:     "a steady grey smoke column rising from the fire front",
		crowning:  "",
		qualifier: "a moderate fire moving steadily through the understorey",
	},
	domain.IntensityHigh: {
		flames:    "flames 3 to 8 metres tall",
		smoke:     "a thick dark smoke plume leaning with the wind",
		crowning:  "occasional torching of tree crowns with short-range spotting",
		qualifier: "an intense fire taking hold of the lower canopy",
	},
	domain.IntensityVeryHigh: {
		flames:    "flames 8 to 20 metres tall",
		smoke:     "a towering dark smoke column building into a pyrocumulus cloud",
		crowning:  "an active crown fire with embers spotting well ahead of the front",
		qualifier: "a very intense fire running through the full canopy",
	},
	domain.IntensityExtreme: {
		flames:    "flames 20 to 40 metres tall",
		smoke:     "an enormous black smoke column with a fully developed pyrocumulus towering above it",
		crowning:  "continuous crown fire with massive ember showers and long-range spotting",
		qualifier: "an extreme fire overwhelming the landscape",
	},
	domain.IntensityCatastrophic: {
		flames:    "flames over 40 metres tall",
		smoke:     "sky-darkening smoke with violent pyrocumulonimbus development overhead",
		crowning:  "total crown involvement with fire whirls and ember storms far ahead of the front",
		qualifier: "a catastrophic firestorm consuming everything in its path",
	},
}

// flameHeightQualifier re-derives the intensity qualifier from an explicit
// flame height so numeric and qualitative descriptions never contradict.
func flameHeightQualifier(metres float64) string {
	switch {
	case metres < 0.5:
		return "a smouldering ground fire with minimal visible flame"
	case metres < 1.5:
		return "low flames creeping through surface fuels"
	case metres < 3:
		return "moderate flames moving through the understorey"
	case metres < 8:
		return "intense flames reaching into the lower canopy"
	case metres < 20:
		return "a very intense fire with flames towering over the treetops"
	default:
		return "extreme fire behaviour with flames dominating the entire scene"
	}
}

// spreadDirections maps a wind bearing to the direction the fire runs:
// the geometric opposite on an 8-point compass.
var spreadDirections = map[domain.CompassDirection]string{
	domain.North:     "south",
	domain.NorthEast: "southwest",
	domain.East:      "west",
	domain.SouthEast: "northwest",
	domain.South:     "north",
	domain.SouthWest: "northeast",
	domain.West:      "east",
	domain.NorthWest: "southeast",
}

func fireBehaviour(inputs domain.FireInputs, perimeter domain.Perimeter) string {
	tier, ok := intensityTiers[inputs.Intensity]
	if !ok {
		tier = intensityTiers[domain.IntensityModerate]
	}

	flames := tier.flames
	qualifier := tier.qualifier
	if inputs.FlameHeightM != nil {
		flames = fmt.Sprintf("flames approximately %.1f metres tall", *inputs.FlameHeightM)
		qualifier = flameHeightQualifier(*inputs.FlameHeightM)
	}

	parts := []string{
		fmt.Sprintf("An active %s-stage bushfire burns across the landscape: %s, with %s.",
			stageWord(inputs.Stage), qualifier, flames),
		tier.smoke + ".",
	}
	if tier.crowning != "" {
		parts = append(parts, upperFirst(tier.crowning)+".")
	}

	spread := spreadDirections[inputs.WindDirection]
	if spread == "" {
		spread = "downwind"
	}
	spreadLine := fmt.Sprintf("The fire front is spreading toward the %s, pushed by the wind", spread)
	if inputs.RateOfSpreadKmh != nil {
		spreadLine += fmt.Sprintf(" at about %.1f km/h", *inputs.RateOfSpreadKmh)
	}
	parts = append(parts, spreadLine+".")

	parts = append(parts, fmt.Sprintf(
		"The fire covers approximately %.0f hectares, extending %.1f km north to south and %.1f km east to west; flames and smoke must visually fill this entire mapped extent.",
		perimeter.AreaHectares, perimeter.ExtentNorthSouthKm, perimeter.ExtentEastWestKm))

	return strings.Join(parts, " ")
}

func stageWord(stage domain.FireStage) string {
	if stage == "" {
		return string(domain.StageEstablished)
	}
	return string(stage)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
