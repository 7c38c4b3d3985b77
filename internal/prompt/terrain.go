package prompt

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// vegetationDescriptors maps vegetation type codes to how the landscape should
// read in the prompt. Unmapped types fall back to the lower-cased raw name.
var vegetationDescriptors = map[string]string{
	"dry_sclerophyll": "dry sclerophyll eucalypt forest with a sparse, crackling-dry understorey",
	"wet_sclerophyll": "tall wet sclerophyll forest with a dense fern understorey",
	"grassland":       "open grassland of cured golden grass",
	"heathland":       "low coastal heathland of dense scrub",
	"mallee":          "mallee scrub with multi-stemmed eucalypts over spinifex",
	"woodland":        "open eucalypt woodland with scattered mature trees",
	"rainforest":      "closed-canopy rainforest with thick moist undergrowth",
	"pine_plantation": "uniform rows of plantation pine",
	"alpine":          "alpine snow-gum woodland above the treeline margin",
}

func sceneGrounding(geo domain.GeoContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The terrain is %s", slopeDescriptor(geo.SlopeMeanDeg))
	vegetation, ok := vegetationDescriptors[geo.VegetationType]
	if !ok {
		vegetation = strings.ToLower(geo.VegetationType)
	}
	fmt.Fprintf(&b, " covered in %s,", vegetation)
	fmt.Fprintf(&b, " at roughly %.0f metres elevation", geo.ElevationM)
	if geo.Aspect != "" {
		fmt.Fprintf(&b, " on a %s-facing aspect", strings.ToLower(geo.Aspect))
	}
	fmt.Fprintf(&b, ", in %s.", featureSetting(geo.NearbyFeatures))
	return b.String()
}

// slopeDescriptor buckets the mean slope into five terrain readings.
func slopeDescriptor(meanDeg float64) string {
	switch {
	case meanDeg < 5:
		return "flat, open country"
	case meanDeg < 15:
		return "gently rolling hills"
	case meanDeg < 25:
		return "moderately sloping hillsides"
	case meanDeg < 35:
		return "steep mountainous terrain"
	default:
		return "a near-vertical escarpment"
	}
}

// featureSetting joins nearby-feature tags into readable prose, falling back
// to remote bushland when the lookup returned nothing.
func featureSetting(features []string) string {
	cleaned := make([]string, 0, len(features))
	for _, f := range features {
		f = strings.TrimSpace(strings.ToLower(strings.ReplaceAll(f, "_", " ")))
		if f != "" {
			cleaned = append(cleaned, f)
		}
	}
	if len(cleaned) == 0 {
		return "a remote bushland area"
	}
	if len(cleaned) == 1 {
		return "an area near " + cleaned[0]
	}
	return "an area near " + strings.Join(cleaned[:len(cleaned)-1], ", ") + " and " + cleaned[len(cleaned)-1]
}
