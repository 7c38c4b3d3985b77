package prompt

import "server/internal/domain"

// cameraFramings holds the fixed camera sentence for every supported
// viewpoint. Ground views are phrased in second person to anchor the model at
// eye level; airborne views state platform, altitude, and bearing.
var cameraFramings = map[domain.Viewpoint]string{
	domain.ViewpointAerial: "Camera: high-altitude aerial view looking straight down, " +
		"the full fire perimeter visible within the frame.",
	domain.ViewpointHelicopterNorth: "Camera: from a helicopter hovering at about 300 metres altitude " +
		"north of the fire, looking south across the fire ground.",
	domain.ViewpointHelicopterEast: "Camera: from a helicopter hovering at about 300 metres altitude " +
		"east of the fire, looking west across the fire ground.",
	domain.ViewpointHelicopterSouth: "Camera: from a helicopter hovering at about 300 metres altitude " +
		"south of the fire, looking north across the fire ground.",
	domain.ViewpointHelicopterWest: "Camera: from a helicopter hovering at about 300 metres altitude " +
		"west of the fire, looking east across the fire ground.",
	domain.ViewpointHelicopterAbove: "Camera: from a helicopter directly above the fire at about " +
		"500 metres, angled slightly off vertical to show depth in the smoke column.",
	domain.ViewpointGroundNorth: "Camera: you are standing at ground level north of the fire, " +
		"looking south toward the approaching fire front.",
	domain.ViewpointGroundEast: "Camera: you are standing at ground level east of the fire, " +
		"looking west toward the approaching fire front.",
	domain.ViewpointGroundSouth: "Camera: you are standing at ground level south of the fire, " +
		"looking north toward the approaching fire front.",
	domain.ViewpointGroundWest: "Camera: you are standing at ground level west of the fire, " +
		"looking east toward the approaching fire front.",
	domain.ViewpointGroundAbove: "Camera: you are standing on high ground overlooking the fire area, " +
		"looking down across the full burn.",
	domain.ViewpointRidge: "Camera: you are standing on an exposed ridgeline above the valley, " +
		"looking along the length of the fire front below.",
}

func cameraFraming(viewpoint domain.Viewpoint) string {
	if framing, ok := cameraFramings[viewpoint]; ok {
		return framing
	}
	return cameraFramings[domain.ViewpointAerial]
}
