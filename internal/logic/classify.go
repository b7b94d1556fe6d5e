package logic

// ClassifyForward reports whether the fixed forward channel sees a hazard.
func ClassifyForward(distanceCm, thresholdCm int) bool {
	return distanceCm < thresholdCm
}

// ClassifyGround reports whether the scanned ground channel sees a hazard.
func ClassifyGround(distanceCm, thresholdCm int) bool {
	return distanceCm < thresholdCm
}

// ZoneForAngle maps a servo angle to a horizontal zone.
// angle < leftBelow is Left, angle > rightAbove is Right, otherwise Center.
func ZoneForAngle(angle, leftBelow, rightAbove int) Zone {
	switch {
	case angle < leftBelow:
		return ZoneLeft
	case angle > rightAbove:
		return ZoneRight
	default:
		return ZoneCenter
	}
}

// HasHazard reports whether ev is a detection from source closer than
// thresholdCm. A zero event never counts.
func (ev ObstacleEvent) HasHazard(source Source, thresholdCm int) bool {
	return ev.Source == source && ev.DistanceCm > 0 && ev.DistanceCm < thresholdCm
}
