package types

// CourtLevel represents the level of a court in the judicial hierarchy.
// Unranked courts compare below every ranked one.
type CourtLevel int

const (
	CourtLevelUnknown  CourtLevel = 0
	CourtLevelDistrict CourtLevel = 1
	CourtLevelHigh     CourtLevel = 2
	CourtLevelSupreme  CourtLevel = 3
)

func (c CourtLevel) String() string {
	switch c {
	case CourtLevelDistrict:
		return "district"
	case CourtLevelHigh:
		return "high"
	case CourtLevelSupreme:
		return "supreme"
	default:
		return "unknown"
	}
}

// Below reports whether c is strictly lower than other.
func (c CourtLevel) Below(other CourtLevel) bool {
	return c < other
}
