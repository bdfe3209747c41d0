package repository

// Resolution represents a chart resolution token.
type Resolution string

const (
	Res1m  Resolution = "1m"
	Res5m  Resolution = "5m"
	Res15m Resolution = "15m"
	Res60m Resolution = "60m"
	Res1D  Resolution = "1D"
	Res1W  Resolution = "1W"
	Res1M  Resolution = "1M"
)

var resolutionMinutes = map[Resolution]int{
	Res1m:  1,
	Res5m:  5,
	Res15m: 15,
	Res60m: 60,
}

// IsValidResolution returns true if res is a supported resolution.
func IsValidResolution(res Resolution) bool {
	switch res {
	case Res1m, Res5m, Res15m, Res60m, Res1D, Res1W, Res1M:
		return true
	default:
		return false
	}
}

// DefaultResolution returns the default chart resolution.
func DefaultResolution() Resolution { return Res1D }

// NormalizeResolution converts a raw string to a valid resolution (or default).
func NormalizeResolution(s string) Resolution {
	if s == "" {
		return DefaultResolution()
	}
	res := Resolution(s)
	if IsValidResolution(res) {
		return res
	}
	return DefaultResolution()
}

// IsIntraday reports whether res aggregates on a fixed minute grid.
// Calendar resolutions (1D/1W/1M) bucket by trading day, ISO week or month.
func (r Resolution) IsIntraday() bool {
	_, ok := resolutionMinutes[r]
	return ok
}

// Minutes returns the bucket width in minutes for intraday resolutions,
// or 0 for calendar resolutions.
func (r Resolution) Minutes() int { return resolutionMinutes[r] }
