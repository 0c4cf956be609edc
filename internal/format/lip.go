package format

// parseLIP validates a lip-sync animation header. The format carries no size
// field, so the extent runs to the next recognized signature; candidates with
// no visible boundary fall back to a fixed carve size.
func parseLIP(in *Input) (*ParseResult, bool) {
	version, ok := U32LE(in.Window, 4)
	if !ok || version == 0 || version > 1000 {
		return nil, false
	}

	estimated := int64(DefaultFallbackSize)
	if in.NextBoundary != nil {
		if next := in.NextBoundary(4, DefaultBoundaryWindow, "lip"); next > 0 {
			estimated = next
		}
	}
	if estimated > 5*mib {
		estimated = 5 * mib
	}
	if estimated > in.Remaining {
		estimated = in.Remaining
	}
	return &ParseResult{
		Format:        "lip",
		EstimatedSize: estimated,
	}, true
}
