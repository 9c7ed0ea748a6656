package shared

// ListLimit clamps a requested page size to sane bounds.
func ListLimit(requested, fallback, max int) int {
	if requested <= 0 {
		return fallback
	}
	if requested > max {
		return max
	}
	return requested
}
