package strx

// Coalesce returns the first non-empty string, or "" if there is none.
func Coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
