package sales

var priorities = map[string]string{
	"L": "Low",
	"M": "Medium",
	"H": "High",
	"C": "Critical",
}

// Priority expands a single-letter order priority code. Unknown values are
// returned unchanged.
func Priority(code string) string {
	if p, ok := priorities[code]; ok {
		return p
	}
	return code
}
