package backfill

import (
	"fmt"
	"strings"
)

// Metrics selects which series a backfill run reconstructs.
type Metrics struct {
	Issues bool
	Labels bool
	Pulls  bool
	Stars  bool
}

// AllMetrics selects every series.
func AllMetrics() Metrics {
	return Metrics{Issues: true, Labels: true, Pulls: true, Stars: true}
}

// ParseMetrics parses a comma-separated metric filter such as
// "issues,labels". An empty string selects all metrics.
func ParseMetrics(s string) (Metrics, error) {
	if s == "" {
		return AllMetrics(), nil
	}

	var m Metrics
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "issues":
			m.Issues = true
		case "labels":
			m.Labels = true
		case "pulls":
			m.Pulls = true
		case "stars":
			m.Stars = true
		default:
			return Metrics{}, fmt.Errorf("unknown metric %q (valid: issues, labels, pulls, stars)", name)
		}
	}
	return m, nil
}
