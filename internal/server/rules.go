package server

import "github.com/courtside/livescore/internal/scoring"

// SportRules maps a sport tag to its configured rules. Thresholds come from
// configuration, not constants: different federations play to different
// targets.
type SportRules struct {
	Tennis      scoring.Rules
	Racquetball scoring.Rules
}

func (sr SportRules) For(sport string) scoring.Rules {
	if sport == string(scoring.Tennis) {
		return sr.Tennis
	}
	return sr.Racquetball
}
