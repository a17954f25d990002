package taste

import (
	"time"

	"github.com/voyantic/placeintel/internal/model"
)

// ContradictionSpread is the minimum decayed-confidence disagreement
// between two active nodes in the same domain to call them contradictory.
const ContradictionSpread = 0.4

// SynthesizeProfile builds a user's six-domain weight vector from their
// active taste nodes: each domain's weight is the decayed average
// confidence of its nodes, zero where the user has no evidence.
func SynthesizeProfile(nodes []model.TasteNode, cfg DecayConfig, now time.Time) model.TasteProfile {
	profile := model.NewTasteProfile()
	for d, avg := range DomainAverages(nodes, cfg, now) {
		profile[d] = avg
	}
	return profile
}

// ContradictionPair names two nodes whose preferences conflict.
type ContradictionPair struct {
	Domain model.Domain
	NodeA  string
	NodeB  string
	Spread float64
}

// DetectContradictions finds pairs of active nodes in the same domain
// whose decayed confidences disagree beyond the threshold. Pair order is
// deterministic (input order), so repeated runs over unchanged input
// produce the same pairs.
func DetectContradictions(nodes []model.TasteNode, threshold float64, cfg DecayConfig, now time.Time) []ContradictionPair {
	if threshold <= 0 {
		threshold = ContradictionSpread
	}

	byDomain := make(map[model.Domain][]model.TasteNode)
	for _, n := range nodes {
		if !n.IsActive {
			continue
		}
		byDomain[n.Domain] = append(byDomain[n.Domain], n)
	}

	var pairs []ContradictionPair
	for _, d := range model.Domains {
		group := byDomain[d]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a := DecayConfidence(group[i].Confidence, group[i].ExtractedAt, cfg, now)
				b := DecayConfidence(group[j].Confidence, group[j].ExtractedAt, cfg, now)
				spread := a - b
				if spread < 0 {
					spread = -spread
				}
				if spread >= threshold {
					pairs = append(pairs, ContradictionPair{
						Domain: d,
						NodeA:  group[i].ID,
						NodeB:  group[j].ID,
						Spread: spread,
					})
				}
			}
		}
	}
	return pairs
}
