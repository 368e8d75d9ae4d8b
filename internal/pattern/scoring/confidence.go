// Package scoring turns how often a pattern has been observed, and how much
// evidence backs it, into a bounded confidence score.
package scoring

import (
	"math"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
)

const (
	baseScore = domain.InitialConfidence
	span      = 90
	// growth controls how many observations it takes to approach the ceiling.
	growth = 4.0
	// maxScore keeps the score strictly below 100 even when the curve saturates
	// in floating point.
	maxScore = 99
)

// Confidence scores a pattern observed frequency times. A first observation
// always scores the base value; the score never decreases as frequency grows.
func Confidence(payload domain.Payload, frequency int) int {
	if frequency <= 1 {
		return baseScore
	}
	saturation := 1 - math.Exp(-float64(frequency-1)/growth)
	weight := 0.5 + 0.5*richness(payload)
	score := int(math.Floor(baseScore + span*saturation*weight))
	if score > maxScore {
		return maxScore
	}
	if score < 0 {
		return 0
	}
	return score
}

func richness(payload domain.Payload) float64 {
	if payload == nil {
		return 0
	}
	r := payload.Richness()
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Rescore decodes stored pattern data and recomputes its confidence.
// Data that cannot be decoded scores as if it carried no evidence.
func Rescore(p *domain.Pattern) int {
	payload, err := domain.DecodePayload(p.PatternType, p.PatternData)
	if err != nil {
		payload = nil
	}
	return Confidence(payload, p.Frequency)
}
