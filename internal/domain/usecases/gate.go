// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import "github.com/0xcro3dile/faqbot-go/internal/domain/entities"

// DefaultThreshold is the minimum top score for a grounded answer.
const DefaultThreshold = 0.25

// IsGrounded reports whether the best-ranked result is relevant enough to
// answer from. Only results[0] is consulted; results must already be ranked.
func IsGrounded(results []entities.RetrievalResult, threshold float64) bool {
	return len(results) > 0 && results[0].Score >= threshold
}

// TopScore returns the best score, or 0 for no results.
func TopScore(results []entities.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Score
}
