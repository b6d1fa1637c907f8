package serviceorder

import "fmt"

// ---------------------------------------------------------------------------
// Relation sets
// ---------------------------------------------------------------------------
//
// The Hubsoft detail endpoint accepts an optional list of "relacoes" tokens
// expanding the response with related sub-resources. The endpoint rejects
// unsupported combinations with a logical error instead of publishing a
// capability list, so callers degrade through progressively narrower sets.

// AllowedRelations is the fixed allow-list for the v1 detail endpoint.
var AllowedRelations = []string{
	"tecnicos",
	"motivo_fechamento",
	"opcoes_cobranca",
	"assinatura",
	"atendimento",
}

// DefaultRelations is the preferred (most complete) relation set.
var DefaultRelations = []string{
	"tecnicos",
	"atendimento",
	"assinatura",
	"motivo_fechamento",
	"opcoes_cobranca",
}

// ValidateRelations checks every token against the allow-list.
func ValidateRelations(relations []string) error {
	for _, rel := range relations {
		if !relationAllowed(rel) {
			return fmt.Errorf("%w: %q", ErrUnknownRelation, rel)
		}
	}
	return nil
}

func relationAllowed(rel string) bool {
	for _, allowed := range AllowedRelations {
		if rel == allowed {
			return true
		}
	}
	return false
}

// DegradationLadder produces the ordered candidate sets tried against the
// detail endpoint: the full preferred set, then the set shortened by one
// token at a time, ending with the empty set. Tokens outside the allow-list
// are dropped before the ladder is built.
func DegradationLadder(preferred []string) [][]string {
	filtered := make([]string, 0, len(preferred))
	for _, rel := range preferred {
		if relationAllowed(rel) {
			filtered = append(filtered, rel)
		}
	}

	ladder := make([][]string, 0, len(filtered)+1)
	for n := len(filtered); n > 0; n-- {
		candidate := make([]string, n)
		copy(candidate, filtered[:n])
		ladder = append(ladder, candidate)
	}
	ladder = append(ladder, []string{})
	return ladder
}
