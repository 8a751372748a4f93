package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid combines literal token matching with vector-similarity ranking.
	Hybrid Mode = "hybrid"
	// Semantic ranks purely by embedding similarity.
	Semantic Mode = "semantic"
	// Lexical matches literal tokens and phrases only.
	Lexical Mode = "lexical"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Lexical
}

// Alternate returns the mode to retry with when a search comes back empty.
// Hybrid and semantic swap; lexical widens to hybrid.
func (m Mode) Alternate() Mode {
	switch m {
	case Hybrid:
		return Semantic
	case Semantic:
		return Hybrid
	default:
		return Hybrid
	}
}
