package engine

// Engine identifies a backend search engine.
type Engine string

// Engine constants.
const (
	// Relational is the primary relational-store engine (full-text + pgvector).
	Relational Engine = "relational"
	// Document is the document-store engine (Meilisearch-style index).
	Document Engine = "document"
)

// IsValid checks if the engine is one of the supported values.
func (e Engine) IsValid() bool {
	return e == Relational || e == Document
}

// Alternate returns the engine to fall back to when this one fails.
func (e Engine) Alternate() Engine {
	if e == Relational {
		return Document
	}
	return Relational
}
