package interpret

// topicVocabulary is the fixed list of topic terms recognized in free-form
// queries. A matched term is promoted to the front of the retained query
// text so it keeps participating in full-text ranking; it is not a filter.
// Order matters: the first term found in this order is the one promoted.
var topicVocabulary = []string{
	"healthcare",
	"economy",
	"immigration",
	"climate",
	"education",
	"taxes",
	"inflation",
	"abortion",
	"energy",
	"crime",
	"housing",
	"ukraine",
	"china",
	"trade",
	"elections",
}
