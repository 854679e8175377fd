package store

// Edge types. Contains edges form the per-document hierarchy tree rooted
// at the doc node; next edges link consecutive siblings under one parent.
const (
	EdgeContains = "contains"
	EdgeNext     = "next"
)

// DocumentRecord is one ingested file.
type DocumentRecord struct {
	DocID       string
	Content     []byte
	ContentHash string
	SourcePath  string
}

// NodeRecord is one span of a document. ParentPK is zero only for the doc
// root; the authoritative hierarchy is edge-based and ParentPK is the
// denormalized shortcut used by ancestor walks.
type NodeRecord struct {
	PK       int64
	DocID    string
	Start    int
	End      int
	Kind     string
	Level    int
	FullID   string
	ShortID  string
	ParentPK int64
}

// EmbeddingRecord is one stored vector, unique per (FullID, Model).
// DocID is populated by reads (joined from the owning node) and ignored
// on write.
type EmbeddingRecord struct {
	FullID     string
	DocID      string
	Model      string
	Dimensions int
	Vector     []byte
}

// SearchResult is one lexical search hit. Snippet has the matched terms
// wrapped in << >> markers. Higher Score is a better match.
type SearchResult struct {
	NodePK  int64
	DocID   string
	ShortID string
	Snippet string
	Score   float64
}
