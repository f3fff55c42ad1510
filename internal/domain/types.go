package domain

// Chunk is a contiguous window of words cut from one extracted document.
type Chunk struct {
	Text   string
	Index  int
	Total  int
	Source string
	Path   string
	Ext    string
}

// Metadata returns the flat key/value map stored next to the chunk's vector.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		"source":       c.Source,
		"chunk_index":  c.Index,
		"total_chunks": c.Total,
		"path":         c.Path,
		"ext":          c.Ext,
	}
}

// Record is a single entry of a collection: identifier, vector, text and metadata.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]any
}

// SearchResult is a stored passage matched by a similarity query.
// Score semantics depend on the backing index.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// CollectionInfo describes the state of the active collection.
type CollectionInfo struct {
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
	Location      string `json:"location"`
}
