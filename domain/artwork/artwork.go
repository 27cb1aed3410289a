// Package artwork defines the artwork record and the storage contract
// shared by both pipelines. Artwork rows are owned by an external
// ingestion process; the pipelines only read the image URL and read or
// write the embedding.
package artwork

// Artwork is one museum artwork record.
type Artwork struct {
	id        int64
	imageURL  string
	embedding Vector
}

// New creates an Artwork.
func New(id int64, imageURL string, embedding Vector) Artwork {
	return Artwork{
		id:        id,
		imageURL:  imageURL,
		embedding: embedding,
	}
}

// ID returns the record identifier.
func (a Artwork) ID() int64 { return a.id }

// ImageURL returns the image URL. Empty when the record has none.
func (a Artwork) ImageURL() string { return a.imageURL }

// Embedding returns the embedding vector. Zero-length until computed.
func (a Artwork) Embedding() Vector { return a.embedding }

// HasEmbedding reports whether an embedding has been computed.
func (a Artwork) HasEmbedding() bool { return a.embedding.Dimension() > 0 }

// EmbeddingUpdate stages one computed embedding for a later batch commit.
type EmbeddingUpdate struct {
	id     int64
	vector Vector
}

// NewEmbeddingUpdate creates an EmbeddingUpdate.
func NewEmbeddingUpdate(id int64, vector Vector) EmbeddingUpdate {
	return EmbeddingUpdate{id: id, vector: vector}
}

// ID returns the record identifier the update applies to.
func (u EmbeddingUpdate) ID() int64 { return u.id }

// Vector returns the embedding to persist.
func (u EmbeddingUpdate) Vector() Vector { return u.vector }
