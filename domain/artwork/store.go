package artwork

import "context"

// RowError reports one row whose stored embedding could not be resolved
// into a vector. The row is excluded from the page; the page itself
// still succeeds.
type RowError struct {
	id  int64
	err error
}

// NewRowError creates a RowError.
func NewRowError(id int64, err error) RowError {
	return RowError{id: id, err: err}
}

// ID returns the offending record identifier.
func (r RowError) ID() int64 { return r.id }

// Err returns the underlying parse error.
func (r RowError) Err() error { return r.err }

// Page is one page of embedded artworks plus any row-scoped failures.
type Page struct {
	artworks  []Artwork
	rowErrors []RowError
}

// NewPage creates a Page.
func NewPage(artworks []Artwork, rowErrors []RowError) Page {
	return Page{artworks: artworks, rowErrors: rowErrors}
}

// Artworks returns the successfully resolved rows.
func (p Page) Artworks() []Artwork { return p.artworks }

// RowErrors returns the rows excluded by parse failures.
func (p Page) RowErrors() []RowError { return p.rowErrors }

// Empty reports whether the page contained no rows at all.
func (p Page) Empty() bool { return len(p.artworks) == 0 && len(p.rowErrors) == 0 }

// Store is the storage contract shared by both pipelines.
type Store interface {
	// FindPending returns up to limit artworks with a non-empty image
	// URL and no embedding, ordered by identifier.
	FindPending(ctx context.Context, limit int) ([]Artwork, error)

	// SaveEmbeddings durably commits a batch of staged embedding
	// updates in a single transaction: all or none.
	SaveEmbeddings(ctx context.Context, updates []EmbeddingUpdate) error

	// CountEmbedded counts artworks with an embedding and a non-empty
	// image URL.
	CountEmbedded(ctx context.Context) (int64, error)

	// FindEmbeddedPage returns one offset/limit page of embedded
	// artworks ordered by identifier. Rows whose stored embedding
	// cannot be parsed are reported per row, not as a page failure.
	FindEmbeddedPage(ctx context.Context, limit, offset int) (Page, error)
}
