package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metgalaxy/artvec/domain/artwork"
	"github.com/metgalaxy/artvec/internal/database"
	"github.com/metgalaxy/artvec/internal/testdb"
)

const artworkSchema = `CREATE TABLE artworks (
	id INTEGER PRIMARY KEY,
	title TEXT,
	image_url TEXT,
	embedding TEXT
)`

func newStore(t *testing.T) (*ArtworkStore, database.Database) {
	t.Helper()
	db := testdb.WithSchema(t, artworkSchema)
	return NewArtworkStore(db, "artworks"), db
}

func insert(t *testing.T, db database.Database, id int64, imageURL, embedding any) {
	t.Helper()
	err := db.Session(context.Background()).
		Exec("INSERT INTO artworks (id, title, image_url, embedding) VALUES (?, ?, ?, ?)",
			id, "untitled", imageURL, embedding).Error
	require.NoError(t, err)
}

func TestFindPending(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	insert(t, db, 1, "https://img.example/1.jpg", nil)
	insert(t, db, 2, nil, nil)                                // no URL
	insert(t, db, 3, "", nil)                                 // empty URL
	insert(t, db, 4, "https://img.example/4.jpg", "[0.1,0.2]") // already embedded
	insert(t, db, 5, "https://img.example/5.jpg", nil)

	pending, err := store.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, int64(1), pending[0].ID())
	require.Equal(t, "https://img.example/1.jpg", pending[0].ImageURL())
	require.Equal(t, int64(5), pending[1].ID())
	require.False(t, pending[0].HasEmbedding())
}

func TestFindPendingHonorsLimit(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		insert(t, db, id, "https://img.example/x.jpg", nil)
	}

	pending, err := store.FindPending(ctx, 3)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, int64(1), pending[0].ID())
	require.Equal(t, int64(3), pending[2].ID())
}

func TestFindPendingEmptyTable(t *testing.T) {
	store, _ := newStore(t)

	pending, err := store.FindPending(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSaveEmbeddingsBatch(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	insert(t, db, 1, "https://img.example/1.jpg", nil)
	insert(t, db, 2, "https://img.example/2.jpg", nil)

	err := store.SaveEmbeddings(ctx, []artwork.EmbeddingUpdate{
		artwork.NewEmbeddingUpdate(1, artwork.NewVector([]float64{0.6, 0.8})),
		artwork.NewEmbeddingUpdate(2, artwork.NewVector([]float64{1, 0})),
	})
	require.NoError(t, err)

	count, err := store.CountEmbedded(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	page, err := store.FindEmbeddedPage(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Artworks(), 2)
	require.Equal(t, []float64{0.6, 0.8}, page.Artworks()[0].Embedding().Floats())
}

func TestSaveEmbeddingsEmptyBatch(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.SaveEmbeddings(context.Background(), nil))
}

func TestCountEmbeddedExcludesURLless(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	insert(t, db, 1, "https://img.example/1.jpg", "[0.1,0.2]")
	insert(t, db, 2, nil, "[0.3,0.4]")
	insert(t, db, 3, "https://img.example/3.jpg", nil)

	count, err := store.CountEmbedded(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestFindEmbeddedPagePaging(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		insert(t, db, id, "https://img.example/x.jpg", "[0.1,0.2,0.3]")
	}

	first, err := store.FindEmbeddedPage(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, first.Artworks(), 2)
	require.Equal(t, int64(1), first.Artworks()[0].ID())

	second, err := store.FindEmbeddedPage(ctx, 2, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), second.Artworks()[0].ID())

	last, err := store.FindEmbeddedPage(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, last.Artworks(), 1)

	past, err := store.FindEmbeddedPage(ctx, 2, 6)
	require.NoError(t, err)
	require.True(t, past.Empty())
}

func TestFindEmbeddedPageRowScopedErrors(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	insert(t, db, 1, "https://img.example/1.jpg", "[0.1,0.2]")
	insert(t, db, 2, "https://img.example/2.jpg", "not a vector")
	insert(t, db, 3, "https://img.example/3.jpg", "[0.3,0.4]")

	page, err := store.FindEmbeddedPage(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Artworks(), 2)
	require.Len(t, page.RowErrors(), 1)
	require.Equal(t, int64(2), page.RowErrors()[0].ID())
	require.Error(t, page.RowErrors()[0].Err())
}

func TestCustomTableName(t *testing.T) {
	db := testdb.WithSchema(t, `CREATE TABLE museum_objects (
		id INTEGER PRIMARY KEY,
		title TEXT,
		image_url TEXT,
		embedding TEXT
	)`)
	store := NewArtworkStore(db, "museum_objects")
	ctx := context.Background()

	err := db.Session(ctx).
		Exec("INSERT INTO museum_objects (id, image_url) VALUES (1, 'https://img.example/1.jpg')").Error
	require.NoError(t, err)

	pending, err := store.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}
