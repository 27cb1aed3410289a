// Package persistence implements the artwork storage contract on GORM.
// The artwork table is created and populated by an external ingestion
// process; this package never migrates it.
package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/metgalaxy/artvec/domain/artwork"
	"github.com/metgalaxy/artvec/internal/database"
	"gorm.io/gorm"
)

// ArtworkStore is a GORM-backed artwork.Store over a configurable table.
type ArtworkStore struct {
	db    database.Database
	table string
}

// NewArtworkStore creates an ArtworkStore reading and writing the given
// table.
func NewArtworkStore(db database.Database, table string) *ArtworkStore {
	return &ArtworkStore{db: db, table: table}
}

// FindPending returns up to limit artworks that have an image URL but no
// embedding yet, ordered by identifier.
func (s *ArtworkStore) FindPending(ctx context.Context, limit int) ([]artwork.Artwork, error) {
	rows, err := s.db.Session(ctx).
		Table(s.table).
		Select("id, image_url").
		Where("image_url IS NOT NULL AND image_url != ''").
		Where("embedding IS NULL").
		Order("id").
		Limit(limit).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("find pending artworks: %w", err)
	}
	defer rows.Close()

	var pending []artwork.Artwork
	for rows.Next() {
		var (
			id       int64
			imageURL sql.NullString
		)
		if err := rows.Scan(&id, &imageURL); err != nil {
			return nil, fmt.Errorf("scan pending artwork: %w", err)
		}
		pending = append(pending, artwork.New(id, imageURL.String, artwork.Vector{}))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending artworks: %w", err)
	}
	return pending, nil
}

// SaveEmbeddings commits a batch of staged updates in one transaction.
// Either every update in the batch becomes durable or none does.
func (s *ArtworkStore) SaveEmbeddings(ctx context.Context, updates []artwork.EmbeddingUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, u := range updates {
			literal := database.FormatVector(u.Vector().Floats())
			result := tx.Table(s.table).
				Where("id = ?", u.ID()).
				Update("embedding", literal)
			if result.Error != nil {
				return fmt.Errorf("save embedding for artwork %d: %w", u.ID(), result.Error)
			}
		}
		return nil
	})
}

// CountEmbedded counts artworks with both an embedding and an image URL.
func (s *ArtworkStore) CountEmbedded(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.Session(ctx).
		Table(s.table).
		Where("embedding IS NOT NULL").
		Where("image_url IS NOT NULL AND image_url != ''").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count embedded artworks: %w", err)
	}
	return count, nil
}

// FindEmbeddedPage returns one offset/limit page of embedded artworks
// ordered by identifier. A row whose stored embedding does not parse is
// reported as a RowError and excluded; the page itself still succeeds.
func (s *ArtworkStore) FindEmbeddedPage(ctx context.Context, limit, offset int) (artwork.Page, error) {
	rows, err := s.db.Session(ctx).
		Table(s.table).
		Select("id, image_url, embedding").
		Where("embedding IS NOT NULL").
		Where("image_url IS NOT NULL AND image_url != ''").
		Order("id").
		Limit(limit).
		Offset(offset).
		Rows()
	if err != nil {
		return artwork.Page{}, fmt.Errorf("find embedded artworks: %w", err)
	}
	defer rows.Close()

	var (
		artworks  []artwork.Artwork
		rowErrors []artwork.RowError
	)
	for rows.Next() {
		var (
			id       int64
			imageURL sql.NullString
			raw      any
		)
		if err := rows.Scan(&id, &imageURL, &raw); err != nil {
			return artwork.Page{}, fmt.Errorf("scan embedded artwork: %w", err)
		}
		floats, err := database.ParseVector(raw)
		if err != nil {
			rowErrors = append(rowErrors, artwork.NewRowError(id, err))
			continue
		}
		artworks = append(artworks, artwork.New(id, imageURL.String, artwork.NewVector(floats)))
	}
	if err := rows.Err(); err != nil {
		return artwork.Page{}, fmt.Errorf("iterate embedded artworks: %w", err)
	}
	return artwork.NewPage(artworks, rowErrors), nil
}
