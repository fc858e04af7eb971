// Package store kapselt alle Datenbankzugriffe der Pipeline. Nach außen
// gibt es nur die schmale Gateway-Oberfläche; gorm-Details bleiben hier.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"research-hub/models"
)

// ErrStoreUnavailable signalisiert, dass der Store auch nach Wiederholungen
// nicht erreichbar ist. Der Batch-Lauf bricht dann ab.
var ErrStoreUnavailable = errors.New("store unavailable")

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// Store ist das Persistenz-Gateway für Papers und Autoren.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New erstellt ein neues Gateway.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// withRetry führt eine Store-Operation mit begrenzten Wiederholungen und
// exponentiellem Backoff aus. Not-Found ist kein transienter Fehler und
// wird nie wiederholt.
func (s *Store) withRetry(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	delay := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn(s.db.WithContext(ctx))
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		s.logger.Warn("Store-Operation fehlgeschlagen, wiederhole",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FindByHash sucht ein Paper über seinen Content-Hash. nil ohne Fehler,
// wenn keines existiert.
func (s *Store) FindByHash(ctx context.Context, hash string) (*models.Paper, error) {
	var paper models.Paper
	err := s.withRetry(ctx, "find paper by hash", func(tx *gorm.DB) error {
		return tx.Where("content_hash = ?", hash).First(&paper).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// FindByTitle sucht ein Paper über den exakten Titel. Der Titel ist nicht
// eindeutig; bei Mehrfachtreffern gewinnt das älteste Paper.
func (s *Store) FindByTitle(ctx context.Context, title string) (*models.Paper, error) {
	var paper models.Paper
	err := s.withRetry(ctx, "find paper by title", func(tx *gorm.DB) error {
		return tx.Where("title = ?", title).Order("id").First(&paper).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// Spalten, die die Ingestion bei einem Hash-Konflikt überschreiben darf.
// relevance und views gehören der Serving-Schicht und fehlen hier bewusst.
var paperUpdateColumns = []string{
	"title", "authors", "abstract", "published", "journal", "doi",
	"citations", "content", "path", "path_image", "platforms",
	"affiliation_confidence", "updated_at",
}

// UpsertPaper legt ein Paper an oder aktualisiert es. Neue Papers mit
// Content-Hash werden über die Unique-Spalte upserted, damit zwei
// gleichzeitige Läufe für dieselbe PDF nie zwei Dokumente erzeugen.
func (s *Store) UpsertPaper(ctx context.Context, paper *models.Paper) error {
	return s.withRetry(ctx, "upsert paper", func(tx *gorm.DB) error {
		return upsertPaperTx(tx, paper).Error
	})
}

// Der Update-Pfad lässt relevance und views aus: die Werte im Struct
// stammen aus dem vorherigen Find und würden sonst einen parallel
// gelandeten Serving-Write zurückdrehen.
func upsertPaperTx(tx *gorm.DB, paper *models.Paper) *gorm.DB {
	if paper.ID != 0 {
		return tx.Omit("relevance", "views").Save(paper)
	}
	if paper.ContentHash != nil {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_hash"}},
			DoUpdates: clause.AssignmentColumns(paperUpdateColumns),
		}).Create(paper)
	}
	return tx.Create(paper)
}

// FindAuthorByName sucht einen Autor über den kanonischen Namen. nil ohne
// Fehler, wenn keiner existiert.
func (s *Store) FindAuthorByName(ctx context.Context, name string) (*models.Author, error) {
	var author models.Author
	err := s.withRetry(ctx, "find author by name", func(tx *gorm.DB) error {
		return tx.Where("name = ?", name).First(&author).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// CreateAuthor legt einen Autor an. Existiert der Name bereits, ist der
// Aufruf ein No-op; anschließend trägt author die gespeicherten Werte.
func (s *Store) CreateAuthor(ctx context.Context, author *models.Author) error {
	return s.withRetry(ctx, "create author", func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(author).Error; err != nil {
			return err
		}
		// Bei DoNothing bleibt die ID leer, wenn der Autor schon existierte.
		if author.ID == 0 {
			return tx.Where("name = ?", author.Name).First(author).Error
		}
		return nil
	})
}

// LinkPaperToAuthor verknüpft Paper und Autor. Die Kante ist eindeutig;
// erneutes Verknüpfen derselben Kombination ist ein No-op.
func (s *Store) LinkPaperToAuthor(ctx context.Context, paperID, authorID uint) error {
	link := models.AuthorPaper{AuthorID: authorID, PaperID: paperID}
	return s.withRetry(ctx, "link paper to author", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "author_id"}, {Name: "paper_id"}},
			DoNothing: true,
		}).Create(&link).Error
	})
}

// PaperIDsForAuthor liefert die Paper-Rückreferenzen eines Autors.
func (s *Store) PaperIDsForAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	var ids []uint
	err := s.withRetry(ctx, "paper ids for author", func(tx *gorm.DB) error {
		return tx.Model(&models.AuthorPaper{}).
			Where("author_id = ?", authorID).
			Order("paper_id").
			Pluck("paper_id", &ids).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// PapersByIDs lädt Papers über ihre IDs.
func (s *Store) PapersByIDs(ctx context.Context, ids []uint) ([]models.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var papers []models.Paper
	err := s.withRetry(ctx, "papers by ids", func(tx *gorm.DB) error {
		return tx.Where("id IN ?", ids).Order("id").Find(&papers).Error
	})
	if err != nil {
		return nil, err
	}
	return papers, nil
}

// UpdateAuthorMetrics schreibt die extern ermittelten Zitationsmetriken
// eines Autors.
func (s *Store) UpdateAuthorMetrics(ctx context.Context, authorID uint, hIndex, citations, highlyInfluential int) error {
	return s.withRetry(ctx, "update author metrics", func(tx *gorm.DB) error {
		return tx.Model(&models.Author{}).Where("id = ?", authorID).Updates(map[string]any{
			"h_index":                      hIndex,
			"citations":                    citations,
			"highly_influential_citations": highlyInfluential,
		}).Error
	})
}

// UpdatePaperCitations setzt die Zitationszahl eines einzelnen Papers.
func (s *Store) UpdatePaperCitations(ctx context.Context, paperID uint, citations int) error {
	return s.withRetry(ctx, "update paper citations", func(tx *gorm.DB) error {
		return tx.Model(&models.Paper{}).Where("id = ?", paperID).
			Update("citations", citations).Error
	})
}
