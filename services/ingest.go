package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"research-hub/config"
	"research-hub/models"
	"research-hub/readers"
	"research-hub/readers/arxiv"
	"research-hub/readers/pubmed"
	"research-hub/store"
)

// Nach so vielen Store-Fehlern in Folge gilt der Store als nicht erreichbar
// und der Lauf bricht ab.
const maxConsecutiveStoreFailures = 5

// PaperStore ist die Gateway-Oberfläche, die die Pipeline benötigt.
// *store.Store erfüllt sie; Tests können sie durch ein In-Memory-Fake
// ersetzen.
type PaperStore interface {
	FindByHash(ctx context.Context, hash string) (*models.Paper, error)
	FindByTitle(ctx context.Context, title string) (*models.Paper, error)
	UpsertPaper(ctx context.Context, paper *models.Paper) error
	FindAuthorByName(ctx context.Context, name string) (*models.Author, error)
	CreateAuthor(ctx context.Context, author *models.Author) error
	LinkPaperToAuthor(ctx context.Context, paperID, authorID uint) error
}

// RunStats fasst einen Batch-Lauf zusammen. Alle Zähler werden über diesen
// Akkumulator transportiert; es gibt keinen globalen Zustand.
type RunStats struct {
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Sources    map[string]readers.Stats `json:"sources"`

	NewPapers     int `json:"new_papers"`
	UpdatedPapers int `json:"updated_papers"`
	FailedRecords int `json:"failed_records"`
	AuthorsLinked int `json:"authors_linked"`

	// Titel, zu denen keine PDF auffindbar war. Operator-Report am Ende
	// des Laufs; die Papers selbst werden trotzdem gespeichert.
	MissingPDF []string `json:"missing_pdf"`
}

// IngestService orchestriert den gesamten Batch: Feeds lesen, Inhalte
// auflösen, deduplizieren, klassifizieren, Autoren verknüpfen, speichern.
// Ein Datensatz wird vollständig verarbeitet, bevor der nächste beginnt.
type IngestService struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    PaperStore
	Resolver *ContentResolver
	Authors  *AuthorResolver

	sources []ingestSource
}

type ingestSource struct {
	reader readers.Reader
	dir    string
}

// NewIngestService erstellt einen neuen IngestService mit den beiden
// Standard-Quellen (Atom-XML und JSON-Export).
func NewIngestService(cfg *config.Config, logger *zap.Logger, st PaperStore, roster *Roster) *IngestService {
	return &IngestService{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Resolver: NewContentResolver(logger, cfg.PDFDir, cfg.ImagesDir),
		Authors:  NewAuthorResolver(logger, roster, st),
		sources: []ingestSource{
			{reader: arxiv.NewReader(logger, cfg.MinYear), dir: cfg.XMLDir},
			{reader: pubmed.NewReader(logger, cfg.MinYear), dir: cfg.JSONDir},
		},
	}
}

// Run führt einen vollständigen Batch-Lauf aus. Einzelne fehlgeschlagene
// Datensätze werden gezählt und übersprungen; nur ein dauerhaft nicht
// erreichbarer Store beendet den Lauf vorzeitig.
func (s *IngestService) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		StartedAt: time.Now(),
		Sources:   make(map[string]readers.Stats),
	}
	consecutiveFailures := 0

	for _, src := range s.sources {
		log := s.Logger.With(zap.String("source", src.reader.Name()), zap.String("dir", src.dir))

		files, err := listFiles(src.dir, src.reader.Ext())
		if err != nil {
			log.Warn("Quellverzeichnis nicht lesbar", zap.Error(err))
			continue
		}
		log.Info("Starte Quelle", zap.Int("files", len(files)))

		var srcStats readers.Stats
		for _, file := range files {
			records, err := src.reader.ReadFile(file, &srcStats)
			if err != nil {
				log.Warn("Feed-Datei nicht lesbar", zap.String("file", file), zap.Error(err))
				continue
			}

			for _, rec := range records {
				// Abbruch nur an Datensatz-Grenzen, damit kein halbes
				// Dokument zurückbleibt.
				if err := ctx.Err(); err != nil {
					stats.FinishedAt = time.Now()
					return stats, err
				}

				if err := s.processRecord(ctx, rec, stats); err != nil {
					stats.FailedRecords++
					consecutiveFailures++
					log.Error("Datensatz fehlgeschlagen",
						zap.String("title", rec.Title), zap.Error(err))
					if consecutiveFailures >= maxConsecutiveStoreFailures {
						stats.FinishedAt = time.Now()
						return stats, fmt.Errorf("%d Datensätze in Folge fehlgeschlagen: %w",
							consecutiveFailures, store.ErrStoreUnavailable)
					}
					continue
				}
				consecutiveFailures = 0
			}
		}
		stats.Sources[src.reader.Name()] = srcStats
	}

	stats.FinishedAt = time.Now()
	s.logSummary(stats)
	return stats, nil
}

// processRecord trägt einen einzelnen RawRecord durch die ganze Pipeline.
func (s *IngestService) processRecord(ctx context.Context, rec readers.RawRecord, stats *RunStats) error {
	content := s.Resolver.Resolve(ctx, rec.Title, rec.PDFURL)
	if content.ContentHash == nil {
		stats.MissingPDF = append(stats.MissingPDF, rec.Title)
	}
	return s.ingestCandidate(ctx, rec, content, stats)
}

// ingestCandidate dedupliziert und speichert einen Kandidaten mit bereits
// aufgelöstem Inhalt.
func (s *IngestService) ingestCandidate(ctx context.Context, rec readers.RawRecord, content *ContentResult, stats *RunStats) error {
	candidate := buildPaper(rec, content)

	// Dedup-Schlüssel: Content-Hash vor Titel. Ein Datensatz MIT Hash wird
	// nie über den Titel gemerged, sonst würden zwei verschiedene PDFs mit
	// gleichem Titel zu einem Dokument verschmelzen.
	var existing *models.Paper
	var err error
	if content.ContentHash != nil {
		existing, err = s.Store.FindByHash(ctx, *content.ContentHash)
	} else {
		existing, err = s.Store.FindByTitle(ctx, rec.Title)
	}
	if err != nil {
		return err
	}

	target := candidate
	if existing != nil {
		mergePaper(existing, candidate)
		target = existing
	}
	if err := s.Store.UpsertPaper(ctx, target); err != nil {
		return err
	}
	if existing != nil {
		stats.UpdatedPapers++
	} else {
		stats.NewPapers++
	}

	linked, err := s.Authors.LinkAuthors(ctx, target.ID, rec.AuthorNames)
	if err != nil {
		return err
	}
	stats.AuthorsLinked += linked
	return nil
}

func (s *IngestService) logSummary(stats *RunStats) {
	var total readers.Stats
	for _, srcStats := range stats.Sources {
		total.Add(srcStats)
	}
	s.Logger.Info("Batch-Lauf abgeschlossen",
		zap.Duration("duration", stats.FinishedAt.Sub(stats.StartedAt)),
		zap.Int("entries", total.Entries),
		zap.Int("dropped", total.Dropped),
		zap.Int("malformed", total.Malformed),
		zap.Int("new", stats.NewPapers),
		zap.Int("updated", stats.UpdatedPapers),
		zap.Int("failed", stats.FailedRecords),
		zap.Int("authors_linked", stats.AuthorsLinked),
		zap.Int("missing_pdf", len(stats.MissingPDF)))
	for _, title := range stats.MissingPDF {
		s.Logger.Warn("Paper ohne PDF", zap.String("title", title))
	}
}

// buildPaper baut aus RawRecord und aufgelöstem Inhalt den Kandidaten für
// die Deduplizierung.
func buildPaper(rec readers.RawRecord, content *ContentResult) *models.Paper {
	p := &models.Paper{
		Title:                 rec.Title,
		Abstract:              rec.Abstract,
		Journal:               rec.Journal,
		DOI:                   rec.DOI,
		Citations:             rec.Citations,
		Content:               content.Content,
		ContentHash:           content.ContentHash,
		Path:                  content.Path,
		PathImage:             content.PathImage,
		Authors:               jsonList(rec.AuthorNames),
		AffiliationConfidence: models.AffiliationUnchecked,
	}
	if content.Content != nil {
		p.AffiliationConfidence = ClassifyAffiliation(*content.Content)
	}
	if ts := parsePublished(rec.Published); ts != nil {
		p.Published = ts
	}
	if rec.Platform != "" {
		p.Platforms = jsonList([]string{rec.Platform})
	}
	return p
}

// mergePaper überträgt die vom neuen Datensatz gelieferten Felder auf das
// gespeicherte Paper. Listen werden vereinigt; relevance und views bleiben
// unangetastet. Idempotent: derselbe Kandidat zweimal gemerged ändert
// nichts mehr.
func mergePaper(existing, incoming *models.Paper) {
	if incoming.Title != "" && incoming.Title != "Untitled" {
		existing.Title = incoming.Title
	}
	if incoming.Abstract != "" {
		existing.Abstract = incoming.Abstract
	}
	if incoming.Journal != "" {
		existing.Journal = incoming.Journal
	}
	if incoming.DOI != "" {
		existing.DOI = incoming.DOI
	}
	if incoming.Citations != 0 {
		existing.Citations = incoming.Citations
	}
	if incoming.Published != nil {
		existing.Published = incoming.Published
	}
	if incoming.Content != nil {
		existing.Content = incoming.Content
	}
	if incoming.ContentHash != nil {
		existing.ContentHash = incoming.ContentHash
	}
	if incoming.Path != nil {
		existing.Path = incoming.Path
	}
	if incoming.PathImage != nil {
		existing.PathImage = incoming.PathImage
	}
	if incoming.AffiliationConfidence != "" && incoming.AffiliationConfidence != models.AffiliationUnchecked {
		existing.AffiliationConfidence = incoming.AffiliationConfidence
	}

	existing.Authors = unionList(existing.Authors, incoming.Authors)
	existing.Platforms = unionList(existing.Platforms, incoming.Platforms)
}

// publishedFormats deckt ISO-Zeitstempel (Atom) und die lockeren
// PubMed-Datumsformen ab.
var publishedFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006 Jan 2",
	"2006 Jan",
	"2006",
}

func parsePublished(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, format := range publishedFormats {
		if ts, err := time.Parse(format, raw); err == nil {
			return &ts
		}
	}
	return nil
}

// listFiles sammelt rekursiv alle Dateien mit passender Endung in
// Walk-Reihenfolge ein.
func listFiles(dir, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func jsonList(items []string) datatypes.JSON {
	if len(items) == 0 {
		return datatypes.JSON("[]")
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}

func stringList(j datatypes.JSON) []string {
	if len(j) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(j, &out)
	return out
}

func unionList(a, b datatypes.JSON) datatypes.JSON {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(stringList(a), stringList(b)...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return jsonList(out)
}
