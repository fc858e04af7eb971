package services

import (
	"context"
	"encoding/json"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"research-hub/store"
)

// MatchThreshold ist der minimale Ähnlichkeits-Score (0-100), ab dem
// externe Zitationsmetriken auf ein gespeichertes Paper übertragen werden.
// Darunter wird der Treffer verworfen, um Fehlzuordnungen zu vermeiden.
const MatchThreshold = 90

// semanticExport ist die Form der lokal abgelegten Autoren-Exporte der
// Semantic Scholar Graph API.
type semanticExport struct {
	HIndex        int             `json:"hIndex"`
	CitationCount int             `json:"citationCount"`
	Papers        []semanticPaper `json:"papers"`
}

type semanticPaper struct {
	Title                    string `json:"title"`
	PaperID                  string `json:"paperId"`
	Year                     int    `json:"year"`
	CitationCount            int    `json:"citationCount"`
	InfluentialCitationCount int    `json:"influentialCitationCount"`
}

// MetricsMatcher überträgt extern ermittelte Zitationsmetriken auf bereits
// gespeicherte Papers. Der Abgleich läuft über Fuzzy-Titelvergleich gegen
// die Paper-Liste des jeweiligen Autors.
type MetricsMatcher struct {
	Logger      *zap.Logger
	Store       *store.Store
	SemanticDir string
	MinYear     int
}

// NewMetricsMatcher erstellt einen neuen MetricsMatcher.
func NewMetricsMatcher(logger *zap.Logger, st *store.Store, semanticDir string, minYear int) *MetricsMatcher {
	return &MetricsMatcher{Logger: logger, Store: st, SemanticDir: semanticDir, MinYear: minYear}
}

// Run verarbeitet alle Export-Dateien unter SemanticDir. Der Autorname
// ergibt sich aus dem Dateinamen; unbekannte Autoren werden übersprungen.
func (m *MetricsMatcher) Run(ctx context.Context) error {
	return filepath.WalkDir(m.SemanticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		log := m.Logger.With(zap.String("author", name))

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Export-Datei nicht lesbar", zap.Error(err))
			return nil
		}
		var export semanticExport
		if err := json.Unmarshal(data, &export); err != nil {
			log.Warn("Export-Datei nicht parsebar", zap.Error(err))
			return nil
		}

		if err := m.ApplyExport(ctx, name, &export); err != nil {
			return err
		}
		return nil
	})
}

// ApplyExport gleicht einen Autoren-Export gegen den Store ab: Metriken auf
// Autor-Ebene werden immer geschrieben, Metriken auf Paper-Ebene nur bei
// einem Fuzzy-Match oberhalb der Schwelle.
func (m *MetricsMatcher) ApplyExport(ctx context.Context, authorName string, export *semanticExport) error {
	log := m.Logger.With(zap.String("author", authorName))

	author, err := m.Store.FindAuthorByName(ctx, authorName)
	if err != nil {
		return err
	}
	if author == nil {
		log.Info("Autor nicht im Store, Export übersprungen")
		return nil
	}

	ids, err := m.Store.PaperIDsForAuthor(ctx, author.ID)
	if err != nil {
		return err
	}
	stored, err := m.Store.PapersByIDs(ctx, ids)
	if err != nil {
		return err
	}

	totalInfluential := 0
	for _, p := range export.Papers {
		totalInfluential += p.InfluentialCitationCount
	}

	for _, p := range export.Papers {
		if p.Year < m.MinYear {
			continue
		}
		needle := NormalizeTitle(p.Title)

		bestScore := 0
		var bestID uint
		for _, sp := range stored {
			score := FuzzyRatio(needle, NormalizeTitle(sp.Title))
			if score > bestScore {
				bestScore = score
				bestID = sp.ID
			}
		}

		if bestID == 0 || bestScore < MatchThreshold {
			continue
		}
		log.Info("Paper-Match", zap.String("title", p.Title), zap.Int("score", bestScore))
		if err := m.Store.UpdatePaperCitations(ctx, bestID, p.CitationCount); err != nil {
			return err
		}
	}

	return m.Store.UpdateAuthorMetrics(ctx, author.ID, export.HIndex, export.CitationCount, totalInfluential)
}

// FuzzyRatio liefert die Ähnlichkeit zweier Strings als Score von 0 bis
// 100, abgeleitet aus der Levenshtein-Distanz relativ zur Länge des
// längeren Strings.
func FuzzyRatio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return int(math.Round((1 - float64(dist)/float64(maxLen)) * 100))
}
