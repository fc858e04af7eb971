package arxiv

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"research-hub/readers"
)

// Reader liest Atom-XML-Dateien und liefert RawRecords.
type Reader struct {
	Logger  *zap.Logger
	MinYear int
}

// NewReader erstellt einen neuen arXiv-Reader.
func NewReader(logger *zap.Logger, minYear int) *Reader {
	return &Reader{Logger: logger, MinYear: minYear}
}

// Name gibt den Namen des Readers zurück.
func (r *Reader) Name() string {
	return "arxiv"
}

// Ext gibt die Dateiendung zurück, die dieser Reader verarbeitet.
func (r *Reader) Ext() string {
	return ".xml"
}

// ReadFile parst eine Atom-XML-Datei. Einzelne defekte entry-Elemente
// werden geloggt und übersprungen; nur ein unlesbares Dokument ist ein
// Fehler für die Datei als Ganzes.
func (r *Reader) ReadFile(path string, stats *readers.Stats) ([]readers.RawRecord, error) {
	log := r.Logger.With(zap.String("file", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []readers.RawRecord
	// Fortschritt nur dieser Datei; stats akkumuliert über den ganzen Lauf
	// und taugt deshalb nicht als Abbruchkriterium.
	seen := 0
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF beendet die Schleife; alles andere bedeutet, dass das
			// Dokument selbst kaputt ist.
			if errors.Is(err, io.EOF) {
				break
			}
			if seen > 0 {
				log.Warn("XML-Dokument endet unerwartet, behalte bisherige Einträge", zap.Error(err))
				break
			}
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "entry" {
			continue
		}

		seen++
		stats.Entries++
		var e entry
		if err := dec.DecodeElement(&e, &start); err != nil {
			log.Warn("Defekter Feed-Eintrag übersprungen", zap.Error(err))
			stats.Malformed++
			continue
		}

		rec, keep := r.mapEntry(&e)
		if !keep {
			stats.Dropped++
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// mapEntry wandelt ein entry-Element in einen RawRecord um. false, wenn der
// Eintrag am harten Jahresfilter scheitert.
func (r *Reader) mapEntry(e *entry) (readers.RawRecord, bool) {
	year := readers.ParseYear(e.Published)
	if year < r.MinYear {
		// kein Jahr auflösbar oder zu alt -> stiller Drop (gezählt)
		return readers.RawRecord{}, false
	}

	title := strings.TrimSpace(e.Title)
	if title == "" {
		// Downstream kann über den Content-Hash trotzdem deduplizieren.
		title = "Untitled"
	}

	rec := readers.RawRecord{
		Title:     title,
		Published: e.Published,
		Abstract:  strings.TrimSpace(e.Summary),
		DOI:       strings.TrimSpace(e.DOI),
		Journal:   strings.TrimSpace(e.Journal),
		Platform:  "arXiv",
	}

	if e.Citations != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(e.Citations)); err == nil && n >= 0 {
			rec.Citations = n
		}
	}

	for _, a := range e.Authors {
		name := strings.TrimSpace(a.Name)
		if name != "" {
			rec.AuthorNames = append(rec.AuthorNames, name)
		}
	}

	for _, l := range e.Links {
		if l.Title == "pdf" && l.Href != "" {
			rec.PDFURL = l.Href
			break
		}
	}

	return rec, true
}
