package pubmed

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"research-hub/readers"
)

// jsonInt toleriert Zahlen, die im Export mal als Zahl, mal als String
// (oder leer) ankommen.
type jsonInt int

func (j *jsonInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		*j = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		// unbrauchbarer Wert ist kein Grund, den Eintrag zu verwerfen
		*j = 0
		return nil
	}
	*j = jsonInt(n)
	return nil
}

// Reader liest JSON-Export-Dateien (Array von Objekten) und liefert
// RawRecords.
type Reader struct {
	Logger  *zap.Logger
	MinYear int
}

// NewReader erstellt einen neuen PubMed-Reader.
func NewReader(logger *zap.Logger, minYear int) *Reader {
	return &Reader{Logger: logger, MinYear: minYear}
}

// Name gibt den Namen des Readers zurück.
func (r *Reader) Name() string {
	return "pubmed"
}

// Ext gibt die Dateiendung zurück, die dieser Reader verarbeitet.
func (r *Reader) Ext() string {
	return ".json"
}

// ReadFile parst eine JSON-Datei. Das Dokument ist ein Array; einzelne
// Objekte, die nicht in die erwartete Form passen, werden übersprungen.
func (r *Reader) ReadFile(path string, stats *readers.Stats) ([]readers.RawRecord, error) {
	log := r.Logger.With(zap.String("file", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	var records []readers.RawRecord
	for _, raw := range raws {
		stats.Entries++

		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.Warn("Defekter JSON-Eintrag übersprungen", zap.Error(err))
			stats.Malformed++
			continue
		}

		rec, keep := r.mapDocument(&doc)
		if !keep {
			stats.Dropped++
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// mapDocument wandelt ein Export-Objekt in einen RawRecord um. false, wenn
// der Eintrag am harten Jahresfilter scheitert.
func (r *Reader) mapDocument(doc *document) (readers.RawRecord, bool) {
	year := readers.ParseYear(doc.PubDate)
	if year < r.MinYear {
		return readers.RawRecord{}, false
	}

	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = "Untitled"
	}

	rec := readers.RawRecord{
		Title:     title,
		Published: doc.PubDate,
		Abstract:  strings.TrimSpace(doc.Description),
		Journal:   strings.TrimSpace(doc.FullJournalName),
		Citations: int(doc.PMCRefCount),
		DOI:       resolveDOI(doc),
		PDFURL:    doc.PDFURL,
		Platform:  "PubMed",
	}

	for _, a := range doc.Authors {
		name := strings.TrimSpace(a.Name)
		if name != "" {
			rec.AuthorNames = append(rec.AuthorNames, name)
		}
	}

	return rec, true
}

// resolveDOI legt die Präzedenz zwischen den Identifier-Quellen fest:
// explizites doi-Feld vor articleids-Eintrag mit idtype "doi" vor
// elocationid. Erste nicht-leere Quelle gewinnt.
func resolveDOI(doc *document) string {
	if doi := strings.TrimSpace(doc.DOI); doi != "" {
		return doi
	}
	for _, id := range doc.ArticleIDs {
		if strings.EqualFold(id.IDType, "doi") && strings.TrimSpace(id.Value) != "" {
			return strings.TrimSpace(id.Value)
		}
	}
	// elocationid hat oft die Form "doi: 10.xxxx/yyyy"
	if loc := strings.TrimSpace(doc.ELocationID); loc != "" {
		loc = strings.TrimSpace(strings.TrimPrefix(loc, "doi:"))
		if strings.HasPrefix(loc, "10.") {
			return loc
		}
	}
	return ""
}
