// Package readers enthält die Parser für die heterogenen Feed-Formate
// (Atom-XML, JSON-Exporte). Jeder Reader liefert standardisierte RawRecords.
package readers

import (
	"regexp"
	"strconv"
)

// RawRecord ist die transiente Zwischenform eines einzelnen Feed-Eintrags.
// Es wird nie persistiert, sondern einmal konsumiert und verworfen.
type RawRecord struct {
	Title       string
	AuthorNames []string // Reihenfolge wie im Feed
	Published   string   // ISO-artig, roh aus dem Feed
	Abstract    string
	DOI         string
	Journal     string
	Citations   int
	PDFURL      string // optionaler Remote-Link auf die PDF
	Platform    string // z.B. "arXiv", "PubMed"
}

// Stats sammelt Kennzahlen eines Lese-Vorgangs. Wird als Akkumulator durch
// den Batch gereicht statt über globale Zähler.
type Stats struct {
	Entries   int // gesehene Einträge insgesamt
	Dropped   int // kein Jahr auflösbar oder Jahr unter Mindestjahr
	Malformed int // Eintrag nicht parsebar, übersprungen
}

// Add addiert die Kennzahlen eines weiteren Lese-Vorgangs.
func (s *Stats) Add(other Stats) {
	s.Entries += other.Entries
	s.Dropped += other.Dropped
	s.Malformed += other.Malformed
}

// Reader ist das Interface, das jeder Feed-Parser implementieren muss.
type Reader interface {
	// ReadFile parst eine einzelne Feed-Datei in RawRecords. Fehlerhafte
	// Einzeleinträge brechen den Vorgang nicht ab, sondern werden gezählt.
	ReadFile(path string, stats *Stats) ([]RawRecord, error)

	// Name gibt den eindeutigen Namen des Readers zurück (z.B. "arxiv").
	Name() string

	// Ext ist die Dateiendung, auf die der Reader reagiert (z.B. ".xml").
	Ext() string
}

var yearRegex = regexp.MustCompile(`\b(\d{4})\b`)

// ParseYear extrahiert das erste vierstellige Jahr aus einem beliebigen
// Datums-String ("2021-05-10", "2021 Mar 4"). 0, wenn keins gefunden wird.
func ParseYear(dateStr string) int {
	match := yearRegex.FindString(dateStr)
	if match == "" {
		return 0
	}
	year, _ := strconv.Atoi(match)
	return year
}
