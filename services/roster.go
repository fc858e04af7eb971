package services

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// Roster ist die extern gepflegte, geschlossene Liste kanonischer
// Autorennamen. Die Pipeline liest sie nur; Namen außerhalb der Liste
// werden nie als Autoren angelegt.
type Roster struct {
	entries []rosterEntry
}

type rosterEntry struct {
	canonical string // Originalschreibweise aus der Liste
	abbrev    string // ToRosterFormat, kleingeschrieben, für den Vergleich
}

// NewRoster baut einen Roster aus einer geordneten Namensliste. Die
// Reihenfolge bestimmt, welcher Eintrag bei mehrdeutigen Kurzformen gewinnt.
func NewRoster(names []string) *Roster {
	r := &Roster{}
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		r.entries = append(r.entries, rosterEntry{
			canonical: name,
			abbrev:    strings.ToLower(ToRosterFormat(name)),
		})
	}
	return r
}

// LoadRoster liest die Autorenliste aus einer JSON-Datei. Das Format ist
// ein Objekt Gruppe -> Namensliste; die Gruppen werden alphabetisch
// durchlaufen, damit die Match-Reihenfolge deterministisch bleibt.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var groups map[string][]string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var names []string
	for _, k := range keys {
		names = append(names, groups[k]...)
	}
	return NewRoster(names), nil
}

// Resolve vergleicht einen Feed-Autorennamen (typischerweise "Nachname I")
// Case-insensitiv gegen die Kurzform jedes Listeneintrags. Der erste
// Treffer gewinnt und liefert die Originalschreibweise zurück.
func (r *Roster) Resolve(feedName string) (string, bool) {
	needle := strings.ToLower(apostropheFolder.Replace(strings.TrimSpace(feedName)))
	if needle == "" {
		return "", false
	}
	for _, e := range r.entries {
		if e.abbrev == needle {
			return e.canonical, true
		}
	}
	return "", false
}

// Names liefert alle kanonischen Namen in Match-Reihenfolge.
func (r *Roster) Names() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.canonical)
	}
	return out
}

// Len gibt die Anzahl der Einträge zurück.
func (r *Roster) Len() int {
	return len(r.entries)
}
