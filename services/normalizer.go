package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTitleLength begrenzt normalisierte Titel auf Dateinamen-taugliche Länge.
const MaxTitleLength = 50

var (
	invalidTitleChars = regexp.MustCompile(`[^a-z0-9._-]`)
	underscoreRuns    = regexp.MustCompile(`_+`)
)

// NormalizeTitle bereinigt einen Titel für Vergleich und Dateinamen:
// Kleinbuchstaben, unerwünschte Zeichen zu Unterstrichen, Unterstrich-Läufe
// zusammenfassen, auf MaxTitleLength kürzen, führende/abschließende
// Unterstriche entfernen. Idempotent.
func NormalizeTitle(title string) string {
	return NormalizeTitleN(title, MaxTitleLength)
}

// NormalizeTitleN wie NormalizeTitle, mit explizitem Längenlimit.
func NormalizeTitleN(title string, maxLength int) string {
	s := strings.ToLower(title)
	s = invalidTitleChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	if maxLength > 0 && len(s) > maxLength {
		s = s[:maxLength]
	}
	return strings.Trim(s, "_")
}

// NormalizeAuthorName bringt einen Feed-Autorennamen in eine vergleichbare
// Form ("nachname, vorname" bzw. "nachname, initial"). Nur für Vergleiche
// gedacht; der kanonische Name kommt immer aus der Autorenliste.
func NormalizeAuthorName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if strings.Contains(s, ",") {
		return s
	}

	tokens := strings.Fields(s)
	if len(tokens) != 2 {
		return s
	}

	// Einzelbuchstabe ist die Initiale, der andere Token der Nachname.
	if utf8.RuneCountInString(tokens[0]) == 1 {
		return tokens[1] + ", " + tokens[0]
	}
	if utf8.RuneCountInString(tokens[1]) == 1 {
		return tokens[0] + ", " + tokens[1]
	}
	// Zwei volle Tokens: "vorname nachname" -> "nachname, vorname"
	return tokens[1] + ", " + tokens[0]
}

// typografische Apostrophe auf ASCII zurückführen, bevor verglichen wird
var apostropheFolder = strings.NewReplacer("’", "'", "ʼ", "'", "`", "'")

// ToRosterFormat wandelt einen vollen Namen aus der Autorenliste
// ("Carlo d'Eramo") in die abgekürzte Feed-Form um ("D'Eramo C"): letzter
// Token ist der Nachname, alle vorangehenden Tokens steuern nur ihren
// Anfangsbuchstaben bei.
func ToRosterFormat(fullName string) string {
	s := apostropheFolder.Replace(strings.TrimSpace(fullName))
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ""
	}

	surname := upperFirst(tokens[len(tokens)-1])
	if len(tokens) == 1 {
		return surname
	}

	var initials strings.Builder
	for _, tok := range tokens[:len(tokens)-1] {
		r, _ := utf8.DecodeRuneInString(tok)
		initials.WriteRune(unicode.ToUpper(r))
	}
	return surname + " " + initials.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
