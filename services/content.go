package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// CustomTransport fügt jeder Anfrage einen User-Agent-Header hinzu.
type CustomTransport struct {
	Transport http.RoundTripper
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	return t.Transport.RoundTrip(req)
}

// httpClient wird für alle externen HTTP-Anfragen in diesem Service verwendet.
var httpClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &CustomTransport{
		Transport: http.DefaultTransport,
	},
}

// titleMatchPrefixLen ist die Länge des Titel-Präfixes, über das lokale
// PDF-Dateinamen gematcht werden. Heuristik; Fehltreffer fängt die
// Deduplizierung über den Content-Hash ab.
const titleMatchPrefixLen = 20

// ContentResult bündelt alles, was der Resolver zu einem Paper ermitteln
// konnte. Alle Felder sind optional; ein Paper ohne PDF bleibt speicherbar.
type ContentResult struct {
	Path        *string
	PathImage   *string
	Content     *string
	ContentHash *string
}

// ContentResolver lokalisiert die PDF zu einem Paper, berechnet den
// Content-Hash und extrahiert Text sowie ein repräsentatives Bild.
type ContentResolver struct {
	Logger    *zap.Logger
	PDFDir    string
	ImagesDir string
}

// NewContentResolver erstellt einen neuen ContentResolver.
func NewContentResolver(logger *zap.Logger, pdfDir, imagesDir string) *ContentResolver {
	return &ContentResolver{Logger: logger, PDFDir: pdfDir, ImagesDir: imagesDir}
}

// Resolve sucht die PDF zum Titel (lokal, sonst per Download), berechnet
// den Hash und extrahiert Text und Bild. Jeder Teilschritt darf scheitern,
// ohne den Datensatz zu verwerfen.
func (cr *ContentResolver) Resolve(ctx context.Context, title, pdfURL string) *ContentResult {
	res := &ContentResult{}

	norm := NormalizeTitle(title)
	if norm == "" {
		return res
	}
	log := cr.Logger.With(zap.String("title", norm))

	path, err := cr.findLocalPDF(norm)
	if err != nil {
		log.Warn("Fehler beim Durchsuchen des PDF-Verzeichnisses", zap.Error(err))
	}
	if path == "" && pdfURL != "" {
		path, err = cr.download(ctx, pdfURL, norm)
		if err != nil {
			log.Warn("PDF-Download fehlgeschlagen", zap.String("url", pdfURL), zap.Error(err))
			return res
		}
	}
	if path == "" {
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("PDF nicht lesbar", zap.String("path", path), zap.Error(err))
		return res
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	res.ContentHash = &hash
	res.Path = &path

	if text, err := extractPDFText(path); err != nil {
		log.Warn("Textextraktion fehlgeschlagen", zap.Error(err))
	} else if text != "" {
		res.Content = &text
	}

	if img, err := cr.extractFirstImage(path, norm); err != nil {
		log.Warn("Bildextraktion fehlgeschlagen", zap.Error(err))
	} else if img != "" {
		res.PathImage = &img
	}

	return res
}

// findLocalPDF sucht rekursiv nach einer Datei, deren normalisierter Name
// die ersten titleMatchPrefixLen Zeichen des normalisierten Titels enthält.
// Der erste Treffer in Walk-Reihenfolge gewinnt.
func (cr *ContentResolver) findLocalPDF(normTitle string) (string, error) {
	snippet := normTitle
	if len(snippet) > titleMatchPrefixLen {
		snippet = snippet[:titleMatchPrefixLen]
	}

	var found string
	err := filepath.WalkDir(cr.PDFDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if strings.Contains(NormalizeTitle(base), snippet) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return found, nil
}

// download lädt eine PDF herunter und legt sie unter dem normalisierten
// Titel im PDF-Verzeichnis ab.
func (cr *ContentResolver) download(ctx context.Context, url, normTitle string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cr.PDFDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(cr.PDFDir, normTitle+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// extractPDFText liest den Volltext einer PDF.
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// extractFirstImage extrahiert alle eingebetteten Bilder in ein
// Temp-Verzeichnis und übernimmt das erste (sortiert, also von der
// frühesten Seite) ins Bilder-Verzeichnis.
func (cr *ContentResolver) extractFirstImage(pdfPath, normTitle string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdfimages")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractImagesFile(pdfPath, tmpDir, nil, nil); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)

	src := filepath.Join(tmpDir, names[0])
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cr.ImagesDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(cr.ImagesDir, normTitle+filepath.Ext(names[0]))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
