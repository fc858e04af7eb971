package services

import (
	"context"

	"go.uber.org/zap"

	"research-hub/models"
)

// AuthorResolver ordnet Feed-Autorennamen den kanonischen Autoren aus der
// Liste zu und pflegt die Paper-Verknüpfungen. Namen außerhalb der Liste
// werden verworfen; die Liste ist für diese Pipeline die geschlossene Welt.
type AuthorResolver struct {
	Logger *zap.Logger
	Roster *Roster
	Store  PaperStore
}

// NewAuthorResolver erstellt einen neuen AuthorResolver.
func NewAuthorResolver(logger *zap.Logger, roster *Roster, st PaperStore) *AuthorResolver {
	return &AuthorResolver{Logger: logger, Roster: roster, Store: st}
}

// LinkAuthors löst jeden Feed-Namen gegen die Liste auf, legt unbekannte
// Listen-Autoren lazy an und verknüpft sie mit dem Paper. Die Verknüpfung
// hat Mengen-Semantik; wiederholte Läufe erzeugen keine Duplikate.
// Zurückgegeben wird die Zahl der aufgelösten Namen.
func (ar *AuthorResolver) LinkAuthors(ctx context.Context, paperID uint, feedNames []string) (int, error) {
	resolved := 0
	for _, feedName := range feedNames {
		canonical, ok := ar.Roster.Resolve(feedName)
		if !ok {
			// Feeds liefern teils volle Namen statt der Kurzform.
			canonical, ok = ar.Roster.Resolve(ToRosterFormat(feedName))
		}
		if !ok {
			continue
		}

		author, err := ar.Store.FindAuthorByName(ctx, canonical)
		if err != nil {
			return resolved, err
		}
		if author == nil {
			author = &models.Author{
				Name:      canonical,
				ImagePath: models.PlaceholderImage,
			}
			if err := ar.Store.CreateAuthor(ctx, author); err != nil {
				return resolved, err
			}
			ar.Logger.Info("Neuen Autor angelegt", zap.String("name", canonical))
		}

		if err := ar.Store.LinkPaperToAuthor(ctx, paperID, author.ID); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}
