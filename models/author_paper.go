package models

import (
	"time"
)

// AuthorPaper modelliert die Rückreferenz Autor -> Paper als eindeutige
// Kante. Re-Ingestion desselben Papers erzeugt dank Unique-Index keine
// doppelte Verknüpfung; die Pipeline entfernt Kanten niemals.
type AuthorPaper struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	AuthorID uint `json:"author_id" gorm:"index:idx_author_papers_unique_edge,unique;not null"`
	PaperID  uint `json:"paper_id" gorm:"index:idx_author_papers_unique_edge,unique;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (AuthorPaper) TableName() string {
	return "author_papers"
}
