package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlaceholderImage wird gesetzt, solange kein echtes Profilbild bekannt ist.
const PlaceholderImage = "images/author_placeholder.png"

// Author repräsentiert eine kanonische Autor-Entität. Der Name stammt immer
// aus dem extern kuratierten Roster, nie aus einem Feed.
type Author struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `json:"name" gorm:"uniqueIndex;not null"`

	SemanticScholarIDs datatypes.JSON `json:"semantic_scholar_ids" gorm:"type:jsonb"`

	HIndex                     int `json:"h_index"`
	Citations                  int `json:"citations"`
	HighlyInfluentialCitations int `json:"highly_influential_citations"`

	ImagePath string `json:"image_path" gorm:"default:'images/author_placeholder.png'"`
}

// TableName gibt explizit den Tabellennamen an.
func (Author) TableName() string {
	return "authors"
}
