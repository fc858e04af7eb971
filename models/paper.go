package models

import (
	"time"

	"gorm.io/datatypes"
)

// AffiliationConfidence stuft ein, wie stark der extrahierte Volltext auf
// eine Zugehörigkeit zur Ziel-Institution hindeutet.
const (
	AffiliationVerified  = "verified"
	AffiliationProbable  = "probable"
	AffiliationUnlikely  = "unlikely"
	AffiliationUnchecked = "unchecked"
)

// Paper repräsentiert ein kanonisches, dedupliziertes Paper im Store.
// Pro ContentHash existiert höchstens ein Datensatz; der Titel allein ist
// NICHT eindeutig (verschiedene Feeds liefern denselben PDF-Inhalt unter
// abweichenden Titelschreibweisen).
type Paper struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title    string         `json:"title" gorm:"index"`
	Authors  datatypes.JSON `json:"authors" gorm:"type:jsonb"` // geordnete Liste kanonischer Namen
	Abstract string         `json:"abstract,omitempty" gorm:"type:text"`

	Published *time.Time `json:"published,omitempty"`
	Journal   string     `json:"journal,omitempty"`
	DOI       string     `json:"doi,omitempty" gorm:"column:doi;index"`

	Citations int `json:"citations"`
	// Relevance und Views gehören dem Serving-Layer; die Pipeline fasst sie
	// bei einem Merge niemals an.
	Relevance int `json:"relevance"`
	Views     int `json:"views"`

	// Volltext und Fingerprint der zugehörigen PDF. ContentHash ist der
	// primäre Dedup-Schlüssel (SHA-256 über die rohen PDF-Bytes).
	Content     *string `json:"content,omitempty" gorm:"type:text"`
	ContentHash *string `json:"content_hash,omitempty" gorm:"column:content_hash;uniqueIndex"`
	Path        *string `json:"path,omitempty"`
	PathImage   *string `json:"path_image,omitempty"`

	Platforms datatypes.JSON `json:"platforms" gorm:"type:jsonb"` // Menge von Quell-Plattformen

	AffiliationConfidence string `json:"affiliation_confidence" gorm:"index;default:'unchecked'"`
}

// TableName gibt explizit den Tabellennamen an.
func (Paper) TableName() string {
	return "papers"
}
