package models

import (
	"strings"

	"gorm.io/gorm"
)

type AttributeCategory string

const (
	CategoryGenres      AttributeCategory = "genres"
	CategoryTechnical   AttributeCategory = "technical"
	CategoryFsk         AttributeCategory = "fsk"
	CategoryTheatres    AttributeCategory = "theatres"
	CategorySeatClasses AttributeCategory = "seatclasses"
)

func KnownCategory(category AttributeCategory) bool {
	switch category {
	case CategoryGenres, CategoryTechnical, CategoryFsk, CategoryTheatres, CategorySeatClasses:
		return true
	}
	return false
}

// Normalize maps external identifiers onto the stored format. The scraped API
// has no consistent casing or spacing, so both sides of every lookup go
// through this.
func Normalize(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "")
}

type Attribute struct {
	gorm.Model
	Category    AttributeCategory `gorm:"index:idx_identifier_category,unique"`
	Identifier  string            `gorm:"index:idx_identifier_category,unique"`
	DisplayName string
}

type Attributes []Attribute

func (a *Attribute) BeforeSave(tx *gorm.DB) error {
	a.Category = AttributeCategory(Normalize(string(a.Category)))
	a.Identifier = Normalize(a.Identifier)
	return nil
}

func (attrs Attributes) DisplayNames() []string {
	names := make([]string, len(attrs))
	for i, attr := range attrs {
		names[i] = attr.DisplayName
	}
	return names
}
