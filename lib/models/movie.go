package models

import (
	"database/sql"

	"gorm.io/gorm"
)

type Movie struct {
	gorm.Model
	Title         string `gorm:"unique"`
	PosterURL     sql.NullString
	TrailerURL    sql.NullString
	Description   sql.NullString
	LengthMinutes sql.NullInt64

	FskID                *uint
	Fsk                  *Attribute
	Genres               Attributes `gorm:"many2many:movie_genres"`
	TechnologyAttributes Attributes `gorm:"many2many:movie_technology_attributes"`

	// Performances are owned by the movie and replaced wholesale on every
	// upsert; they have no identity of their own.
	Performances Performances `gorm:"constraint:OnDelete:CASCADE"`
}

type Movies []Movie

type Performance struct {
	gorm.Model
	MovieID uint `gorm:"index"`

	// Unix timestamp (seconds) of when the movie will be shown.
	ShowtimeUTC int64

	TheatreID   *uint
	Theatre     *Attribute
	SeatClasses Attributes `gorm:"many2many:performance_seat_classes"`
	Attributes  Attributes `gorm:"many2many:performance_attributes"`
}

type Performances []Performance
