package app

import (
	"database/sql"
	"time"

	"github.com/avoss/kinodigest/lib/models"
)

type RecipientView struct {
	DestinationID         string  `json:"destination_id"`
	Platform              string  `json:"platform"`
	NotificationChannelID *string `json:"notification_channel_id"`
	NotificationSchedule  *string `json:"notification_schedule"`
	NotificationsEnabled  bool    `json:"notifications_enabled"`
	IncludePoster         bool    `json:"include_poster"`
	IncludeTrailer        bool    `json:"include_trailer"`
	PreferredLocale       string  `json:"preferred_locale"`
	PreferredTimezone     string  `json:"preferred_timezone"`
	MentionedRoleID       *string `json:"mentioned_role_id"`
}

func (view RecipientView) From(entity *models.Recipient) RecipientView {
	return RecipientView{
		DestinationID:         entity.DestinationID,
		Platform:              entity.Platform,
		NotificationChannelID: nullable(entity.NotificationChannelID),
		NotificationSchedule:  nullable(entity.NotificationSchedule),
		NotificationsEnabled:  entity.NotificationsEnabled,
		IncludePoster:         entity.IncludePosterInNotifications,
		IncludeTrailer:        entity.IncludeTrailerInNotifications,
		PreferredLocale:       entity.PreferredLocale,
		PreferredTimezone:     entity.PreferredTimezone,
		MentionedRoleID:       nullable(entity.MentionedRoleID),
	}
}

type MovieView struct {
	Title         string            `json:"title"`
	Description   *string           `json:"description"`
	LengthMinutes *int64            `json:"length_minutes"`
	PosterURL     *string           `json:"poster_url"`
	TrailerURL    *string           `json:"trailer_url"`
	Fsk           *string           `json:"fsk"`
	Genres        []string          `json:"genres"`
	Technologies  []string          `json:"technologies"`
	Performances  []PerformanceView `json:"performances"`
}

type PerformanceView struct {
	Showtime    string   `json:"showtime"`
	Theatre     *string  `json:"theatre"`
	SeatClasses []string `json:"seat_classes"`
	Attributes  []string `json:"attributes"`
}

func (view MovieView) From(entity *models.Movie) MovieView {
	out := MovieView{
		Title:        entity.Title,
		Genres:       entity.Genres.DisplayNames(),
		Technologies: entity.TechnologyAttributes.DisplayNames(),
		Performances: performanceViews(entity.Performances),
	}
	if entity.Description.Valid {
		out.Description = &entity.Description.String
	}
	if entity.LengthMinutes.Valid {
		out.LengthMinutes = &entity.LengthMinutes.Int64
	}
	if entity.PosterURL.Valid {
		out.PosterURL = &entity.PosterURL.String
	}
	if entity.TrailerURL.Valid {
		out.TrailerURL = &entity.TrailerURL.String
	}
	if entity.Fsk != nil {
		out.Fsk = &entity.Fsk.DisplayName
	}
	return out
}

func performanceViews(performances models.Performances) []PerformanceView {
	views := make([]PerformanceView, 0, len(performances))
	for i := range performances {
		view := PerformanceView{
			Showtime:    time.Unix(performances[i].ShowtimeUTC, 0).UTC().Format(time.RFC3339),
			SeatClasses: performances[i].SeatClasses.DisplayNames(),
			Attributes:  performances[i].Attributes.DisplayNames(),
		}
		if performances[i].Theatre != nil {
			view.Theatre = &performances[i].Theatre.DisplayName
		}
		views = append(views, view)
	}
	return views
}

func nullable(s sql.NullString) *string {
	if s.Valid {
		return &s.String
	}
	return nil
}
