package scraper

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/avoss/kinodigest/lib/models"
	"go.uber.org/zap"
)

// extractMovies stages every usable movie entry, resolving its attribute
// references against the store, and batch-upserts them keyed by title. Every
// per-entry failure is isolated; errors stop at this boundary.
func (s *Scraper) extractMovies(ctx context.Context, apiData map[string]any) {
	log := s.log.Sugar()
	log.Info("Extracting movies from scraped data")

	moviesObject, ok := apiData["movies"].(map[string]any)
	if !ok {
		log.Error("Failed to extract movies: no usable movies object in apiData")
		return
	}
	items, ok := moviesObject["items"].(map[string]any)
	if !ok {
		log.Error("Failed to extract movies: no usable items object in apiData.movies")
		return
	}
	log.Infof("Found %d movies to check", len(items))

	toStore := models.Movies{}
	for movieID, rawMovie := range items {
		movie, ok := s.resolveMovie(ctx, movieID, rawMovie)
		if ok {
			toStore = append(toStore, movie)
		}
	}

	log.Infof("Extracted %d movies, storing to database", len(toStore))
	result, err := s.movies.BulkUpsert(ctx, toStore)
	if err != nil {
		log.Errorw("Failed to store extracted movies", "err", err)
		return
	}
	log.Infof("Modified %d existing movies, created %d new movies", result.ModifiedCount, result.UpsertedCount)
}

func (s *Scraper) resolveMovie(ctx context.Context, movieID string, rawMovie any) (models.Movie, bool) {
	log := s.log.Sugar().With(zap.String("movie", movieID))

	data, ok := rawMovie.(map[string]any)
	if !ok {
		log.Warn("Encountered movie which can not be processed, skipping")
		return models.Movie{}, false
	}
	title, ok := data["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		log.Warn("Expected `title` to be a string, skipping")
		return models.Movie{}, false
	}

	movie := models.Movie{Title: strings.TrimSpace(title)}

	// Optional scalar fields are only accepted with their expected type.
	if posterURL, ok := data["posterURL"].(string); ok {
		movie.PosterURL = sql.NullString{String: strings.TrimSpace(posterURL), Valid: true}
	}
	if trailerURL, ok := data["trailerURL"].(string); ok {
		movie.TrailerURL = sql.NullString{String: strings.TrimSpace(trailerURL), Valid: true}
	}
	if description, ok := data["description"].(string); ok {
		movie.Description = sql.NullString{String: strings.TrimSpace(description), Valid: true}
	}
	if length, ok := data["length"].(float64); ok {
		movie.LengthMinutes = sql.NullInt64{Int64: int64(length), Valid: true}
	}

	if rawGenres, ok := data["genres"].([]any); ok {
		genres, err := s.attributes.ResolveSet(ctx, models.CategoryGenres, stringValues(rawGenres))
		if err != nil {
			log.Warnw("Failed to resolve genres", "err", err)
		} else {
			movie.Genres = genres
		}
	}

	if rawTech, ok := data["technologyAttributes"].([]any); ok {
		tech, err := s.attributes.ResolveSet(ctx, models.CategoryTechnical, idValues(rawTech))
		if err != nil {
			log.Warnw("Failed to resolve technology attributes", "err", err)
		} else {
			movie.TechnologyAttributes = tech
		}
	}

	if identifier := stringValue(data["fsk"]); identifier != "" {
		fsk, err := s.attributes.ResolveOne(ctx, models.CategoryFsk, identifier)
		if err != nil {
			log.Warnw("Failed to resolve fsk", "err", err)
		} else if fsk != nil {
			movie.FskID = &fsk.ID
			movie.Fsk = fsk
		}
	}

	if rawPerformances, ok := data["performances"].([]any); ok {
		for _, rawPerformance := range rawPerformances {
			performance, ok := s.resolvePerformance(ctx, movieID, rawPerformance)
			if ok {
				movie.Performances = append(movie.Performances, performance)
			}
		}
	}

	return movie, true
}

func (s *Scraper) resolvePerformance(ctx context.Context, movieID string, rawPerformance any) (models.Performance, bool) {
	log := s.log.Sugar().With(zap.String("movie", movieID))

	data, ok := rawPerformance.(map[string]any)
	if !ok {
		log.Warn("Encountered performance which can not be processed, skipping")
		return models.Performance{}, false
	}
	timeUTC, ok := data["timeUtc"].(float64)
	if !ok {
		log.Warn("Expected `timeUtc` to be a number, skipping")
		return models.Performance{}, false
	}

	performance := models.Performance{ShowtimeUTC: int64(timeUTC)}

	if identifier := stringValue(data["theatreID"]); identifier != "" {
		theatre, err := s.attributes.ResolveOne(ctx, models.CategoryTheatres, identifier)
		if err != nil {
			log.Warnw("Failed to resolve theatre", "err", err)
		} else if theatre != nil {
			performance.TheatreID = &theatre.ID
			performance.Theatre = theatre
		}
	}

	if rawSeatClasses, ok := data["seatClasses"].([]any); ok {
		seatClasses, err := s.attributes.ResolveSet(ctx, models.CategorySeatClasses, idValues(rawSeatClasses))
		if err != nil {
			log.Warnw("Failed to resolve seat classes", "err", err)
		} else {
			performance.SeatClasses = seatClasses
		}
	}

	if rawAttributes, ok := data["attributes"].([]any); ok {
		attributes, err := s.attributes.ResolveSet(ctx, models.CategoryTechnical, idValues(rawAttributes))
		if err != nil {
			log.Warnw("Failed to resolve technical attributes", "err", err)
		} else {
			performance.Attributes = attributes
		}
	}

	return performance, true
}

// stringValue coerces scraped identifiers, which show up as strings or
// numbers depending on the entry.
func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatInt(int64(value), 10)
	default:
		return ""
	}
}

func stringValues(list []any) []string {
	values := make([]string, 0, len(list))
	for _, item := range list {
		if value := stringValue(item); value != "" {
			values = append(values, value)
		}
	}
	return values
}

// idValues extracts the id field from a list of {id} objects, dropping
// entries of any other shape.
func idValues(list []any) []string {
	values := make([]string, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if value := stringValue(obj["id"]); value != "" {
			values = append(values, value)
		}
	}
	return values
}
