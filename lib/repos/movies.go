package repos

import (
	"context"
	"errors"

	"github.com/avoss/kinodigest/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// digestPerformanceLimit caps how many performances per movie end up in a
// digest message; the rest stay reachable via the performances lookup.
const digestPerformanceLimit = 3

type MovieRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewMovieRepo(db *gorm.DB, log *zap.Logger) *MovieRepo {
	return &MovieRepo{db, log}
}

// BulkUpsert writes the batch in one transaction, keyed by title. A matching
// title has its scalar fields, attribute references and performance list
// replaced wholesale; there is no merging of stale performances.
func (r *MovieRepo) BulkUpsert(ctx context.Context, movies models.Movies) (models.UpsertResult, error) {
	result := models.UpsertResult{}
	if len(movies) == 0 {
		return result, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range movies {
			created, err := r.upsertOne(tx, &movies[i])
			if err != nil {
				return err
			}
			if created {
				result.UpsertedCount++
			} else {
				result.MatchedCount++
				result.ModifiedCount++
			}
		}
		return nil
	})
	return result, err
}

func (r *MovieRepo) upsertOne(tx *gorm.DB, movie *models.Movie) (created bool, err error) {
	existing := models.Movie{}
	find := tx.Where("title = ?", movie.Title).First(&existing)

	if errors.Is(find.Error, gorm.ErrRecordNotFound) {
		if err := tx.Create(movie).Error; err != nil {
			return false, err
		}
		return true, nil
	} else if find.Error != nil {
		return false, find.Error
	}

	updates := map[string]any{
		"poster_url":     movie.PosterURL,
		"trailer_url":    movie.TrailerURL,
		"description":    movie.Description,
		"length_minutes": movie.LengthMinutes,
		"fsk_id":         movie.FskID,
	}
	if err := tx.Model(&existing).Updates(updates).Error; err != nil {
		return false, err
	}

	if err := tx.Model(&existing).Association("Genres").Replace(movie.Genres); err != nil {
		return false, err
	}
	if err := tx.Model(&existing).Association("TechnologyAttributes").Replace(movie.TechnologyAttributes); err != nil {
		return false, err
	}

	if err := r.replacePerformances(tx, existing.ID, movie.Performances); err != nil {
		return false, err
	}
	return false, nil
}

func (r *MovieRepo) replacePerformances(tx *gorm.DB, movieID uint, performances models.Performances) error {
	var stale models.Performances
	if err := tx.Where("movie_id = ?", movieID).Find(&stale).Error; err != nil {
		return err
	}
	for i := range stale {
		if err := tx.Select(clause.Associations).Unscoped().Delete(&stale[i]).Error; err != nil {
			return err
		}
	}

	if len(performances) == 0 {
		return nil
	}
	for i := range performances {
		performances[i].ID = 0
		performances[i].MovieID = movieID
	}
	return tx.Create(&performances).Error
}

// FindDigest loads the digest projection for one dispatcher tick: every movie
// with at least one performance, sorted by title, with attribute references
// resolved to display names and at most digestPerformanceLimit performances
// each in storage order. The second return reports whether any selected movie
// had performances cut off.
func (r *MovieRepo) FindDigest(ctx context.Context) ([]models.DigestMovie, bool, error) {
	var movies models.Movies
	tx := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM performances WHERE performances.movie_id = movies.id AND performances.deleted_at IS NULL)").
		Preload("Fsk").
		Preload("Genres").
		Preload("TechnologyAttributes").
		Preload("Performances", func(db *gorm.DB) *gorm.DB {
			return db.Order("performances.id asc")
		}).
		Preload("Performances.Theatre").
		Preload("Performances.SeatClasses").
		Preload("Performances.Attributes").
		Order("movies.title asc").
		Find(&movies)
	if err := tx.Error; err != nil {
		return nil, false, err
	}

	truncated := false
	digest := make([]models.DigestMovie, 0, len(movies))
	for i := range movies {
		projected, cut := projectMovie(&movies[i])
		truncated = truncated || cut
		digest = append(digest, projected)
	}
	return digest, truncated, nil
}

func projectMovie(movie *models.Movie) (models.DigestMovie, bool) {
	projected := models.DigestMovie{
		Title:           movie.Title,
		Description:     movie.Description.String,
		LengthMinutes:   movie.LengthMinutes.Int64,
		GenreNames:      movie.Genres.DisplayNames(),
		TechnologyNames: movie.TechnologyAttributes.DisplayNames(),
		TrailerURL:      movie.TrailerURL.String,
		PosterURL:       movie.PosterURL.String,
	}
	if movie.Fsk != nil {
		projected.FskName = movie.Fsk.DisplayName
	}

	performances := movie.Performances
	truncated := len(performances) > digestPerformanceLimit
	if truncated {
		performances = performances[:digestPerformanceLimit]
	}

	for i := range performances {
		p := models.DigestPerformance{
			ShowtimeUTC:    performances[i].ShowtimeUTC,
			SeatClassNames: performances[i].SeatClasses.DisplayNames(),
			AttributeNames: performances[i].Attributes.DisplayNames(),
		}
		if performances[i].Theatre != nil {
			p.TheatreName = performances[i].Theatre.DisplayName
		}
		projected.Performances = append(projected.Performances, p)
	}
	return projected, truncated
}

// FindByTitle backs the movie info and performances lookups. Returns
// (nil, nil) when the title is unknown.
func (r *MovieRepo) FindByTitle(ctx context.Context, title string) (*models.Movie, error) {
	movie := &models.Movie{}
	tx := r.db.WithContext(ctx).
		Where("title = ?", title).
		Preload("Fsk").
		Preload("Genres").
		Preload("TechnologyAttributes").
		Preload("Performances", func(db *gorm.DB) *gorm.DB {
			return db.Order("performances.id asc")
		}).
		Preload("Performances.Theatre").
		Preload("Performances.SeatClasses").
		Preload("Performances.Attributes").
		First(movie)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return movie, nil
}
