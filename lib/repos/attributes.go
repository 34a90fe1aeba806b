package repos

import (
	"context"
	"errors"

	"github.com/avoss/kinodigest/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttributeRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAttributeRepo(db *gorm.DB, log *zap.Logger) *AttributeRepo {
	return &AttributeRepo{db, log}
}

// BulkUpsert writes the batch in one transaction, keyed by the unique
// (identifier, category) pair. Existing rows only have their display name
// re-set.
func (r *AttributeRepo) BulkUpsert(ctx context.Context, attrs models.Attributes) (models.UpsertResult, error) {
	result := models.UpsertResult{}
	if len(attrs) == 0 {
		return result, nil
	}

	for i := range attrs {
		attrs[i].Category = models.AttributeCategory(models.Normalize(string(attrs[i].Category)))
		attrs[i].Identifier = models.Normalize(attrs[i].Identifier)
	}
	attrs = dedupePairs(attrs)

	existing, err := r.countExistingPairs(ctx, attrs)
	if err != nil {
		return result, err
	}

	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identifier"}, {Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "updated_at"}),
		}).
		Create(&attrs)
	if err := tx.Error; err != nil {
		return result, err
	}

	result.MatchedCount = existing
	result.ModifiedCount = existing
	result.UpsertedCount = len(attrs) - existing
	return result, nil
}

// dedupePairs collapses entries that normalize onto the same (identifier,
// category) pair, keeping the last occurrence, so the reported counts match
// the rows actually written.
func dedupePairs(attrs models.Attributes) models.Attributes {
	deduped := make(models.Attributes, 0, len(attrs))
	position := make(map[[2]string]int, len(attrs))
	for _, attr := range attrs {
		key := [2]string{attr.Identifier, string(attr.Category)}
		if i, ok := position[key]; ok {
			deduped[i] = attr
			continue
		}
		position[key] = len(deduped)
		deduped = append(deduped, attr)
	}
	return deduped
}

func (r *AttributeRepo) countExistingPairs(ctx context.Context, attrs models.Attributes) (int, error) {
	identifiers := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		identifiers = append(identifiers, attr.Identifier)
	}

	var stored models.Attributes
	tx := r.db.WithContext(ctx).
		Where("identifier IN ?", identifiers).
		Find(&stored)
	if err := tx.Error; err != nil {
		return 0, err
	}

	pairs := make(map[[2]string]bool, len(stored))
	for _, attr := range stored {
		pairs[[2]string{attr.Identifier, string(attr.Category)}] = true
	}

	count := 0
	for _, attr := range attrs {
		if pairs[[2]string{attr.Identifier, string(attr.Category)}] {
			count++
		}
	}
	return count, nil
}

// ResolveSet looks up attributes of one category by their raw external
// identifiers. Identifiers without a match are silently absent from the
// result.
func (r *AttributeRepo) ResolveSet(ctx context.Context, category models.AttributeCategory, identifiers []string) (models.Attributes, error) {
	if len(identifiers) == 0 {
		return nil, nil
	}

	normalized := make([]string, len(identifiers))
	for i, identifier := range identifiers {
		normalized[i] = models.Normalize(identifier)
	}

	var attrs models.Attributes
	tx := r.db.WithContext(ctx).
		Where("category = ?", category).
		Where("identifier IN ?", normalized).
		Find(&attrs)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return attrs, nil
}

// ResolveOne returns (nil, nil) when no attribute matches.
func (r *AttributeRepo) ResolveOne(ctx context.Context, category models.AttributeCategory, identifier string) (*models.Attribute, error) {
	attr := &models.Attribute{}
	tx := r.db.WithContext(ctx).
		Where("category = ?", category).
		Where("identifier = ?", models.Normalize(identifier)).
		First(attr)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return attr, nil
}
