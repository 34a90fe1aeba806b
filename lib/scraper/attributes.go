package scraper

import (
	"context"

	"github.com/avoss/kinodigest/lib/models"
)

// extractAttributes stages every usable (category, identifier) pair from the
// payload and batch-upserts them. A malformed category or entry is skipped,
// never fatal; errors stop at this boundary.
func (s *Scraper) extractAttributes(ctx context.Context, apiData map[string]any) {
	log := s.log.Sugar()
	log.Info("Extracting movie attributes from scraped data")

	categories, ok := apiData["attributes"].(map[string]any)
	if !ok {
		log.Error("Failed to extract attributes: no usable attributes object in apiData")
		return
	}
	log.Debugf("Found %d categories to check", len(categories))

	toStore := models.Attributes{}
	for category, rawAttrs := range categories {
		categoryLog := log.With("category", category)

		normalized := models.AttributeCategory(models.Normalize(category))
		if !models.KnownCategory(normalized) {
			categoryLog.Warn("Encountered unknown category, skipping")
			continue
		}
		attrs, ok := rawAttrs.(map[string]any)
		if !ok {
			categoryLog.Warn("Encountered category which can not be processed, skipping")
			continue
		}
		categoryLog.Infof("Found %d attributes to check", len(attrs))

		for identifier, rawAttr := range attrs {
			attr, ok := rawAttr.(map[string]any)
			if !ok {
				categoryLog.Warnw("Encountered attribute which can not be processed, skipping", "attribute", identifier)
				continue
			}
			name, ok := attr["name"].(string)
			if !ok || name == "" {
				categoryLog.Warnw("Encountered attribute which can not be processed, skipping", "attribute", identifier)
				continue
			}

			toStore = append(toStore, models.Attribute{
				Category:    normalized,
				Identifier:  identifier,
				DisplayName: name,
			})
		}
	}

	log.Infof("Extracted %d attributes, storing to database", len(toStore))
	result, err := s.attributes.BulkUpsert(ctx, toStore)
	if err != nil {
		log.Errorw("Failed to store extracted attributes", "err", err)
		return
	}
	log.Infof("Modified %d existing attributes, created %d new attributes", result.ModifiedCount, result.UpsertedCount)
}
