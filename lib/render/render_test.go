package render

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/avoss/kinodigest/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveLocale(t *testing.T) {
	assert.Equal(t, LocaleEnglish, ResolveLocale("en-US"))
	assert.Equal(t, LocaleGerman, ResolveLocale("de"))
	assert.Equal(t, LocaleEnglish, ResolveLocale(""))
	assert.Equal(t, LocaleEnglish, ResolveLocale("fr"))
}

func TestThreadName(t *testing.T) {
	r := NewRenderer(zap.NewNop())
	date := time.Date(2024, 1, 2, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "[2024-01-02] 📢 Movie announcements", r.ThreadName(LocaleEnglish, date))
	assert.Equal(t, "[2024-01-02] 📢 Filmankündigungen", r.ThreadName(LocaleGerman, date))
}

func TestRenderAnnouncement(t *testing.T) {
	r := NewRenderer(zap.NewNop())

	plain, err := r.RenderAnnouncement(LocaleEnglish, Announcement{
		WebsiteURL:          "https://example.test/program",
		InfoCommand:         "movie-info",
		PerformancesCommand: "movie-performances",
		MentionCommand:      "mention-me",
	})
	require.NoError(t, err)
	assert.Contains(t, plain, "https://example.test/program")
	assert.Contains(t, plain, "`/movie-info`")
	assert.NotContains(t, plain, "<@&")
	assert.NotContains(t, plain, "movie-performances")

	rich, err := r.RenderAnnouncement(LocaleEnglish, Announcement{
		MentionedRoleID:       "role-123",
		WebsiteURL:            "https://example.test/program",
		PerformancesTruncated: true,
		InfoCommand:           "movie-info",
		PerformancesCommand:   "movie-performances",
		MentionCommand:        "mention-me",
	})
	require.NoError(t, err)
	assert.Contains(t, rich, "<@&role-123>")
	assert.Contains(t, rich, "`/mention-me`")
	assert.Contains(t, rich, "`/movie-performances`")
}

func TestRenderMovieFormatsShowtimeInRecipientTimezone(t *testing.T) {
	r := NewRenderer(zap.NewNop())
	vienna, err := time.LoadLocation("Europe/Vienna")
	require.NoError(t, err)

	movie := models.DigestMovie{
		Title:           "Alien",
		Description:     "In space no one can hear you scream.",
		LengthMinutes:   117,
		FskName:         "FSK 16",
		GenreNames:      []string{"Horror", "Sci-Fi"},
		TechnologyNames: []string{"3D"},
		TrailerURL:      "https://example.test/trailer",
		Performances: []models.DigestPerformance{{
			// 2024-01-01T23:30:00Z is half past midnight in Vienna.
			ShowtimeUTC:    time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC).Unix(),
			TheatreName:    "Saal 1",
			AttributeNames: []string{"OV"},
			SeatClassNames: []string{"Premium"},
		}},
	}

	content, err := r.RenderMovie(LocaleEnglish, movie, true, vienna)
	require.NoError(t, err)
	assert.Contains(t, content, "Alien")
	assert.Contains(t, content, "**Showtime:** 2024-01-02 00:30")
	assert.Contains(t, content, "**Theatre:** Saal 1")
	assert.Contains(t, content, "**Genres:** Horror, Sci-Fi")
	assert.Contains(t, content, "**Tags:** OV, 3D")
	assert.Contains(t, content, "**Seat Classes:** Premium")
	assert.Contains(t, content, "https://example.test/trailer")

	withoutTrailer, err := r.RenderMovie(LocaleEnglish, movie, false, vienna)
	require.NoError(t, err)
	assert.NotContains(t, withoutTrailer, "https://example.test/trailer")
}

func TestRenderMovieTruncatesLongDescriptions(t *testing.T) {
	r := NewRenderer(zap.NewNop())

	movie := models.DigestMovie{
		Title:       "Epic",
		Description: strings.Repeat("x", descriptionLimit+100),
	}

	content, err := r.RenderMovie(LocaleEnglish, movie, false, time.UTC)
	require.NoError(t, err)
	assert.Contains(t, content, strings.Repeat("x", descriptionLimit)+"...")
	assert.NotContains(t, content, strings.Repeat("x", descriptionLimit+1))
}

func TestRenderMovieTruncatesAtRuneBoundary(t *testing.T) {
	r := NewRenderer(zap.NewNop())

	// Place a two-byte rune across the cutoff so a byte-indexed cut would
	// leave an invalid UTF-8 sequence.
	movie := models.DigestMovie{
		Title:       "Umlauts",
		Description: strings.Repeat("x", descriptionLimit-1) + "ä" + strings.Repeat("y", 200),
	}

	content, err := r.RenderMovie(LocaleGerman, movie, false, time.UTC)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(content))
	assert.Contains(t, content, strings.Repeat("x", descriptionLimit-1)+"...")
	assert.NotContains(t, content, "ä")
}

func TestRenderMovieOmitsEmptySections(t *testing.T) {
	r := NewRenderer(zap.NewNop())

	content, err := r.RenderMovie(LocaleGerman, models.DigestMovie{
		Title: "Stub",
		Performances: []models.DigestPerformance{{
			ShowtimeUTC: time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC).Unix(),
		}},
	}, false, time.UTC)
	require.NoError(t, err)
	assert.Contains(t, content, "Stub")
	assert.Contains(t, content, "2024-06-01 18:00")
	assert.NotContains(t, content, "FSK")
	assert.NotContains(t, content, "Genres")
	assert.NotContains(t, content, "Saal")
}
