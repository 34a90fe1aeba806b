package scraper

import (
	"context"
	"testing"

	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib/models"
	"github.com/avoss/kinodigest/lib/repos"
	"github.com/carlmjohnson/requests/reqtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// programmePage mimics the cinema page: the payload sits CDATA-wrapped in a
// dedicated script tag, between unrelated statements. It carries one full
// movie, one without a title, one bare-bones movie, a malformed attribute
// entry and an unknown attribute category.
const programmePage = `<html><head>
<script id='pmkino-overview-script-js-extra'>
/*<![CDATA[ */
var unrelated = {"x": 1};
var pmkinoFrontVars = {"apiData": {
  "attributes": {
    "Genres": {"g1": {"name": "Action"}, "broken": "not an object"},
    "Technical": {"t1": {"name": "3D"}},
    "FSK": {"16": {"name": "FSK 16"}},
    "Theatres": {"th1": {"name": "Saal 1"}},
    "Seat Classes": {"sc1": {"name": "Premium"}},
    "mystery": {"m1": {"name": "Ignored"}}
  },
  "movies": {"items": {
    "1": {
      "title": "Alien",
      "description": "In space no one can hear you scream.",
      "length": 117,
      "posterURL": "https://example.test/alien.jpg",
      "genres": ["g1"],
      "technologyAttributes": [{"id": "t1"}],
      "fsk": 16,
      "performances": [
        {"timeUtc": 1700000000, "theatreID": "th1", "seatClasses": [{"id": "sc1"}], "attributes": [{"id": "t1"}]},
        {"note": "no timeUtc, skipped"}
      ]
    },
    "2": {"untitled": true},
    "3": {"title": "Dune", "performances": [{"timeUtc": 1700005000}]}
  }}
}};
var alsoUnrelated = doSomething();
/* ]]>*/
</script>
</head><body></body></html>`

func newTestScraper(t *testing.T, page string) (*Scraper, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Attribute{},
		&models.Movie{},
		&models.Performance{},
	))

	log := zap.NewNop()
	s := &Scraper{
		cfg:        &config.Config{SourceURL: "http://cinema.test/program"},
		log:        log,
		transport:  reqtest.ReplayString("HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n" + page),
		attributes: repos.NewAttributeRepo(db, log),
		movies:     repos.NewMovieRepo(db, log),
	}
	return s, db
}

func TestRunCycle(t *testing.T) {
	ctx := context.Background()
	s, db := newTestScraper(t, programmePage)

	require.NoError(t, s.RunCycle(ctx))

	// Five usable attributes; the malformed entry and unknown category are
	// dropped.
	var attributeCount int64
	db.Model(&models.Attribute{}).Count(&attributeCount)
	assert.EqualValues(t, 5, attributeCount)

	var movieCount int64
	db.Model(&models.Movie{}).Count(&movieCount)
	assert.EqualValues(t, 2, movieCount)

	alien, err := s.movies.FindByTitle(ctx, "Alien")
	require.NoError(t, err)
	require.NotNil(t, alien)
	assert.Equal(t, "In space no one can hear you scream.", alien.Description.String)
	assert.EqualValues(t, 117, alien.LengthMinutes.Int64)
	assert.Equal(t, []string{"Action"}, alien.Genres.DisplayNames())
	assert.Equal(t, []string{"3D"}, alien.TechnologyAttributes.DisplayNames())
	require.NotNil(t, alien.Fsk)
	assert.Equal(t, "FSK 16", alien.Fsk.DisplayName)

	require.Len(t, alien.Performances, 1)
	performance := alien.Performances[0]
	assert.EqualValues(t, 1700000000, performance.ShowtimeUTC)
	require.NotNil(t, performance.Theatre)
	assert.Equal(t, "Saal 1", performance.Theatre.DisplayName)
	assert.Equal(t, []string{"Premium"}, performance.SeatClasses.DisplayNames())
	assert.Equal(t, []string{"3D"}, performance.Attributes.DisplayNames())

	dune, err := s.movies.FindByTitle(ctx, "Dune")
	require.NoError(t, err)
	require.NotNil(t, dune)
	require.Len(t, dune.Performances, 1)
	assert.Nil(t, dune.Performances[0].Theatre)
}

func TestRunCycleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, db := newTestScraper(t, programmePage)

	require.NoError(t, s.RunCycle(ctx))
	require.NoError(t, s.RunCycle(ctx))

	var movieCount, performanceCount, attributeCount int64
	db.Model(&models.Movie{}).Count(&movieCount)
	db.Unscoped().Model(&models.Performance{}).Count(&performanceCount)
	db.Model(&models.Attribute{}).Count(&attributeCount)
	assert.EqualValues(t, 2, movieCount)
	assert.EqualValues(t, 2, performanceCount)
	assert.EqualValues(t, 5, attributeCount)
}

func TestRunCycleRejectsPageWithoutScriptTag(t *testing.T) {
	s, _ := newTestScraper(t, `<html><head><script id='other'>var x = 1;</script></head></html>`)

	err := s.RunCycle(context.Background())
	assert.ErrorContains(t, err, "script tag")
}

func TestRunCycleRejectsPayloadWithoutApiData(t *testing.T) {
	page := `<html><head><script id='pmkino-overview-script-js-extra'>
var pmkinoFrontVars = {"somethingElse": true};
</script></head></html>`
	s, _ := newTestScraper(t, page)

	err := s.RunCycle(context.Background())
	assert.ErrorContains(t, err, "apiData")
}
