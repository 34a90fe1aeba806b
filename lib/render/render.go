package render

import (
	_ "embed"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/avoss/kinodigest/lib/models"
	"go.uber.org/zap"
)

type Locale string

const (
	LocaleEnglish Locale = "en-US"
	LocaleGerman  Locale = "de"
)

const (
	showtimeLayout = "2006-01-02 15:04"

	// Descriptions beyond this length get cut off in digest messages.
	descriptionLimit = 800
)

var (
	//go:embed templates/announcement.en.tmpl
	announcementEN string
	//go:embed templates/announcement.de.tmpl
	announcementDE string
	//go:embed templates/movie.en.tmpl
	movieEN string
	//go:embed templates/movie.de.tmpl
	movieDE string

	announcementTemplates = map[Locale]*template.Template{
		LocaleEnglish: template.Must(template.New("announcement.en").Parse(announcementEN)),
		LocaleGerman:  template.Must(template.New("announcement.de").Parse(announcementDE)),
	}
	movieTemplates = map[Locale]*template.Template{
		LocaleEnglish: template.Must(template.New("movie.en").Parse(movieEN)),
		LocaleGerman:  template.Must(template.New("movie.de").Parse(movieDE)),
	}
	threadNames = map[Locale]string{
		LocaleEnglish: "[%s] 📢 Movie announcements",
		LocaleGerman:  "[%s] 📢 Filmankündigungen",
	}
)

// ResolveLocale falls back to English for any locale the templates do not
// cover.
func ResolveLocale(preferred string) Locale {
	locale := Locale(preferred)
	if _, ok := movieTemplates[locale]; ok {
		return locale
	}
	return LocaleEnglish
}

type Renderer struct {
	log *zap.Logger
}

func NewRenderer(log *zap.Logger) *Renderer {
	return &Renderer{log}
}

// Announcement is the data for the digest thread's opening message.
type Announcement struct {
	MentionedRoleID       string
	WebsiteURL            string
	PerformancesTruncated bool
	InfoCommand           string
	PerformancesCommand   string
	MentionCommand        string
}

func (r *Renderer) ThreadName(locale Locale, date time.Time) string {
	return strings.Replace(threadNames[locale], "%s", date.UTC().Format("2006-01-02"), 1)
}

func (r *Renderer) RenderAnnouncement(locale Locale, data Announcement) (string, error) {
	return fillTemplate(announcementTemplates[locale], data)
}

// RenderMovie renders one movie's digest message. Showtimes are formatted in
// the recipient's timezone; performance-level and movie-level technical
// attributes are merged into one tag list.
func (r *Renderer) RenderMovie(locale Locale, movie models.DigestMovie, includeTrailer bool, tz *time.Location) (string, error) {
	view := movieView{
		Title:  movie.Title,
		Fsk:    movie.FskName,
		Genres: strings.Join(movie.GenreNames, ", "),
	}
	if movie.Description != "" {
		view.Description = movie.Description
		if len(view.Description) > descriptionLimit {
			cut := descriptionLimit
			// Back off to a rune boundary so the cut never splits a
			// multi-byte character.
			for cut > 0 && !utf8.RuneStart(view.Description[cut]) {
				cut--
			}
			view.Description = view.Description[:cut] + "..."
		}
	}
	view.LengthMinutes = movie.LengthMinutes
	if includeTrailer {
		view.TrailerURL = movie.TrailerURL
	}

	for _, performance := range movie.Performances {
		merged := append(append([]string{}, performance.AttributeNames...), movie.TechnologyNames...)
		view.Performances = append(view.Performances, performanceView{
			Theatre:     performance.TheatreName,
			Showtime:    time.Unix(performance.ShowtimeUTC, 0).In(tz).Format(showtimeLayout),
			Attributes:  strings.Join(merged, ", "),
			SeatClasses: strings.Join(performance.SeatClassNames, ", "),
		})
	}

	return fillTemplate(movieTemplates[locale], view)
}

type movieView struct {
	Title         string
	Description   string
	LengthMinutes int64
	Fsk           string
	Genres        string
	TrailerURL    string
	Performances  []performanceView
}

type performanceView struct {
	Theatre     string
	Showtime    string
	Attributes  string
	SeatClasses string
}

func fillTemplate(tmpl *template.Template, values any) (string, error) {
	buf := new(strings.Builder)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
