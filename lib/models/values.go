package models

// DigestMovie is the per-movie projection read on every dispatcher tick and
// handed to the renderer. Attribute references arrive already resolved to
// their display names; empty strings and zero values stand in for absent
// optional fields.
type DigestMovie struct {
	Title           string
	Description     string
	LengthMinutes   int64
	FskName         string
	GenreNames      []string
	TechnologyNames []string
	TrailerURL      string
	PosterURL       string
	Performances    []DigestPerformance
}

type DigestPerformance struct {
	ShowtimeUTC    int64
	TheatreName    string
	SeatClassNames []string
	AttributeNames []string
}

// UpsertResult mirrors the counts reported by batch upserts.
type UpsertResult struct {
	MatchedCount  int
	ModifiedCount int
	UpsertedCount int
}
