package domain

// DefaultLanguage is assumed when a catalog entry has no language hint.
const DefaultLanguage = "en"

// Video is a catalog entry describing one source document.
type Video struct {
	// ID is the YouTube video id and the fragment DocumentID.
	ID string

	// Channel is the publishing channel name.
	Channel string

	// Title is the video title.
	Title string

	// UploadDate is the publication date as YYYYMMDD.
	UploadDate string

	// LanguageHint is the expected transcript language.
	LanguageHint string

	// DurationSeconds is the video length, zero when unknown.
	DurationSeconds int

	// Approved marks the entry for ingestion.
	Approved bool

	// Ingested records that fragments were stored on a previous run.
	Ingested bool
}

// Language returns the language hint, defaulting to English.
func (v Video) Language() string {
	if v.LanguageHint == "" {
		return DefaultLanguage
	}
	return v.LanguageHint
}

// URL returns the canonical link for the video at the given offset.
func (v Video) URL(startSeconds int) string {
	return YouTubeURL(v.ID, startSeconds)
}
