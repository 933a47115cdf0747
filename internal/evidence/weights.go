package evidence

// Field identifies one tracked identity attribute.
type Field string

const (
	FieldAuthor    Field = "author"
	FieldTitle     Field = "title"
	FieldNarrator  Field = "narrator"
	FieldSeries    Field = "series"
	FieldSeriesNum Field = "series_num"
	FieldLanguage  Field = "language"
	FieldYear      Field = "year"
	FieldEdition   Field = "edition"
	FieldVariant   Field = "variant"
)

// TrackedFields lists every field the consensus engine scores, in the order
// profiles report them.
var TrackedFields = []Field{
	FieldAuthor,
	FieldTitle,
	FieldNarrator,
	FieldSeries,
	FieldSeriesNum,
	FieldLanguage,
	FieldYear,
	FieldEdition,
	FieldVariant,
}

// Well-known evidence source ids. Weights express relative trust: a user
// override beats everything, audio transcription beats embedded tags, and
// path inference is the weakest voice in the room.
const (
	SourceUser        = "user"
	SourceAudio       = "audio"
	SourceID3         = "id3"
	SourceJSON        = "json"
	SourceNFO         = "nfo"
	SourceBookDB      = "bookdb"
	SourceOracle      = "oracle"
	SourceAudnexus    = "audnexus"
	SourceGoogleBooks = "googlebooks"
	SourceOpenLibrary = "openlibrary"
	SourceHardcover   = "hardcover"
	SourcePath        = "path"
)

var sourceWeights = map[string]int{
	SourceUser:        100,
	SourceAudio:       85,
	SourceID3:         80,
	SourceJSON:        75,
	SourceNFO:         70,
	SourceBookDB:      65,
	SourceOracle:      60,
	SourceAudnexus:    55,
	SourceGoogleBooks: 50,
	SourceOpenLibrary: 45,
	SourceHardcover:   45,
	SourcePath:        40,
}

const unknownSourceWeight = 30

// SourceWeight returns the trust weight for a source id. Unknown sources get
// a conservative default rather than an error so new sources can vote before
// the table learns about them.
func SourceWeight(source string) int {
	if w, ok := sourceWeights[source]; ok {
		return w
	}
	return unknownSourceWeight
}

// fieldWeights shares out overall confidence across fields. The values sum
// to exactly 100 so the overall score is a true weighted average.
var fieldWeights = map[Field]int{
	FieldAuthor:    30,
	FieldTitle:     30,
	FieldNarrator:  15,
	FieldSeries:    10,
	FieldSeriesNum: 5,
	FieldLanguage:  5,
	FieldYear:      3,
	FieldEdition:   1,
	FieldVariant:   1,
}

// FieldWeight returns the field's share of overall confidence.
func FieldWeight(field Field) int {
	return fieldWeights[field]
}
