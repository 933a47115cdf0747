package audioprobe

import "context"

// Heard is what a transcription pass understood from an opening-credits
// segment ("this is Title, written by Author, narrated by Narrator").
type Heard struct {
	Author   string
	Title    string
	Narrator string
}

// Transcriber turns the opening seconds of an audiobook into identity
// evidence. Implementations wrap external speech-to-text tooling; a nil
// Transcriber disables the audio layer and the trust-mode tiebreak.
type Transcriber interface {
	Hear(ctx context.Context, path string) (*Heard, error)
}
