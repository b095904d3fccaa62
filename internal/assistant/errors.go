package assistant

import "errors"

// ErrTranscriptUnavailable means the thread history could not be read.
// Fatal for the current request: no partial answer is produced.
var ErrTranscriptUnavailable = errors.New("thread transcript unavailable")

// ErrCitationNotFound means a detail-view selection could not be resolved,
// either because the answer's citations were evicted or the index is out of
// range. Reported to the user, never fatal to the process.
var ErrCitationNotFound = errors.New("citation not found")

// GenerationError means the generation backend rejected the request or
// returned an empty answer. Reason carries the backend-reported cause when
// available.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Reason
}
