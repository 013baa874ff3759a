package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCatalogNotFound indicates the question/game catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrQuestionNotFound indicates the session points past the catalog's question list.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option index is outside the current question's options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuizComplete is returned when an answer arrives after the last question.
	ErrQuizComplete = errors.New("quiz already complete")
	// ErrQuizInProgress is returned when results are requested before the quiz finished.
	ErrQuizInProgress = errors.New("quiz still in progress")
)
