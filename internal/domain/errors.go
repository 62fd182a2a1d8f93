package domain

import "errors"

// Pipeline failure classes. Only ErrSourceUnavailable aborts a batch run.
var (
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrFetchFailed        = errors.New("fetch failed")
	ErrUnreadableDocument = errors.New("unreadable document")
	ErrClassifier         = errors.New("classifier error")
)
