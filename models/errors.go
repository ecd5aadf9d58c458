package models

import "errors"

// Extraction error taxonomy. Every one of these is caught at the component
// boundary where it occurs and converted into an empty partial result;
// none of them ever reaches an HTTP response.
var (
	ErrNetwork               = errors.New("network error")
	ErrBlockedBySite         = errors.New("blocked by site")
	ErrParse                 = errors.New("parse error")
	ErrModel                 = errors.New("model error")
	ErrClassificationFailure = errors.New("classification failure")
)
