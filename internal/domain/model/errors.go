package model

import "errors"

var (
	// ErrFetch marks a cycle aborted because the source could not be read.
	ErrFetch = errors.New("fetch failed")
	// ErrChallengeDetected marks an anti-automation page served instead of content.
	ErrChallengeDetected = errors.New("challenge page detected")
	// ErrUnauthorized marks rejected credentials at the source.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAllChannelsFailed marks a cycle where no configured channel delivered.
	ErrAllChannelsFailed = errors.New("all notification channels failed")
	// ErrPersistence marks a failure to store the observed count.
	ErrPersistence = errors.New("persist count")
)
