package wheel

import "errors"

var (
	ErrEmptyParticipantSet = errors.New("no participants to spin")
	ErrSpinInProgress      = errors.New("spin already in progress")
	ErrResultPending       = errors.New("previous result not yet consumed")
	ErrClosed              = errors.New("wheel closed")
)
