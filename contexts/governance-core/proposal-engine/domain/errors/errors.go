package errors

import "errors"

var (
	ErrInvalidProposalInput = errors.New("invalid proposal input")
	ErrInvalidVoteInput     = errors.New("invalid vote input")
	ErrInvalidStartTime     = errors.New("proposal start time is in the past")
	ErrInsufficientPower    = errors.New("voting power is below the proposal threshold")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrNotAuthorized        = errors.New("caller is not authorized")
	ErrVotingAlreadyStarted = errors.New("voting has already started")
	ErrVotingNotStarted     = errors.New("voting has not started")
	ErrVotingEnded          = errors.New("voting has ended")
	ErrProposalCanceled     = errors.New("proposal is canceled")
	ErrProposalExecuted     = errors.New("proposal is executed")
	ErrAlreadyCanceled      = errors.New("proposal is already canceled")
	ErrAlreadyExecuted      = errors.New("proposal is already executed")
	ErrAlreadyVoted         = errors.New("account has already voted on this proposal")
	ErrNoVotingPower        = errors.New("account has no voting power")
	ErrProposalNotSucceeded = errors.New("proposal has not succeeded")
	ErrInvalidParameter     = errors.New("invalid governance parameter")
	ErrSystemPaused         = errors.New("system is paused")
)
