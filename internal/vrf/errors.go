package vrf

import "errors"

var (
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrInvalidConsumer     = errors.New("invalid consumer")
	ErrMustBeSubOwner      = errors.New("must be subscription owner")
	ErrTooManyConsumers    = errors.New("too many consumers")
	ErrNumWordsTooBig      = errors.New("num words too big")
	ErrNonexistentRequest  = errors.New("nonexistent request")
	ErrInvalidRandomWords  = errors.New("invalid random words")
	ErrInsufficientBalance = errors.New("insufficient subscription balance")
	ErrNegativeAmount      = errors.New("negative amount")
	ErrNoCallback          = errors.New("consumer has no callback bound")
)
