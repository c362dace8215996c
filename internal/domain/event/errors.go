package event

import (
	"errors"
	"fmt"
)

// Event ドメインのエラー定義
var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrEventNotFound     = errors.New("event not found")
	ErrEventFull         = errors.New("Event is full")
	ErrEventNotActive    = errors.New("Event is not active")
)

// ErrInvalidParameters の詳細
var (
	ErrOrganizerRequired  = fmt.Errorf("%w: organizer is required", ErrInvalidParameters)
	ErrTitleTooLong       = fmt.Errorf("%w: title must be at most %d characters", ErrInvalidParameters, MaxTitleLength)
	ErrDescriptionTooLong = fmt.Errorf("%w: description must be at most %d characters", ErrInvalidParameters, MaxDescriptionLength)
	ErrInvalidCapacity    = fmt.Errorf("%w: max participants must be greater than zero", ErrInvalidParameters)
	ErrInvalidTicketPrice = fmt.Errorf("%w: ticket price out of range", ErrInvalidParameters)
)
