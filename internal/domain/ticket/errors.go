package ticket

import "errors"

// Ticket ドメインのエラー定義
var (
	ErrDuplicateTicket   = errors.New("ticket already purchased for this event")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrNotTicketOwner    = errors.New("Not ticket owner")
	ErrTicketAlreadyUsed = errors.New("Ticket already used")
	ErrOwnerRequired     = errors.New("ticket owner is required")
)
