package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourextrem/eventdao/internal/domain/address"
)

// Ticket はイベントへの参加権を表す
// (EventID, Owner) ごとに最大1枚
type Ticket struct {
	Address      address.Address
	EventID      uint32
	Owner        string
	PurchaseTime time.Time
	IsUsed       bool
	UsedAt       *time.Time
}

// NewTicket は新しいチケットを作成する
func NewTicket(eventID uint32, owner string) *Ticket {
	owner = strings.TrimSpace(owner)
	return &Ticket{
		Address:      address.Ticket(eventID, owner),
		EventID:      eventID,
		Owner:        owner,
		PurchaseTime: time.Now(),
		IsUsed:       false,
	}
}

// Validate はチケットの検証を行う
func (t *Ticket) Validate() error {
	if t.Owner == "" {
		return ErrOwnerRequired
	}
	return nil
}

// Use はチケットを使用済みにする
// 所有者以外は ErrNotTicketOwner、使用済みなら ErrTicketAlreadyUsed
func (t *Ticket) Use(caller string) error {
	if t.Owner != strings.TrimSpace(caller) {
		return ErrNotTicketOwner
	}
	if t.IsUsed {
		return ErrTicketAlreadyUsed
	}
	now := time.Now()
	t.IsUsed = true
	t.UsedAt = &now
	return nil
}

// Payment は購入時の支払い記録
// 価格0のイベントでは作成しない
type Payment struct {
	ID            string
	TicketAddress address.Address
	EventID       uint32
	Payer         string
	Payee         string
	Amount        uint64
	CreatedAt     time.Time
}

// NewPayment はチケット購入の支払い記録を作成する
func NewPayment(t *Ticket, payee string, amount uint64) *Payment {
	return &Payment{
		ID:            uuid.New().String(),
		TicketAddress: t.Address,
		EventID:       t.EventID,
		Payer:         t.Owner,
		Payee:         payee,
		Amount:        amount,
		CreatedAt:     t.PurchaseTime,
	}
}
