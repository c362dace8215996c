package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
)

// RegistryInitialized は registry.initialized のペイロード
type RegistryInitialized struct {
	Address   address.Address `json:"address"`
	Authority string          `json:"authority"`
	At        time.Time       `json:"at"`
}

// EventCreated は event.created のペイロード
type EventCreated struct {
	EventID         uint32          `json:"event_id"`
	Address         address.Address `json:"address"`
	Organizer       string          `json:"organizer"`
	Title           string          `json:"title"`
	MaxParticipants uint32          `json:"max_participants"`
	TicketPrice     uint64          `json:"ticket_price"`
	At              time.Time       `json:"at"`
}

// TicketPurchased は ticket.purchased のペイロード
type TicketPurchased struct {
	Ticket              address.Address `json:"ticket"`
	EventID             uint32          `json:"event_id"`
	Owner               string          `json:"owner"`
	Amount              uint64          `json:"amount"`
	CurrentParticipants uint32          `json:"current_participants"`
	At                  time.Time       `json:"at"`
}

// TicketUsed は ticket.used のペイロード
type TicketUsed struct {
	Ticket  address.Address `json:"ticket"`
	EventID uint32          `json:"event_id"`
	Owner   string          `json:"owner"`
	At      time.Time       `json:"at"`
}

func registryInitialized(r *registry.Registry) (*outbox.Message, error) {
	return outbox.NewMessage(outbox.AggregateRegistry, r.Address.String(), outbox.TypeRegistryInitialized,
		RegistryInitialized{Address: r.Address, Authority: r.Authority, At: r.CreatedAt})
}

func eventCreated(e *event.Event) (*outbox.Message, error) {
	return outbox.NewMessage(outbox.AggregateEvent, strconv.FormatUint(uint64(e.ID), 10), outbox.TypeEventCreated,
		EventCreated{
			EventID:         e.ID,
			Address:         e.Address,
			Organizer:       e.Organizer,
			Title:           e.Title,
			MaxParticipants: e.MaxParticipants,
			TicketPrice:     e.TicketPrice,
			At:              e.CreatedAt,
		})
}

// チケット系はイベント単位で順序を保つためイベントIDをキーにする
func ticketPurchased(t *ticket.Ticket, e *event.Event) (*outbox.Message, error) {
	return outbox.NewMessage(outbox.AggregateTicket, strconv.FormatUint(uint64(e.ID), 10), outbox.TypeTicketPurchased,
		TicketPurchased{
			Ticket:              t.Address,
			EventID:             e.ID,
			Owner:               t.Owner,
			Amount:              e.TicketPrice,
			CurrentParticipants: e.CurrentParticipants,
			At:                  t.PurchaseTime,
		})
}

func ticketUsed(t *ticket.Ticket) (*outbox.Message, error) {
	at := time.Now()
	if t.UsedAt != nil {
		at = *t.UsedAt
	}
	return outbox.NewMessage(outbox.AggregateTicket, strconv.FormatUint(uint64(t.EventID), 10), outbox.TypeTicketUsed,
		TicketUsed{Ticket: t.Address, EventID: t.EventID, Owner: t.Owner, At: at})
}

// appendOutbox はメッセージを作ってトランザクションに追加する
func appendOutbox(ctx context.Context, repo outbox.Repository, tx transaction.Tx, build func() (*outbox.Message, error)) error {
	m, err := build()
	if err != nil {
		return err
	}
	if err := repo.Append(ctx, tx, m); err != nil {
		return fmt.Errorf("アウトボックス追加に失敗: %w", err)
	}
	return nil
}
