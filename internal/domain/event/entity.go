package event

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourextrem/eventdao/internal/domain/address"
)

const (
	// MaxTitleLength はタイトルの最大文字数
	MaxTitleLength = 100
	// MaxDescriptionLength は説明の最大文字数
	MaxDescriptionLength = 500
	// MaxTicketPrice は保存可能な価格の上限（符号付き64bit）
	MaxTicketPrice = uint64(math.MaxInt64)
)

// Event はイベントエンティティを表す
type Event struct {
	ID                  uint32
	Address             address.Address
	Title               string
	Description         string
	Organizer           string
	MaxParticipants     uint32
	CurrentParticipants uint32
	TicketPrice         uint64 // 最小単位の整数
	IsActive            bool
	CreatedAt           time.Time
}

// NewEvent は新しいイベントを作成する
// ID はレジストリから払い出されたものを渡す
func NewEvent(id uint32, organizer, title, description string, maxParticipants uint32, ticketPrice uint64) *Event {
	return &Event{
		ID:                  id,
		Address:             address.Event(id),
		Title:               title,
		Description:         description,
		Organizer:           strings.TrimSpace(organizer),
		MaxParticipants:     maxParticipants,
		CurrentParticipants: 0,
		TicketPrice:         ticketPrice,
		IsActive:            true,
		CreatedAt:           time.Now(),
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Organizer == "" {
		return ErrOrganizerRequired
	}
	if n := utf8.RuneCountInString(e.Title); n > MaxTitleLength {
		return fmt.Errorf("%w (%d characters)", ErrTitleTooLong, n)
	}
	if n := utf8.RuneCountInString(e.Description); n > MaxDescriptionLength {
		return fmt.Errorf("%w (%d characters)", ErrDescriptionTooLong, n)
	}
	if e.MaxParticipants == 0 {
		return ErrInvalidCapacity
	}
	if e.TicketPrice > MaxTicketPrice {
		return ErrInvalidTicketPrice
	}
	return nil
}

// Remaining は残り枠数を返す
func (e *Event) Remaining() uint32 {
	if e.CurrentParticipants >= e.MaxParticipants {
		return 0
	}
	return e.MaxParticipants - e.CurrentParticipants
}

// IsFull は満員かを返す
func (e *Event) IsFull() bool {
	return e.CurrentParticipants >= e.MaxParticipants
}

// Admit は参加者を1人追加する
// 受付中でなければ ErrEventNotActive、満員なら ErrEventFull
func (e *Event) Admit() error {
	if !e.IsActive {
		return ErrEventNotActive
	}
	if e.CurrentParticipants >= e.MaxParticipants {
		return ErrEventFull
	}
	e.CurrentParticipants++
	return nil
}
