package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourextrem/eventdao/internal/domain/address"
)

func TestNewTicket(t *testing.T) {
	tk := NewTicket(4, " alice ")

	assert.Equal(t, address.Ticket(4, "alice"), tk.Address)
	assert.Equal(t, uint32(4), tk.EventID)
	assert.Equal(t, "alice", tk.Owner)
	assert.False(t, tk.IsUsed)
	assert.Nil(t, tk.UsedAt)
	assert.NotZero(t, tk.PurchaseTime)
}

func TestTicket_Validate(t *testing.T) {
	assert.NoError(t, NewTicket(0, "alice").Validate())
	assert.ErrorIs(t, NewTicket(0, "").Validate(), ErrOwnerRequired)
}

func TestTicket_Use(t *testing.T) {
	tests := []struct {
		name        string
		setup       func() *Ticket
		caller      string
		expectedErr error
	}{
		{
			name:   "所有者による使用",
			setup:  func() *Ticket { return NewTicket(0, "alice") },
			caller: "alice",
		},
		{
			name:        "所有者以外",
			setup:       func() *Ticket { return NewTicket(0, "alice") },
			caller:      "bob",
			expectedErr: ErrNotTicketOwner,
		},
		{
			name: "使用済み",
			setup: func() *Ticket {
				tk := NewTicket(0, "alice")
				tk.IsUsed = true
				return tk
			},
			caller:      "alice",
			expectedErr: ErrTicketAlreadyUsed,
		},
		{
			name: "使用済みかつ所有者以外は所有者エラーが優先",
			setup: func() *Ticket {
				tk := NewTicket(0, "alice")
				tk.IsUsed = true
				return tk
			},
			caller:      "bob",
			expectedErr: ErrNotTicketOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := tt.setup()
			wasUsed := tk.IsUsed

			err := tk.Use(tt.caller)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, wasUsed, tk.IsUsed)
				return
			}
			require.NoError(t, err)
			assert.True(t, tk.IsUsed)
			assert.NotNil(t, tk.UsedAt)
		})
	}
}

func TestTicket_UseTwice(t *testing.T) {
	tk := NewTicket(1, "alice")

	require.NoError(t, tk.Use("alice"))
	err := tk.Use("alice")

	assert.ErrorIs(t, err, ErrTicketAlreadyUsed)
	assert.Equal(t, "Ticket already used", err.Error())
}

func TestNewPayment(t *testing.T) {
	tk := NewTicket(2, "alice")

	p := NewPayment(tk, "organizer", 1500)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, tk.Address, p.TicketAddress)
	assert.Equal(t, uint32(2), p.EventID)
	assert.Equal(t, "alice", p.Payer)
	assert.Equal(t, "organizer", p.Payee)
	assert.Equal(t, uint64(1500), p.Amount)
	assert.Equal(t, tk.PurchaseTime, p.CreatedAt)
}
