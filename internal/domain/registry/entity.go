package registry

import (
	"math"
	"strings"
	"time"

	"github.com/yourextrem/eventdao/internal/domain/address"
)

// Registry はイベントIDを払い出すシングルトンのレコード
type Registry struct {
	Address     address.Address
	Authority   string // 初期化した主体（権限チェックには使わない）
	TotalEvents uint32 // 次に払い出すイベントID
	CreatedAt   time.Time
}

// NewRegistry は新しいレジストリを作成する
func NewRegistry(authority string) *Registry {
	return &Registry{
		Address:     address.Registry(),
		Authority:   strings.TrimSpace(authority),
		TotalEvents: 0,
		CreatedAt:   time.Now(),
	}
}

// Validate はレジストリの検証を行う
func (r *Registry) Validate() error {
	if r.Authority == "" {
		return ErrAuthorityRequired
	}
	return nil
}

// AllocateEventID は次のイベントIDを返し、カウンタを進める
func (r *Registry) AllocateEventID() (uint32, error) {
	if r.TotalEvents == math.MaxUint32 {
		return 0, ErrEventIDExhausted
	}
	id := r.TotalEvents
	r.TotalEvents++
	return id, nil
}
