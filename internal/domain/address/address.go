// Package address はレジストリ・イベント・チケットの決定的アドレスを導出する
package address

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size はアドレスのバイト長
const Size = 32

// Address はレコードの格納位置を表す32バイトの BLAKE3 keyed hash
// 同じ論理キーからは常に同じアドレスが得られる
type Address [Size]byte

// ErrInvalidAddress はアドレス文字列が不正な場合のエラー
var ErrInvalidAddress = errors.New("invalid address")

type domainKey [32]byte

// ドメインキーは ASCII をゼロ埋めしたもの。値を変えると既存アドレスがすべて変わる
var (
	registryDomain = domainKey{
		'e', 'v', 'e', 'n', 't', 'd', 'a', 'o', '.', 'r', 'e', 'g', 'i', 's', 't', 'r',
		'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	eventDomain = domainKey{
		'e', 'v', 'e', 'n', 't', 'd', 'a', 'o', '.', 'e', 'v', 'e', 'n', 't', 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	ticketDomain = domainKey{
		'e', 'v', 'e', 'n', 't', 'd', 'a', 'o', '.', 't', 'i', 'c', 'k', 'e', 't', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

var registrySeed = []byte("event_dao")

// Registry はシングルトンのレジストリアドレス
func Registry() Address {
	return derive(registryDomain, registrySeed)
}

// Event はイベントIDからイベントのアドレスを導出する
func Event(id uint32) Address {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], id)
	return derive(eventDomain, buf[:])
}

// Ticket は (イベントID, 所有者) からチケットのアドレスを導出する
// イベントIDは固定長なので所有者との境界は曖昧にならない
func Ticket(eventID uint32, owner string) Address {
	buf := make([]byte, 4, 4+len(owner))
	binary.LittleEndian.PutUint32(buf, eventID)
	buf = append(buf, owner...)
	return derive(ticketDomain, buf)
}

func derive(key domainKey, data []byte) Address {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// 鍵長は常に32バイト
		panic("blake3.NewKeyed: " + err.Error())
	}
	hasher.Write(data)

	var a Address
	copy(a[:], hasher.Sum(nil))
	return a
}

// Parse は16進文字列をアドレスに変換する
func Parse(s string) (Address, error) {
	var a Address
	if len(s) != Size*2 {
		return a, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidAddress, Size*2, len(s))
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return a, nil
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero はゼロ値かどうか
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value は database/sql への書き込み用（16進文字列）
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan は database/sql からの読み込み用
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidAddress, src)
	}
}
