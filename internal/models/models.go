package models

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Account is the address of the connected wallet. The zero value means no
// wallet is connected.
type Account string

func (a Account) IsSet() bool {
	return a != ""
}

func (a Account) String() string {
	return string(a)
}

// Address returns the account as a go-ethereum address.
func (a Account) Address() common.Address {
	return common.HexToAddress(string(a))
}

// Record is one wave as kept in the history.
type Record struct {
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Equal reports structural identity. Records carry no id.
func (r Record) Equal(other Record) bool {
	return r.Sender == other.Sender &&
		r.Message == other.Message &&
		r.Timestamp.Equal(other.Timestamp)
}

// RawRecord mirrors the contract's Wave tuple before normalization. Field
// names match the ABI component names so abi.ConvertType can fill it.
type RawRecord struct {
	Waver     common.Address
	Message   string
	Timestamp *big.Int
}

// ToRecord converts the raw seconds-since-epoch timestamp into a time.Time.
func (r RawRecord) ToRecord() Record {
	return NewRecord(r.Waver.Hex(), r.Timestamp, r.Message)
}

// NewRecord builds a Record from an event payload.
func NewRecord(sender string, rawTimestamp *big.Int, message string) Record {
	return Record{
		Sender:    sender,
		Timestamp: UnixSeconds(rawTimestamp),
		Message:   message,
	}
}

// ErrTimestampRange reports an on-chain timestamp that does not fit in int64
// seconds.
var ErrTimestampRange = errors.New("timestamp out of range")

// ParseUnixSeconds converts an on-chain seconds value to UTC time. Nil maps to
// the epoch. A value outside int64 also maps to the epoch and returns
// ErrTimestampRange.
func ParseUnixSeconds(raw *big.Int) (time.Time, error) {
	if raw == nil {
		return time.Unix(0, 0).UTC(), nil
	}
	if !raw.IsInt64() {
		return time.Unix(0, 0).UTC(), fmt.Errorf("%w: %s", ErrTimestampRange, raw)
	}
	return time.Unix(raw.Int64(), 0).UTC(), nil
}

// UnixSeconds is ParseUnixSeconds without the range error.
func UnixSeconds(raw *big.Int) time.Time {
	t, _ := ParseUnixSeconds(raw)
	return t
}
