package models

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseUnixSeconds(t *testing.T) {
	aboveInt64 := new(big.Int).Lsh(big.NewInt(1), 64)

	tests := []struct {
		name    string
		raw     *big.Int
		want    time.Time
		wantErr error
	}{
		{"nil", nil, time.Unix(0, 0).UTC(), nil},
		{"zero", big.NewInt(0), time.Unix(0, 0).UTC(), nil},
		{"seconds", big.NewInt(1000), time.Date(1970, 1, 1, 0, 16, 40, 0, time.UTC), nil},
		{"above int64", aboveInt64, time.Unix(0, 0).UTC(), ErrTimestampRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnixSeconds(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseUnixSeconds() error = %v, want %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("ParseUnixSeconds() = %v, want %v", got, tt.want)
			}
			if !UnixSeconds(tt.raw).Equal(tt.want) {
				t.Errorf("UnixSeconds() = %v, want %v", UnixSeconds(tt.raw), tt.want)
			}
		})
	}
}

func TestRawRecord_ToRecord(t *testing.T) {
	waver := common.HexToAddress("0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5")
	raw := RawRecord{Waver: waver, Message: "hi", Timestamp: big.NewInt(1000)}

	want := Record{Sender: waver.Hex(), Timestamp: time.Unix(1000, 0), Message: "hi"}
	if got := raw.ToRecord(); !got.Equal(want) {
		t.Errorf("ToRecord() = %+v, want %+v", got, want)
	}
}

func TestRecord_Equal(t *testing.T) {
	a := Record{Sender: "0xA", Timestamp: time.Unix(1000, 0).UTC(), Message: "hi"}

	tests := []struct {
		name  string
		other Record
		want  bool
	}{
		{"same instant other zone", Record{Sender: "0xA", Timestamp: time.Unix(1000, 0).In(time.FixedZone("X", 3600)), Message: "hi"}, true},
		{"other sender", Record{Sender: "0xB", Timestamp: a.Timestamp, Message: "hi"}, false},
		{"other message", Record{Sender: "0xA", Timestamp: a.Timestamp, Message: "yo"}, false},
		{"other time", Record{Sender: "0xA", Timestamp: time.Unix(1001, 0), Message: "hi"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
