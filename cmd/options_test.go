package main

import (
	"errors"
	"io"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{"defaults", nil, options{Limit: 100}, false},
		{"connect and watch", []string{"--connect", "--watch"}, options{Connect: true, Watch: true, Limit: 100}, false},
		{"message", []string{"--message", "gm"}, options{Message: "gm", HasMessage: true, Limit: 100}, false},
		{"empty message", []string{"--message="}, options{HasMessage: true, Limit: 100}, false},
		{"history", []string{"--history", "--limit", "5"}, options{History: true, Limit: 5}, false},
		{"bad limit", []string{"--limit", "0"}, options{}, true},
		{"positional", []string{"gm"}, options{}, true},
		{"unknown flag", []string{"--nope"}, options{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptions(tt.args, io.Discard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseOptions_Help(t *testing.T) {
	if _, err := parseOptions([]string{"--help"}, io.Discard); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("parseOptions(--help) error = %v, want pflag.ErrHelp", err)
	}
}
