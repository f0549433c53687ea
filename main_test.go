package main

import (
	"testing"
	"time"

	"sol/storage"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "********"},
		{"short", "********"},
		{"sk-ant-api03-abcdefgh1234", "sk-a...1234"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"line one\n  line two", 80, "line one line two"},
		{"abcdefghij", 8, "abcde..."},
		{"héllo wörld", 11, "héllo wörld"},
	}
	for _, tt := range tests {
		if got := oneLine(tt.in, tt.max); got != tt.want {
			t.Errorf("oneLine(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestStartingConversation(t *testing.T) {
	convs, err := storage.NewConversationStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := convs.SaveCurrentID("last"); err != nil {
		t.Fatal(err)
	}
	a := &app{convs: convs}

	tests := []struct {
		name         string
		conversation string
		fresh        bool
		want         string
	}{
		{"continues last", "", false, "last"},
		{"explicit id", "c7", false, "c7"},
		{"new wins", "c7", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conversationFlag, newConversation = tt.conversation, tt.fresh
			t.Cleanup(func() { conversationFlag, newConversation = "", false })

			got, err := startingConversation(a)
			if err != nil {
				t.Fatalf("startingConversation() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("startingConversation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrepOptions(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		event   string
		hours   int
		want    time.Duration
		wantDay string
		wantErr bool
	}{
		{name: "defaults", hours: 24, want: 24 * time.Hour},
		{name: "event on date", date: "2026-03-02", event: "e1", hours: 24, want: 24 * time.Hour, wantDay: "2026-03-02"},
		{name: "date without event", date: "2026-03-02", hours: 24, wantErr: true},
		{name: "bad date", date: "03/02/2026", event: "e1", hours: 24, wantErr: true},
		{name: "zero window", hours: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepDate, prepEventID, prepHoursAhead = tt.date, tt.event, tt.hours
			t.Cleanup(func() { prepDate, prepEventID, prepHoursAhead = "", "", 24 })

			opts, err := prepOptions()
			if (err != nil) != tt.wantErr {
				t.Fatalf("prepOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if opts.Window != tt.want || opts.EventID != tt.event {
				t.Errorf("opts = %+v", opts)
			}
			if tt.wantDay != "" && opts.Date.Format("2006-01-02") != tt.wantDay {
				t.Errorf("Date = %v, want %s", opts.Date, tt.wantDay)
			}
		})
	}
}
