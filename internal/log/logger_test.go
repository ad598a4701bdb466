package log

import (
	"strings"
	"testing"
)

func TestMemoryLoggerSequencesEvents(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(NewSessionCreatedEvent("abcd1234efgh", 20))
	l.Log(NewCardPickedEvent("abcd1234efgh", 0, 3, "cards/common/c07"))
	l.Log(NewCardPickedEvent("abcd1234efgh", 1, 5, "cards/epic/e02"))

	events := l.Events()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	for i, e := range events {
		if e.Seq != i+1 {
			t.Errorf("event %d has seq %d", i, e.Seq)
		}
	}

	picks := l.EventsOfType(EventCardPicked)
	if len(picks) != 2 {
		t.Fatalf("picks = %d, want 2", len(picks))
	}
	if picks[0].Player != 0 || picks[1].Player != 1 {
		t.Errorf("pick players = %d, %d", picks[0].Player, picks[1].Player)
	}

	if last := l.LastEvent(); last.Type != EventCardPicked || last.Card != "cards/epic/e02" {
		t.Errorf("last event = %+v", last)
	}
}

func TestFormatEvent(t *testing.T) {
	line := FormatEvent(NewCardPickedEvent("abcd1234efgh", 1, 4, "cards/common/c01"))
	if !strings.HasPrefix(line, "abcd1234 ") {
		t.Errorf("session prefix not truncated: %q", line)
	}
	if !strings.Contains(line, "P2") {
		t.Errorf("player name missing: %q", line)
	}
	if !strings.Contains(line, "CardPicked") {
		t.Errorf("event type missing: %q", line)
	}

	anon := FormatEvent(NewSessionCreatedEvent("s", 20))
	if !strings.Contains(anon, "--") {
		t.Errorf("no-player marker missing: %q", anon)
	}
}
