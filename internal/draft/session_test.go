package draft_test

import (
	"testing"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

func TestNewSessionDefaults(t *testing.T) {
	s := draft.NewSession(draft.SessionOptions{Player1Name: "Avery", Player2Name: "Blair"})
	if s.ID == "" {
		t.Error("session id not generated")
	}
	if s.Rounds != draft.DefaultSlotCount {
		t.Errorf("rounds = %d, want %d", s.Rounds, draft.DefaultSlotCount)
	}
	if s.Status != draft.StatusWaiting {
		t.Errorf("status = %s, want %s", s.Status, draft.StatusWaiting)
	}
	if s.Players[0].Name != "Avery" || s.Players[1].Name != "Blair" {
		t.Errorf("player names = %q, %q", s.Players[0].Name, s.Players[1].Name)
	}
}

func TestNewSessionPresetID(t *testing.T) {
	s := draft.NewSession(draft.SessionOptions{ID: "finals-2026", Rounds: 7})
	if s.ID != "finals-2026" {
		t.Errorf("id = %q, want preset", s.ID)
	}
	if s.Rounds != 7 {
		t.Errorf("rounds = %d, want 7", s.Rounds)
	}
}

func TestNewSessionNormalizesAbilitySheets(t *testing.T) {
	s := draft.NewSession(draft.SessionOptions{
		Player1Abilities: []string{"  Peek  ", "", "Swap"},
	})
	got := s.Players[0].Abilities
	if len(got) != 2 || got[0].Text != "Peek" || got[1].Text != "Swap" {
		t.Errorf("abilities = %v", got)
	}
	if got[0].Used || got[1].Used {
		t.Error("fresh sheet must start unused")
	}
}

func TestOpponent(t *testing.T) {
	if draft.Opponent(0) != 1 || draft.Opponent(1) != 0 {
		t.Error("opponent mapping broken")
	}
}

func TestPendingRequestsFiltersBySlotAndStatus(t *testing.T) {
	s := draft.NewSession(draft.SessionOptions{})
	s.Requests["a"] = draft.AbilityRequest{ID: "a", PlayerSlot: 0, Status: draft.RequestPending}
	s.Requests["b"] = draft.AbilityRequest{ID: "b", PlayerSlot: 1, Status: draft.RequestPending}
	s.Requests["c"] = draft.AbilityRequest{ID: "c", PlayerSlot: 0, Status: draft.RequestApproved}

	got := s.PendingRequests(0)
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("pending for slot 0 = %v", got)
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := draft.NewSession(draft.SessionOptions{Player1Abilities: []string{"Peek"}})
	s.Players[0].Pool = [][]draft.CardID{{"cards/common/c00"}}
	s.Players[0].Selections = []draft.Selection{{SlotIndex: 0, CardID: "cards/common/c00"}}
	s.Requests["r"] = draft.AbilityRequest{ID: "r", Status: draft.RequestPending}

	c := s.Clone()
	c.Players[0].Pool[0][0] = "cards/common/zz"
	c.Players[0].Selections[0].SlotIndex = 9
	c.Players[0].Abilities[0].Used = true
	c.Requests["r"] = draft.AbilityRequest{ID: "r", Status: draft.RequestApproved}

	if s.Players[0].Pool[0][0] != "cards/common/c00" {
		t.Error("pool aliased between clone and original")
	}
	if s.Players[0].Selections[0].SlotIndex != 0 {
		t.Error("selections aliased")
	}
	if s.Players[0].Abilities[0].Used {
		t.Error("abilities aliased")
	}
	if s.Requests["r"].Status != draft.RequestPending {
		t.Error("requests aliased")
	}
}
