package draft

import (
	"regexp"
	"strings"
)

var slashRuns = regexp.MustCompile(`/+`)

// NormalizeCardID canonicalizes a card identifier for comparison: trims
// whitespace, collapses repeated slashes, strips any trailing slash, and
// lowercases. All set membership checks in the engine operate on
// normalized ids; raw ids are preserved for display.
func NormalizeCardID(id CardID) CardID {
	s := strings.TrimSpace(string(id))
	s = slashRuns.ReplaceAllString(s, "/")
	s = strings.TrimSuffix(s, "/")
	return CardID(strings.ToLower(s))
}

// NormalizeCardSet normalizes a list of ids into a membership set.
func NormalizeCardSet(ids []CardID) map[CardID]bool {
	set := make(map[CardID]bool, len(ids))
	for _, id := range ids {
		set[NormalizeCardID(id)] = true
	}
	return set
}

// FlattenPool returns all candidate ids in a pool, slot by slot.
func FlattenPool(pool [][]CardID) []CardID {
	var out []CardID
	for _, slot := range pool {
		out = append(out, slot...)
	}
	return out
}

// ClaimedCards returns every card a player state accounts for: pool
// candidates, live selections, and the committed hand. This is the
// exclusion set the opponent's allocator must respect.
func ClaimedCards(ps PlayerState) []CardID {
	out := FlattenPool(ps.Pool)
	for _, sel := range ps.Selections {
		out = append(out, sel.CardID)
	}
	out = append(out, ps.CommittedCards...)
	return out
}

// NormalizeAbility canonicalizes a raw ability value from an external
// source. Upstream feeds deliver either a bare string or a record with
// text and used fields; both collapse to AbilityRecord. Empty text after
// trimming means the record is dropped.
func NormalizeAbility(raw any) (AbilityRecord, bool) {
	switch v := raw.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return AbilityRecord{}, false
		}
		return AbilityRecord{Text: text}, true
	case AbilityRecord:
		text := strings.TrimSpace(v.Text)
		if text == "" {
			return AbilityRecord{}, false
		}
		return AbilityRecord{Text: text, Used: v.Used}, true
	case map[string]any:
		text, _ := v["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			return AbilityRecord{}, false
		}
		used, _ := v["used"].(bool)
		return AbilityRecord{Text: text, Used: used}, true
	default:
		return AbilityRecord{}, false
	}
}

// NormalizeAbilities canonicalizes a raw ability list, dropping entries
// with no usable text.
func NormalizeAbilities(raw []any) []AbilityRecord {
	var out []AbilityRecord
	for _, r := range raw {
		if rec, ok := NormalizeAbility(r); ok {
			out = append(out, rec)
		}
	}
	return out
}

// UsedAbilitySet returns the set of ability texts currently marked used.
func UsedAbilitySet(abilities []AbilityRecord) map[string]bool {
	set := make(map[string]bool)
	for _, a := range abilities {
		if a.Used {
			set[a.Text] = true
		}
	}
	return set
}
