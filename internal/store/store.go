// Package store implements the draft.SessionStore document store: an
// in-memory backend plus the path-scoped partial-write semantics shared
// with the relay.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

// ApplyUpdate applies a path-scoped partial write to a session document
// in place. Values round-trip through JSON so both in-process callers
// (concrete types) and wire callers (raw JSON) behave identically.
func ApplyUpdate(sess *draft.Session, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode update value: %w", err)
	}

	parts := strings.Split(path, "/")
	switch {
	case path == "status":
		return json.Unmarshal(data, &sess.Status)

	case parts[0] == "players" && len(parts) == 3:
		slot, err := strconv.Atoi(parts[1])
		if err != nil || slot < 0 || slot > 1 {
			return fmt.Errorf("bad player slot in path %q", path)
		}
		ps := &sess.Players[slot]
		switch parts[2] {
		case "name":
			return json.Unmarshal(data, &ps.Name)
		case "pool":
			return json.Unmarshal(data, &ps.Pool)
		case "selections":
			return json.Unmarshal(data, &ps.Selections)
		case "committedCards":
			return json.Unmarshal(data, &ps.CommittedCards)
		case "abilities":
			return json.Unmarshal(data, &ps.Abilities)
		case "cardsSelected":
			return json.Unmarshal(data, &ps.CardsSelected)
		case "ready":
			return json.Unmarshal(data, &ps.Ready)
		default:
			return fmt.Errorf("unknown player field in path %q", path)
		}

	case parts[0] == "requests" && len(parts) == 2:
		var req draft.AbilityRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		if sess.Requests == nil {
			sess.Requests = make(map[string]draft.AbilityRequest)
		}
		sess.Requests[parts[1]] = req
		return nil

	case parts[0] == "requests" && len(parts) == 3 && parts[2] == "status":
		req, ok := sess.Requests[parts[1]]
		if !ok {
			return fmt.Errorf("request %s not found", parts[1])
		}
		if err := json.Unmarshal(data, &req.Status); err != nil {
			return err
		}
		sess.Requests[parts[1]] = req
		return nil

	default:
		return fmt.Errorf("unknown update path %q", path)
	}
}
