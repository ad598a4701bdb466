package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

// RegisterTools adds all moderator tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(createSessionTool(), handleCreateSession)
	s.AddTool(getSessionTool(), handleGetSession)
	s.AddTool(listRequestsTool(), handleListRequests)
	s.AddTool(resolveRequestTool(), handleResolveRequest)
	s.AddTool(revokeAbilityTool(), handleRevokeAbility)
	s.AddTool(addAbilityTool(), handleAddAbility)
}

// --- Tool definitions ---

func createSessionTool() mcp.Tool {
	return mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session on the relay. Returns the session document including its id. "+
			"Players join with `draftsync-cli allocate --session <id> --slot N` in their own terminals."),
		mcp.WithNumber("rounds", mcp.Required(), mcp.Description("Number of rounds, i.e. final hand size for each player")),
		mcp.WithString("session_id", mcp.Description("Preset session id for tournament play; omit to generate one")),
		mcp.WithString("player1_name", mcp.Description("Display name for player 1")),
		mcp.WithString("player2_name", mcp.Description("Display name for player 2")),
		mcp.WithString("player1_abilities", mcp.Description("Newline-separated ability texts for player 1")),
		mcp.WithString("player2_abilities", mcp.Description("Newline-separated ability texts for player 2")),
	)
}

func getSessionTool() mcp.Tool {
	return mcp.NewTool("get_session",
		mcp.WithDescription("Get the full session document: both players' pools, selections, committed hands, abilities, and ability requests. Read-only."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
}

func listRequestsTool() mcp.Tool {
	return mcp.NewTool("list_requests",
		mcp.WithDescription("List pending ability requests awaiting a moderator decision, oldest first."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
}

func resolveRequestTool() mcp.Tool {
	return mcp.NewTool("resolve_request",
		mcp.WithDescription("Approve or reject a pending ability request. Approval lets the player's optimistic used-mark stand; rejection makes their client roll it back."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("request_id", mcp.Required(), mcp.Description("Request id from list_requests")),
		mcp.WithBoolean("approve", mcp.Required(), mcp.Description("true to approve, false to reject")),
	)
}

func revokeAbilityTool() mcp.Tool {
	return mcp.NewTool("revoke_ability",
		mcp.WithDescription("Clear the used flag on a player's ability so they can use it again. The player's client detects the revocation and reactivates exactly that ability."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithNumber("player_slot", mcp.Required(), mcp.Description("Player slot: 0 or 1")),
		mcp.WithString("ability", mcp.Required(), mcp.Description("Exact ability text to revoke")),
	)
}

func addAbilityTool() mcp.Tool {
	return mcp.NewTool("add_ability",
		mcp.WithDescription("Append a new ability to a player's sheet mid-setup."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithNumber("player_slot", mcp.Required(), mcp.Description("Player slot: 0 or 1")),
		mcp.WithString("ability", mcp.Required(), mcp.Description("Ability text to add")),
	)
}

// --- Tool handlers ---

func handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := storeConn(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Relay unavailable: %v", err), nil
	}

	rounds := request.GetInt("rounds", 0)
	if rounds < 1 {
		return mcp.NewToolResultError("rounds must be >= 1"), nil
	}

	sess := draft.NewSession(draft.SessionOptions{
		ID:               request.GetString("session_id", ""),
		Rounds:           rounds,
		Player1Name:      request.GetString("player1_name", ""),
		Player2Name:      request.GetString("player2_name", ""),
		Player1Abilities: splitLines(request.GetString("player1_abilities", "")),
		Player2Abilities: splitLines(request.GetString("player2_abilities", "")),
	})

	if err := st.Create(ctx, sess); err != nil {
		return mcp.NewToolResultErrorf("Failed to create session: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(sess)), nil
}

func handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := storeConn(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Relay unavailable: %v", err), nil
	}

	sess, err := st.Get(ctx, request.GetString("session_id", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get session: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(sess)), nil
}

func handleListRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := storeConn(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Relay unavailable: %v", err), nil
	}

	sess, err := st.Get(ctx, request.GetString("session_id", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get session: %v", err), nil
	}

	var pending []draft.AbilityRequest
	for _, req := range sess.Requests {
		if req.Status == draft.RequestPending {
			pending = append(pending, req)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Timestamp.Before(pending[j].Timestamp) })

	if len(pending) == 0 {
		return mcp.NewToolResultText("No pending requests."), nil
	}
	return mcp.NewToolResultText(respondJSON(pending)), nil
}

func handleResolveRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := storeConn(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Relay unavailable: %v", err), nil
	}

	sessionID := request.GetString("session_id", "")
	requestID := request.GetString("request_id", "")
	approve := request.GetBool("approve", false)

	sess, err := st.Get(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get session: %v", err), nil
	}
	req, ok := sess.Requests[requestID]
	if !ok {
		return mcp.NewToolResultErrorf("Request %s not found.", requestID), nil
	}
	if req.Status != draft.RequestPending {
		return mcp.NewToolResultErrorf("Request %s is already %s.", requestID, req.Status), nil
	}

	status := draft.RequestRejected
	if approve {
		status = draft.RequestApproved
	}
	if err := st.Update(ctx, sessionID, draft.RequestStatusPath(requestID), status); err != nil {
		return mcp.NewToolResultErrorf("Failed to update request: %v", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Request %s (%q by player %d) %s.", requestID, req.AbilityText, req.PlayerSlot+1, status)), nil
}

func handleRevokeAbility(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := storeConn(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Relay unavailable: %v", err), nil
	}

	sessionID := request.GetString("session_id", "")
	slot := request.GetInt("player_slot", -1)
	ability := request.GetString("ability", "")
	if slot != 0 && slot != 1 {
		return mcp.NewToolResultError("player_slot must be 0 or 1"), nil
	}

	sess, err := st.Get(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get session: %v", err), nil
	}

	abilities := sess.Players[slot].Abilities
	found := false
	for i, a := range abilities {
		if a.Text == ability {
			if !a.Used {
				return mcp.NewToolResultErrorf("Ability %q is not marked used.", ability), nil
			}
			abilities[i].Used = false
			found = true
			break
		}
	}
	if !found {
		return mcp.NewToolResultErrorf("Ability %q not found for player %d.", ability, slot+1), nil
	}

	if err := st.Update(ctx, sessionID, draft.PlayerPath(slot, "abilities"), abilities); err != nil {
		return mcp.NewToolResultErrorf("Failed to update abilities: %v", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Ability %q revoked for player %d; their client will reactivate it.", ability, slot+1)), nil
}

func handleAddAbility(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := storeConn(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Relay unavailable: %v", err), nil
	}

	sessionID := request.GetString("session_id", "")
	slot := request.GetInt("player_slot", -1)
	ability := request.GetString("ability", "")
	if slot != 0 && slot != 1 {
		return mcp.NewToolResultError("player_slot must be 0 or 1"), nil
	}

	rec, ok := draft.NormalizeAbility(ability)
	if !ok {
		return mcp.NewToolResultError("ability text must not be empty"), nil
	}

	sess, err := st.Get(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to get session: %v", err), nil
	}
	for _, a := range sess.Players[slot].Abilities {
		if a.Text == rec.Text {
			return mcp.NewToolResultErrorf("Player %d already has ability %q.", slot+1, rec.Text), nil
		}
	}

	abilities := append(sess.Players[slot].Abilities, rec)
	if err := st.Update(ctx, sessionID, draft.PlayerPath(slot, "abilities"), abilities); err != nil {
		return mcp.NewToolResultErrorf("Failed to update abilities: %v", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Ability %q added for player %d.", rec.Text, slot+1)), nil
}

// --- Helpers ---

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func respondJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("encoding error: %v", err)
	}
	return string(data)
}
