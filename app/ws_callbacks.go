package sockim

import (
	"context"

	"github.com/sockim-chat/sockim/core"
)

// onConnectionOpen subscribes every new connection to its user group, so
// user-addressed events (invitations, removals) reach all of a user's
// devices without an explicit JoinUser command.
func (a *App) onConnectionOpen(ctx context.Context, userID int, connID string) {
	a.registry.Join(core.UserGroup(userID), connID)
}

// onConnectionClose drops the connection from every group it joined.
// Without this a closed connection would keep its chat group memberships
// and leak registry entries.
func (a *App) onConnectionClose(ctx context.Context, userID int, connID string) {
	a.registry.LeaveAll(connID)
}
