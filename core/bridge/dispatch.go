package bridge

import (
	"fmt"

	"Bt1QPlayer/core/player"
)

// ActionHandler receives OS media controls. *player.Controller implements it.
type ActionHandler interface {
	HandleMediaAction(action player.MediaAction, seekTime float64) error
}

// Route applies a message from a page. Player events and status are only
// accepted from the session's player page.
func Route(client *Client, msg *Message, remote *RemotePlayer, actions ActionHandler) error {
	switch msg.Type {
	case MsgTypeEvent:
		if client.Role != RolePlayer {
			return fmt.Errorf("event from %s client ignored", client.Role)
		}
		var ev EventData
		if err := msg.Decode(&ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		remote.HandleEvent(ev)
		return nil

	case MsgTypeStatus:
		if client.Role != RolePlayer {
			return fmt.Errorf("status from %s client ignored", client.Role)
		}
		var s StatusData
		if err := msg.Decode(&s); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}
		remote.UpdateStatus(s)
		return nil

	case MsgTypeMediaAction:
		var a MediaActionData
		if err := msg.Decode(&a); err != nil {
			return fmt.Errorf("decode media action: %w", err)
		}
		return actions.HandleMediaAction(a.Action, a.SeekTime)

	default:
		return fmt.Errorf("unsupported message type %q", msg.Type)
	}
}
