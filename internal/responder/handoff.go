package responder

import (
	"context"
	"log/slog"
)

// handOff transfers the conversation to a human agent via the switchboard.
// If the transfer fails or no agent accepts, it degrades to an
// "agents unavailable" message plus a single support ticket carrying the
// user's message. Only a failure of that final fallback surfaces as an
// error.
//
// This is the direct pass-control protocol; there is no scripted waiting
// sequence or transcript polling. The switchboard notifies agents, and the
// ticket covers the case where nobody is staffed.
func (r *Responder) handOff(ctx context.Context, msg InboundMessage) error {
	transferErr := func() error {
		if err := r.conversations.PassControl(ctx, msg.AppID, msg.ConversationID); err != nil {
			return err
		}
		return r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, msgAgentConnecting)
	}()
	if transferErr == nil {
		return nil
	}

	r.logger.Warn("agent handoff failed, falling back to ticket",
		slog.String("conversation_id", msg.ConversationID),
		slog.String("error", transferErr.Error()))

	if err := r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, msgAgentsUnavailable); err != nil {
		return err
	}
	return r.tickets.CreateTicket(ctx, msg.Text, msg.ConversationID)
}
