package discord

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"giveaway-bot/internal/features/giveaway/service"
)

// Gateway implements the messaging gateway on top of a discordgo session.
// Platform REST errors are mapped to the two soft-failure sentinels the
// services understand.
type Gateway struct {
	session *discordgo.Session
}

var _ service.MessagingGateway = (*Gateway)(nil)

func NewGateway(session *discordgo.Session) *Gateway {
	return &Gateway{session: session}
}

func (g *Gateway) SendMessage(ctx context.Context, channelID, content string) (service.MessageRef, error) {
	msg, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return service.MessageRef{}, mapError(err)
	}
	return service.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

func (g *Gateway) FetchMessage(ctx context.Context, channelID, messageID string) (service.MessageRef, error) {
	msg, err := g.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return service.MessageRef{}, mapError(err)
	}
	return service.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

func (g *Gateway) EditMessage(ctx context.Context, ref service.MessageRef, content string) error {
	_, err := g.session.ChannelMessageEdit(ref.ChannelID, ref.MessageID, content, discordgo.WithContext(ctx))
	return mapError(err)
}

func (g *Gateway) DeleteMessage(ctx context.Context, ref service.MessageRef) error {
	return mapError(g.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx)))
}

func (g *Gateway) ReplyTo(ctx context.Context, ref service.MessageRef, content string) (service.MessageRef, error) {
	msg, err := g.session.ChannelMessageSendReply(ref.ChannelID, content, &discordgo.MessageReference{
		ChannelID: ref.ChannelID,
		MessageID: ref.MessageID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return service.MessageRef{}, mapError(err)
	}
	return service.MessageRef{ChannelID: ref.ChannelID, MessageID: msg.ID}, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeUnknownMessage:
				return service.ErrMessageNotFound
			case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
				return service.ErrChannelUnavailable
			}
		}
		if restErr.Response != nil {
			switch restErr.Response.StatusCode {
			case http.StatusNotFound:
				return service.ErrMessageNotFound
			case http.StatusForbidden:
				return service.ErrChannelUnavailable
			}
		}
	}
	return err
}
