package app

import (
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/core"
	"github.com/owndc/owndc/internal/domain"
)

// Messaging fan-out: a message is broadcast only after the store has durably
// recorded it. A storage failure emits nothing and is surfaced to the
// originating connection only.

func (c *Coordinator) JoinChannel(id domain.UserID, channel domain.ChannelID) {
	c.topics.Subscribe(id, core.ChannelTopic(channel))
}

func (c *Coordinator) LeaveChannel(id domain.UserID, channel domain.ChannelID) {
	c.topics.Unsubscribe(id, core.ChannelTopic(channel))
}

func (c *Coordinator) JoinGroup(id domain.UserID, group domain.GroupID) {
	c.topics.Subscribe(id, core.GroupTopic(group))
}

// Typing tells the channel's other subscribers that the sender is composing.
// Nothing is persisted and the sender is excluded from the fan-out.
func (c *Coordinator) Typing(sender domain.UserID, channel domain.ChannelID) {
	u, err := c.store.UserByID(sender)
	if err != nil {
		log.Debug().Err(err).Str("module", "app.chat").Str("user", string(sender)).Msg("typing from unknown user")
		return
	}
	ev := typingEvent{Type: EvUserTyping, Username: u.Username, ChannelID: channel}
	for _, id := range c.topics.Subscribers(core.ChannelTopic(channel)) {
		if id == sender {
			continue
		}
		c.sendTo(id, ev)
	}
}

func (c *Coordinator) SendChannelMessage(sender domain.UserID, channel domain.ChannelID, content string) error {
	msg, err := c.store.SaveChannelMessage(channel, sender, content)
	if err != nil {
		log.Error().Err(err).Str("module", "app.chat").Str("channel", string(channel)).Msg("persist channel message")
		return err
	}
	c.publish(core.ChannelTopic(channel), messageEvent{Type: EvNewMessage, Message: msg})
	return nil
}

func (c *Coordinator) SendGroupMessage(sender domain.UserID, group domain.GroupID, content string) error {
	msg, err := c.store.SaveGroupMessage(group, sender, content)
	if err != nil {
		log.Error().Err(err).Str("module", "app.chat").Str("group", string(group)).Msg("persist group message")
		return err
	}
	c.publish(core.GroupTopic(group), messageEvent{Type: EvNewGroupMessage, Message: msg})
	return nil
}

// SendDirectMessage delivers to both participants' individual connections.
// The sender is included so its UI updates from the same event path as the
// receiver's; an offline receiver just misses the event.
func (c *Coordinator) SendDirectMessage(sender, receiver domain.UserID, content string) error {
	msg, err := c.store.SaveDirectMessage(sender, receiver, content)
	if err != nil {
		log.Error().Err(err).Str("module", "app.chat").Str("receiver", string(receiver)).Msg("persist dm")
		return err
	}
	ev := messageEvent{Type: EvNewDM, Message: msg}
	c.sendTo(receiver, ev)
	if receiver != sender {
		c.sendTo(sender, ev)
	}
	return nil
}

func (c *Coordinator) publish(topic core.Topic, v any) {
	for _, id := range c.topics.Subscribers(topic) {
		c.sendTo(id, v)
	}
}
