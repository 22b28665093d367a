package rocketbot

import (
	"fmt"
)

// Collection carrying room message events on the realtime stream.
const streamRoomMessages = "stream-room-messages"

// InboundMessage is a message received from the realtime stream. Extras
// carries the raw stream record so a reply can recover the room it
// belongs to.
type InboundMessage struct {
	// Body is the message text.
	Body string

	// From identifies the sender.
	From *User

	// To identifies the receiving bot account.
	To *User

	// Extras is the raw message record from the stream event.
	Extras map[string]any
}

// RoomID resolves the room the message was posted in from the raw
// stream record.
func (m *InboundMessage) RoomID() (string, error) {
	rid, ok := m.Extras["rid"].(string)
	if !ok || rid == "" {
		return "", fmt.Errorf("message record has no room id: %w", ErrMalformedRecord)
	}
	return rid, nil
}

// OutboundMessage is a message to deliver to the server. ReplyTo, when
// set, names the inbound message this replies to and supplies the
// target room.
type OutboundMessage struct {
	// Body is the message text.
	Body string

	// To identifies the receiver.
	To *User

	// ReplyTo is the inbound message being replied to, if any.
	ReplyTo *InboundMessage
}

// CardField is a titled value rendered inside a card attachment.
type CardField struct {
	Title string
	Value string
}

// Card is a rich message rendered as a structured attachment. Parent
// supplies the room the card is posted to. Empty fields are omitted
// from the attachment block.
type Card struct {
	// Parent is the inbound message the card responds to.
	Parent *InboundMessage

	// Body is the plain message text accompanying the attachment.
	Body string

	// Title is the attachment title.
	Title string

	// Link turns the title into a hyperlink.
	Link string

	// Summary is the attachment body text.
	Summary string

	// Color is the attachment accent color.
	Color string

	// Image is an image URL shown in the attachment.
	Image string

	// Thumbnail is a thumbnail URL shown in the attachment.
	Thumbnail string

	// Fields are titled values rendered in the attachment.
	Fields []CardField
}

// attachment builds the structured attachment block, including each
// element only when non-empty.
func (c *Card) attachment() map[string]any {
	att := make(map[string]any)

	if c.Color != "" {
		att["color"] = c.Color
	}
	if c.Title != "" {
		att["title"] = c.Title
	}
	if c.Link != "" {
		att["title_link"] = c.Link
	}
	if c.Summary != "" {
		att["text"] = c.Summary
	}
	if c.Image != "" {
		att["image_url"] = c.Image
	}
	if c.Thumbnail != "" {
		att["thumb_url"] = c.Thumbnail
	}
	if len(c.Fields) > 0 {
		fields := make([]map[string]any, 0, len(c.Fields))
		for _, f := range c.Fields {
			fields = append(fields, map[string]any{
				"title": f.Title,
				"value": f.Value,
			})
		}
		att["fields"] = fields
	}

	return att
}
