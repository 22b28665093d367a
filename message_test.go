package rocketbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundMessageRoomID(t *testing.T) {
	t.Run("resolves from the raw record", func(t *testing.T) {
		msg := &InboundMessage{Extras: map[string]any{"rid": "R1"}}

		rid, err := msg.RoomID()
		require.NoError(t, err)
		assert.Equal(t, "R1", rid)
	})

	t.Run("missing room id", func(t *testing.T) {
		for _, extras := range []map[string]any{
			nil,
			{},
			{"rid": ""},
			{"rid": 42},
		} {
			msg := &InboundMessage{Extras: extras}
			_, err := msg.RoomID()
			assert.ErrorIs(t, err, ErrMalformedRecord)
		}
	})
}

func TestCardAttachment(t *testing.T) {
	t.Run("all fields set", func(t *testing.T) {
		card := &Card{
			Body:      "body",
			Title:     "Deploy",
			Link:      "https://example.com",
			Summary:   "went fine",
			Color:     "#00ff00",
			Image:     "https://example.com/img.png",
			Thumbnail: "https://example.com/thumb.png",
			Fields: []CardField{
				{Title: "env", Value: "prod"},
				{Title: "took", Value: "2m"},
			},
		}

		att := card.attachment()

		assert.Equal(t, "Deploy", att["title"])
		assert.Equal(t, "https://example.com", att["title_link"])
		assert.Equal(t, "went fine", att["text"])
		assert.Equal(t, "#00ff00", att["color"])
		assert.Equal(t, "https://example.com/img.png", att["image_url"])
		assert.Equal(t, "https://example.com/thumb.png", att["thumb_url"])

		fields, ok := att["fields"].([]map[string]any)
		require.True(t, ok)
		require.Len(t, fields, 2)
		assert.Equal(t, "env", fields[0]["title"])
		assert.Equal(t, "prod", fields[0]["value"])
	})

	t.Run("empty fields are omitted", func(t *testing.T) {
		card := &Card{Body: "body", Title: "Deploy"}

		att := card.attachment()

		assert.Equal(t, map[string]any{"title": "Deploy"}, att)
	})

	t.Run("fully empty card yields an empty block", func(t *testing.T) {
		att := (&Card{}).attachment()
		assert.Empty(t, att)
	})
}
