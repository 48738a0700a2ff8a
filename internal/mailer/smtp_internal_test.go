package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMsg(t *testing.T) {
	t.Run("accepts apostrophes in the local part", func(t *testing.T) {
		msg, err := buildMsg(&Message{
			From:      "o'brien@example.com",
			ReplyTo:   "o'brien@example.com",
			To:        "alice@mail.com",
			Subject:   "Answer to your question in English from Ireland",
			Body:      "Name: O'Brien",
			Reference: "ref-1",
		})

		require.NoError(t, err)
		require.Len(t, msg.GetFromString(), 1)
		assert.Contains(t, msg.GetFromString()[0], "o'brien@example.com")
		assert.Equal(t, []string{"ref-1"}, msg.GetGenHeader(referenceHeader))
	})

	t.Run("rejects html-escaped addresses", func(t *testing.T) {
		_, err := buildMsg(&Message{
			From:    "o&#39;brien@example.com",
			ReplyTo: "o&#39;brien@example.com",
			To:      "alice@mail.com",
		})

		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}
