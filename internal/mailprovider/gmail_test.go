package mailprovider

import (
	"encoding/base64"
	"testing"

	"google.golang.org/api/gmail/v1"

	"github.com/stretchr/testify/require"
)

func encodeNoPad(s string) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(s))
}

func TestConvertMessageExtractsHeadersAndBody(t *testing.T) {
	htmlBody := encodeNoPad("<p>hello</p>")
	gm := &gmail.Message{
		Id:           "m1",
		ThreadId:     "t1",
		LabelIds:     []string{"INBOX"},
		InternalDate: "1700000000000",
		SizeEstimate: 1024,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Acme Sales <sales@acme.com>"},
				{Name: "To", Value: "me@example.com"},
				{Name: "Subject", Value: "Big offer inside"},
			},
			MimeType: "text/html",
			Body:     &gmail.MessagePartBody{Data: htmlBody},
		},
	}

	msg := convertMessage(gm)
	require.Equal(t, "m1", msg.MessageID)
	require.Equal(t, "t1", msg.ThreadID)
	require.Equal(t, "sales@acme.com", msg.From.Email)
	require.Equal(t, "Acme Sales", msg.From.Name)
	require.Equal(t, "Big offer inside", msg.Subject)
	require.Equal(t, "<p>hello</p>", msg.HTMLBody)
	require.Len(t, msg.To, 1)
	require.Equal(t, "me@example.com", msg.To[0].Email)
	require.False(t, msg.IsSentByUser)
}

func TestConvertMessageMarksSentLabel(t *testing.T) {
	gm := &gmail.Message{
		Id:       "m2",
		LabelIds: []string{"SENT"},
		Payload:  &gmail.MessagePart{},
	}
	msg := convertMessage(gm)
	require.True(t, msg.IsSentByUser)
}

func TestExtractBodiesWalksMultipart(t *testing.T) {
	textData := encodeNoPad("plain text")
	htmlData := encodeNoPad("<b>html</b>")
	part := &gmail.MessagePart{
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: textData}},
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: htmlData}},
		},
	}
	html, text := extractBodies(part)
	require.Equal(t, "<b>html</b>", html)
	require.Equal(t, "plain text", text)
}
