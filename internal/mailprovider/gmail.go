package mailprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hoyack/gemsieve/internal/domain"
)

// GmailProvider adapts Gmail's REST API to the Provider contract, using
// the google.golang.org/api client the way a Gmail-mining tool in the
// ecosystem does (daviddao/mailbeads): OAuth2 token on disk, no service
// account, one mailbox per run.
type GmailProvider struct {
	svc        *gmail.Service
	userID     string
	extraQuery string
}

// SetQuery narrows every subsequent ListMessages call to Gmail search
// results also matching q, ANDed with the provider's own date-range query
// (§6.1 "ingest --query"). HistoryDelta results are not filtered by q.
// Callers that don't need this
// (the pipeline's own scheduled runs) never call it, so the zero value
// behaves exactly as before.
func (g *GmailProvider) SetQuery(q string) {
	g.extraQuery = q
}

// NewGmailProvider builds a Gmail client from a downloaded OAuth client
// secret and a previously stored user token (§6.4).
func NewGmailProvider(ctx context.Context, credentialsFile, tokenFile, userID string) (*GmailProvider, error) {
	clientCfg, err := loadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("mailprovider: load credentials: %w", err)
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("mailprovider: load token: %w", err)
	}

	httpClient := clientCfg.Client(ctx, tok)
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("mailprovider: build gmail service: %w", err)
	}

	if userID == "" {
		userID = "me"
	}
	return &GmailProvider{svc: svc, userID: userID}, nil
}

func loadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, err
	}
	return google.ConfigFromJSON(data, gmail.GmailReadonlyScope)
}

func loadToken(tokenFile string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// ListMessages pages through messages.list since the given time and
// hydrates each full message (§4.2 "Historical backfill").
func (g *GmailProvider) ListMessages(ctx context.Context, since time.Time) ([]domain.Message, error) {
	query := fmt.Sprintf("after:%d", since.Unix())
	if g.extraQuery != "" {
		query = g.extraQuery + " " + query
	}
	var out []domain.Message

	pageToken := ""
	for {
		call := g.svc.Users.Messages.List(g.userID).Q(query).MaxResults(100).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("mailprovider: list messages: %w", err)
		}

		for _, ref := range resp.Messages {
			msg, err := g.fetchMessage(ctx, ref.Id)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return out, nil
}

// HistoryDelta uses Gmail's history.list API to fetch only what changed
// since historyID (§4.2 "Incremental sync"). A 404 from Gmail means the
// history cursor has expired past Gmail's retention window, and the
// caller must fall back to a full ListMessages backfill.
func (g *GmailProvider) HistoryDelta(ctx context.Context, historyID string) (HistoryDelta, error) {
	startID, err := strconv.ParseUint(historyID, 10, 64)
	if err != nil {
		return HistoryDelta{}, fmt.Errorf("mailprovider: invalid history id %q: %w", historyID, err)
	}

	var delta HistoryDelta
	pageToken := ""
	latestHistoryID := startID

	for {
		call := g.svc.Users.History.List(g.userID).StartHistoryId(startID).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			if isNotFound(err) {
				return HistoryDelta{HistoryExpired: true}, nil
			}
			return HistoryDelta{}, fmt.Errorf("mailprovider: list history: %w", err)
		}

		if resp.HistoryId > latestHistoryID {
			latestHistoryID = resp.HistoryId
		}

		seen := make(map[string]bool)
		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message == nil || seen[added.Message.Id] {
					continue
				}
				seen[added.Message.Id] = true
				msg, err := g.fetchMessage(ctx, added.Message.Id)
				if err != nil {
					return HistoryDelta{}, err
				}
				delta.Messages = append(delta.Messages, msg)
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	delta.NewHistoryID = strconv.FormatUint(latestHistoryID, 10)
	return delta, nil
}

func (g *GmailProvider) fetchMessage(ctx context.Context, id string) (domain.Message, error) {
	full, err := g.svc.Users.Messages.Get(g.userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return domain.Message{}, fmt.Errorf("mailprovider: get message %s: %w", id, err)
	}
	return convertMessage(full), nil
}

func convertMessage(m *gmail.Message) domain.Message {
	headers := make(map[string]string, len(m.Payload.Headers))
	for _, h := range m.Payload.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}

	msg := domain.Message{
		MessageID:  m.Id,
		ThreadID:   m.ThreadId,
		RawHeaders: headers,
		Labels:     m.LabelIds,
		SizeBytes:  m.SizeEstimate,
		Subject:    headers["subject"],
		ReplyTo:    headers["reply-to"],
	}

	if addr, err := mail.ParseAddress(headers["from"]); err == nil {
		msg.From = domain.Address{Name: addr.Name, Email: addr.Address}
	} else {
		msg.From = domain.Address{Email: headers["from"]}
	}
	msg.To = parseAddressList(headers["to"])
	msg.CC = parseAddressList(headers["cc"])

	if ms, err := strconv.ParseInt(m.InternalDate, 10, 64); err == nil {
		msg.Date = time.UnixMilli(ms).UTC()
	} else if d, err := mail.ParseDate(headers["date"]); err == nil {
		msg.Date = d.UTC()
	}

	msg.HTMLBody, msg.TextBody = extractBodies(m.Payload)
	msg.IsSentByUser = containsLabel(m.LabelIds, "SENT")

	return msg
}

func parseAddressList(raw string) []domain.Address {
	if raw == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(raw)
	if err != nil {
		return []domain.Address{{Email: raw}}
	}
	out := make([]domain.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, domain.Address{Name: a.Name, Email: a.Address})
	}
	return out
}

func containsLabel(labels []string, target string) bool {
	for _, l := range labels {
		if l == target {
			return true
		}
	}
	return false
}

// extractBodies walks the MIME part tree for the first text/html and
// text/plain parts, the shape of virtually every mail client's rendering
// (§4.2, §4.4 "html_body/text_body").
func extractBodies(part *gmail.MessagePart) (html, text string) {
	if part == nil {
		return "", ""
	}
	if part.Body != nil && part.Body.Data != "" {
		decoded := decodeBase64URL(part.Body.Data)
		switch part.MimeType {
		case "text/html":
			return decoded, text
		case "text/plain":
			return html, decoded
		}
	}
	for _, child := range part.Parts {
		h, t := extractBodies(child)
		if html == "" {
			html = h
		}
		if text == "" {
			text = t
		}
	}
	return html, text
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "404")
}
