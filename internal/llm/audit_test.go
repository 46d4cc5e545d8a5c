package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/stretchr/testify/require"
)

var errAPIDown = errors.New("provider unavailable")

type fakeProvider struct {
	resp Response
	err  error
}

func (f *fakeProvider) Complete(ctx context.Context, req Request) (Response, error) {
	return f.resp, f.err
}

type fakeRecorder struct {
	entries []domain.AIAuditEntry
}

func (f *fakeRecorder) InsertAuditEntry(ctx context.Context, entry domain.AIAuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func TestAuditedProviderRecordsCall(t *testing.T) {
	inner := &fakeProvider{resp: Response{Text: "classified", ModelUsed: "llama3", RawPayload: "{}"}}
	rec := &fakeRecorder{}
	audited := NewAuditedProvider(inner, rec, 42, domain.StageClassify, "classify_v1")

	resp, err := audited.CompleteFor(context.Background(), Request{System: "s", User: "u"}, "acme.com")
	require.NoError(t, err)
	require.Equal(t, "classified", resp.Text)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	require.Equal(t, int64(42), entry.PipelineRunID)
	require.Equal(t, domain.StageClassify, entry.Stage)
	require.Equal(t, "acme.com", entry.SenderDomain)
	require.Equal(t, "classify_v1", entry.PromptTemplateID)
	require.Equal(t, "llama3", entry.ModelUsed)
}

func TestAuditedProviderRecordsFailedCalls(t *testing.T) {
	inner := &fakeProvider{err: errAPIDown}
	rec := &fakeRecorder{}
	audited := NewAuditedProvider(inner, rec, 7, domain.StageEngage, "engage_v1")

	_, err := audited.CompleteFor(context.Background(), Request{System: "s", User: "u"}, "acme.com")
	require.ErrorIs(t, err, errAPIDown)
	require.Len(t, rec.entries, 1)
}
