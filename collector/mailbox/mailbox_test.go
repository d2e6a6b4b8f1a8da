package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/newsdigest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

type fakeGmail struct {
	t        *testing.T
	queries  []string
	messages map[string]*gmail.Message
	bySender map[string][]string
	failFrom string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/gmail/v1/users/me/messages"
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == prefix {
		q := r.URL.Query().Get("q")
		f.queries = append(f.queries, q)
		sender := strings.TrimPrefix(strings.Fields(q)[0], "from:")
		if sender == f.failFrom {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
			return
		}
		resp := &gmail.ListMessagesResponse{}
		for _, id := range f.bySender[sender] {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		json.NewEncoder(w).Encode(resp)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, prefix+"/")
	msg, ok := f.messages[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
		return
	}
	assert.Equal(f.t, "full", r.URL.Query().Get("format"))
	json.NewEncoder(w).Encode(msg)
}

func newTestCollector(t *testing.T, fake *fakeGmail, senders []Sender) *Collector {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	service, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(service, senders, WithClock(func() time.Time { return now }))
}

func message(id, subject string, received time.Time, payload *gmail.MessagePart) *gmail.Message {
	payload.Headers = append(payload.Headers,
		&gmail.MessagePartHeader{Name: "Subject", Value: subject},
		&gmail.MessagePartHeader{Name: "From", Value: "Newsletter <news@example.com>"})
	return &gmail.Message{
		Id:           id,
		ThreadId:     "thread-" + id,
		InternalDate: received.UnixMilli(),
		Payload:      payload,
	}
}

func TestCollect_Messages(t *testing.T) {
	fake := &fakeGmail{
		t: t,
		messages: map[string]*gmail.Message{
			"m1": message("m1", "Weekly AI", now.Add(-time.Hour), &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("plain version")}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>Model <b>launch</b> news</p>")}},
				},
			}),
			"m2": message("m2", "Plain only", now.Add(-2*time.Hour), &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("just text"))},
			}),
			"old": message("old", "Stale", now.AddDate(0, 0, -10), &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encode("stale")},
			}),
		},
		bySender: map[string][]string{
			"news@example.com": {"m1", "m2", "old", "missing"},
		},
	}
	c := newTestCollector(t, fake, []Sender{{Name: "Example News", Email: "news@example.com"}})
	cutoff := now.AddDate(0, 0, -1)

	items, errs := c.Collect(context.Background(), cutoff)
	assert.Empty(t, errs)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, core.SourceTypeMailbox, first.SourceType)
	assert.Equal(t, "news@example.com", first.SourceID)
	assert.Equal(t, "Weekly AI", first.Title)
	assert.Equal(t, "Model launch news", first.Content)
	assert.Equal(t, "Example News", first.Author)
	assert.Equal(t, now.Add(-time.Hour), first.PublishedAt)
	assert.Equal(t, core.ItemID("", "Weekly AI", "Model launch news"), first.ItemID)
	assert.Equal(t, "m1", first.RawMetadata.String("message_id"))
	assert.Equal(t, "Newsletter <news@example.com>", first.RawMetadata.String("from"))
	assert.NoError(t, core.ValidateRawItem(first))

	assert.Equal(t, "just text", items[1].Content)

	require.Len(t, fake.queries, 1)
	assert.Equal(t, "from:news@example.com after:"+strconv.FormatInt(cutoff.Unix(), 10), fake.queries[0])
}

func TestCollect_SenderFailureIsIsolated(t *testing.T) {
	fake := &fakeGmail{
		t: t,
		messages: map[string]*gmail.Message{
			"m1": message("m1", "Hello", now, &gmail.MessagePart{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encode("<div>hello</div>")},
			}),
		},
		bySender: map[string][]string{"good@example.com": {"m1"}},
		failFrom: "bad@example.com",
	}
	c := newTestCollector(t, fake, []Sender{
		{Name: "Bad", Email: "bad@example.com"},
		{Name: "Good", Email: "good@example.com"},
	})

	items, errs := c.Collect(context.Background(), now.Add(-time.Hour))
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0].Content)
	require.Len(t, errs, 1)
	assert.Equal(t, "bad@example.com", errs[0].SourceID)
	assert.Equal(t, core.SourceTypeMailbox, errs[0].SourceType)
	assert.Equal(t, ErrorKindRequest, errs[0].ErrorKind)
	assert.Equal(t, now, errs[0].Timestamp)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Credentials{ClientID: "id"}, nil)
	assert.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, "hi?", decodeBody(base64.URLEncoding.EncodeToString([]byte("hi?"))))
	assert.Equal(t, "hi?", decodeBody(base64.RawURLEncoding.EncodeToString([]byte("hi?"))))
	assert.Equal(t, "", decodeBody("***"))
}
