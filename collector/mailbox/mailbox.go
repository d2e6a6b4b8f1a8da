package mailbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/newsdigest/collector"
	"github.com/poiesic/newsdigest/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	userID              = "me"
	defaultMaxPerSender = 50
	// ErrorKindRequest marks a sender whose messages could not be listed.
	ErrorKindRequest = "request"
)

// ErrCredentialsRequired is returned when OAuth credentials are incomplete.
var ErrCredentialsRequired = errors.New("gmail client id, secret and refresh token required")

// Sender is a newsletter address to collect from.
type Sender struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Credentials authorize read-only access to a Gmail mailbox.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Collector gathers newsletter messages from configured senders.
type Collector struct {
	service      *gmail.Service
	senders      []Sender
	maxPerSender int64
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithMaxPerSender caps the number of messages fetched per sender.
func WithMaxPerSender(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxPerSender = int64(n)
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the clock used for error timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// New authorizes against Gmail with a refresh token and creates a collector.
func New(ctx context.Context, creds Credentials, senders []Sender, opts ...Option) (*Collector, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.RefreshToken == "" {
		return nil, ErrCredentialsRequired
	}
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	client := conf.Client(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}
	return NewWithService(service, senders, opts...), nil
}

// NewWithService creates a collector over an existing Gmail service.
func NewWithService(service *gmail.Service, senders []Sender, opts ...Option) *Collector {
	c := &Collector{
		service:      service,
		senders:      senders,
		maxPerSender: defaultMaxPerSender,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("collector", c.Name())
	return c
}

// Name identifies the collector.
func (c *Collector) Name() string { return "mailbox" }

// Collect returns messages from each sender received at or after cutoff.
// A sender whose messages cannot be listed yields one CollectionError;
// a single message that cannot be fetched is logged and skipped.
func (c *Collector) Collect(ctx context.Context, cutoff time.Time) ([]*core.RawItem, []core.CollectionError) {
	c.logger.Info("starting mailbox collection", "senders", len(c.senders), "cutoff", cutoff)

	var (
		items []*core.RawItem
		errs  []core.CollectionError
	)
	for _, sender := range c.senders {
		got, err := c.collectSender(ctx, sender, cutoff)
		if err != nil {
			c.logger.Error("failed to collect sender", "sender", sender.Email, "err", err)
			errs = append(errs, core.CollectionError{
				SourceType: core.SourceTypeMailbox,
				SourceID:   sender.Email,
				ErrorKind:  ErrorKindRequest,
				Message:    err.Error(),
				Timestamp:  c.now(),
			})
			continue
		}
		items = append(items, got...)
	}

	c.logger.Info("mailbox collection complete", "items", len(items), "errors", len(errs))
	return items, errs
}

func (c *Collector) collectSender(ctx context.Context, sender Sender, cutoff time.Time) ([]*core.RawItem, error) {
	log := c.logger.With("sender", sender.Email)
	query := fmt.Sprintf("from:%s after:%d", sender.Email, cutoff.Unix())

	list, err := c.service.Users.Messages.List(userID).Q(query).MaxResults(c.maxPerSender).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	items := make([]*core.RawItem, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.service.Users.Messages.Get(userID, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			log.Warn("failed to fetch message", "message_id", ref.Id, "err", err)
			continue
		}

		received := time.UnixMilli(msg.InternalDate).UTC()
		if received.Before(cutoff) {
			continue
		}
		content := messageText(msg.Payload)
		if content == "" {
			content = collector.HTMLToText(msg.Snippet)
		}
		if content == "" {
			log.Debug("skipping message with no content", "message_id", msg.Id)
			continue
		}

		subject := header(msg.Payload, "Subject")
		items = append(items, &core.RawItem{
			SourceType:  core.SourceTypeMailbox,
			SourceID:    sender.Email,
			ItemID:      core.ItemID("", subject, content),
			Title:       subject,
			Content:     content,
			Author:      sender.Name,
			PublishedAt: received,
			RawMetadata: core.Metadata{
				"sender_name": sender.Name,
				"from":        header(msg.Payload, "From"),
				"message_id":  msg.Id,
				"thread_id":   msg.ThreadId,
			},
		})
	}

	log.Info("sender processed", "items", len(items))
	return items, nil
}

// messageText prefers the HTML body, flattened, over the plain text body.
func messageText(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if html := findBody(part, "text/html"); html != "" {
		return collector.HTMLToText(html)
	}
	return collector.HTMLToText(findBody(part, "text/plain"))
}

func findBody(part *gmail.MessagePart, mimeType string) string {
	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, child := range part.Parts {
		if body := findBody(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody decodes Gmail's URL-safe base64, padded or not.
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

func header(part *gmail.MessagePart, name string) string {
	if part == nil {
		return ""
	}
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
