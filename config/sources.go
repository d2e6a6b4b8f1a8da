package config

import (
	"fmt"
	"os"

	"github.com/poiesic/newsdigest/collector/mailbox"
	"github.com/poiesic/newsdigest/collector/rss"
	"gopkg.in/yaml.v3"
)

// Sources lists the feeds and newsletter senders to collect from.
type Sources struct {
	Feeds   []rss.FeedConfig `yaml:"feeds"`
	Senders []mailbox.Sender `yaml:"senders"`
}

// DefaultFeeds are the feeds collected when no sources file is given.
var DefaultFeeds = []rss.FeedConfig{
	{Name: "LangChain Blog", URL: "https://blog.langchain.dev/rss/"},
	{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss.xml"},
	{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/"},
	{Name: "Lenny's Newsletter", URL: "https://www.lennysnewsletter.com/feed"},
	{Name: "Hugo Bowne-Anderson", URL: "https://hugobowne.substack.com/feed"},
	{Name: "Decoding AI", URL: "https://www.decodingai.com/feed"},
	{Name: "Ben's Bites", URL: "https://www.bensbites.com/feed"},
	{Name: "One Useful Thing", URL: "https://www.oneusefulthing.org/feed"},
}

// DefaultSenders are the newsletter senders collected when no sources file is given.
var DefaultSenders = []mailbox.Sender{
	{Name: "TLDR AI", Email: "dan@tldrnewsletter.com"},
	{Name: "The Batch", Email: "thebatch@deeplearning.ai"},
}

// DefaultSources returns copies of DefaultFeeds and DefaultSenders.
func DefaultSources() *Sources {
	return &Sources{
		Feeds:   append([]rss.FeedConfig(nil), DefaultFeeds...),
		Senders: append([]mailbox.Sender(nil), DefaultSenders...),
	}
}

// LoadSources reads a YAML sources file. An empty path returns the defaults.
// A section missing from the file falls back to its default list.
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var parsed struct {
		Feeds   *[]rss.FeedConfig `yaml:"feeds"`
		Senders *[]mailbox.Sender `yaml:"senders"`
	}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}

	sources := DefaultSources()
	if parsed.Feeds != nil {
		sources.Feeds = *parsed.Feeds
	}
	if parsed.Senders != nil {
		sources.Senders = *parsed.Senders
	}
	if err := sources.Validate(); err != nil {
		return nil, fmt.Errorf("sources file %s: %w", path, err)
	}
	return sources, nil
}

// Validate checks that every feed has a URL and every sender an address.
func (s *Sources) Validate() error {
	for i, f := range s.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feed %d (%q): url is required", i, f.Name)
		}
	}
	for i, sender := range s.Senders {
		if sender.Email == "" {
			return fmt.Errorf("sender %d (%q): email is required", i, sender.Name)
		}
	}
	return nil
}
