// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



// Package newsdigest wires storage, the AI provider, collectors and sinks
// into a ready-to-run digest pipeline.
package newsdigest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/ai/langchain"
	"github.com/poiesic/newsdigest/collector/mailbox"
	"github.com/poiesic/newsdigest/collector/rss"
	"github.com/poiesic/newsdigest/config"
	"github.com/poiesic/newsdigest/pipeline"
	"github.com/poiesic/newsdigest/reembed"
	"github.com/poiesic/newsdigest/search"
	"github.com/poiesic/newsdigest/sink"
	"github.com/poiesic/newsdigest/storage"
	"github.com/poiesic/newsdigest/storage/badger"
)

// Digest owns the long-lived resources of one process.
type Digest struct {
	settings *config.Settings
	sources  *config.Sources
	store    storage.Store
	provider ai.AIProvider
	sinks    []pipeline.Sink
	closers  []io.Closer
	logger   *slog.Logger

	extraCollectors []pipeline.Collector
	skipDefaults    bool
}

// Option configures a Digest.
type Option func(*digestOptions)

type digestOptions struct {
	store        storage.Store
	provider     ai.AIProvider
	sources      *config.Sources
	sinks        []pipeline.Sink
	collectors   []pipeline.Collector
	skipDefaults bool
	logger       *slog.Logger
}

// WithStore uses an already opened store instead of opening DatabasePath.
func WithStore(store storage.Store) Option {
	return func(o *digestOptions) {
		o.store = store
	}
}

// WithProvider uses the given AI provider instead of building one from
// the settings.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *digestOptions) {
		o.provider = provider
	}
}

// WithSources overrides the sources file.
func WithSources(sources *config.Sources) Option {
	return func(o *digestOptions) {
		o.sources = sources
	}
}

// WithSinks adds sinks on top of the configured ones.
func WithSinks(sinks ...pipeline.Sink) Option {
	return func(o *digestOptions) {
		o.sinks = append(o.sinks, sinks...)
	}
}

// WithCollectors replaces the RSS and mailbox collectors.
func WithCollectors(collectors ...pipeline.Collector) Option {
	return func(o *digestOptions) {
		o.collectors = append(o.collectors, collectors...)
		o.skipDefaults = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *digestOptions) {
		o.logger = logger
	}
}

// Open builds a Digest from settings. The Digest owns every resource it
// holds, including a store or provider passed as an option; Close releases
// them, and a failed Open releases them before returning.
func Open(ctx context.Context, settings *config.Settings, opts ...Option) (_ *Digest, err error) {
	if settings == nil {
		settings = config.Defaults()
	}
	options := &digestOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	d := &Digest{
		settings:        settings,
		store:           options.store,
		provider:        options.provider,
		sources:         options.sources,
		extraCollectors: options.collectors,
		skipDefaults:    options.skipDefaults,
		logger:          options.logger,
	}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if d.sources == nil {
		if d.sources, err = config.LoadSources(settings.SourcesFile); err != nil {
			return nil, err
		}
	}
	if d.store == nil {
		if d.store, err = badger.NewStore(settings.DatabasePath); err != nil {
			return nil, fmt.Errorf("opening store at %s: %w", settings.DatabasePath, err)
		}
	}
	if d.provider == nil {
		if d.provider, err = langchain.NewProvider(settings.AIConfig()); err != nil {
			return nil, fmt.Errorf("creating AI provider: %w", err)
		}
	}
	if err = d.openSinks(ctx); err != nil {
		return nil, err
	}
	d.sinks = append(d.sinks, options.sinks...)

	return d, nil
}

func (d *Digest) openSinks(ctx context.Context) error {
	s := d.settings
	if s.PublishDir != "" {
		d.sinks = append(d.sinks, sink.NewFileSink(s.PublishDir))
	}
	if s.PublishS3Bucket != "" {
		client, err := sink.NewS3Client(ctx, "")
		if err != nil {
			return err
		}
		d.sinks = append(d.sinks, sink.NewS3Sink(client, s.PublishS3Bucket, s.PublishS3Prefix))
	}
	if len(s.KafkaBrokers) > 0 {
		producer, err := sink.NewKafkaProducer(s.KafkaBrokers)
		if err != nil {
			return err
		}
		kafka := sink.NewKafkaSink(producer, s.KafkaTopic)
		d.closers = append(d.closers, kafka)
		d.sinks = append(d.sinks, kafka)
	}
	return nil
}

// Close releases every resource in reverse order of acquisition.
func (d *Digest) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			d.logger.Error("error closing sink", "err", err)
			errs = append(errs, err)
		}
	}
	d.closers = nil

	if d.provider != nil {
		if err := d.provider.Close(); err != nil {
			d.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Error("error closing store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Store returns the item and run store.
func (d *Digest) Store() storage.Store {
	return d.store
}

// Sources returns the configured feeds and newsletter senders.
func (d *Digest) Sources() *config.Sources {
	return d.sources
}

// Sinks returns the payload sinks every successful run delivers to.
func (d *Digest) Sinks() []pipeline.Sink {
	return d.sinks
}

// Collectors builds the collectors for the configured sources. The mailbox
// collector is included only when Gmail credentials and senders are set.
func (d *Digest) Collectors(ctx context.Context) ([]pipeline.Collector, error) {
	if d.skipDefaults {
		return d.extraCollectors, nil
	}

	var collectors []pipeline.Collector
	if len(d.sources.Feeds) > 0 {
		collectors = append(collectors, rss.New(d.sources.Feeds, rss.WithLogger(d.logger)))
	}
	if d.settings.GmailConfigured() && len(d.sources.Senders) > 0 {
		mail, err := mailbox.New(ctx, d.settings.GmailCredentials(), d.sources.Senders, mailbox.WithLogger(d.logger))
		if err != nil {
			return nil, fmt.Errorf("creating mailbox collector: %w", err)
		}
		collectors = append(collectors, mail)
	} else {
		d.logger.Debug("mailbox collector disabled", "gmail_configured", d.settings.GmailConfigured())
	}
	return collectors, nil
}

// NewOrchestrator builds a pipeline orchestrator over the digest's
// collectors, provider, store and sinks. opts are applied last.
func (d *Digest) NewOrchestrator(ctx context.Context, opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	collectors, err := d.Collectors(ctx)
	if err != nil {
		return nil, err
	}

	enricher, err := pipeline.NewEnricher(d.provider.Generator(), d.provider.Embedder(),
		pipeline.WithEnricherLogger(d.logger))
	if err != nil {
		return nil, err
	}
	persister, err := pipeline.NewPersister(d.store, d.logger)
	if err != nil {
		return nil, err
	}

	base := []pipeline.Option{
		pipeline.WithSinks(d.sinks...),
		pipeline.WithMaxConcurrent(d.settings.MaxConcurrent),
		pipeline.WithGenerateEmbeddings(d.settings.GenerateEmbeddings),
		pipeline.WithLogger(d.logger),
	}
	return pipeline.NewOrchestrator(collectors, enricher, persister, append(base, opts...)...)
}

// NewSearcher creates a semantic searcher over stored items.
func (d *Digest) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(d.store, d.provider.Embedder(), append([]search.Option{search.WithLogger(d.logger)}, opts...)...)
}

// NewReembedder creates a reembedder over stored items.
func (d *Digest) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(d.store, d.provider.Embedder(), cfg, progress)
}
