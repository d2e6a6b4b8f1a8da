// Package pipeline implements the news digest run: collection from many
// sources, deduplication, enrichment through a text generation service,
// transactional persistence and payload publication.
//
// # Stages
//
// Each run threads a State through the stages in a fixed order:
//
//	collect -> deduplicate -> enrich -> persist -> publish -> sinks
//
// Collectors run concurrently and their outputs are merged with
// MergeCollected once all of them have returned. Enrichment runs on an
// ants worker pool bounded by the configured concurrency; an item that
// fails is counted and dropped without affecting the others.
//
// # Failure model
//
// Collection errors are recorded in the payload and never fail a run.
// Per-item enrichment and persistence failures are counted. A run fails
// when every item fails to reach the generation or embedding service
// (ErrGenerationUnavailable, ErrEmbeddingUnavailable), or when a persistence
// transaction fails to commit. The failure and the counts reached so far
// are recorded on the run record with FailRun.
//
// # Usage
//
//	enricher, _ := pipeline.NewEnricher(provider.Generator(), provider.Embedder())
//	persister, _ := pipeline.NewPersister(store, logger)
//	orch, _ := pipeline.NewOrchestrator(collectors, enricher, persister,
//		pipeline.WithGenerateEmbeddings(true))
//	result, err := orch.Run(ctx, pipeline.RunOptions{BackfillDays: 1})
package pipeline
