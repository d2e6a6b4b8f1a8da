// Package api exposes the digest over HTTP.
//
// The router is built on gin. It serves the stored items, the topic and
// article type vocabularies, semantic search, and a trigger for pipeline
// runs. Server wraps the router in an http.Server and can also schedule
// runs on a cron expression.
package api
