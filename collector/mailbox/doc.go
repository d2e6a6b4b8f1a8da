// Package mailbox collects newsletter issues from a Gmail mailbox.
//
// Messages are listed per configured sender with a Gmail search query
// bounded by the run cutoff, fetched in full and flattened to text. The
// HTML body is preferred over the plain text alternative. Access uses an
// OAuth2 refresh token with the read-only Gmail scope.
package mailbox
