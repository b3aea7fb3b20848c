// Package crawler defines the fetch contract shared by the scraper: request
// and response types, the transient/fatal error taxonomy, the collaborator
// interfaces, and the polite retrying fetcher that wraps them.
package crawler
