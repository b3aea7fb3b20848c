// Package api hosts the HTTP server, middleware, and handlers for the event
// scraper. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /api/scrape-event to scrape one event page.
package api
