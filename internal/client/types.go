package client

import (
	"net/http"
	"time"

	"pmatch/internal/cases"
	"pmatch/internal/metrics"
)

// Fetcher polls a URL serving a case file and pushes every new version to
// updateChannel.
type Fetcher struct {
	url           string
	fetchInterval time.Duration
	updateChannel chan<- *cases.File
	httpClient    *http.Client
	metrics       *metrics.Metrics
	etag          string // validator of the last version pushed
}
