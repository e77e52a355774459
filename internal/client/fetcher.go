package client

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pmatch/internal/cases"
	"pmatch/internal/metrics"
	"pmatch/pkg/errors"
)

func NewFetcher(casesURL string, fetchInterval time.Duration, updateChannel chan<- *cases.File, m *metrics.Metrics) *Fetcher {
	return &Fetcher{
		url:           casesURL,
		fetchInterval: fetchInterval,
		updateChannel: updateChannel,
		metrics:       m,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Start fetches immediately, then every fetch interval until ctx is done.
func (f *Fetcher) Start(ctx context.Context) {
	log.Info().Msgf("Starting case fetcher, url: %s, interval: %v", f.url, f.fetchInterval)

	ticker := time.NewTicker(f.fetchInterval)
	defer ticker.Stop()

	for {
		f.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *Fetcher) poll(ctx context.Context) {
	file, changed, err := f.Fetch(ctx)
	if err != nil {
		kind := metrics.ErrorTypeCasesFetch
		if errors.IsErrorCode(err, errors.ErrCasesLoad) {
			kind = metrics.ErrorTypeCasesLoad
		}
		f.metrics.ErrorsTotal.WithLabelValues(kind, "cases_upstream").Inc()
		log.Err(err).Str("url", f.url).Msg("Error fetching cases")
		return
	}
	if !changed {
		log.Debug().Str("url", f.url).Msg("case set not modified")
		return
	}

	log.Info().Msgf("Fetched %d cases from %s", len(file.Cases), f.url)
	select {
	case f.updateChannel <- file:
	case <-ctx.Done():
	}
}

// Fetch downloads the case file. changed is false when the server answered
// 304 for the last version seen.
func (f *Fetcher) Fetch(ctx context.Context) (*cases.File, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrInvalidInput, "building request")
	}
	if f.etag != "" {
		req.Header.Set("If-None-Match", f.etag)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrInternal, "request failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return nil, false, nil
	default:
		return nil, false, errors.Newf(errors.ErrInternal, "unexpected status code %d", resp.StatusCode).
			WithDetail("status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrInternal, "reading body")
	}
	file, err := cases.Parse(data, formatOf(resp.Header.Get("Content-Type"), f.url))
	if err != nil {
		return nil, false, err
	}
	f.etag = resp.Header.Get("ETag")
	return file, true, nil
}

// formatOf reads the format from the content type, falling back to the
// URL path extension and then JSON.
func formatOf(contentType, rawURL string) cases.Format {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.Contains(mt, "yaml"):
			return cases.FormatYAML
		case strings.Contains(mt, "toml"):
			return cases.FormatTOML
		case strings.HasSuffix(mt, "json"):
			return cases.FormatJSON
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		switch p := strings.ToLower(u.Path); {
		case strings.HasSuffix(p, ".yaml"), strings.HasSuffix(p, ".yml"):
			return cases.FormatYAML
		case strings.HasSuffix(p, ".toml"):
			return cases.FormatTOML
		}
	}
	return cases.FormatJSON
}
