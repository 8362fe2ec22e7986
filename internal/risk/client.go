// Package risk consumes the external phishing-risk classifier. Its output is
// advisory metadata attached to a credential record; it never gates
// decryption or authentication, and a scoring failure never blocks a save.
package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/logging"
)

// Assessment is the classifier verdict for one URL.
type Assessment struct {
	URL         string             `json:"url"`
	Prediction  int                `json:"prediction"`
	Probability *float64           `json:"probability"`
	Label       string             `json:"phishing_label"`
	Threshold   float64            `json:"threshold"`
	Factors     map[string]float64 `json:"feature_importance"`
}

// Scorer scores a URL for phishing risk.
type Scorer interface {
	Score(ctx context.Context, url string) (*Assessment, error)
}

// cacheCap bounds the recent-prediction cache, mirroring the classifier's
// own server-side cache.
const cacheCap = 1000

// HTTPScorer calls the classifier's JSON-over-HTTP endpoint and caches
// recent verdicts.
type HTTPScorer struct {
	endpoint string
	client   *http.Client
	log      logging.Logger

	mu    sync.Mutex
	cache map[string]*Assessment
	order []string // insertion order, oldest first
}

func NewHTTPScorer(endpoint string, log logging.Logger) *HTTPScorer {
	return &HTTPScorer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With("component", "risk"),
		cache:    make(map[string]*Assessment),
	}
}

// Score posts the URL to /predict_url and returns the parsed verdict.
func (s *HTTPScorer) Score(ctx context.Context, url string) (*Assessment, error) {
	if a := s.cached(url); a != nil {
		return a, nil
	}

	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/predict_url", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building risk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("risk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("risk service returned status %d", resp.StatusCode)
	}

	var a Assessment
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding risk response: %w", err)
	}

	s.put(url, &a)
	s.log.Debug(ctx, "url scored", "url", url, "label", a.Label)
	return &a, nil
}

func (s *HTTPScorer) cached(url string) *Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[url]
}

func (s *HTTPScorer) put(url string, a *Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cache[url]; !exists {
		s.order = append(s.order, url)
	}
	s.cache[url] = a
	for len(s.order) > cacheCap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
	}
}
