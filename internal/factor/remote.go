package factor

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/karvio/emissions-service/internal/units"
)

// Store persists the unit-factor cache between runs.
type Store interface {
	Load() (map[string]float64, error)
	Save(mapping map[string]float64) error
}

// Fetcher retrieves a unit->factor mapping from one configured source URL.
// Sources return either a JSON object of {unit: factor} or two-column CSV.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (map[string]float64, error)
}

type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 20 * time.Second}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrSourceUnavailable
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	text := string(body)
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") || strings.HasPrefix(strings.TrimSpace(text), "{") {
		if mapping := parseJSONSource(text); mapping != nil {
			return mapping, nil
		}
	}
	if mapping := parseCSVSource(text); mapping != nil {
		return mapping, nil
	}
	return nil, ErrUnparseableSource
}

func parseJSONSource(text string) map[string]float64 {
	var raw map[string]json.Number
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}

	mapping := map[string]float64{}
	for key, value := range raw {
		f, err := value.Float64()
		if err != nil {
			continue
		}
		mapping[units.NormalizeKey(key)] = f
	}
	if len(mapping) == 0 {
		return nil
	}
	return mapping
}

func parseCSVSource(text string) map[string]float64 {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	mapping := map[string]float64{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil
		}
		if len(row) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			continue
		}
		mapping[units.NormalizeKey(row[0])] = value
	}
	if len(mapping) == 0 {
		return nil
	}
	return mapping
}

// Refresh fetches every configured source and swaps in the combined mapping as
// one read-merge-write step. The first source to provide a unit wins; a source
// that fails is skipped; with no sources configured, or when every source
// fails, the existing cache is returned unchanged.
func (r *Registry) Refresh(ctx context.Context, fetcher Fetcher, store Store, sources []string) map[string]float64 {
	if len(sources) == 0 {
		return r.UnitFactors()
	}

	combined := map[string]float64{}
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		mapping, err := fetcher.Fetch(ctx, src)
		if err != nil {
			r.log.Warn().Err(err).Str("source", src).Msg("emission factor source skipped")
			continue
		}
		for key, value := range mapping {
			if _, exists := combined[key]; !exists {
				combined[key] = value
			}
		}
	}

	if len(combined) == 0 {
		return r.UnitFactors()
	}

	if store != nil {
		if err := store.Save(combined); err != nil {
			r.log.Warn().Err(err).Msg("failed to persist emission factor cache")
		}
	}
	r.setUnitFactors(combined)
	return r.UnitFactors()
}

// LoadCache seeds the unit-factor cache from the store, tolerating a missing
// or unreadable cache file.
func (r *Registry) LoadCache(store Store) {
	if store == nil {
		return
	}
	mapping, err := store.Load()
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to load emission factor cache")
		return
	}
	if len(mapping) > 0 {
		r.setUnitFactors(mapping)
	}
}
