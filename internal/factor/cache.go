package factor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/karvio/emissions-service/internal/units"
)

var (
	ErrSourceUnavailable = errors.New("factor source unavailable")
	ErrUnparseableSource = errors.New("factor source returned no usable mapping")
)

// FileStore keeps the unit-factor cache as a JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (map[string]float64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]float64{}, nil
		}
		return nil, err
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	// keys may come from older cache files that predate normalization
	mapping := make(map[string]float64, len(raw))
	for key, value := range raw {
		mapping[units.NormalizeKey(key)] = value
	}
	return mapping, nil
}

func (s *FileStore) Save(mapping map[string]float64) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
