package valuation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// ConfigDocument is a reference document embedded in a valuation config;
// Content is persisted to the document store on apply.
type ConfigDocument struct {
	models.Document
	Content string `json:"content"`
}

// Config is the per-ticker valuation policy file: market/macro inputs,
// metric provenance and optional reference documents.
type Config struct {
	Valuation  models.ValuationMeta            `json:"valuation"`
	Provenance map[string]models.ProvenanceRef `json:"provenance,omitempty"`
	Documents  []ConfigDocument                `json:"documents,omitempty"`
}

// ConfigLoader reads TICKER.yaml / TICKER.yml / TICKER.hjson files from a
// base directory and applies them onto period metadata.
type ConfigLoader struct {
	basePath string
}

// NewConfigLoader returns a loader rooted at basePath.
func NewConfigLoader(basePath string) *ConfigLoader {
	return &ConfigLoader{basePath: basePath}
}

var configExtensions = []string{".yaml", ".yml", ".hjson"}

// Load reads the config for a ticker. A missing file is (nil, nil): most
// tickers have no config. A present but unparseable file is an error.
func (l *ConfigLoader) Load(ticker string) (*Config, error) {
	for _, ext := range configExtensions {
		path := filepath.Join(l.basePath, strings.ToUpper(ticker)+ext)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read valuation config: %w", err)
		}
		return decodeConfig(raw, ext)
	}
	return nil, nil
}

// decodeConfig parses YAML or HJSON into a generic tree and then binds it
// through the JSON tags, so both formats share one schema.
func decodeConfig(raw []byte, ext string) (*Config, error) {
	var tree map[string]interface{}
	switch ext {
	case ".hjson":
		if err := hjson.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse hjson valuation config: %w", err)
		}
	default:
		var node map[interface{}]interface{}
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("parse yaml valuation config: %w", err)
		}
		tree = stringifyKeys(node)
	}
	payload, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("rebind valuation config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("decode valuation config: %w", err)
	}
	return &cfg, nil
}

// Apply returns a copy of the period with the config's valuation metadata
// attached, and persists any embedded documents. Document writes are
// idempotent, so re-applying a config is safe.
func (l *ConfigLoader) Apply(ctx context.Context, period models.Period, cfg *Config, store docstore.Store) (models.Period, error) {
	out := period.Clone()
	meta := cfg.Valuation
	if len(cfg.Provenance) > 0 {
		if meta.Provenance == nil {
			meta.Provenance = make(map[string]models.ProvenanceRef, len(cfg.Provenance))
		}
		for name, ref := range cfg.Provenance {
			meta.Provenance[name] = ref
		}
	}
	out.Metadata.Valuation = &meta

	if store == nil {
		return out, nil
	}
	for _, doc := range cfg.Documents {
		if doc.Content == "" {
			continue
		}
		content := []byte(doc.Content)
		if doc.PITHash == "" {
			sum := sha256.Sum256(content)
			doc.PITHash = hex.EncodeToString(sum[:])
		}
		if _, _, err := store.Load(ctx, doc.ID); err == nil {
			continue
		} else if !errors.Is(err, docstore.ErrNotFound) {
			return models.Period{}, fmt.Errorf("check config document %s: %w", doc.ID, err)
		}
		if _, err := store.Save(ctx, doc.Document, content); err != nil {
			return models.Period{}, fmt.Errorf("persist config document %s: %w", doc.ID, err)
		}
	}
	return out, nil
}

func stringifyKeys(in map[interface{}]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[fmt.Sprintf("%v", k)] = stringifyValue(v)
	}
	return out
}

func stringifyValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[interface{}]interface{}:
		return stringifyKeys(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = stringifyValue(item)
		}
		return out
	default:
		return v
	}
}
