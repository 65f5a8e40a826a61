// Package config loads docdex configuration from a TOML file with
// sensible defaults. Configuration only selects backends and limits;
// it never changes query semantics.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Transport names accepted by the server configuration.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "streamable-http"
)

// Default configuration values.
const (
	DefaultCollection = "docdex"
	DefaultQdrantURL  = "http://localhost:6333"
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 8000
)

// Config is the full docdex configuration tree.
type Config struct {
	Verbose bool `toml:"verbose"`

	Server    Server    `toml:"server"`
	Index     Index     `toml:"index"`
	Embedding Embedding `toml:"embedding"`
	Corpus    Corpus    `toml:"corpus"`
	Chunking  Chunking  `toml:"chunking"`
	Search    Search    `toml:"search"`
	Catalog   Catalog   `toml:"catalog"`
}

// Server selects the transport binding. The transport is fixed at
// startup and not switchable at runtime.
type Server struct {
	Transport string `toml:"transport"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
}

// Addr renders the bind address for network transports.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Index configures the Qdrant connection.
type Index struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
	// TimeoutSeconds bounds a single index search.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the search bound as a duration.
func (i Index) Timeout() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// Embedding configures the encoder backend. The same model must be
// used for ingestion and querying.
type Embedding struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	// Dimensions overrides the model's default vector size.
	Dimensions int `toml:"dimensions"`
}

// Corpus configures the documentation source for ingestion.
type Corpus struct {
	// Path is the corpus root directory.
	Path string `toml:"path"`
	// Layout is "markdown" (directory tree) or "snippets".
	Layout string `toml:"layout"`
	// Name is the source's machine name; defaults to the directory name.
	Name string `toml:"name"`
	// Title is the attribution title.
	Title string `toml:"title"`
	// Language restricts snippet corpora to one language.
	Language string `toml:"language"`
	// Version pins the source version; when empty it is resolved from
	// the origin's repository releases/tags.
	Version string `toml:"version"`
	// Repo is the GitHub repository ("owner/name") used for version
	// resolution when Version is unset.
	Repo string `toml:"repo"`
}

// Chunking configures passage sizing.
type Chunking struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// Search configures query defaults.
type Search struct {
	// Limit is the default result count when the caller omits one.
	Limit int `toml:"limit"`
	// MinScore is a default similarity floor. Zero disables it.
	MinScore float64 `toml:"min_score"`
}

// Catalog configures the local metadata store.
type Catalog struct {
	// Dir is the data directory. Defaults to ~/.docdex/data.
	Dir string `toml:"dir"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{
			Transport: TransportStdio,
			Host:      DefaultHost,
			Port:      DefaultPort,
		},
		Index: Index{
			URL:            DefaultQdrantURL,
			Collection:     DefaultCollection,
			TimeoutSeconds: 15,
		},
		Embedding: Embedding{
			Provider: "ollama",
		},
		Corpus: Corpus{
			Layout: "markdown",
		},
		Chunking: Chunking{
			Size:    1000,
			Overlap: 200,
		},
		Search: Search{
			Limit: 5,
		},
	}
}

// DefaultPath returns ~/.docdex/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docdex", "config.toml"), nil
}

// Load reads the configuration file at path, layered over defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (want %s, %s or %s)",
			c.Server.Transport, TransportStdio, TransportSSE, TransportHTTP)
	}

	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown embedding provider %q (want ollama or openai)", c.Embedding.Provider)
	}

	switch c.Corpus.Layout {
	case "markdown", "snippets":
	default:
		return fmt.Errorf("unknown corpus layout %q (want markdown or snippets)", c.Corpus.Layout)
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking overlap must not be negative, got %d", c.Chunking.Overlap)
	}

	return nil
}
