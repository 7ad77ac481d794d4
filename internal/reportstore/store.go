// Package reportstore persists rendered HTML reports to disk and serves
// them back by ID. IDs are random hex so report URLs are not guessable.
package reportstore

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/errors"
	"github.com/sentrykit/guardrail-mcp-server/internal/tracing"
)

// validID matches the hex IDs produced by Save. Anything else is rejected
// before it can touch the filesystem.
var validID = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Store is a directory of rendered reports keyed by hex ID.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates the reports directory if needed and returns a store over it.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewInternalError("Failed to create reports directory: " + err.Error())
	}
	return &Store{dir: dir, logger: logger.Named("reportstore")}, nil
}

// Save writes the report HTML under a fresh hex ID and returns the ID.
func (s *Store) Save(html string) (string, error) {
	id := tracing.GenerateID()
	path := filepath.Join(s.dir, id+".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", errors.NewInternalError("Failed to write report: " + err.Error())
	}
	s.logger.Debug("Report saved", zap.String("report_id", id))
	return id, nil
}

// Read returns the HTML for a report ID. The ID may carry an ".html"
// suffix; anything that is not a bare hex ID is treated as not found.
func (s *Store) Read(id string) (string, error) {
	id = strings.TrimSuffix(id, ".html")
	if !validID.MatchString(id) {
		return "", errors.NewResourceNotFound("Report", id)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id+".html"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewResourceNotFound("Report", id)
		}
		return "", errors.NewInternalError("Failed to read report: " + err.Error())
	}
	return string(data), nil
}

// Ping verifies the reports directory is writable.
func (s *Store) Ping() error {
	f, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

// URL returns the serving path for a report ID.
func (s *Store) URL(id string) string {
	return "/reports/" + id + ".html"
}
