package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DiskStore writes reports and diff inputs as files under a directory
// keyed by process id, so concurrent harness processes never collide.
// The directory is created lazily on the first write.
type DiskStore struct {
	mu   sync.Mutex
	base string
	dir  string
}

// NewDiskStore creates a DiskStore rooted at $TMPDIR/contractcheck-<pid>.
func NewDiskStore() *DiskStore {
	return NewDiskStoreAt(os.TempDir())
}

// NewDiskStoreAt creates a DiskStore rooted at base/contractcheck-<pid>.
func NewDiskStoreAt(base string) *DiskStore {
	return &DiskStore{base: base}
}

// Dir returns the directory the store writes to.
func (s *DiskStore) Dir() string {
	return filepath.Join(s.base, fmt.Sprintf("contractcheck-%d", os.Getpid()))
}

// Save writes a report as a JSON file to disk.
func (s *DiskStore) Save(report *Report) error {
	dir, err := s.ensureDir()
	if err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshalling report %s: %w", report.ID, err)
	}
	path := filepath.Join(dir, report.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", report.ID, err)
	}
	return nil
}

// Load reads a report from disk.
func (s *DiskStore) Load(runID string) (*Report, error) {
	dir, err := s.ensureDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, runID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", runID, err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshalling report %s: %w", runID, err)
	}
	return &report, nil
}

// WriteDiffInputs writes the normalized expected and actual texts of a
// mismatch next to the report, for inspection with an external diff tool.
func (s *DiskStore) WriteDiffInputs(runID, expected, actual string) (string, string, error) {
	dir, err := s.ensureDir()
	if err != nil {
		return "", "", err
	}
	expectedPath := filepath.Join(dir, runID+".expected.txt")
	actualPath := filepath.Join(dir, runID+".actual.txt")
	if err := os.WriteFile(expectedPath, []byte(expected), 0o644); err != nil {
		return "", "", fmt.Errorf("writing expected output: %w", err)
	}
	if err := os.WriteFile(actualPath, []byte(actual), 0o644); err != nil {
		return "", "", fmt.Errorf("writing actual output: %w", err)
	}
	return expectedPath, actualPath, nil
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		return s.dir, nil
	}
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	s.dir = dir
	return dir, nil
}
