package yamldata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
	"gopkg.in/yaml.v3"
)

// Loader reads submission data from a flat YAML mapping. A sibling local
// file, when present, overrides individual keys.
type Loader struct {
	localFile string
}

type Option func(*Loader)

func WithLocalFile(name string) Option {
	return func(l *Loader) { l.localFile = name }
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{localFile: "data.local.yaml"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ ports.DataLoader = (*Loader)(nil)

func (l *Loader) LoadData(path string) (domain.TestData, error) {
	path = filepath.Clean(path)
	base, err := readData(path)
	if err != nil {
		return nil, err
	}

	if l.localFile == "" || filepath.Base(path) == l.localFile {
		return base, nil
	}

	local, err := readDataOptional(filepath.Join(filepath.Dir(path), l.localFile))
	if err != nil {
		return nil, err
	}
	return domain.MergeData(base, local), nil
}

func readData(path string) (domain.TestData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamldata.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var m map[string]string
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, &domain.OpError{
			Op:   "yamldata.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if m == nil {
		m = map[string]string{}
	}
	return domain.TestData(m), nil
}

func readDataOptional(path string) (domain.TestData, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.TestData{}, nil
		}
		return nil, &domain.OpError{
			Op:   "yamldata.local",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	d, err := readData(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load local data: %w", err)
	}
	return d, nil
}
