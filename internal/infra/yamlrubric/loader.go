package yamlrubric

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
	"gopkg.in/yaml.v3"
)

type Loader struct {
	rubricsDir string
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{rubricsDir: "rubrics"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type Option func(*Loader)

func WithRubricsDir(dir string) Option {
	return func(l *Loader) { l.rubricsDir = dir }
}

var _ ports.RubricLoader = (*Loader)(nil)

func (l *Loader) LoadRubric(path string) (*domain.Rubric, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlrubric.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}
	return Parse(path, b)
}

// Parse decodes rubric YAML. path is only used in error messages.
func Parse(path string, b []byte) (*domain.Rubric, error) {
	var yr yamlRubric
	if err := yaml.Unmarshal(b, &yr); err != nil {
		return nil, &domain.OpError{
			Op:   "yamlrubric.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return mapAndValidate(path, yr)
}

func (l *Loader) ListRubrics(root string) ([]domain.RubricRef, error) {
	dir := filepath.Join(root, l.rubricsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlrubric.list",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  err,
		}
	}

	var refs []domain.RubricRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		p := filepath.Join(dir, name)
		n, _ := readRubricName(p)
		if strings.TrimSpace(n) == "" {
			n = strings.TrimSuffix(name, filepath.Ext(name))
		}

		refs = append(refs, domain.RubricRef{Name: n, Path: p})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func readRubricName(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var v struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return "", err
	}
	return v.Name, nil
}

type yamlRubric struct {
	Name              string `yaml:"name"`
	Desc              string `yaml:"desc"`
	Total             *int   `yaml:"total"`
	Deadline          string `yaml:"deadline"`
	FinalDeadline     string `yaml:"final_deadline"`
	AllowLate         bool   `yaml:"allow_late"`
	LatePenalty       int    `yaml:"late_penalty"`
	LatePenaltyPerDay int    `yaml:"late_penalty_per_day"`

	// Criteria is kept as a node so document order survives decoding.
	Criteria yaml.Node `yaml:"criteria"`
}

type yamlCriterion struct {
	Func     string            `yaml:"func"`
	Stub     string            `yaml:"stub"`
	Index    *int              `yaml:"index"`
	Desc     string            `yaml:"desc"`
	Worth    *int              `yaml:"worth"`
	Messages []string          `yaml:"messages"`
	Hide     bool              `yaml:"hide"`
	Args     map[string]string `yaml:"args"`
}

func mapAndValidate(path string, yr yamlRubric) (*domain.Rubric, error) {
	if strings.TrimSpace(yr.Name) == "" {
		return nil, invalidField(path, "name", "rubric name is required")
	}

	r := &domain.Rubric{
		Name:              yr.Name,
		Desc:              yr.Desc,
		Total:             yr.Total,
		AllowLate:         yr.AllowLate,
		LatePenalty:       yr.LatePenalty,
		LatePenaltyPerDay: yr.LatePenaltyPerDay,
		Criteria:          domain.NewCriteria(),
	}

	var err error
	if r.Deadline, err = parseDeadline(yr.Deadline); err != nil {
		return nil, invalidField(path, "deadline", err.Error())
	}
	if r.FinalDeadline, err = parseDeadline(yr.FinalDeadline); err != nil {
		return nil, invalidField(path, "final_deadline", err.Error())
	}

	node := &yr.Criteria
	switch node.Kind {
	case 0:
		return nil, invalidField(path, "criteria", "at least one criterion is required")
	case yaml.MappingNode:
	default:
		return nil, invalidField(path, "criteria", "must be a mapping of criterion name to definition")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		field := fmt.Sprintf("criteria[%s]", name)
		if strings.TrimSpace(name) == "" {
			return nil, invalidField(path, "criteria", "criterion name is required")
		}

		var yc yamlCriterion
		if err := node.Content[i+1].Decode(&yc); err != nil {
			return nil, invalidField(path, field, err.Error())
		}
		if yc.Worth == nil {
			return nil, invalidField(path, field+".worth", "worth is required")
		}
		if len(yc.Messages) != 0 && len(yc.Messages) != 2 {
			return nil, invalidField(path, field+".messages", "expected [success, failure]")
		}

		b := domain.NewCriterion(name).
			Worth(*yc.Worth).
			Desc(yc.Desc).
			Func(strings.TrimSpace(yc.Func)).
			Hide(yc.Hide).
			Index(i / 2)
		if yc.Index != nil {
			b.Index(*yc.Index)
		}
		if len(yc.Messages) == 2 {
			b.Messages(yc.Messages[0], yc.Messages[1])
		}
		if s := strings.TrimSpace(yc.Stub); s != "" {
			b.Stub(s)
		}
		for k, v := range yc.Args {
			b.Arg(k, v)
		}
		r.Criteria.Add(b.Build())
	}

	return r, nil
}

var deadlineLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Second)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("unrecognised time %q (use RFC 3339, \"2006-01-02 15:04\" or \"2006-01-02\")", s)
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "yamlrubric.validate",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s", field, msg),
	}
}
