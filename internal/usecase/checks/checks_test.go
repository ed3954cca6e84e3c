package checks

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/llamicron/lab-grader/internal/domain"
)

func TestFileExists(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "exists.txt")
	if err := os.WriteFile(p, []byte("version = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{p, true},
		{tmp, true},
		{tmp + string(filepath.Separator), true},
		{filepath.Join(tmp, "doesntexist"), false},
		{"", false},
	}
	for _, c := range cases {
		if got := FileExists(domain.TestData{"path": c.path}); got != c.want {
			t.Errorf("FileExists(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestFileContains(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "Cargo.toml")
	if err := os.WriteFile(p, []byte("version = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileContains(domain.TestData{"path": p, "needle": "version"}) {
		t.Errorf("expected needle found")
	}
	if FileContains(domain.TestData{"path": p, "needle": "something it doesn't contain"}) {
		t.Errorf("expected needle missing")
	}
	if FileContains(domain.TestData{"path": tmp, "needle": "doesn't matter"}) {
		t.Errorf("expected directory to fail")
	}
}

func TestDataChecks(t *testing.T) {
	d := domain.TestData{"student_id": "1234", "blank": "  "}

	if !DataEquals(domain.MergeData(d, domain.TestData{"key": "student_id", "value": "1234"})) {
		t.Errorf("expected data_equals pass")
	}
	if DataEquals(domain.MergeData(d, domain.TestData{"key": "student_id", "value": "9"})) {
		t.Errorf("expected data_equals fail")
	}
	if !DataPresent(domain.MergeData(d, domain.TestData{"key": "student_id"})) {
		t.Errorf("expected data_present pass")
	}
	if DataPresent(domain.MergeData(d, domain.TestData{"key": "blank"})) {
		t.Errorf("expected blank value to fail")
	}
	if DataPresent(d) {
		t.Errorf("expected missing key arg to fail")
	}
}

func TestEnvSet(t *testing.T) {
	t.Setenv("LABGRADER_CHECK_TEST", "1")
	if !EnvSet(domain.TestData{"name": "LABGRADER_CHECK_TEST"}) {
		t.Errorf("expected env set")
	}
	if EnvSet(domain.TestData{"name": "LABGRADER_CHECK_TEST_UNSET"}) {
		t.Errorf("expected env unset")
	}
}

func TestCommandChecks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses go binary output on unix-like shells")
	}
	r := NewRegistry()

	if !CommandExists(domain.TestData{"command": "go"}) {
		t.Skip("go not on PATH")
	}
	if CommandExists(domain.TestData{"command": "definitely-not-a-real-binary-xyz"}) {
		t.Errorf("expected missing command")
	}

	fn, _ := r.Lookup("command_output")
	if !fn(domain.TestData{"command": "go", "args": "env GOOS", "contains": runtime.GOOS}) {
		t.Errorf("expected command output to contain GOOS")
	}
	if fn(domain.TestData{"command": "go", "args": "env GOOS", "contains": "not-an-os"}) {
		t.Errorf("expected command output mismatch")
	}
}

func TestHTTPChecks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{"id":7,"name":"lab","tags":[]}}`))
		case "/text":
			_, _ = w.Write([]byte("not json"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewRegistry(WithHTTPClient(srv.Client()))
	status, _ := r.Lookup("http_status")
	jp, _ := r.Lookup("http_jsonpath")

	cases := []struct {
		name string
		fn   domain.TestFunc
		data domain.TestData
		want bool
	}{
		{"status default 200", status, domain.TestData{"url": srv.URL + "/ok"}, true},
		{"status 404", status, domain.TestData{"url": srv.URL + "/missing", "status": "404"}, true},
		{"status mismatch", status, domain.TestData{"url": srv.URL + "/missing"}, false},
		{"status bad arg", status, domain.TestData{"url": srv.URL + "/ok", "status": "abc"}, false},
		{"status no url", status, domain.TestData{}, false},
		{"jsonpath exists", jp, domain.TestData{"url": srv.URL + "/ok", "jsonpath": "$.data.name"}, true},
		{"jsonpath equals number", jp, domain.TestData{"url": srv.URL + "/ok", "jsonpath": "$.data.id", "equals": "7"}, true},
		{"jsonpath equals mismatch", jp, domain.TestData{"url": srv.URL + "/ok", "jsonpath": "$.data.name", "equals": "x"}, false},
		{"jsonpath empty array", jp, domain.TestData{"url": srv.URL + "/ok", "jsonpath": "$.data.tags"}, false},
		{"jsonpath missing key", jp, domain.TestData{"url": srv.URL + "/ok", "jsonpath": "$.data.nope"}, false},
		{"jsonpath not json", jp, domain.TestData{"url": srv.URL + "/text", "jsonpath": "$.a"}, false},
		{"jsonpath no expr", jp, domain.TestData{"url": srv.URL + "/ok"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.fn(c.data); got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestRegistryBind(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func(domain.TestData) bool { return true })

	cs := domain.NewCriteria(
		domain.NewCriterion("by func").Func("file_exists").Build(),
		domain.NewCriterion("custom").Build(),
		domain.NewCriterion("unknown").Func("no_such_check").Build(),
		domain.NewCriterion("preset").Test(func(domain.TestData) bool { return false }).Build(),
	)

	missing := r.Bind(cs)
	if !reflect.DeepEqual(missing, []string{"unknown"}) {
		t.Fatalf("missing = %v", missing)
	}

	preset, _ := cs.Get("preset")
	if ok, _ := preset.Run(); ok {
		t.Fatalf("expected existing test kept")
	}
}

func TestRegistryNames(t *testing.T) {
	names := NewRegistry().Names()
	want := []string{
		"command_exists", "command_output", "data_equals", "data_present", "env_set",
		"file_contains", "file_exists", "http_jsonpath", "http_status",
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v", names)
	}
}
