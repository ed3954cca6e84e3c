package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/llamicron/lab-grader/internal/domain"
)

const maxBodyBytes = 256 * 1024 // 256KB

// httpStatus GETs data["url"] and passes when the status equals
// data["status"] (default 200). Connection failures fail the check.
func (r *Registry) httpStatus(data domain.TestData) bool {
	want := http.StatusOK
	if s := strings.TrimSpace(data["status"]); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return false
		}
		want = n
	}

	status, _, err := r.get(data["url"])
	if err != nil {
		return false
	}
	return status == want
}

// httpJSONPath GETs data["url"] and evaluates data["jsonpath"] on the JSON
// body. With data["equals"] set the value must match it, otherwise it only
// has to exist.
func (r *Registry) httpJSONPath(data domain.TestData) bool {
	expr := strings.TrimSpace(data["jsonpath"])
	if expr == "" {
		return false
	}

	_, body, err := r.get(data["url"])
	if err != nil {
		return false
	}

	val, err := Lookup(body, expr)
	if err != nil {
		return false
	}

	expected, hasExpected := data["equals"]
	if !hasExpected || expected == "" {
		return !isEmptyValue(val)
	}
	s, err := toString(val)
	if err != nil {
		return false
	}
	return s == expected
}

func (r *Registry) get(rawURL string) (int, []byte, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return 0, nil, fmt.Errorf("url is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// Lookup evaluates a JSONPath expression against a JSON document.
func Lookup(body []byte, expr string) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("response body is not valid JSON: %w", err)
	}
	return jsonpath.Get(expr, doc)
}

func toString(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("value is null")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}

	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
