package domain

import (
	"reflect"
	"testing"
)

func TestNewTestDataPairs(t *testing.T) {
	d := NewTestData("key", "value", "other", "x", "dangling")

	if d["key"] != "value" || d["other"] != "x" {
		t.Fatalf("unexpected data: %#v", d)
	}
	if v, ok := d.Get("dangling"); !ok || v != "" {
		t.Fatalf("expected dangling key mapped to empty, got %q ok=%v", v, ok)
	}

	manual := TestData{}
	manual["key"] = "value"
	if !reflect.DeepEqual(NewTestData("key", "value"), manual) {
		t.Fatalf("expected constructor to match manual map")
	}
}

func TestMergeDataOverrideWins(t *testing.T) {
	base := TestData{"path": "a", "name": "alice"}
	override := TestData{"path": "b"}

	merged := MergeData(base, override)
	if merged["path"] != "b" {
		t.Fatalf("expected override to win")
	}
	if merged["name"] != "alice" {
		t.Fatalf("expected base key preserved")
	}
	if base["path"] != "a" {
		t.Fatalf("expected base unchanged")
	}
}

func TestTestDataCSVAlignment(t *testing.T) {
	d := TestData{"b2": "value2", "a1": "value1", "c": "z"}

	if got := d.CSVHeader(); got != "a1,b2,c" {
		t.Fatalf("header = %q", got)
	}
	want := []string{"value1", "value2", "z"}
	if got := d.CSVValues(); !reflect.DeepEqual(got, want) {
		t.Fatalf("values = %v, want %v", got, want)
	}
}

func TestGetOnNil(t *testing.T) {
	var d TestData
	if _, ok := d.Get("x"); ok {
		t.Fatalf("expected missing key on nil data")
	}
	if c := d.Clone(); c == nil || len(c) != 0 {
		t.Fatalf("expected empty non-nil clone")
	}
}
