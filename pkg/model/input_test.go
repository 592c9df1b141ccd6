package model

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormInput_MarshalPreservesInsertionOrder(t *testing.T) {
	in := NewFormInput("Q006", "B", "Q002", "E")

	payload, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(payload), `{"Q006":"B","Q002":"E"}`; got != want {
		t.Fatalf("unexpected body: got %s want %s", got, want)
	}
}

func TestFormInput_EmptyMarshalsToEmptyObject(t *testing.T) {
	payload, err := json.Marshal(FormInput{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != "{}" {
		t.Fatalf("expected empty object, got %s", payload)
	}
}

func TestFormInput_SetKeepsFirstPositionLastValue(t *testing.T) {
	var in FormInput
	in.Set("Q006", "A")
	in.Set("Q002", "E")
	in.Set("Q006", "C")

	if diff := cmp.Diff([]string{"Q006", "Q002"}, in.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if value, _ := in.Get("Q006"); value != "C" {
		t.Fatalf("expected last value to win, got %q", value)
	}
}

func TestFormInputFromValues_LastValuePerName(t *testing.T) {
	values := url.Values{
		"Q002":      {"A", "E"},
		"Q006":      {"B"},
		"TP_ESCOLA": {"2"},
	}

	in := FormInputFromValues(values, []string{"Q006", "Q002"})

	want := map[string]string{"Q006": "B", "Q002": "E", "TP_ESCOLA": "2"}
	if diff := cmp.Diff(want, in.Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Q006", "Q002", "TP_ESCOLA"}, in.Keys()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFormInputFromValues_OrderSkipsAbsentNames(t *testing.T) {
	in := FormInputFromValues(url.Values{"Q002": {"E"}}, []string{"Q006", "Q002"})
	if diff := cmp.Diff([]string{"Q002"}, in.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFormInput_UnmarshalKeepsOrderAndScalars(t *testing.T) {
	var in FormInput
	if err := json.Unmarshal([]byte(`{"Q006":"B","TP_ESCOLA":2,"Q002":null}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff([]string{"Q006", "TP_ESCOLA", "Q002"}, in.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	want := map[string]string{"Q006": "B", "TP_ESCOLA": "2", "Q002": ""}
	if diff := cmp.Diff(want, in.Map()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFormInput_UnmarshalRejectsNonObject(t *testing.T) {
	var in FormInput
	err := json.Unmarshal([]byte(`["Q006"]`), &in)
	if !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
}

func TestFormInput_UnmarshalRejectsNestedValues(t *testing.T) {
	var in FormInput
	if err := json.Unmarshal([]byte(`{"Q006":{"x":1}}`), &in); err == nil {
		t.Fatalf("expected nested value to be rejected")
	}
}
