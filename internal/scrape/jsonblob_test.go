package scrape

import (
	"encoding/json"
	"testing"
)

func TestJSONAfterToken(t *testing.T) {
	input := `var x = 1; window.M.state = {"weather":{"cw":{"temperatureAir":[-4]}},"note":"a } in a string"}; init();`

	blob, ok := JSONAfterToken(input, "window.M.state =")
	if !ok {
		t.Fatal("expected a blob")
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		t.Fatalf("blob is not valid JSON: %v\n%s", err, blob)
	}
	if _, found := state["weather"]; !found {
		t.Fatalf("expected weather key in %s", blob)
	}
	if state["note"] != "a } in a string" {
		t.Fatalf("brace inside string mishandled: %v", state["note"])
	}
}

func TestJSONAfterTokenEscapedQuote(t *testing.T) {
	input := `"observation": {"wxPhraseLong":"say \"hi\" {ok}","temperature":41}`

	blob, ok := JSONAfterToken(input, `"observation":`)
	if !ok {
		t.Fatal("expected a blob")
	}

	var obs map[string]any
	if err := json.Unmarshal([]byte(blob), &obs); err != nil {
		t.Fatalf("blob is not valid JSON: %v\n%s", err, blob)
	}
	if obs["temperature"] != 41.0 {
		t.Fatalf("expected temperature 41, got %v", obs["temperature"])
	}
}

func TestJSONAfterTokenMissing(t *testing.T) {
	if _, ok := JSONAfterToken("no state here", "window.M.state ="); ok {
		t.Fatal("expected no blob for a missing token")
	}
	if _, ok := JSONAfterToken("window.M.state = [1,2,3]", "window.M.state ="); ok {
		t.Fatal("expected no blob when no object follows")
	}
	if _, ok := JSONAfterToken(`window.M.state = {"unbalanced": {`, "window.M.state ="); ok {
		t.Fatal("expected no blob for an unterminated object")
	}
}
