package httpx

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestJSONEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, 201, map[string]string{"code": "C001"})
	if w.Code != 201 {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Error != nil {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestJSONListIncludesMeta(t *testing.T) {
	w := httptest.NewRecorder()
	JSONList(w, 200, []int{1, 2}, ListMeta{Total: 12, Page: 2, Limit: 2, TotalPages: 6})
	var got map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["meta"] == nil {
		t.Fatalf("meta missing: %s", w.Body.String())
	}
	var meta ListMeta
	if err := json.Unmarshal(got["meta"], &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Total != 12 || meta.TotalPages != 6 {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestJSONErrorFallbackCodes(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{404, "NOT_FOUND"},
		{400, "BAD_REQUEST"},
		{422, "VALIDATION_ERROR"},
		{500, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		JSONError(w, tc.status, "", "boom", nil)
		var env Envelope
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Success || env.Error == nil || env.Error.Code != tc.want {
			t.Fatalf("status %d envelope = %+v", tc.status, env)
		}
	}
}

func TestJSONErrorExplicitCodeWins(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, 400, "BUSINESS_RULE_VIOLATION", "over limit", nil)
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "BUSINESS_RULE_VIOLATION" || env.Error.Message != "over limit" {
		t.Fatalf("envelope = %+v", env)
	}
}
