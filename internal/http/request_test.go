package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"spaar/internal/core"
)

func TestIntParam(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		def     int
		want    int
		wantErr bool
	}{
		{"absent uses default", "", 10, 10, false},
		{"valid", "limit=25", 10, 25, false},
		{"whitespace", "limit=%2030%20", 10, 30, false},
		{"zero", "limit=0", 10, 0, false},
		{"negative", "limit=-1", 10, 0, true},
		{"not a number", "limit=ten", 10, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := IntParam(q, "limit", tt.def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IntParam() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IntParam() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseCategoryRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "json", body: `{"category_id":"boodschappen"}`, want: "boodschappen"},
		{name: "json null", body: `{"category_id":null}`, wantNil: true},
		{name: "json empty", body: `{"category_id":"  "}`, wantNil: true},
		{name: "form", body: "category_id=vervoer", want: "vervoer"},
		{name: "empty body", body: "", wantNil: true},
		{name: "control characters stripped", body: `{"category_id":"wonen\u0000"}`, want: "wonen"},
		{name: "bad json", body: `{"category_id"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			got, err := ParseCategoryRequest(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("got %q, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("got %v, want %q", got, tt.want)
			}
		})
	}
}

func TestParseBudgetRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(
		`{"name":" Vervoer ","category_id":"  ","amount":"75.50","period":"Weekly","start_date":"01-11-2024","end_date":"2024-11-30"}`))
	b, err := ParseBudgetRequest(req)
	if err != nil {
		t.Fatalf("ParseBudgetRequest() error = %v", err)
	}
	if b.Name != "Vervoer" || b.CategoryID != nil || b.Period != core.PeriodWeekly || !b.IsActive {
		t.Errorf("parsed = %+v", b)
	}
	if b.Amount.String() != "75.5" {
		t.Errorf("Amount = %s, want 75.5", b.Amount)
	}
	if !b.StartDate.Equal(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", b.StartDate)
	}
	if b.EndDate == nil || !b.EndDate.Equal(time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("EndDate = %v", b.EndDate)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(`{"name":"x","amount":"1","is_active":false}`))
	if b, err = ParseBudgetRequest(req); err != nil || b.IsActive || !b.StartDate.IsZero() {
		t.Errorf("ParseBudgetRequest() = %+v, %v", b, err)
	}
}

func TestReadUploadSource(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"query", "/api/imports?source=ing.csv", "ing.csv"},
		{"default", "/api/imports", "upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader("a;b"))
			up, err := ReadUpload(httptest.NewRecorder(), req)
			if err != nil {
				t.Fatalf("ReadUpload() error = %v", err)
			}
			if up.Source != tt.want {
				t.Errorf("Source = %q, want %q", up.Source, tt.want)
			}
			if string(up.Content) != "a;b" {
				t.Errorf("Content = %q", up.Content)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x07c", "abc"},
		{"tab\tkept", "tab\tkept"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
