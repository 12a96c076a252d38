package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
)

// maxUploadBytes bounds a statement upload.
const maxUploadBytes = 10 << 20

// Upload is a statement read from a request.
type Upload struct {
	Source  string
	Content []byte
}

// ReadUpload accepts either a multipart form with a "file" part or the raw
// CSV as request body. The source is the uploaded file name, the "source"
// query parameter, or "upload".
func ReadUpload(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	source := sanitizeInput(r.URL.Query().Get("source"))
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var content []byte
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()
		if content, err = io.ReadAll(file); err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		if source == "" {
			source = sanitizeInput(header.Filename)
		}
	} else {
		var err error
		if content, err = io.ReadAll(r.Body); err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}

	if len(content) == 0 {
		return nil, errors.New("empty upload")
	}
	if source == "" {
		source = "upload"
	}
	return &Upload{Source: source, Content: content}, nil
}

// IntParam returns the integer query parameter key or def when absent.
// Present but malformed or negative values are an error.
func IntParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, v)
	}
	return n, nil
}

// CategoryRequest is the body of a category assignment. A null or empty
// category clears the assignment.
type CategoryRequest struct {
	CategoryID *string `json:"category_id"`
}

// ParseCategoryRequest reads a JSON body or a form-encoded category_id.
func ParseCategoryRequest(r *http.Request) (*string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	trimmed := strings.TrimSpace(string(body))

	var raw string
	if strings.HasPrefix(trimmed, "{") {
		var req CategoryRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		if req.CategoryID != nil {
			raw = *req.CategoryID
		}
	} else {
		form, err := url.ParseQuery(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		raw = form.Get("category_id")
	}

	raw = sanitizeInput(raw)
	if raw == "" {
		return nil, nil
	}
	return &raw, nil
}

// maxJSONBytes bounds a JSON request body.
const maxJSONBytes = 64 << 10

// BudgetRequest is the body of a budget create or update. Dates use any of
// the statement layouts; an empty start date defaults on the server.
type BudgetRequest struct {
	Name       string          `json:"name"`
	CategoryID *string         `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	IsActive   *bool           `json:"is_active"`
	StartDate  string          `json:"start_date"`
	EndDate    string          `json:"end_date"`
}

// ParseBudgetRequest decodes a budget body. An omitted is_active means active.
func ParseBudgetRequest(r *http.Request) (core.Budget, error) {
	var req BudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{
		Name:       sanitizeInput(req.Name),
		CategoryID: optionalID(req.CategoryID),
		Amount:     req.Amount,
		Period:     core.BudgetPeriod(strings.ToLower(sanitizeInput(req.Period))),
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	if v := sanitizeInput(req.StartDate); v != "" {
		start, err := core.ParseDate(v)
		if err != nil {
			return core.Budget{}, fmt.Errorf("invalid start_date %q: %w", v, err)
		}
		b.StartDate = start
	}
	if v := sanitizeInput(req.EndDate); v != "" {
		end, err := core.ParseDate(v)
		if err != nil {
			return core.Budget{}, fmt.Errorf("invalid end_date %q: %w", v, err)
		}
		b.EndDate = &end
	}
	return b, nil
}

// NewCategoryRequest is the body of a category create.
type NewCategoryRequest struct {
	Name             string           `json:"name"`
	ParentID         *string          `json:"parent_id"`
	BudgetPercentage *decimal.Decimal `json:"budget_percentage"`
}

// ParseNewCategoryRequest decodes a category body. The id is assigned by the
// service.
func ParseNewCategoryRequest(r *http.Request) (core.Category, error) {
	var req NewCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		return core.Category{}, err
	}
	if share := req.BudgetPercentage; share != nil && (share.IsNegative() || share.GreaterThan(decimal.NewFromInt(100))) {
		return core.Category{}, errors.New("budget_percentage must be between 0 and 100")
	}
	return core.Category{
		Name:        sanitizeInput(req.Name),
		ParentID:    optionalID(req.ParentID),
		BudgetShare: req.BudgetPercentage,
	}, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// optionalID sanitizes an optional id; blank means absent.
func optionalID(id *string) *string {
	if id == nil {
		return nil
	}
	v := sanitizeInput(*id)
	if v == "" {
		return nil
	}
	return &v
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
