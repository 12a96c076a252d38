package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"spaar/internal/csvimport"
	"spaar/internal/log"
)

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	upload, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	out, err := s.imports.Import(ctx, upload.Source, bytes.NewReader(upload.Content))
	if err != nil {
		errorFor(ctx, log.OpImport, err).Write(w)
		return
	}
	s.insights.Invalidate()

	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := IntParam(r.URL.Query(), "limit", csvimport.DefaultPreviewLimit)
	if err != nil {
		BadRequestError(ctx, err.Error()).Write(w)
		return
	}
	upload, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	NewJSONResponse().Body(s.imports.Preview(string(upload.Content), limit)).Write(w)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	valid := s.imports.Validate(string(upload.Content))

	NewJSONResponse().Body(map[string]bool{"valid": valid}).Write(w)
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*Upload, bool) {
	upload, err := ReadUpload(w, r)
	if err == nil {
		return upload, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		ErrorResponse(r.Context(), http.StatusRequestEntityTooLarge, "upload too large").Write(w)
		return nil, false
	}
	BadRequestError(r.Context(), err.Error()).Write(w)
	return nil, false
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	list, err := s.insights.Insights(r.Context())
	if err != nil {
		errorFor(r.Context(), log.OpRefresh, err).Write(w)
		return
	}
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	list, err := s.insights.Refresh(r.Context())
	if err != nil {
		errorFor(r.Context(), log.OpRefresh, err).Write(w)
		return
	}
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days, err := IntParam(r.URL.Query(), "days", 0)
	if err != nil {
		BadRequestError(ctx, err.Error()).Write(w)
		return
	}

	analysis, err := s.insights.Analyze(ctx, days)
	if err != nil {
		errorFor(ctx, log.OpAnalyze, err).Write(w)
		return
	}
	NewJSONResponse().Body(analysis).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if s.categories == nil {
		NotFoundError(r.Context(), "categories are not available").Write(w)
		return
	}
	cats, err := s.categories.ListCategories(r.Context())
	if err != nil {
		errorFor(r.Context(), log.OpListCategories, err).Write(w)
		return
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleAssignCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID := strings.TrimSpace(r.PathValue("id"))
	if txID == "" {
		BadRequestError(ctx, "missing transaction id").Write(w)
		return
	}

	categoryID, err := ParseCategoryRequest(r)
	if err != nil {
		BadRequestError(ctx, err.Error()).Write(w)
		return
	}

	if err := s.insights.AssignCategory(ctx, txID, categoryID); err != nil {
		errorFor(ctx, log.OpAssign, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.categories == nil {
		NotFoundError(ctx, "categories are not available").Write(w)
		return
	}
	c, err := ParseNewCategoryRequest(r)
	if err != nil {
		BadRequestError(ctx, err.Error()).Write(w)
		return
	}
	created, err := s.categories.Create(ctx, c)
	if err != nil {
		errorFor(ctx, log.OpSaveCategory, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.categories == nil {
		NotFoundError(ctx, "categories are not available").Write(w)
		return
	}
	if err := s.categories.Delete(ctx, r.PathValue("id")); err != nil {
		errorFor(ctx, log.OpDeleteCategory, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	if s.budgets == nil {
		NotFoundError(r.Context(), "budgets are not available").Write(w)
		return
	}
	list, err := s.budgets.List(r.Context())
	if err != nil {
		errorFor(r.Context(), log.OpListBudgets, err).Write(w)
		return
	}
	NewJSONResponse().Body(list).Write(w)
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	if s.budgets == nil {
		NotFoundError(r.Context(), "budgets are not available").Write(w)
		return
	}
	summary, err := s.budgets.Summary(r.Context())
	if err != nil {
		errorFor(r.Context(), log.OpListBudgets, err).Write(w)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.budgets == nil {
		NotFoundError(ctx, "budgets are not available").Write(w)
		return
	}
	b, err := ParseBudgetRequest(r)
	if err != nil {
		BadRequestError(ctx, err.Error()).Write(w)
		return
	}
	created, err := s.budgets.Create(ctx, b)
	if err != nil {
		errorFor(ctx, log.OpSaveBudget, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.budgets == nil {
		NotFoundError(ctx, "budgets are not available").Write(w)
		return
	}
	b, err := ParseBudgetRequest(r)
	if err != nil {
		BadRequestError(ctx, err.Error()).Write(w)
		return
	}
	updated, err := s.budgets.Update(ctx, r.PathValue("id"), b)
	if err != nil {
		errorFor(ctx, log.OpSaveBudget, err).Write(w)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.budgets == nil {
		NotFoundError(ctx, "budgets are not available").Write(w)
		return
	}
	if err := s.budgets.Delete(ctx, r.PathValue("id")); err != nil {
		errorFor(ctx, log.OpDeleteBudget, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
