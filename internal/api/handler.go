// Package api provides HTTP handlers for the parse rules service.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/annotator"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/dispatch"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/executor"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
)

// Annotator defines the operations the handlers need.
type Annotator interface {
	Annotate(ctx context.Context, url string, doc *document.Document) (string, bool, error)
	Select(ctx context.Context, url string, doc *document.Document) (dispatch.Result, error)
}

// Handler serves the annotate and rule inspection endpoints.
type Handler struct {
	annotator Annotator
	rules     rules.Provider
	log       logger.Logger
}

// NewHandler creates a new handler.
func NewHandler(a Annotator, provider rules.Provider, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{annotator: a, rules: provider, log: log}
}

// DocumentRequest carries a document and the URL it was fetched from.
type DocumentRequest struct {
	URL string `json:"url" binding:"required"`
	// BaseURL is the document's resolved base location, when known.
	BaseURL string `json:"base_url"`
	// Document is the XHTML or XML source.
	Document string `json:"document" binding:"required"`
}

// AnnotateResponse is the body of a successful annotate call.
type AnnotateResponse struct {
	URL        string `json:"url"`
	Annotated  bool   `json:"annotated"`
	Field      string `json:"field,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

// SelectResponse describes the rule a document would be dispatched to.
type SelectResponse struct {
	Matched  bool   `json:"matched"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Position int    `json:"position"`
	Pattern  string `json:"pattern,omitempty"`
	Probe    string `json:"probe,omitempty"`
	Query    string `json:"query,omitempty"`
}

// RuleView is one rule in a listing.
type RuleView struct {
	Domain   string `json:"domain"`
	Position int    `json:"position"`
	Pattern  string `json:"pattern"`
	Probe    string `json:"probe,omitempty"`
	Query    string `json:"query"`
}

// RulesResponse lists the current index.
type RulesResponse struct {
	Domains int        `json:"domains"`
	Count   int        `json:"count"`
	Rules   []RuleView `json:"rules"`
}

// Annotate handles POST /api/v1/annotate.
func (h *Handler) Annotate(c *gin.Context) {
	req, doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	annotation, annotated, err := h.annotator.Annotate(c.Request.Context(), req.URL, doc)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := AnnotateResponse{URL: req.URL, Annotated: annotated}
	if annotated {
		resp.Field = annotator.FieldName
		resp.Annotation = annotation
	}
	c.JSON(http.StatusOK, resp)
}

// Select handles POST /api/v1/rules/select.
func (h *Handler) Select(c *gin.Context) {
	req, doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	res, err := h.annotator.Select(c.Request.Context(), req.URL, doc)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := SelectResponse{Matched: res.Matched(), Domain: res.Domain, Path: res.PathAndQuery}
	if res.Matched() {
		resp.Position = res.Position
		resp.Pattern = res.Rule.Pattern()
		resp.Probe = res.Rule.ProbeSource()
		resp.Query = res.Rule.QueryPath()
	}
	c.JSON(http.StatusOK, resp)
}

// ListRules handles GET /api/v1/rules. An optional domain query parameter
// narrows the listing.
func (h *Handler) ListRules(c *gin.Context) {
	idx := h.rules.Current()
	if idx == nil {
		h.respondError(c, rules.ErrNoIndex)
		return
	}

	domain := strings.TrimSpace(c.Query("domain"))
	resp := RulesResponse{Domains: len(idx.Domains()), Count: idx.Len(), Rules: []RuleView{}}
	idx.Each(func(position int, r *rules.Rule) {
		if domain != "" && r.Domain() != domain {
			return
		}
		resp.Rules = append(resp.Rules, RuleView{
			Domain:   r.Domain(),
			Position: position,
			Pattern:  r.Pattern(),
			Probe:    r.ProbeSource(),
			Query:    r.QueryPath(),
		})
	})
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bindDocument(c *gin.Context) (*DocumentRequest, *document.Document, bool) {
	var req DocumentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return nil, nil, false
	}

	doc, parseErr := document.ParseString(req.Document, req.BaseURL)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
		return nil, nil, false
	}
	return &req, doc, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), h.log).Error("Request failed", logger.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps an annotation error to an HTTP status.
func StatusFor(err error) int {
	var (
		urlErr   *dispatch.URLParseError
		probeErr *dispatch.ProbeError
		queryErr *executor.QueryError
	)
	switch {
	case errors.As(err, &urlErr):
		return http.StatusBadRequest
	case errors.As(err, &probeErr), errors.As(err, &queryErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rules.ErrNoIndex):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
