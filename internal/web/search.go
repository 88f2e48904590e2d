package web

import (
	"encoding/json"
	"html"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/search"
	"github.com/stormlightlabs/memoria/internal/shared"
)

// pageData is shared by every HTML page; the header form reads it.
type pageData struct {
	Title     string
	ProjectID int64
	Query     string
	Type      string
	Mode      search.Mode
}

type resultView struct {
	Type  db.SourceType
	ID    int64
	Title template.HTML
	Score float64
}

type searchPage struct {
	pageData
	Results []resultView
	Total   int
	Error   string
}

type relatedView struct {
	Type  db.SourceType
	ID    int64
	Label string
}

type recordPage struct {
	pageData
	RecordType db.SourceType
	Body       template.HTML
	TOC        []TOCItem
	Related    []relatedView
}

// errorBody mirrors the MCP error payload.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// searchRequest reads the project, keyword, type filter, limit and ranking
// mode from the query string.
func (s *Server) searchRequest(r *http.Request) (search.Query, search.Mode, error) {
	v := r.URL.Query()
	q := search.Query{
		ProjectID: s.opts.ProjectID,
		Keyword:   v.Get("q"),
		Type:      v.Get("type"),
		Limit:     parseIntParam(r, "limit", 0),
	}
	if p := v.Get("project"); p != "" {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return q, "", shared.Errorf(shared.CodeInvalidArgument, "invalid project %q", p)
		}
		q.ProjectID = id
	}
	mode := s.opts.Mode
	if m := v.Get("mode"); m != "" {
		parsed, err := search.ParseMode(m)
		if err != nil {
			return q, "", err
		}
		mode = parsed
	}
	return q, mode, nil
}

func (s *Server) page(r *http.Request, title string) pageData {
	q, mode, _ := s.searchRequest(r)
	if mode == "" {
		mode = s.opts.Mode
	}
	return pageData{Title: title, ProjectID: q.ProjectID, Query: q.Keyword, Type: q.Type, Mode: mode}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.renderTemplate(w, "index.html", s.page(r, "Search")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	data := searchPage{pageData: s.page(r, "Search")}
	status := http.StatusOK

	if strings.TrimSpace(data.Query) != "" {
		q, mode, err := s.searchRequest(r)
		var res search.Result
		if err == nil {
			res, err = s.backend.Run(r.Context(), mode, q)
		}
		if err != nil {
			status = statusFor(err)
			data.Error = shared.AsError(err).Error()
		} else {
			data.Total = res.TotalCount
			data.Results = make([]resultView, 0, len(res.Results))
			for _, h := range res.Results {
				data.Results = append(data.Results, resultView{
					Type:  h.Type,
					ID:    h.ID,
					Title: highlightTerm(h.Title, strings.TrimSpace(q.Keyword)),
					Score: h.Score,
				})
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderTemplate(w, "search.html", data); err != nil {
		s.logger.Error("render search page", "err", err)
	}
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		http.Error(w, shared.AsError(err).Error(), statusFor(err))
		return
	}

	body, toc, err := s.markdown.RenderWithTOC([]byte(memory.Markdown(rec.Data)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := recordPage{
		pageData:   s.page(r, recordTitle(rec.Data)),
		RecordType: rec.Type,
		Body:       template.HTML(body),
		TOC:        toc,
		Related:    relatedRecords(rec.Data),
	}
	if err := s.renderTemplate(w, "record.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	q, mode, err := s.searchRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.backend.Run(r.Context(), mode, q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPIRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) record(r *http.Request) (search.Record, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return search.Record{}, shared.Errorf(shared.CodeInvalidArgument, "invalid id %q", raw)
	}
	return s.backend.GetByID(r.Context(), r.PathValue("type"), id)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := shared.AsError(err)
	var body errorBody
	body.Error.Code = string(e.Code)
	body.Error.Message = e.Error()
	s.writeJSON(w, statusFor(err), body)
}

func statusFor(err error) int {
	switch shared.CodeOf(err) {
	case shared.CodeKeywordTooShort, shared.CodeInvalidTypeFilter, shared.CodeInvalidType,
		shared.CodeInvalidStatus, shared.CodeInvalidArgument:
		return http.StatusBadRequest
	case shared.CodeNotFound:
		return http.StatusNotFound
	case shared.CodeConstraint:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

func recordTitle(v any) string {
	switch r := v.(type) {
	case memory.Topic:
		return r.Title
	case memory.Decision:
		return shared.FirstLine(r.Decision)
	case memory.Task:
		return r.Title
	}
	return "Record"
}

func relatedRecords(v any) []relatedView {
	switch r := v.(type) {
	case memory.Topic:
		if r.ParentTopicID != nil {
			return []relatedView{{Type: db.Topic, ID: *r.ParentTopicID, Label: "Parent topic"}}
		}
	case memory.Decision:
		return []relatedView{{Type: db.Topic, ID: r.TopicID, Label: "Topic"}}
	case memory.Task:
		if r.TopicID != nil {
			return []relatedView{{Type: db.Topic, ID: *r.TopicID, Label: "Blocker topic"}}
		}
	}
	return nil
}

// highlightTerm escapes text and wraps each case-insensitive match of term
// in <mark>. Matching falls back to case-sensitive when lowercasing would
// change byte offsets.
func highlightTerm(text, term string) template.HTML {
	if term == "" {
		return template.HTML(html.EscapeString(text))
	}

	haystack, needle := text, term
	if lt, ln := strings.ToLower(text), strings.ToLower(term); len(lt) == len(text) && len(ln) == len(term) {
		haystack, needle = lt, ln
	}

	var b strings.Builder
	start := 0
	for {
		idx := strings.Index(haystack[start:], needle)
		if idx == -1 {
			b.WriteString(html.EscapeString(text[start:]))
			break
		}
		idx += start
		b.WriteString(html.EscapeString(text[start:idx]))
		b.WriteString("<mark>")
		b.WriteString(html.EscapeString(text[idx : idx+len(needle)]))
		b.WriteString("</mark>")
		start = idx + len(needle)
	}
	return template.HTML(b.String())
}
