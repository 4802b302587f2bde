package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sftp-gateway/internal/service"
	"sftp-gateway/pkg/apierror"
)

var (
	listSortFields = map[string]bool{"": true, "name": true, "size": true, "modified_at": true, "type": true}
	listOrders     = map[string]bool{"": true, "asc": true, "desc": true}
)

type DirectoryHandler struct {
	service *service.DirectoryService
}

func NewDirectoryHandler(service *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

type listQuery struct {
	path  string
	page  int
	limit int
	sort  string
	order string
}

func (h *DirectoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	data, meta, err := h.service.List(r.Context(), q.path, q.page, q.limit, q.sort, q.order)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, &meta)
}

func parseListQuery(values url.Values) (listQuery, error) {
	q := listQuery{
		path:  values.Get("path"),
		sort:  strings.ToLower(strings.TrimSpace(values.Get("sort"))),
		order: strings.ToLower(strings.TrimSpace(values.Get("order"))),
	}

	var err error
	if q.page, err = parsePositiveInt(values.Get("page"), 1); err != nil {
		return q, apierror.BadRequest("page must be a positive integer", values.Get("page"))
	}
	if q.limit, err = parsePositiveInt(values.Get("limit"), 50); err != nil {
		return q, apierror.BadRequest("limit must be a positive integer", values.Get("limit"))
	}
	if !listSortFields[q.sort] {
		return q, apierror.BadRequest("unsupported sort field", q.sort)
	}
	if !listOrders[q.order] {
		return q, apierror.BadRequest("order must be asc or desc", q.order)
	}

	return q, nil
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, strconv.ErrRange
	}

	return v, nil
}
