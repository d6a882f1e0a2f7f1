package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	detailNotFound = "Not found."
)

var errInvalidPage = errors.New("invalid page")

// PageResponse is the pagination envelope of list endpoints
type PageResponse[R any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []R     `json:"results"`
}

// listing describes how a list endpoint searches and orders its rows
type listing struct {
	searchColumns []string
	orderColumns  map[string]string // ordering param -> column
	defaultOrder  string
	preloads      []string
	selectColumns string // set when the query joins other tables
}

// filterError is answered with 400 and a field-keyed body
type filterError struct {
	field   string
	message string
}

func (e *filterError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

// applySearch matches every whitespace or comma separated term against any
// of the columns, case-insensitively
func applySearch(query *gorm.DB, search string, columns []string) *gorm.DB {
	terms := strings.FieldsFunc(search, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	for _, term := range terms {
		pattern := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, column := range columns {
			clauses[i] = fmt.Sprintf("LOWER(COALESCE(%s, '')) LIKE ?", column)
			args[i] = pattern
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return query
}

// orderClause turns a comma separated ordering param into SQL. Unknown
// fields are ignored and the default applies when nothing valid remains.
func orderClause(ordering string, allowed map[string]string, fallback string) string {
	var parts []string
	for _, field := range strings.Split(ordering, ",") {
		field = strings.TrimSpace(field)
		direction := "ASC"
		if name, ok := strings.CutPrefix(field, "-"); ok {
			field, direction = name, "DESC"
		}
		if column, ok := allowed[field]; ok {
			parts = append(parts, column+" "+direction)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

func boolFilter(c *gin.Context, query *gorm.DB, param, column string) (*gorm.DB, error) {
	raw, ok := c.GetQuery(param)
	if !ok || raw == "" {
		return query, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &filterError{field: param, message: "Select a valid choice. That choice is not one of the available choices."}
	}
	return query.Where(column+" = ?", value), nil
}

func intFilter(c *gin.Context, query *gorm.DB, param, column string) (*gorm.DB, error) {
	raw, ok := c.GetQuery(param)
	if !ok || raw == "" {
		return query, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &filterError{field: param, message: "Enter a whole number."}
	}
	return query.Where(column+" = ?", value), nil
}

func parsePage(c *gin.Context) (page, size int, err error) {
	page, size = 1, defaultPageSize
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errInvalidPage
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			size = min(n, maxPageSize)
		}
	}
	return page, size, nil
}

// pageLink returns the absolute URL of the current request with page replaced
func pageLink(c *gin.Context, page int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, c.Request.URL.Path)
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return &link
}

// respondPage counts and fetches one page of query, answering with the
// pagination envelope
func respondPage[T any, R any](s *Server, c *gin.Context, query *gorm.DB, l listing, serialize func(*T) R) {
	if search := c.Query("search"); search != "" && len(l.searchColumns) > 0 {
		query = applySearch(query, search, l.searchColumns)
	}

	page, size, err := parsePage(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
		return
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		s.internalError(c, err, "Failed to count rows")
		return
	}

	lastPage := int((total + int64(size) - 1) / int64(size))
	if page > 1 && page > lastPage {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
		return
	}

	find := query.Order(orderClause(c.Query("ordering"), l.orderColumns, l.defaultOrder))
	if l.selectColumns != "" {
		find = find.Select(l.selectColumns)
	}
	for _, preload := range l.preloads {
		find = find.Preload(preload)
	}
	var rows []T
	if err := find.Offset((page - 1) * size).Limit(size).Find(&rows).Error; err != nil {
		s.internalError(c, err, "Failed to list rows")
		return
	}

	response := PageResponse[R]{
		Count:   total,
		Results: make([]R, 0, len(rows)),
	}
	for i := range rows {
		response.Results = append(response.Results, serialize(&rows[i]))
	}
	if page < lastPage {
		response.Next = pageLink(c, page+1)
	}
	if page > 1 {
		response.Previous = pageLink(c, page-1)
	}

	c.JSON(http.StatusOK, response)
}

// respondFilterError answers a rejected filter, or a generic 500
func (s *Server) respondFilterError(c *gin.Context, err error) {
	var fe *filterError
	if errors.As(err, &fe) {
		c.JSON(http.StatusBadRequest, fieldErrors(map[string]string{fe.field: fe.message}))
		return
	}
	s.internalError(c, err, "Failed to apply filter")
}

func (s *Server) internalError(c *gin.Context, err error, message string) {
	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

// idParam parses the :id path parameter. Anything but a positive integer
// cannot match a row.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
		return 0, false
	}
	return uint(id), true
}

// findOr404 loads a row by id, answering 404 or 500 itself on failure
func findOr404[T any](s *Server, c *gin.Context, query *gorm.DB, id uint, row *T) bool {
	if err := query.Where("id = ?", id).First(row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
			return false
		}
		s.internalError(c, err, "Failed to load row")
		return false
	}
	return true
}
