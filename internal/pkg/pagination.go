package pkg

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/medibook/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
	defaultSort     = "id:asc"
	likeSuffix      = "__like"
)

// reservedParams lists query parameter names used for pagination/sorting, not for filtering.
var reservedParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"sort":      true,
}

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParsePageRequest extracts pagination, sorting, and filtering parameters from query params.
func ParsePageRequest(c *gin.Context) domain.PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if page < 1 {
		page = defaultPage
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 || values[0] == "" {
			continue
		}
		filter[key] = values[0]
	}

	return domain.PageRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     c.DefaultQuery("sort", defaultSort),
		Filter:   filter,
	}
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET based on the page request.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize)
	}
}

// Sort returns a GORM scope ordering by "field:asc" or "field:desc".
// Fields outside allowed, or not matching validFieldName, are ignored.
func Sort(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field, direction, ok := strings.Cut(req.Sort, ":")
		if !ok {
			return db
		}
		field = strings.TrimSpace(field)
		direction = strings.ToLower(strings.TrimSpace(direction))
		if direction != "asc" && direction != "desc" {
			return db
		}
		if !fieldAllowed(field, allowed) {
			return db
		}
		return db.Order(field + " " + direction)
	}
}

// Filter returns a GORM scope that applies WHERE conditions based on the page request filters.
// Keys ending with "__like" produce a LIKE '%value%' condition; others use exact match.
// Keys outside allowed are ignored.
func Filter(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for key, value := range req.Filter {
			if field, isLike := strings.CutSuffix(key, likeSuffix); isLike {
				if fieldAllowed(field, allowed) {
					db = db.Where(field+" LIKE ?", "%"+value+"%")
				}
				continue
			}
			if fieldAllowed(key, allowed) {
				db = db.Where(key+" = ?", value)
			}
		}
		return db
	}
}

// NewPageResult creates a PageResult with computed TotalPages.
func NewPageResult[T any](items []T, total int64, req domain.PageRequest) *domain.PageResult[T] {
	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	}

	if items == nil {
		items = []T{}
	}

	return &domain.PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}
}

// fieldAllowed guards column names interpolated into SQL.
func fieldAllowed(field string, allowed []string) bool {
	return validFieldName.MatchString(field) && slices.Contains(allowed, field)
}
