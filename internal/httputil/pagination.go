package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultPageSize is used when the size query parameter is absent.
const DefaultPageSize = 10

// ParsePage parses the zero-based page and size query parameters.
// Size must be between 1 and maxSize.
func ParsePage(c *gin.Context, maxSize int) (page, size int, err error) {
	page, err = strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return 0, 0, fmt.Errorf("invalid page parameter: must be a non-negative integer")
	}

	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(min(DefaultPageSize, maxSize))))
	if err != nil || size < 1 || size > maxSize {
		return 0, 0, fmt.Errorf("invalid size parameter: must be between 1 and %d", maxSize)
	}

	return page, size, nil
}

// ParseID parses a positive int64 path parameter.
func ParseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter: must be a positive integer", name)
	}
	return id, nil
}
