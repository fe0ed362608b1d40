package ginutil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt extracts an integer from query parameters with default value
func QueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// QueryLimit reads a positive "limit" style parameter capped at max
func QueryLimit(c *gin.Context, key string, defaultValue, max int) int {
	v := QueryInt(c, key, defaultValue)
	if v <= 0 {
		return defaultValue
	}
	if v > max {
		return max
	}
	return v
}

// ParamUint extracts a positive id from path parameters
func ParamUint(c *gin.Context, key string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return uint(v), nil
}
