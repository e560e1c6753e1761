package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// timeNow is swappable in tests.
var timeNow = time.Now

// getPathParam retrieves a path parameter and validates it's not empty
func getPathParam(c *gin.Context, paramName string) (string, error) {
	value := c.Param(paramName)
	if value == "" {
		return "", fmt.Errorf("%s is required", paramName)
	}
	return value, nil
}

// getPathID retrieves a path parameter and parses it as a positive integer ID
func getPathID(c *gin.Context, paramName string) (int64, error) {
	value, err := getPathParam(c, paramName)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", paramName)
	}
	return id, nil
}

// getQueryString retrieves a string query parameter
func getQueryString(c *gin.Context, paramName string) string {
	return c.Query(paramName)
}

// bindJSON binds JSON request body to a struct
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return fmt.Errorf("invalid JSON format: %v", err)
	}
	return nil
}
