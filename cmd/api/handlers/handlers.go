package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"brewspot/cmd/api/dto"
	"brewspot/cmd/api/middleware"
	"brewspot/cmd/api/services"
	"brewspot/config"
	"brewspot/repositories"
)

// HealthHandler reports liveness only.
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidListing):
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
	case errors.Is(err, repositories.ErrListingNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: err.Error()})
	default:
		config.Logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal_error"})
	}
}

func pageParams(c *gin.Context, defaultSize string) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", defaultSize))
	return page, pageSize
}

func reviewer(c *gin.Context) string {
	if v := c.GetString(middleware.AdminUserKey); v != "" {
		return v
	}
	return "admin"
}
