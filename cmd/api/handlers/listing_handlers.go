package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brewspot/cmd/api/dto"
	"brewspot/cmd/api/services"
)

// ListListingsHandler GET /api/v1/listings
// 승인된 리스팅만 노출한다. tag 는 사용자 태그와 AI 태그 모두에서 찾는다.
func ListListingsHandler(svc *services.ListingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c, "20")
		resp, err := svc.ListApproved(c.Request.Context(), services.ListListingsInput{
			Page:     page,
			PageSize: pageSize,
			Tag:      c.Query("tag"),
			City:     c.Query("city"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetListingHandler GET /api/v1/listings/:id
func GetListingHandler(svc *services.ListingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.GetApproved(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// SubmitListingHandler POST /api/v1/listings
func SubmitListingHandler(svc *services.ListingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SubmitListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		out, err := svc.Submit(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// RequestRefreshHandler POST /api/v1/listings/:id/ai-meta/refresh
func RequestRefreshHandler(svc *services.ListingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RequestRefresh(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.MessageResponseDTO{Message: "ai metadata refresh requested"})
	}
}
