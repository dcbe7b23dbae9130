package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brewspot/cmd/api/dto"
	"brewspot/cmd/api/services"
)

// AdminListListingsHandler GET /api/v1/admin/listings?status=
func AdminListListingsHandler(svc *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c, "20")
		resp, err := svc.ListListings(c.Request.Context(), services.AdminListListingsInput{
			Page:     page,
			PageSize: pageSize,
			Status:   c.Query("status"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// AdminApproveListingHandler POST /api/v1/admin/listings/:id/approve
func AdminApproveListingHandler(svc *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Approve(c.Request.Context(), c.Param("id"), reviewer(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "listing approved"})
	}
}

// AdminRejectListingHandler POST /api/v1/admin/listings/:id/reject
func AdminRejectListingHandler(svc *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RejectListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		if err := svc.Reject(c.Request.Context(), c.Param("id"), reviewer(c), req.Reason); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "listing rejected"})
	}
}

// AdminRequestRefreshHandler POST /api/v1/admin/listings/:id/ai-meta/refresh
func AdminRequestRefreshHandler(svc *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RequestRefresh(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.MessageResponseDTO{Message: "ai metadata refresh requested"})
	}
}

// AdminListAuditLogsHandler GET /api/v1/admin/audit-logs
func AdminListAuditLogsHandler(svc *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c, "50")
		resp, err := svc.ListAuditLogs(c.Request.Context(), services.AdminListAuditLogsInput{
			Page:     page,
			PageSize: pageSize,
			EntityID: c.Query("entity_id"),
			Status:   c.Query("status"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
