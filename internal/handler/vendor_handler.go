package handler

import (
	"net/http"
	"strconv"

	"aptracker/internal/lifecycle"
	"aptracker/internal/middleware"
	"aptracker/internal/service"
	"aptracker/pkg/pagination"
	"aptracker/pkg/response"

	"github.com/gin-gonic/gin"
)

type VendorHandler struct {
	vendorService service.VendorService
	auth          *middleware.Auth
}

func NewVendorHandler(vendorService service.VendorService, auth *middleware.Auth) *VendorHandler {
	return &VendorHandler{vendorService: vendorService, auth: auth}
}

func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup) {
	vendors := router.Group("/api/vendors")
	vendors.Use(h.auth.RequireRole())
	{
		vendors.GET("", h.ListVendors)
		vendors.POST("", h.CreateVendor)
		vendors.GET("/:id", h.GetVendor)
		vendors.PUT("/:id", h.UpdateVendor)
		vendors.DELETE("/:id", h.auth.RequireRole(lifecycle.RoleAdmin, lifecycle.RoleFinanceManager), h.DeleteVendor)
	}
}

// ListVendors returns a paginated vendor list
// @Summary      List vendors
// @Description  Retrieves vendors, optionally filtered by a name/code/tax id search and the active flag
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Free-text search on name, code or tax id"
// @Param        active  query     bool    false  "Only active (true) or inactive (false) vendors"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/vendors [get]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.VendorListFilter{Search: c.Query("search")}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	vendors, total, err := h.vendorService.ListVendors(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Listing("vendors", vendors, total)))
}

// CreateVendor registers a vendor
// @Summary      Create vendor
// @Description  Creates a vendor. Tax id (NPWP) and code must be unique.
// @Tags         vendors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateVendorRequest  true  "Vendor payload"
// @Success      201      {object}  response.Response{data=service.VendorResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/vendors [post]
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	vendor, err := h.vendorService.CreateVendor(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// GetVendor returns one vendor
// @Summary      Get vendor
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response{data=service.VendorResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/{id} [get]
func (h *VendorHandler) GetVendor(c *gin.Context) {
	vendor, err := h.vendorService.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// UpdateVendor applies a partial update
// @Summary      Update vendor
// @Description  Updates the supplied fields. Existing invoices keep their due dates.
// @Tags         vendors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Vendor ID"
// @Param        payload  body      service.UpdateVendorRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.VendorResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/vendors/{id} [put]
func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	var req service.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	vendor, err := h.vendorService.UpdateVendor(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// DeleteVendor removes a vendor that no invoice references
// @Summary      Delete vendor
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vendors/{id} [delete]
func (h *VendorHandler) DeleteVendor(c *gin.Context) {
	if err := h.vendorService.DeleteVendor(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Vendor deleted successfully"}))
}
