package handler

import (
	"net/http"
	"strings"

	"aptracker/internal/middleware"
	"aptracker/internal/service"
	"aptracker/pkg/pagination"
	"aptracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes caps import files and attachments.
const maxUploadBytes = 20 << 20

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	reportService  service.ReportService
	auth           *middleware.Auth
}

func NewInvoiceHandler(invoiceService service.InvoiceService, reportService service.ReportService, auth *middleware.Auth) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		reportService:  reportService,
		auth:           auth,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	invoices.Use(h.auth.RequireRole())
	{
		invoices.GET("", h.ListInvoices)
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/preview", h.PreviewChecklist)
		invoices.POST("/import", h.ImportInvoices)
		invoices.GET("/export", h.ExportInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.POST("/:id/actions/:action", h.ApplyAction)
		invoices.PUT("/:id/attachments/:kind", h.AttachDocument)
		invoices.GET("/:id/attachments/:kind", h.DocumentURL)
	}

	router.GET("/api/schedules", h.auth.RequireRole(), h.ListSchedules)
	router.POST("/api/due-date", h.auth.RequireRole(), h.PreviewDueDate)
}

func listFilter(c *gin.Context) service.InvoiceListFilter {
	return service.InvoiceListFilter{
		Search:   c.Query("search"),
		Status:   strings.ToUpper(c.Query("status")),
		VendorID: c.Query("vendor_id"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Role:     middleware.CurrentUser(c).Role,
	}
}

// ListInvoices returns a paginated, filtered invoice list
// @Summary      List invoices
// @Description  Lists invoices with vendor, schedule and aging data. Dates are YYYY-MM-DD and filter the invoice date.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        search     query     string  false  "Match on invoice number, PO number or vendor name"
// @Param        status     query     string  false  "DRAFT, SUBMITTED, APPROVED, REJECTED, SCHEDULED or PAID"
// @Param        vendor_id  query     string  false  "Vendor ID"
// @Param        from       query     string  false  "Invoice date from (inclusive)"
// @Param        to         query     string  false  "Invoice date to (inclusive)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Failure      400        {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), listFilter(c), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Listing("invoices", invoices, total)))
}

// CreateInvoice records a vendor invoice
// @Summary      Create invoice
// @Description  Creates a DRAFT invoice (or SUBMITTED when submit=true and the checklist passes) and its payment schedule
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Invoice payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// GetInvoice returns one invoice
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateInvoice edits an invoice that is still editable
// @Summary      Update invoice
// @Description  Only DRAFT, SUBMITTED and REJECTED invoices can be edited
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes a DRAFT invoice and its schedule
// @Summary      Delete invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted successfully"}))
}

// ApplyAction moves an invoice through its lifecycle
// @Summary      Apply lifecycle action
// @Description  SUBMIT, APPROVE, REJECT, SCHEDULE or PAY. APPROVE and REJECT need the approver role. date sets the planned (SCHEDULE) or actual (PAY) payment date.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true   "Invoice ID"
// @Param        action   path      string                 true   "Lifecycle action"
// @Param        payload  body      service.ActionRequest  false  "Optional date and remarks"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id}/actions/{action} [post]
func (h *InvoiceHandler) ApplyAction(c *gin.Context) {
	var req service.ActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request payload: "+err.Error())
			return
		}
	}
	req.Action = c.Param("action")

	invoice, err := h.invoiceService.ApplyAction(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// PreviewChecklist evaluates the verification checklist for a draft payload
// @Summary      Preview checklist
// @Description  Runs the submission checklist without saving anything
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ChecklistRequest  true  "Draft payload"
// @Success      200      {object}  response.Response{data=checklist.Result}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/preview [post]
func (h *InvoiceHandler) PreviewChecklist(c *gin.Context) {
	var req service.ChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.invoiceService.PreviewChecklist(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// PreviewDueDate runs the due-date rule engine
// @Summary      Preview due date
// @Description  Computes the due date for a vendor or explicit term code. due_date is null with a reason when no anchor date is supplied.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DueDateRequest  true  "Term and dates"
// @Success      200      {object}  response.Response{data=service.DueDateResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/due-date [post]
func (h *InvoiceHandler) PreviewDueDate(c *gin.Context) {
	var req service.DueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.invoiceService.PreviewDueDate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ImportInvoices bulk-creates DRAFT invoices from a CSV upload
// @Summary      Import invoices
// @Description  Columns: invoice no, PO no, vendor name, entry date, due date (ignored), amount, currency. Rows fail individually.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      200   {object}  response.Response{data=service.ImportResult}
// @Failure      400   {object}  response.Response
// @Router       /api/invoices/import [post]
func (h *InvoiceHandler) ImportInvoices(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "cannot read upload: "+err.Error())
		return
	}
	defer file.Close()

	result, err := h.invoiceService.ImportCSV(c.Request.Context(), actorFrom(c), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ExportInvoices downloads the invoice register
// @Summary      Export invoices
// @Description  Accepts the same filters as the list endpoint
// @Tags         invoices
// @Security     BearerAuth
// @Produce      text/csv
// @Produce      application/pdf
// @Param        format  query  string  false  "csv (default) or pdf"
// @Param        search  query  string  false  "Free-text filter"
// @Param        status  query  string  false  "Status filter"
// @Success      200
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/export [get]
func (h *InvoiceHandler) ExportInvoices(c *gin.Context) {
	var (
		file service.ExportFile
		err  error
	)
	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "csv":
		file, err = h.reportService.ExportCSV(c.Request.Context(), listFilter(c))
	case "pdf":
		file, err = h.reportService.ExportPDF(c.Request.Context(), listFilter(c))
	default:
		badRequest(c, "format must be csv or pdf")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// AttachDocument uploads a supporting document into a named slot
// @Summary      Attach document
// @Description  Slots: invoice_doc, faktur_pajak, bast_surat_jalan, attendance_list, other_evidence
// @Tags         invoices
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Invoice ID"
// @Param        kind  path      string  true  "Document slot"
// @Param        file  formData  file    true  "Document"
// @Success      200   {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /api/invoices/{id}/attachments/{kind} [put]
func (h *InvoiceHandler) AttachDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "cannot read upload: "+err.Error())
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	invoice, err := h.invoiceService.AttachDocument(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("kind"), fileHeader.Filename, file, contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DocumentURL returns a short-lived download link for an attachment
// @Summary      Attachment download URL
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true  "Invoice ID"
// @Param        kind  path      string  true  "Document slot"
// @Success      200   {object}  response.Response{data=object}
// @Failure      404   {object}  response.Response
// @Router       /api/invoices/{id}/attachments/{kind} [get]
func (h *InvoiceHandler) DocumentURL(c *gin.Context) {
	url, err := h.invoiceService.DocumentURL(c.Request.Context(), c.Param("id"), c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"url": url}))
}

// ListSchedules returns every payment schedule ordered by planned date
// @Summary      List payment schedules
// @Tags         schedules
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ScheduleResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/schedules [get]
func (h *InvoiceHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.invoiceService.ListSchedules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedules))
}
