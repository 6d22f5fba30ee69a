package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/commission/export"
)

func (s *Server) RunCommissionSync(c *gin.Context) {
	result := s.commissionSvc.RunCommissionSync(c.Request.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"data": result})
}

func (s *Server) ListSyncRuns(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil || (limit != nil && *limit < 0) {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	resp, err := s.commissionSvc.ListSyncRuns(c.Request.Context(), n)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCommissionLines(c *gin.Context) {
	var query struct {
		SalespersonID string `form:"salesperson_id"`
		DateFrom      string `form:"date_from"`
		DateTo        string `form:"date_to"`
		PageToken     string `form:"page_token"`
		PageSize      int32  `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	salespersonID, err := parseOptionalSnowflakeID(query.SalespersonID)
	if err != nil {
		AbortWithError(c, newValidationError("salesperson_id", "invalid_salesperson_id", "invalid salesperson_id"))
		return
	}
	dateFrom, err := parseOptionalDate(query.DateFrom)
	if err != nil {
		AbortWithError(c, newValidationError("date_from", "invalid_date_from", "invalid date_from"))
		return
	}
	dateTo, err := parseOptionalDate(query.DateTo)
	if err != nil {
		AbortWithError(c, newValidationError("date_to", "invalid_date_to", "invalid date_to"))
		return
	}

	req := commissiondomain.ListRequest{
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
	}
	if salespersonID != nil {
		req.SalespersonID = int64(*salespersonID)
	}

	resp, err := s.commissionSvc.ListRecords(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCommissionReport(c *gin.Context) {
	req, err := reportRequestFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows, err := s.commissionSvc.GetCommissionReport(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if rows == nil {
		rows = []commissiondomain.ReportRow{}
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (s *Server) ExportCommissionReportXLSX(c *gin.Context) {
	s.exportCommissionReport(c, export.FormatXLSX, s.exportSvc.XLSX)
}

func (s *Server) ExportCommissionReportPDF(c *gin.Context) {
	s.exportCommissionReport(c, export.FormatPDF, s.exportSvc.PDF)
}

func (s *Server) exportCommissionReport(
	c *gin.Context,
	format string,
	render func(ctx context.Context, req commissiondomain.ReportRequest) (*export.File, error),
) {
	c.Set("export_format", format)

	req, err := reportRequestFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	file, err := render(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if file.ArchiveKey != "" {
		c.Header(HeaderArchiveKey, file.ArchiveKey)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

func (s *Server) GetDiagnostics(c *gin.Context) {
	dateFrom, err := parseOptionalDate(c.Query("date_from"))
	if err != nil {
		AbortWithError(c, newValidationError("date_from", "invalid_date_from", "invalid date_from"))
		return
	}
	dateTo, err := parseOptionalDate(c.Query("date_to"))
	if err != nil {
		AbortWithError(c, newValidationError("date_to", "invalid_date_to", "invalid date_to"))
		return
	}

	resp, err := s.commissionSvc.Diagnostics(c.Request.Context(), commissiondomain.DiagnosticsRequest{
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func reportRequestFromQuery(c *gin.Context) (commissiondomain.ReportRequest, error) {
	dateFrom, err := parseOptionalDate(c.Query("date_from"))
	if err != nil {
		return commissiondomain.ReportRequest{}, newValidationError("date_from", "invalid_date_from", "invalid date_from")
	}
	dateTo, err := parseOptionalDate(c.Query("date_to"))
	if err != nil {
		return commissiondomain.ReportRequest{}, newValidationError("date_to", "invalid_date_to", "invalid date_to")
	}
	status, err := commissiondomain.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return commissiondomain.ReportRequest{}, err
	}
	ids, err := parseSnowflakeIDs(c.QueryArray("salesperson_id"))
	if err != nil {
		return commissiondomain.ReportRequest{}, newValidationError("salesperson_id", "invalid_salesperson_id", "invalid salesperson_id")
	}

	req := commissiondomain.ReportRequest{
		StatusFilter:   status,
		SalespersonIDs: ids,
	}
	if dateFrom != nil {
		req.DateFrom = *dateFrom
	}
	if dateTo != nil {
		req.DateTo = *dateTo
	}
	return req, nil
}

func isCommissionValidationError(err error) bool {
	switch {
	case errors.Is(err, commissiondomain.ErrInvalidDateRange),
		errors.Is(err, commissiondomain.ErrInvalidStatusFilter),
		errors.Is(err, commissiondomain.ErrInvalidSalesperson):
		return true
	default:
		return false
	}
}
