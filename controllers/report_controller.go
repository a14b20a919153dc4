package controllers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"

	"fibernet/auth"
	"fibernet/config"
	"fibernet/database"
	"fibernet/middleware"
)

// SubscriptionReportRow is one line of the subscription report
type SubscriptionReportRow struct {
	SubscriberName          string    `json:"subscriber_name"`
	MobileNumber            string    `json:"mobile_number"`
	FATNumber               string    `json:"fat_number"`
	PortNumber              int       `json:"port_number"`
	VirtualSubscriberNumber string    `json:"virtual_subscriber_number"`
	IsActive                bool      `json:"is_active"`
	SplitterType            string    `json:"splitter_type"`
	OccupiedPorts           int       `json:"occupied_ports"`
	CreatedAt               time.Time `json:"created_at"`
}

// rebind rewrites ? placeholders to $n for the postgres driver. The raw
// handle speaks whichever dialect the configured driver uses.
func rebind(query string) string {
	if config.AppConfig.DBDriver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const subscriptionReportQuery = `
SELECT sub.full_name, sub.mobile_number, f.fat_number, s.port_number,
       s.virtual_subscriber_number, s.is_active, f.splitter_type,
       (SELECT COUNT(*) FROM subscriptions o
         WHERE o.fat_id = f.id AND o.deleted_at = 0) AS occupied_ports,
       s.created_at
FROM subscriptions s
JOIN subscribers sub ON sub.id = s.subscriber_id
JOIN fats f ON f.id = s.fat_id
WHERE s.deleted_at = 0`

// GetSubscriptionReport renders the subscription report for admin roles in
// the requested format. All formats render the same authorized row set.
func GetSubscriptionReport(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscription, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}
	if !id.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Reports are available to admin roles only"})
		return
	}

	query := subscriptionReportQuery
	var args []interface{}

	if id.Role == auth.RoleCompanyAdmin {
		query += " AND f.company_id = ?"
		args = append(args, id.CompanyID)
	}
	if fatID := c.Query("fat_id"); fatID != "" {
		n, err := strconv.ParseUint(fatID, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid fat_id"})
			return
		}
		query += " AND s.fat_id = ?"
		args = append(args, uint(n))
	}
	if active := c.Query("is_active"); active != "" {
		b, err := strconv.ParseBool(active)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid is_active"})
			return
		}
		query += " AND s.is_active = ?"
		args = append(args, b)
	}
	if start := c.Query("start_date"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid start_date, expected YYYY-MM-DD"})
			return
		}
		query += " AND s.created_at >= ?"
		args = append(args, t)
	}
	if end := c.Query("end_date"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid end_date, expected YYYY-MM-DD"})
			return
		}
		// End date is inclusive.
		query += " AND s.created_at < ?"
		args = append(args, t.AddDate(0, 0, 1))
	}
	query += " ORDER BY s.created_at DESC"

	rows, err := database.SQLDB.Query(rebind(query), args...)
	if err != nil {
		log.Printf("Report query error: %v", err)
		respondServerError(c)
		return
	}
	defer rows.Close()

	var report []SubscriptionReportRow
	for rows.Next() {
		var r SubscriptionReportRow
		if err := rows.Scan(&r.SubscriberName, &r.MobileNumber, &r.FATNumber,
			&r.PortNumber, &r.VirtualSubscriberNumber, &r.IsActive,
			&r.SplitterType, &r.OccupiedPorts, &r.CreatedAt); err != nil {
			log.Printf("Report scan error: %v", err)
			respondServerError(c)
			return
		}
		report = append(report, r)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Report query error: %v", err)
		respondServerError(c)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": report})
	case "csv":
		writeReportCSV(c, report)
	case "pdf":
		writeReportPDF(c, report)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Unsupported format, expected json, csv or pdf"})
	}
}

var reportHeader = []string{
	"Subscriber", "Mobile", "FAT", "Port", "Virtual Number",
	"Active", "Splitter", "Occupied Ports", "Created",
}

func reportCells(r SubscriptionReportRow) []string {
	return []string{
		r.SubscriberName,
		r.MobileNumber,
		r.FATNumber,
		strconv.Itoa(r.PortNumber),
		r.VirtualSubscriberNumber,
		strconv.FormatBool(r.IsActive),
		r.SplitterType,
		strconv.Itoa(r.OccupiedPorts),
		r.CreatedAt.Format("2006-01-02"),
	}
}

func writeReportCSV(c *gin.Context, report []SubscriptionReportRow) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="subscription_report.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(reportHeader)
	for _, r := range report {
		_ = w.Write(reportCells(r))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Printf("CSV write error: %v", err)
	}
}

func writeReportPDF(c *gin.Context, report []SubscriptionReportRow) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Subscription Report")
	pdf.Ln(12)

	widths := []float64{45, 30, 30, 15, 35, 20, 20, 30, 30}

	pdf.SetFont("Arial", "B", 9)
	for i, h := range reportHeader {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range report {
		for i, cell := range reportCells(r) {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="subscription_report.pdf"`)
	if err := pdf.Output(c.Writer); err != nil {
		log.Printf("PDF write error: %v", err)
	}
}
