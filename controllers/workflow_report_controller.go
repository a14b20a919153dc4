package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
)

// WorkReportRequest is the completion report a field worker files against
// their assigned work item. Status is only used for support reports.
type WorkReportRequest struct {
	Type          string   `json:"type" binding:"required,oneof=installation support"`
	TargetID      uint     `json:"target_id" binding:"required"`
	MaterialsUsed string   `json:"materials_used"`
	CableLength   *float64 `json:"cable_length"`
	CableType     string   `json:"cable_type"`
	Notes         string   `json:"notes"`
	Status        string   `json:"status"`
}

// errReportRejected rolls back a filing that failed a business check, as
// opposed to a storage failure.
var errReportRejected = errors.New("report rejected")

// FileWorkReport records a completion report. Filing is the only path that
// activates a subscription or moves a ticket out of the assigned state, and
// the assignee is re-checked inside the transaction so a concurrent
// reassignment revokes a stale worker's filing.
func FileWorkReport(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		respondDeny(c, auth.Authorize(nil, auth.ActionCreate, auth.ResourceInstallationReport, nil))
		return
	}

	var req WorkReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if req.Type == "installation" {
		fileInstallationReport(c, id, req)
	} else {
		fileSupportReport(c, id, req)
	}
}

func fileInstallationReport(c *gin.Context, id *auth.Identity, req WorkReportRequest) {
	if id.Role != auth.RoleInstaller {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Only installers can file installation reports"})
		return
	}

	var conflict bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var sub database.Subscription
		if err := tx.First(&sub, req.TargetID).Error; err != nil {
			return err
		}

		decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceInstallationReport, &sub)
		if !decision.Allowed {
			respondDeny(c, decision)
			return errReportRejected
		}

		if sub.InstallationStatus == database.InstallationStatusCompleted {
			conflict = true
			return errReportRejected
		}

		report := database.InstallationReport{
			SubscriptionID: sub.ID,
			InstallerID:    id.UserID,
			MaterialsUsed:  req.MaterialsUsed,
			CableLength:    req.CableLength,
			CableType:      req.CableType,
			Notes:          req.Notes,
		}
		if err := tx.Create(&report).Error; err != nil {
			return err
		}

		return tx.Model(&database.Subscription{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
			"installation_status": database.InstallationStatusCompleted,
			"is_active":           true,
		}).Error
	})
	if err != nil {
		if conflict {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Installation is already completed"})
			return
		}
		if errors.Is(err, errReportRejected) {
			// Denial response already written.
			return
		}
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscription")
			return
		}
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Installation report filed successfully"})
}

func fileSupportReport(c *gin.Context, id *auth.Identity, req WorkReportRequest) {
	if id.Role != auth.RoleSupport {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Only support staff can file support reports"})
		return
	}
	if !database.IsValidTicketReportStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid follow-up status"})
		return
	}
	if req.Notes == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Notes are required"})
		return
	}

	var conflict bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var ticket database.SupportTicket
		if err := tx.First(&ticket, req.TargetID).Error; err != nil {
			return err
		}

		decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceSupportReport, &ticket)
		if !decision.Allowed {
			respondDeny(c, decision)
			return errReportRejected
		}

		if ticket.Status != database.TicketStatusAssigned {
			conflict = true
			return errReportRejected
		}

		report := database.SupportReport{
			TicketID:      ticket.ID,
			SupportID:     id.UserID,
			Notes:         req.Notes,
			MaterialsUsed: req.MaterialsUsed,
		}
		if err := tx.Create(&report).Error; err != nil {
			return err
		}

		return tx.Model(&database.SupportTicket{}).Where("id = ?", ticket.ID).
			Update("status", req.Status).Error
	})
	if err != nil {
		if conflict {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Ticket is not awaiting a report"})
			return
		}
		if errors.Is(err, errReportRejected) {
			return
		}
		if isNotFoundErr(err) {
			respondNotFound(c, "Ticket")
			return
		}
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Support report filed successfully"})
}
