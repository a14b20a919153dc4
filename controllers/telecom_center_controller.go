package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
)

// TelecomCenterRequest is the create/update payload for telecom centers
type TelecomCenterRequest struct {
	Name      string `json:"name" binding:"required"`
	CompanyID *uint  `json:"company_id"`
}

// GetTelecomCenters lists global centers plus the centers of the caller's
// company; super admins see everything
func GetTelecomCenters(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceTelecomCenter, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var centers []database.TelecomCenter
	query := decision.Scope.Apply(database.DB.Model(&database.TelecomCenter{}))
	if err := query.Order("name").Find(&centers).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": centers})
}

// GetTelecomCenterByID returns a single telecom center
func GetTelecomCenterByID(c *gin.Context) {
	centerID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var center database.TelecomCenter
	if err := database.DB.First(&center, centerID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Telecom center")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceTelecomCenter, &center)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Telecom center")
			return
		}
		respondDeny(c, decision)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": center})
}

// CreateTelecomCenter creates a center. A company admin's center is always
// assigned to their own company regardless of the payload; only a super
// admin may target another company or create a global (null-company) center.
func CreateTelecomCenter(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceTelecomCenter, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var req TelecomCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	center := database.TelecomCenter{Name: req.Name, CompanyID: req.CompanyID}
	if id.Role == auth.RoleCompanyAdmin {
		center.CompanyID = id.CompanyID
	}

	if center.CompanyID == nil {
		taken, err := globalCenterNameTaken(center.Name, 0)
		if err != nil {
			log.Printf("Database error: %v", err)
			respondServerError(c)
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Telecom center name already exists in this scope"})
			return
		}
	}

	if err := database.DB.Create(&center).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Telecom center name already exists in this scope"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Telecom center created successfully", "data": center})
}

// globalCenterNameTaken reports whether a live global center already uses
// name. The unique index on (company_id, name) cannot enforce this partition
// because SQL treats its NULL company ids as distinct rows.
func globalCenterNameTaken(name string, excludeID uint) (bool, error) {
	var count int64
	query := database.DB.Model(&database.TelecomCenter{}).
		Where("company_id IS NULL AND name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateTelecomCenter renames a center or, for super admins, moves it
// between companies
func UpdateTelecomCenter(c *gin.Context) {
	centerID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var center database.TelecomCenter
	if err := database.DB.First(&center, centerID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Telecom center")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionUpdate, auth.ResourceTelecomCenter, &center)
	if !decision.Allowed {
		// A foreign company's center looks like a missing row; a global
		// center is visible to the caller, so the denial is explicit.
		if decision.Reason == auth.ReasonWrongTenant && center.CompanyID != nil {
			respondNotFound(c, "Telecom center")
			return
		}
		respondDeny(c, decision)
		return
	}

	var req TelecomCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	center.Name = req.Name
	if id.Role == auth.RoleSuperAdmin {
		center.CompanyID = req.CompanyID
	}

	if center.CompanyID == nil {
		taken, err := globalCenterNameTaken(center.Name, center.ID)
		if err != nil {
			log.Printf("Database error: %v", err)
			respondServerError(c)
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Telecom center name already exists in this scope"})
			return
		}
	}

	if err := database.DB.Save(&center).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Telecom center name already exists in this scope"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Telecom center updated successfully", "data": center})
}

// DeleteTelecomCenter removes a center together with its FATs and their
// subscriptions
func DeleteTelecomCenter(c *gin.Context) {
	centerID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var center database.TelecomCenter
	if err := database.DB.First(&center, centerID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Telecom center")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionDelete, auth.ResourceTelecomCenter, &center)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant && center.CompanyID != nil {
			respondNotFound(c, "Telecom center")
			return
		}
		respondDeny(c, decision)
		return
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		log.Printf("Transaction error: %v", tx.Error)
		respondServerError(c)
		return
	}

	if err := tx.Where("subscription_id IN (SELECT id FROM subscriptions WHERE fat_id IN (SELECT id FROM fats WHERE telecom_center_id = ?))", center.ID).
		Delete(&database.SupportTicket{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("fat_id IN (SELECT id FROM fats WHERE telecom_center_id = ?)", center.ID).
		Delete(&database.Subscription{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("telecom_center_id = ?", center.ID).Delete(&database.FAT{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Delete(&center).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	if err := tx.Commit().Error; err != nil {
		log.Printf("Transaction error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Telecom center and related FATs deleted successfully"})
}
