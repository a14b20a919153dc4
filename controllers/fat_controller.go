package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
)

// FATRequest is the create/update payload for FATs
type FATRequest struct {
	FATNumber       string  `json:"fat_number" binding:"required"`
	TelecomCenterID uint    `json:"telecom_center_id" binding:"required"`
	CompanyID       *uint   `json:"company_id"`
	Latitude        float64 `json:"latitude" binding:"required"`
	Longitude       float64 `json:"longitude" binding:"required"`
	Address         string  `json:"address"`
	SplitterType    string  `json:"splitter_type" binding:"required"`
}

// FATWithDetails is the list/detail row combining the FAT with its telecom
// center and port usage
type FATWithDetails struct {
	ID                uint      `json:"id"`
	FATNumber         string    `json:"fat_number"`
	TelecomCenterID   uint      `json:"telecom_center_id"`
	TelecomCenterName string    `json:"telecom_center_name"`
	CompanyID         *uint     `json:"company_id"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Address           string    `json:"address"`
	SplitterType      string    `json:"splitter_type"`
	OccupiedPorts     int       `json:"occupied_ports"`
	CreatedAt         time.Time `json:"created_at"`
}

const fatDetailSelect = `
	fats.id,
	fats.fat_number,
	fats.telecom_center_id,
	tc.name AS telecom_center_name,
	fats.company_id,
	fats.latitude,
	fats.longitude,
	fats.address,
	fats.splitter_type,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.fat_id = fats.id AND s.deleted_at = 0) AS occupied_ports,
	fats.created_at
`

func fatDetailQuery() *gorm.DB {
	return database.DB.Model(&database.FAT{}).
		Joins("JOIN telecom_centers tc ON tc.id = fats.telecom_center_id").
		Select(fatDetailSelect)
}

// GetFATs lists FATs visible to the caller, optionally filtered by telecom
// center
func GetFATs(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceFAT, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	query := decision.Scope.Apply(fatDetailQuery())
	if centerID := c.Query("telecom_center_id"); centerID != "" {
		query = query.Where("fats.telecom_center_id = ?", centerID)
	}

	var fats []FATWithDetails
	if err := query.Order("fats.fat_number").Find(&fats).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": fats})
}

// GetFATByID returns a single FAT with details
func GetFATByID(c *gin.Context) {
	fatID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var fat database.FAT
	if err := database.DB.First(&fat, fatID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "FAT")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceFAT, &fat)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "FAT")
			return
		}
		respondDeny(c, decision)
		return
	}

	var detail FATWithDetails
	if err := fatDetailQuery().Where("fats.id = ?", fat.ID).First(&detail).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": detail})
}

// CreateFAT creates a splitter cabinet. Company admins always create under
// their own company; the telecom center must be global or within the same
// tenant.
func CreateFAT(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceFAT, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var req FATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if !database.IsValidSplitterType(req.SplitterType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid splitter type"})
		return
	}

	var center database.TelecomCenter
	if err := database.DB.First(&center, req.TelecomCenterID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Telecom center")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	fat := database.FAT{
		FATNumber:       req.FATNumber,
		TelecomCenterID: req.TelecomCenterID,
		CompanyID:       req.CompanyID,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Address:         req.Address,
		SplitterType:    req.SplitterType,
	}

	if id.Role == auth.RoleCompanyAdmin {
		// Client-supplied company is ignored; the new FAT always belongs
		// to the admin's tenant, under a center of that tenant or a
		// global one.
		fat.CompanyID = id.CompanyID
		if center.CompanyID != nil && (id.CompanyID == nil || *center.CompanyID != *id.CompanyID) {
			respondNotFound(c, "Telecom center")
			return
		}
	}

	if err := database.DB.Create(&fat).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "FAT number already exists"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	var detail FATWithDetails
	if err := fatDetailQuery().Where("fats.id = ?", fat.ID).First(&detail).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "FAT created successfully", "data": detail})
}

// UpdateFAT updates a splitter cabinet. The tenant check runs against the
// stored row before any field is applied.
func UpdateFAT(c *gin.Context) {
	fatID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var fat database.FAT
	if err := database.DB.First(&fat, fatID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "FAT")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionUpdate, auth.ResourceFAT, &fat)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "FAT")
			return
		}
		respondDeny(c, decision)
		return
	}

	var req FATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if !database.IsValidSplitterType(req.SplitterType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid splitter type"})
		return
	}

	if req.TelecomCenterID != fat.TelecomCenterID {
		// Re-parenting gets the same check as creation: the target center
		// must exist and, for a company admin, be global or their own.
		var center database.TelecomCenter
		if err := database.DB.First(&center, req.TelecomCenterID).Error; err != nil {
			if isNotFoundErr(err) {
				respondNotFound(c, "Telecom center")
			} else {
				log.Printf("Database error: %v", err)
				respondServerError(c)
			}
			return
		}
		if id.Role == auth.RoleCompanyAdmin &&
			center.CompanyID != nil && (id.CompanyID == nil || *center.CompanyID != *id.CompanyID) {
			respondNotFound(c, "Telecom center")
			return
		}
	}

	fat.FATNumber = req.FATNumber
	fat.TelecomCenterID = req.TelecomCenterID
	fat.Latitude = req.Latitude
	fat.Longitude = req.Longitude
	fat.Address = req.Address
	fat.SplitterType = req.SplitterType
	if id.Role == auth.RoleSuperAdmin {
		fat.CompanyID = req.CompanyID
	}

	if err := database.DB.Save(&fat).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "FAT number already exists"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "FAT updated successfully", "data": fat})
}

// DeleteFAT removes a cabinet and cascades to its subscriptions and their
// tickets
func DeleteFAT(c *gin.Context) {
	fatID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var fat database.FAT
	if err := database.DB.First(&fat, fatID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "FAT")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionDelete, auth.ResourceFAT, &fat)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "FAT")
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

	if err := tx.Where("subscription_id IN (SELECT id FROM subscriptions WHERE fat_id = ?)", fat.ID).
		Delete(&database.SupportTicket{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("fat_id = ?", fat.ID).Delete(&database.Subscription{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Delete(&fat).Error; err != nil {
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

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "FAT and related subscriptions deleted successfully"})
}
