package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
)

// CompanyRequest is the create/update payload for companies
type CompanyRequest struct {
	Name      string `json:"name" binding:"required"`
	ExpiresAt string `json:"expires_at"`
}

// parseExpiry accepts dates with either / or - separators
func parseExpiry(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	value = strings.ReplaceAll(value, "/", "-")
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetCompanies lists companies visible to the caller
func GetCompanies(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceCompany, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var companies []database.Company
	query := decision.Scope.Apply(database.DB.Model(&database.Company{}))
	if err := query.Order("name").Find(&companies).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": companies})
}

// GetCompanyByID returns a single company
func GetCompanyByID(c *gin.Context) {
	companyID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var company database.Company
	if err := database.DB.First(&company, companyID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Company")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceCompany, &company)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Company")
			return
		}
		respondDeny(c, decision)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": company})
}

// CreateCompany creates a tenant. Super admin only.
func CreateCompany(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceCompany, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid expiry date format"})
		return
	}

	company := database.Company{Name: req.Name, ExpiresAt: expiresAt}
	if err := database.DB.Create(&company).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Company name already exists"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Company created successfully", "data": company})
}

// UpdateCompany updates a company's name and expiry
func UpdateCompany(c *gin.Context) {
	companyID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)

	var company database.Company
	if err := database.DB.First(&company, companyID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Company")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionUpdate, auth.ResourceCompany, &company)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Company")
			return
		}
		respondDeny(c, decision)
		return
	}

	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid expiry date format"})
		return
	}

	company.Name = req.Name
	company.ExpiresAt = expiresAt
	if err := database.DB.Save(&company).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Company name already exists"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Company updated successfully", "data": company})
}

// DeleteCompany removes a tenant. Telecom centers and FATs cascade, users
// are detached.
func DeleteCompany(c *gin.Context) {
	companyID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)

	var company database.Company
	if err := database.DB.First(&company, companyID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Company")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionDelete, auth.ResourceCompany, &company)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Company")
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

	// Deleting the tenant cascades to its tickets, subscriptions, FATs and
	// telecom centers; its users are kept but detached from the company.
	// Soft deletes rule out relying on FK cascade, so the chain is applied
	// explicitly inside one transaction.
	if err := tx.Model(&database.User{}).Where("company_id = ?", company.ID).
		Update("company_id", nil).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("company_id = ?", company.ID).Delete(&database.SupportTicket{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("fat_id IN (SELECT id FROM fats WHERE company_id = ?)", company.ID).
		Delete(&database.Subscription{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("company_id = ?", company.ID).Delete(&database.FAT{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("company_id = ?", company.ID).Delete(&database.TelecomCenter{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Delete(&company).Error; err != nil {
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

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Company and related data deleted successfully"})
}
