package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
)

// SubscriptionCreateRequest is the create payload for subscriptions
type SubscriptionCreateRequest struct {
	SubscriberID            uint   `json:"subscriber_id" binding:"required"`
	FATID                   uint   `json:"fat_id" binding:"required"`
	PortNumber              int    `json:"port_number" binding:"required"`
	VirtualSubscriberNumber string `json:"virtual_subscriber_number" binding:"required"`
}

// SubscriptionUpdateRequest is the update payload; absent fields are left
// untouched
type SubscriptionUpdateRequest struct {
	PortNumber              *int    `json:"port_number"`
	VirtualSubscriberNumber *string `json:"virtual_subscriber_number"`
	IsActive                *bool   `json:"is_active"`
}

// SubscriptionWithDetails is the list/detail row joining subscriber, FAT
// and telecom center
type SubscriptionWithDetails struct {
	ID                      uint      `json:"id"`
	SubscriberID            uint      `json:"subscriber_id"`
	FATID                   uint      `json:"fat_id"`
	PortNumber              int       `json:"port_number"`
	VirtualSubscriberNumber string    `json:"virtual_subscriber_number"`
	IsActive                bool      `json:"is_active"`
	InstallationStatus      string    `json:"installation_status"`
	AssignedInstallerID     *uint     `json:"assigned_installer_id"`
	SubscriberName          string    `json:"subscriber_name"`
	MobileNumber            string    `json:"mobile_number"`
	FATNumber               string    `json:"fat_number"`
	TelecomCenterName       string    `json:"telecom_center_name"`
	CreatedAt               time.Time `json:"created_at"`
}

func subscriptionDetailQuery() *gorm.DB {
	return database.DB.Model(&database.Subscription{}).
		Joins("JOIN subscribers ON subscribers.id = subscriptions.subscriber_id").
		Joins("JOIN fats ON fats.id = subscriptions.fat_id").
		Joins("JOIN telecom_centers ON telecom_centers.id = fats.telecom_center_id").
		Select(`
			subscriptions.id,
			subscriptions.subscriber_id,
			subscriptions.fat_id,
			subscriptions.port_number,
			subscriptions.virtual_subscriber_number,
			subscriptions.is_active,
			subscriptions.installation_status,
			subscriptions.assigned_installer_id,
			subscribers.full_name AS subscriber_name,
			subscribers.mobile_number,
			fats.fat_number,
			telecom_centers.name AS telecom_center_name,
			subscriptions.created_at
		`)
}

// GetSubscriptions lists subscriptions visible to the caller, with optional
// fat_id and is_active filters
func GetSubscriptions(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscription, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	// The detail query already joins fats, so only the scope predicates
	// are merged in.
	query := decision.Scope.ApplyConds(subscriptionDetailQuery())
	if fatID := c.Query("fat_id"); fatID != "" {
		query = query.Where("subscriptions.fat_id = ?", fatID)
	}
	if isActive := c.Query("is_active"); isActive != "" {
		query = query.Where("subscriptions.is_active = ?", isActive == "1" || isActive == "true")
	}

	var subscriptions []SubscriptionWithDetails
	if err := query.Order("subscriptions.created_at DESC").Find(&subscriptions).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": subscriptions})
}

// GetSubscriptionByID returns a single subscription
func GetSubscriptionByID(c *gin.Context) {
	subID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var subscription database.Subscription
	if err := database.DB.Preload("FAT").First(&subscription, subID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscription")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscription, &subscription)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Subscription")
			return
		}
		respondDeny(c, decision)
		return
	}

	var detail SubscriptionWithDetails
	if err := subscriptionDetailQuery().Where("subscriptions.id = ?", subscription.ID).First(&detail).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": detail})
}

// CreateSubscription links a subscriber to one port of one FAT. The port
// must be within the splitter capacity; port and virtual-number collisions
// are resolved by the storage constraints, so two concurrent requests for
// the same port end with exactly one winner.
func CreateSubscription(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceSubscription, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var req SubscriptionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var fat database.FAT
	if err := database.DB.First(&fat, req.FATID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "FAT")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	fatDecision := auth.Authorize(id, auth.ActionRead, auth.ResourceFAT, &fat)
	if !fatDecision.Allowed {
		respondNotFound(c, "FAT")
		return
	}

	if req.PortNumber < 1 || req.PortNumber > fat.PortCapacity() {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("Port number must be between 1 and %d for splitter type %s", fat.PortCapacity(), fat.SplitterType),
		})
		return
	}

	var subscriber database.Subscriber
	if err := database.DB.First(&subscriber, req.SubscriberID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscriber")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	subscription := database.Subscription{
		SubscriberID:            req.SubscriberID,
		FATID:                   req.FATID,
		PortNumber:              req.PortNumber,
		VirtualSubscriberNumber: req.VirtualSubscriberNumber,
		IsActive:                false,
		InstallationStatus:      database.InstallationStatusPending,
	}

	if err := database.DB.Create(&subscription).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": duplicateSubscriptionMessage(req.FATID, req.PortNumber, req.VirtualSubscriberNumber)})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Subscription created successfully", "data": subscription})
}

// duplicateSubscriptionMessage names the unique column the failed insert
// collided on. Each candidate is verified with its own query; if neither
// still shows a live conflict the message stays generic rather than blaming
// the wrong column.
func duplicateSubscriptionMessage(fatID uint, port int, virtual string) string {
	var count int64
	if err := database.DB.Model(&database.Subscription{}).
		Where("fat_id = ? AND port_number = ?", fatID, port).Count(&count).Error; err == nil && count > 0 {
		return "This port is already occupied on this FAT"
	}
	if err := database.DB.Model(&database.Subscription{}).
		Where("virtual_subscriber_number = ?", virtual).Count(&count).Error; err == nil && count > 0 {
		return "Virtual subscriber number already exists"
	}
	return "Subscription conflicts with an existing record"
}

// UpdateSubscription updates a subscription's port, virtual number or
// active flag
func UpdateSubscription(c *gin.Context) {
	subID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var subscription database.Subscription
	if err := database.DB.Preload("FAT").First(&subscription, subID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscription")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionUpdate, auth.ResourceSubscription, &subscription)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Subscription")
			return
		}
		respondDeny(c, decision)
		return
	}

	var req SubscriptionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.PortNumber != nil {
		if *req.PortNumber < 1 || *req.PortNumber > subscription.FAT.PortCapacity() {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": fmt.Sprintf("Port number must be between 1 and %d for splitter type %s", subscription.FAT.PortCapacity(), subscription.FAT.SplitterType),
			})
			return
		}
		updates["port_number"] = *req.PortNumber
	}
	if req.VirtualSubscriberNumber != nil {
		updates["virtual_subscriber_number"] = *req.VirtualSubscriberNumber
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No valid updates provided"})
		return
	}

	if err := database.DB.Model(&subscription).Updates(updates).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Duplicate port or virtual subscriber number"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Subscription updated successfully"})
}

// DeleteSubscription removes a subscription and its tickets
func DeleteSubscription(c *gin.Context) {
	subID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var subscription database.Subscription
	if err := database.DB.Preload("FAT").First(&subscription, subID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscription")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionDelete, auth.ResourceSubscription, &subscription)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Subscription")
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

	if err := tx.Where("subscription_id = ?", subscription.ID).Delete(&database.SupportTicket{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Delete(&subscription).Error; err != nil {
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

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Subscription deleted successfully"})
}
