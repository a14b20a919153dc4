package controllers

import (
	"log"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
)

// SubscriberRequest is the create/update payload for subscribers
type SubscriberRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	MobileNumber string `json:"mobile_number" binding:"required"`
	NationalID   string `json:"national_id"`
}

var (
	mobileNumberPattern = regexp.MustCompile(`^09[0-9]{9}$`)
	nationalIDPattern   = regexp.MustCompile(`^[0-9]{10}$`)
)

func validateSubscriberRequest(c *gin.Context, req *SubscriberRequest) bool {
	if !mobileNumberPattern.MatchString(req.MobileNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid mobile number format"})
		return false
	}
	if req.NationalID != "" && !nationalIDPattern.MatchString(req.NationalID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid national id format"})
		return false
	}
	return true
}

// subscriberVisible re-verifies the tenant scope for a subscriber fetched
// by id; id lookups bypass the list filter
func subscriberVisible(id *auth.Identity, scope auth.Scope, subscriberID uint) (bool, error) {
	if scope.Unrestricted() {
		return true, nil
	}
	var count int64
	query := scope.Apply(database.DB.Model(&database.Subscriber{})).
		Where("subscribers.id = ?", subscriberID)
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetSubscribers lists subscribers visible to the caller's tenant
func GetSubscribers(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscriber, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var subscribers []database.Subscriber
	query := decision.Scope.Apply(database.DB.Model(&database.Subscriber{}))
	if !decision.Scope.Unrestricted() {
		query = query.Distinct("subscribers.*")
	}
	if err := query.Order("full_name").Find(&subscribers).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": subscribers})
}

// GetSubscriberByID returns a single subscriber
func GetSubscriberByID(c *gin.Context) {
	subscriberID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscriber, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	visible, err := subscriberVisible(id, decision.Scope, subscriberID)
	if err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if !visible {
		respondNotFound(c, "Subscriber")
		return
	}

	var subscriber database.Subscriber
	if err := database.DB.First(&subscriber, subscriberID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscriber")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": subscriber})
}

// CreateSubscriber registers a new subscriber identity
func CreateSubscriber(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceSubscriber, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var req SubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if !validateSubscriberRequest(c, &req) {
		return
	}

	subscriber := database.Subscriber{
		FullName:     req.FullName,
		MobileNumber: req.MobileNumber,
	}
	if req.NationalID != "" {
		subscriber.NationalID = &req.NationalID
	}

	if err := database.DB.Create(&subscriber).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": duplicateSubscriberMessage(req.MobileNumber, subscriber.NationalID)})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Subscriber created successfully", "data": subscriber})
}

// duplicateSubscriberMessage tells apart the two unique columns so the
// caller gets an actionable conflict message. Each candidate is verified
// with its own query; when neither still shows a live conflict the message
// stays generic rather than blaming the wrong column.
func duplicateSubscriberMessage(mobile string, nationalID *string) string {
	var count int64
	if err := database.DB.Model(&database.Subscriber{}).
		Where("mobile_number = ?", mobile).Count(&count).Error; err == nil && count > 0 {
		return "Mobile number already exists"
	}
	if nationalID != nil {
		if err := database.DB.Model(&database.Subscriber{}).
			Where("national_id = ?", *nationalID).Count(&count).Error; err == nil && count > 0 {
			return "National id already exists"
		}
	}
	return "Subscriber conflicts with an existing record"
}

// UpdateSubscriber updates a subscriber's identity fields
func UpdateSubscriber(c *gin.Context) {
	subscriberID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionUpdate, auth.ResourceSubscriber, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	visible, err := subscriberVisible(id, decision.Scope, subscriberID)
	if err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if !visible {
		respondNotFound(c, "Subscriber")
		return
	}

	var subscriber database.Subscriber
	if err := database.DB.First(&subscriber, subscriberID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscriber")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	var req SubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if !validateSubscriberRequest(c, &req) {
		return
	}

	subscriber.FullName = req.FullName
	subscriber.MobileNumber = req.MobileNumber
	if req.NationalID != "" {
		subscriber.NationalID = &req.NationalID
	} else {
		subscriber.NationalID = nil
	}

	if err := database.DB.Save(&subscriber).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Mobile number or national id already exists"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Subscriber updated successfully", "data": subscriber})
}

// DeleteSubscriber removes a subscriber and cascades to their subscriptions
func DeleteSubscriber(c *gin.Context) {
	subscriberID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionDelete, auth.ResourceSubscriber, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	visible, err := subscriberVisible(id, decision.Scope, subscriberID)
	if err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if !visible {
		respondNotFound(c, "Subscriber")
		return
	}

	var subscriber database.Subscriber
	if err := database.DB.First(&subscriber, subscriberID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscriber")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		log.Printf("Transaction error: %v", tx.Error)
		respondServerError(c)
		return
	}

	if err := tx.Where("subscription_id IN (SELECT id FROM subscriptions WHERE subscriber_id = ?)", subscriber.ID).
		Delete(&database.SupportTicket{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Where("subscriber_id = ?", subscriber.ID).Delete(&database.Subscription{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}
	if err := tx.Delete(&subscriber).Error; err != nil {
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

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Subscriber and related subscriptions deleted successfully"})
}
