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

// TicketCreateRequest is the create payload for support tickets
type TicketCreateRequest struct {
	SubscriptionID   uint   `json:"subscription_id" binding:"required"`
	Title            string `json:"title" binding:"required"`
	IssueDescription string `json:"issue_description" binding:"required"`
}

// TicketUpdateRequest is the update payload for support tickets
type TicketUpdateRequest struct {
	Title            string `json:"title" binding:"required"`
	IssueDescription string `json:"issue_description" binding:"required"`
}

// TicketWithDetails is the list/detail row joining subscription, subscriber
// and the involved staff
type TicketWithDetails struct {
	ID                      uint      `json:"id"`
	SubscriptionID          uint      `json:"subscription_id"`
	Title                   string    `json:"title"`
	IssueDescription        string    `json:"issue_description"`
	Status                  string    `json:"status"`
	VirtualSubscriberNumber string    `json:"virtual_subscriber_number"`
	SubscriberName          string    `json:"subscriber_name"`
	CreatedBy               string    `json:"created_by"`
	AssignedTo              string    `json:"assigned_to"`
	CreatedAt               time.Time `json:"created_at"`
}

func ticketDetailQuery() *gorm.DB {
	return database.DB.Model(&database.SupportTicket{}).
		Joins("JOIN subscriptions ON subscriptions.id = support_tickets.subscription_id").
		Joins("JOIN subscribers ON subscribers.id = subscriptions.subscriber_id").
		Joins("JOIN users u_creator ON u_creator.id = support_tickets.created_by_user_id").
		Joins("LEFT JOIN users u_assignee ON u_assignee.id = support_tickets.assigned_support_id").
		Select(`
			support_tickets.id,
			support_tickets.subscription_id,
			support_tickets.title,
			support_tickets.issue_description,
			support_tickets.status,
			subscriptions.virtual_subscriber_number,
			subscribers.full_name AS subscriber_name,
			u_creator.username AS created_by,
			u_assignee.username AS assigned_to,
			support_tickets.created_at
		`)
}

// GetTickets lists support tickets visible to the caller, optionally
// filtered by status
func GetTickets(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceTicket, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	query := decision.Scope.Apply(ticketDetailQuery())
	if status := c.Query("status"); status != "" {
		query = query.Where("support_tickets.status = ?", status)
	}

	var tickets []TicketWithDetails
	if err := query.Order("support_tickets.created_at DESC").Find(&tickets).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": tickets})
}

// GetTicketByID returns a single ticket
func GetTicketByID(c *gin.Context) {
	ticketID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var ticket database.SupportTicket
	if err := database.DB.First(&ticket, ticketID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Ticket")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceTicket, &ticket)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Ticket")
			return
		}
		respondDeny(c, decision)
		return
	}

	var detail TicketWithDetails
	if err := ticketDetailQuery().Where("support_tickets.id = ?", ticket.ID).First(&detail).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": detail})
}

// CreateTicket opens a support case for a subscription. The ticket's
// company is stamped from the admin's tenant (or, for super admins, from
// the subscription's FAT) so later scoping needs no join.
func CreateTicket(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceTicket, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}
	var req TicketCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var subscription database.Subscription
	if err := database.DB.Preload("FAT").First(&subscription, req.SubscriptionID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscription")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	subDecision := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscription, &subscription)
	if !subDecision.Allowed {
		respondNotFound(c, "Subscription")
		return
	}

	companyID := id.CompanyID
	if id.Role == auth.RoleSuperAdmin {
		companyID = subscription.FAT.CompanyID
	}

	ticket := database.SupportTicket{
		SubscriptionID:   req.SubscriptionID,
		CompanyID:        companyID,
		Title:            req.Title,
		IssueDescription: req.IssueDescription,
		Status:           database.TicketStatusOpen,
		CreatedByUserID:  id.UserID,
	}

	if err := database.DB.Create(&ticket).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Support ticket created successfully", "data": ticket})
}

// UpdateTicket edits a ticket's title and description
func UpdateTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var ticket database.SupportTicket
	if err := database.DB.First(&ticket, ticketID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Ticket")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionUpdate, auth.ResourceTicket, &ticket)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Ticket")
			return
		}
		respondDeny(c, decision)
		return
	}

	var req TicketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ticket.Title = req.Title
	ticket.IssueDescription = req.IssueDescription
	if err := database.DB.Save(&ticket).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Ticket updated successfully", "data": ticket})
}

// DeleteTicket removes a ticket. Filed support reports stay as the
// append-only history.
func DeleteTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var ticket database.SupportTicket
	if err := database.DB.First(&ticket, ticketID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Ticket")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionDelete, auth.ResourceTicket, &ticket)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Ticket")
			return
		}
		respondDeny(c, decision)
		return
	}

	if err := database.DB.Delete(&ticket).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Ticket deleted successfully"})
}
