package controllers

import (
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
)

// AssignmentRequest dispatches one pending work item to a field worker
type AssignmentRequest struct {
	Type     string `json:"type" binding:"required,oneof=installation support"`
	TargetID uint   `json:"target_id" binding:"required"`
	UserID   uint   `json:"user_id" binding:"required"`
}

// InstallationAssignment is one row of an installer's work queue
type InstallationAssignment struct {
	SubscriptionID          uint      `json:"subscription_id"`
	SubscriberName          string    `json:"subscriber_name"`
	MobileNumber            string    `json:"mobile_number"`
	FATNumber               string    `json:"fat_number"`
	FATAddress              string    `json:"fat_address"`
	PortNumber              int       `json:"port_number"`
	VirtualSubscriberNumber string    `json:"virtual_subscriber_number"`
	InstallationStatus      string    `json:"installation_status"`
	CreatedAt               time.Time `json:"created_at"`
}

// SupportAssignment is one row of a support worker's work queue
type SupportAssignment struct {
	TicketID         uint      `json:"ticket_id"`
	Title            string    `json:"title"`
	IssueDescription string    `json:"issue_description"`
	Status           string    `json:"status"`
	SubscriberName   string    `json:"subscriber_name"`
	MobileNumber     string    `json:"mobile_number"`
	FATNumber        string    `json:"fat_number"`
	PortNumber       int       `json:"port_number"`
	CreatedAt        time.Time `json:"created_at"`
}

// TaskItem is one entry of the admin task board, either an unfinished
// installation or an open ticket
type TaskItem struct {
	Type           string    `json:"type"`
	TargetID       uint      `json:"target_id"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	AssignedUserID *uint     `json:"assigned_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetAssignments returns the caller's own work queue. Installers see their
// subscriptions, support staff their tickets.
func GetAssignments(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		respondDeny(c, auth.Authorize(nil, auth.ActionRead, auth.ResourceSubscription, nil))
		return
	}

	switch id.Role {
	case auth.RoleInstaller:
		listInstallationAssignments(c, id)
	case auth.RoleSupport:
		listSupportAssignments(c, id)
	default:
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Only field workers have an assignment queue"})
	}
}

func listInstallationAssignments(c *gin.Context, id *auth.Identity) {
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceSubscription, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	query := database.DB.Model(&database.Subscription{}).
		Joins("JOIN subscribers ON subscribers.id = subscriptions.subscriber_id").
		Joins("JOIN fats ON fats.id = subscriptions.fat_id").
		Select(`subscriptions.id AS subscription_id, subscribers.full_name AS subscriber_name,
			subscribers.mobile_number, fats.fat_number, fats.address AS fat_address,
			subscriptions.port_number, subscriptions.virtual_subscriber_number,
			subscriptions.installation_status, subscriptions.created_at`)
	query = decision.Scope.ApplyConds(query)

	var rows []InstallationAssignment
	if err := query.Order("subscriptions.created_at DESC").Find(&rows).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": rows})
}

func listSupportAssignments(c *gin.Context, id *auth.Identity) {
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceTicket, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	query := database.DB.Model(&database.SupportTicket{}).
		Joins("JOIN subscriptions ON subscriptions.id = support_tickets.subscription_id").
		Joins("JOIN subscribers ON subscribers.id = subscriptions.subscriber_id").
		Joins("JOIN fats ON fats.id = subscriptions.fat_id").
		Select(`support_tickets.id AS ticket_id, support_tickets.title,
			support_tickets.issue_description, support_tickets.status,
			subscribers.full_name AS subscriber_name, subscribers.mobile_number,
			fats.fat_number, subscriptions.port_number, support_tickets.created_at`)
	query = decision.Scope.ApplyConds(query)

	var rows []SupportAssignment
	if err := query.Order("support_tickets.created_at DESC").Find(&rows).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": rows})
}

// GetTasks returns the admin task board: installations not yet completed and
// tickets not yet closed out, newest first.
func GetTasks(c *gin.Context) {
	id := middleware.CurrentIdentity(c)

	subDecision := auth.Authorize(id, auth.ActionAssign, auth.ResourceSubscription, nil)
	if !subDecision.Allowed {
		respondDeny(c, subDecision)
		return
	}
	ticketDecision := auth.Authorize(id, auth.ActionAssign, auth.ResourceTicket, nil)
	if !ticketDecision.Allowed {
		respondDeny(c, ticketDecision)
		return
	}

	var subs []database.Subscription
	subQuery := subDecision.Scope.Apply(database.DB.Model(&database.Subscription{})).
		Select("subscriptions.*").
		Where("subscriptions.installation_status IN ?", []string{
			database.InstallationStatusPending, database.InstallationStatusAssigned,
		}).
		Preload("Subscriber")
	if err := subQuery.Find(&subs).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	var tickets []database.SupportTicket
	ticketQuery := ticketDecision.Scope.Apply(database.DB.Model(&database.SupportTicket{})).
		Select("support_tickets.*").
		Where("support_tickets.status IN ?", []string{
			database.TicketStatusOpen, database.TicketStatusAssigned,
		})
	if err := ticketQuery.Find(&tickets).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	tasks := make([]TaskItem, 0, len(subs)+len(tickets))
	for _, s := range subs {
		tasks = append(tasks, TaskItem{
			Type:           "installation",
			TargetID:       s.ID,
			Description:    "Install service for " + s.Subscriber.FullName,
			Status:         s.InstallationStatus,
			AssignedUserID: s.AssignedInstallerID,
			CreatedAt:      s.CreatedAt,
		})
	}
	for _, t := range tickets {
		tasks = append(tasks, TaskItem{
			Type:           "support",
			TargetID:       t.ID,
			Description:    t.Title,
			Status:         t.Status,
			AssignedUserID: t.AssignedSupportID,
			CreatedAt:      t.CreatedAt,
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": tasks})
}

// CreateAssignment dispatches a work item to a field worker. Reassigning an
// already assigned item simply overwrites the assignee.
func CreateAssignment(c *gin.Context) {
	id := middleware.CurrentIdentity(c)

	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var assignee database.User
	if err := database.DB.First(&assignee, req.UserID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "User")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	// The assignee's role has to match the work type, and a company admin
	// can only hand work to their own staff.
	wantRole := auth.RoleInstaller
	if req.Type == "support" {
		wantRole = auth.RoleSupport
	}
	if assignee.Role != string(wantRole) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Assignee role does not match the assignment type"})
		return
	}
	if id != nil && id.Role == auth.RoleCompanyAdmin {
		if assignee.CompanyID == nil || id.CompanyID == nil || *assignee.CompanyID != *id.CompanyID {
			respondNotFound(c, "User")
			return
		}
	}

	if req.Type == "installation" {
		assignInstallation(c, id, req)
	} else {
		assignTicket(c, id, req)
	}
}

func assignInstallation(c *gin.Context, id *auth.Identity, req AssignmentRequest) {
	var sub database.Subscription
	if err := database.DB.Preload("FAT").First(&sub, req.TargetID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Subscription")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionAssign, auth.ResourceSubscription, &sub)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Subscription")
			return
		}
		respondDeny(c, decision)
		return
	}

	if sub.InstallationStatus == database.InstallationStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Installation is already completed"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&database.Subscription{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
			"assigned_installer_id": req.UserID,
			"installation_status":   database.InstallationStatusAssigned,
		}).Error
	})
	if err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Installation assigned successfully"})
}

func assignTicket(c *gin.Context, id *auth.Identity, req AssignmentRequest) {
	var ticket database.SupportTicket
	if err := database.DB.First(&ticket, req.TargetID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "Ticket")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionAssign, auth.ResourceTicket, &ticket)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "Ticket")
			return
		}
		respondDeny(c, decision)
		return
	}

	if ticket.Status == database.TicketStatusResolved {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Ticket is already resolved"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&database.SupportTicket{}).Where("id = ?", ticket.ID).Updates(map[string]interface{}{
			"assigned_support_id": req.UserID,
			"status":              database.TicketStatusAssigned,
		}).Error
	})
	if err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Ticket assigned successfully"})
}
