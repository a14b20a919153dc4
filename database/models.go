package database

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/plugin/soft_delete"
)

// Rows are soft-deleted with a millisecond flag instead of gorm's NULL
// timestamp. Live rows carry the zero flag, so including deleted_at in a
// unique index enforces uniqueness among live rows only and a deleted row
// releases its slot (port, fat_number, username and so on become reusable).

// Company represents a contractor company, the tenant boundary of the system
type Company struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;uniqueIndex:idx_company_name"`

	Name      string     `json:"name" gorm:"uniqueIndex:idx_company_name;not null"`
	ExpiresAt *time.Time `json:"expires_at"`

	TelecomCenters []TelecomCenter `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	FATs           []FAT           `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Users          []User          `json:"-" gorm:"constraint:OnDelete:SET NULL"`
}

// User represents a staff account. CompanyID is null only for super admins.
type User struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;uniqueIndex:idx_user_username"`

	Username     string `json:"username" gorm:"uniqueIndex:idx_user_username;not null"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	CompanyID    *uint  `json:"company_id"`
	Permissions  string `json:"permissions,omitempty"`
}

// TelecomCenter groups FATs. A null CompanyID marks a global/shared center
// visible to every tenant. The unique index cannot cover the global
// partition because SQL treats its NULL company ids as distinct; the
// controllers guard that partition by hand.
type TelecomCenter struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;uniqueIndex:idx_center_scope"`

	Name      string `json:"name" gorm:"uniqueIndex:idx_center_scope;not null"`
	CompanyID *uint  `json:"company_id" gorm:"uniqueIndex:idx_center_scope"`

	FATs []FAT `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// FAT represents a fiber splitter cabinet. Port capacity is defined by the
// splitter type denominator (1:8 -> 8 ports).
type FAT struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;uniqueIndex:idx_fat_number"`

	FATNumber       string  `json:"fat_number" gorm:"column:fat_number;uniqueIndex:idx_fat_number;not null"`
	TelecomCenterID uint    `json:"telecom_center_id"`
	CompanyID       *uint   `json:"company_id"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Address         string  `json:"address"`
	SplitterType    string  `json:"splitter_type"`

	TelecomCenter TelecomCenter  `json:"-" gorm:"foreignKey:TelecomCenterID"`
	Subscriptions []Subscription `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// PortCapacity returns the number of ports this FAT provides, derived from
// the splitter ratio denominator.
func (f *FAT) PortCapacity() int {
	parts := strings.SplitN(f.SplitterType, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	capacity, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return capacity
}

// Subscriber is a global identity; it becomes tenant-visible only through
// the FATs its subscriptions terminate on.
type Subscriber struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;uniqueIndex:idx_subscriber_mobile;uniqueIndex:idx_subscriber_national"`

	FullName     string  `json:"full_name"`
	MobileNumber string  `json:"mobile_number" gorm:"uniqueIndex:idx_subscriber_mobile;not null"`
	NationalID   *string `json:"national_id" gorm:"uniqueIndex:idx_subscriber_national"`

	Subscriptions []Subscription `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Subscription links a subscriber to one port of one FAT
type Subscription struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;uniqueIndex:idx_fat_port;uniqueIndex:idx_sub_virtual"`

	SubscriberID            uint   `json:"subscriber_id"`
	FATID                   uint   `json:"fat_id" gorm:"column:fat_id;uniqueIndex:idx_fat_port"`
	PortNumber              int    `json:"port_number" gorm:"uniqueIndex:idx_fat_port"`
	VirtualSubscriberNumber string `json:"virtual_subscriber_number" gorm:"uniqueIndex:idx_sub_virtual;not null"`
	IsActive                bool   `json:"is_active"`
	InstallationStatus      string `json:"installation_status" gorm:"default:pending"`
	AssignedInstallerID     *uint  `json:"assigned_installer_id"`

	Subscriber        Subscriber      `json:"-" gorm:"foreignKey:SubscriberID"`
	FAT               FAT             `json:"-" gorm:"foreignKey:FATID"`
	AssignedInstaller *User           `json:"-" gorm:"foreignKey:AssignedInstallerID"`
	SupportTickets    []SupportTicket `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// SupportTicket tracks a support case for one subscription. CompanyID is
// denormalized from the subscription's FAT for query efficiency.
type SupportTicket struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;index"`

	SubscriptionID    uint   `json:"subscription_id"`
	CompanyID         *uint  `json:"company_id"`
	Title             string `json:"title"`
	IssueDescription  string `json:"issue_description"`
	Status            string `json:"status" gorm:"default:open"`
	AssignedSupportID *uint  `json:"assigned_support_id"`
	CreatedByUserID   uint   `json:"created_by_user_id"`

	Subscription    Subscription `json:"-" gorm:"foreignKey:SubscriptionID"`
	AssignedSupport *User        `json:"-" gorm:"foreignKey:AssignedSupportID"`
}

// InstallationReport is an append-only record filed by the assigned installer.
// Rows are never updated or deleted.
type InstallationReport struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;index"`

	SubscriptionID uint     `json:"subscription_id"`
	InstallerID    uint     `json:"installer_id"`
	MaterialsUsed  string   `json:"materials_used"`
	CableLength    *float64 `json:"cable_length"`
	CableType      string   `json:"cable_type"`
	Notes          string   `json:"notes"`
}

// SupportReport is an append-only record filed by the assigned support agent.
type SupportReport struct {
	ID        uint                  `json:"id" gorm:"primarykey"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	DeletedAt soft_delete.DeletedAt `json:"-" gorm:"softDelete:milli;index"`

	TicketID      uint   `json:"ticket_id"`
	SupportID     uint   `json:"support_id"`
	Notes         string `json:"notes"`
	MaterialsUsed string `json:"materials_used"`
}

// Constants for status values
const (
	InstallationStatusPending   = "pending"
	InstallationStatusAssigned  = "assigned"
	InstallationStatusCompleted = "completed"

	TicketStatusOpen               = "open"
	TicketStatusAssigned           = "assigned"
	TicketStatusResolved           = "resolved"
	TicketStatusNeedsInvestigation = "needs_investigation"
	TicketStatusNeedsRecabling     = "needs_recabling"
)

// SplitterTypes lists the supported splitter ratios
var SplitterTypes = []string{"1:2", "1:4", "1:8", "1:16", "1:32"}

// IsValidSplitterType reports whether s is one of the supported ratios
func IsValidSplitterType(s string) bool {
	for _, t := range SplitterTypes {
		if t == s {
			return true
		}
	}
	return false
}

// TicketReportStatuses lists the states a support report may move a ticket to
var TicketReportStatuses = []string{
	TicketStatusResolved,
	TicketStatusNeedsInvestigation,
	TicketStatusNeedsRecabling,
}

// IsValidTicketReportStatus reports whether s is an allowed follow-up state
func IsValidTicketReportStatus(s string) bool {
	for _, t := range TicketReportStatuses {
		if t == s {
			return true
		}
	}
	return false
}
