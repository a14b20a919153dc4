package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fibernet/auth"
	"fibernet/database"
	"fibernet/middleware"
	"fibernet/utils"
)

// UserCreateRequest is the create payload for staff accounts
type UserCreateRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"required,oneof=super_admin company_admin installer support"`
	CompanyID *uint  `json:"company_id"`
}

// UserUpdateRequest is the update payload; an empty password keeps the
// current one
type UserUpdateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Role     string `json:"role" binding:"required,oneof=super_admin company_admin installer support"`
}

// UserWithCompany is the list row including the company name
type UserWithCompany struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	CompanyID   *uint     `json:"company_id"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// canCreateRole applies the role matrix: super admins create any role,
// company admins only their own installer/support staff.
func canCreateRole(id *auth.Identity, role auth.Role) bool {
	if id.Role == auth.RoleSuperAdmin {
		return true
	}
	return role == auth.RoleInstaller || role == auth.RoleSupport
}

// GetUsers lists staff accounts visible to the caller
func GetUsers(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceUser, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	query := decision.Scope.Apply(database.DB.Model(&database.User{})).
		Joins("LEFT JOIN companies ON companies.id = users.company_id").
		Select("users.id, users.username, users.role, users.company_id, companies.name AS company_name, users.created_at")

	if role := c.Query("role"); role != "" {
		query = query.Where("users.role = ?", role)
	}

	var users []UserWithCompany
	if err := query.Order("users.username").Find(&users).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": users})
}

// GetUserByID returns a single staff account
func GetUserByID(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var user database.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "User")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionRead, auth.ResourceUser, &user)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "User")
			return
		}
		respondDeny(c, decision)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": user})
}

// CreateUser creates a staff account. A company admin's new users always
// land in their own company.
func CreateUser(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	decision := auth.Authorize(id, auth.ActionCreate, auth.ResourceUser, nil)
	if !decision.Allowed {
		respondDeny(c, decision)
		return
	}

	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	role, _ := auth.ParseRole(req.Role)
	if !canCreateRole(id, role) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "You are not allowed to create a user with this role"})
		return
	}

	companyID := req.CompanyID
	if id.Role == auth.RoleCompanyAdmin {
		companyID = id.CompanyID
	}

	// Only super admins float without a company.
	if role == auth.RoleSuperAdmin {
		companyID = nil
	} else if companyID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "A company is required for this role"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Password hashing error: %v", err)
		respondServerError(c)
		return
	}

	user := database.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         string(role),
		CompanyID:    companyID,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Username already exists"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "User created successfully", "data": user})
}

// UpdateUser edits a staff account. The tenant check runs against the
// stored row before any field is applied.
func UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	var user database.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "User")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionUpdate, auth.ResourceUser, &user)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "User")
			return
		}
		respondDeny(c, decision)
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	role, _ := auth.ParseRole(req.Role)
	if !canCreateRole(id, role) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "You are not allowed to set this role"})
		return
	}

	user.Username = req.Username
	user.Role = string(role)
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			log.Printf("Password hashing error: %v", err)
			respondServerError(c)
			return
		}
		user.PasswordHash = hash
	}

	if err := database.DB.Save(&user).Error; err != nil {
		if isDuplicateErr(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Username already exists"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "User updated successfully", "data": user})
}

// DeleteUser removes a staff account
func DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	id := middleware.CurrentIdentity(c)
	if id != nil && id.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "You cannot delete your own account"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "User")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	decision := auth.Authorize(id, auth.ActionDelete, auth.ResourceUser, &user)
	if !decision.Allowed {
		if decision.Reason == auth.ReasonWrongTenant {
			respondNotFound(c, "User")
			return
		}
		respondDeny(c, decision)
		return
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "User deleted successfully"})
}
