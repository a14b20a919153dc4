package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fibernet/config"
	"fibernet/database"
	"fibernet/middleware"
	"fibernet/utils"
)

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful authentication
type LoginResponse struct {
	Token  string        `json:"token"`
	User   database.User `json:"user"`
	Expiry int64         `json:"expiry"`
}

// ChangePasswordRequest is the change-password payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// Login authenticates credentials and returns a bearer token carrying the
// user id, role and company id
func Login(c *gin.Context) {
	var loginRequest LoginRequest
	if err := c.ShouldBindJSON(&loginRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var user database.User
	err := database.DB.Where("username = ?", loginRequest.Username).First(&user).Error
	if err != nil {
		if isNotFoundErr(err) {
			// Same response as a wrong password
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid credentials"})
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	if !utils.CheckPasswordHash(loginRequest.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid credentials"})
		return
	}

	expiryTime := time.Now().Add(config.GetJWTExpiration())
	token, err := utils.GenerateJWT(user.ID, user.Username, user.Role, user.CompanyID, expiryTime)
	if err != nil {
		log.Printf("JWT error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:  token,
		User:   user,
		Expiry: expiryTime.Unix(),
	})
}

// GetProfile returns the authenticated user's account
func GetProfile(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Authentication required"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, id.UserID).Error; err != nil {
		if isNotFoundErr(err) {
			respondNotFound(c, "User")
		} else {
			log.Printf("Database error: %v", err)
			respondServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": user})
}

// ChangePassword updates the authenticated user's password after verifying
// the current one
func ChangePassword(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Authentication required"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var user database.User
	if err := database.DB.First(&user, id.UserID).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Current password is incorrect"})
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("Password hashing error: %v", err)
		respondServerError(c)
		return
	}

	if err := database.DB.Model(&user).Update("password_hash", hash).Error; err != nil {
		log.Printf("Database error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Password updated successfully"})
}
