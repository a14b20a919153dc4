package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fibernet/auth"
)

// respondDeny writes the outward response for an authorization denial
func respondDeny(c *gin.Context, d auth.Decision) {
	message := "Permission denied"
	if d.Reason == auth.ReasonNotLoggedIn {
		message = "Authentication required"
	}
	c.JSON(d.Reason.HTTPStatus(), gin.H{"status": "error", "message": message})
}

// respondNotFound hides out-of-tenant rows behind the same response as
// missing ones
func respondNotFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": what + " not found"})
}

func respondServerError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Server error"})
}

// isDuplicateErr reports whether err is a storage uniqueness violation,
// the authoritative Conflict signal
func isDuplicateErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFoundErr(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// parseIDParam reads the :id path parameter
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
