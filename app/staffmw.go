package app

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// StaffHeader carries the staff member acting through the dashboard.
// Sign-in happens upstream; this service only records who did what.
const StaffHeader = "X-Staff-User"

const staffKey = "staffID"

func StaffIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := strings.TrimSpace(c.GetHeader(StaffHeader)); v != "" {
			c.Set(staffKey, v)
		}
		c.Next()
	}
}

func StaffID(c *gin.Context) string {
	return c.GetString(staffKey)
}
