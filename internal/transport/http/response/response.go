package response

import "github.com/gin-gonic/gin"

// Error renders the error body every endpoint shares: {"message": "..."}.
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"message": message})
}
