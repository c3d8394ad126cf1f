package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// Response is the success envelope every endpoint renders
type Response struct {
	Success    bool                      `json:"success"`
	Data       any                       `json:"data,omitempty"`
	Message    string                    `json:"message,omitempty"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// OK renders data with status
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

// Paged renders one page of a listing
func Paged(c *gin.Context, data any, params utils.PaginationParams, total int64) {
	pagination := params.Response(total)
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &pagination})
}

// Message renders a success message without data
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

// DataMessage renders data together with a message
func DataMessage(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}
