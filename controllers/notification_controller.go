package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit/stackit/utils"
)

// NotificationController is a stub: the client polls this endpoint but no
// delivery machinery exists server-side.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List always returns an empty notification set.
func (n *NotificationController) List(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"notifications": []gin.H{},
		"total":         0,
	})
}
