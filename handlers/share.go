package handlers

import (
	"errors"
	"net/http"

	"photostore/apierr"
	"photostore/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShareRequest struct {
	SharedWithUserID string                 `json:"sharedWithUserId" binding:"required,uuid"`
	PermissionLevel  models.PermissionLevel `json:"permissionLevel" binding:"required,oneof=read write"`
}

type SharedListResponse struct {
	Items      []models.SharedItem `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

func PhotoShareCreate(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", photoIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	shareCreate(c, user, models.PhotoRef(id), "Photo not found")
}

func PhotoShareDelete(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", photoIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	shareDelete(c, user, models.PhotoRef(id))
}

func AlbumShareCreate(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", albumIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	shareCreate(c, user, models.AlbumRef(id), "Album not found")
}

func AlbumShareDelete(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", albumIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	shareDelete(c, user, models.AlbumRef(id))
}

func shareCreate(c *gin.Context, user *models.User, ref models.ItemRef, notFound string) {
	var req ShareRequest
	if err := bindJSON(c, &req, false); err != nil {
		apierr.Write(c, err)
		return
	}
	sharedWith := uuid.MustParse(req.SharedWithUserID) // validated by binding
	share, err := models.ShareCreate(c.Request.Context(), ref, user.ID, sharedWith, req.PermissionLevel)
	switch {
	case errors.Is(err, models.ErrShareWithSelf):
		apierr.Write(c, apierr.Validation("Cannot share an item with yourself"))
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierr.Write(c, apierr.NotFound(notFound))
	case err != nil:
		apierr.Write(c, apierr.Unexpected("Failed to share "+string(ref.Type), err))
	default:
		c.JSON(http.StatusOK, share)
	}
}

func shareDelete(c *gin.Context, user *models.User, ref models.ItemRef) {
	shareID, err := uuid.Parse(c.Param("shareId"))
	if err != nil {
		apierr.Write(c, apierr.NotFound("Share not found"))
		return
	}
	err = models.ShareDelete(c.Request.Context(), ref, user.ID, shareID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Write(c, apierr.NotFound("Share not found"))
		return
	} else if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to remove share", err))
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Share removed successfully"})
}

// SharedList returns the grants other users gave to the caller
func SharedList(c *gin.Context, user *models.User) {
	page, err := parsePagination(c)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	items, total, err := models.SharedWith(c.Request.Context(), user.ID, page.Limit, page.Offset)
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to list shared items", err))
		return
	}
	page.Total = total
	c.JSON(http.StatusOK, SharedListResponse{Items: items, Pagination: page})
}
