package handlers

import (
	"errors"
	"net/http"
	"strings"

	"photostore/apierr"
	"photostore/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const albumIDRequired = "Album ID is required"

type AlbumCreateRequest struct {
	Name         string  `json:"name" binding:"required,max=255"`
	Description  *string `json:"description"`
	CoverPhotoID *string `json:"coverPhotoId" binding:"omitempty,uuid"`
}

type AlbumListResponse struct {
	Albums     []models.Album `json:"albums"`
	Pagination Pagination     `json:"pagination"`
}

func AlbumCreate(c *gin.Context, user *models.User) {
	var req AlbumCreateRequest
	if err := bindJSON(c, &req, false); err != nil {
		apierr.Write(c, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		apierr.Write(c, apierr.Validation("name is required"))
		return
	}
	var cover *uuid.UUID
	if req.CoverPhotoID != nil {
		id := uuid.MustParse(*req.CoverPhotoID)
		cover = &id
	}
	album, err := models.AlbumCreate(c.Request.Context(), user.ID, name, req.Description, cover)
	if errors.Is(err, models.ErrCoverNotOwned) {
		apierr.Write(c, apierr.Validation("Cover photo not found"))
		return
	} else if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to create album", err))
		return
	}
	c.JSON(http.StatusOK, album)
}

func AlbumList(c *gin.Context, user *models.User) {
	page, err := parsePagination(c)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	albums, total, err := models.AlbumList(c.Request.Context(), user.ID, page.Limit, page.Offset)
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to list albums", err))
		return
	}
	page.Total = total
	c.JSON(http.StatusOK, AlbumListResponse{Albums: albums, Pagination: page})
}

func AlbumGet(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", albumIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	album, err := models.AlbumFindVisible(c.Request.Context(), id, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Write(c, apierr.NotFound("Album not found"))
		return
	} else if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to get album", err))
		return
	}
	c.JSON(http.StatusOK, album)
}

// AlbumDelete removes an owned album; its photos stay
func AlbumDelete(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", albumIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	err = models.AlbumDelete(c.Request.Context(), id, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Write(c, apierr.NotFound("Album not found"))
		return
	} else if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to delete album", err))
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Album deleted successfully"})
}
