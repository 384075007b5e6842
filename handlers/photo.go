package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"photostore/apierr"
	"photostore/config"
	"photostore/models"
	"photostore/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const photoIDRequired = "Photo ID is required"

type PhotoUploadResponse struct {
	ID           uuid.UUID `json:"id"`
	OriginalURL  string    `json:"originalUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
}

type PhotoListResponse struct {
	Photos     []models.Photo `json:"photos"`
	Pagination Pagination     `json:"pagination"`
}

// PhotoUpload stores the original and a square JPEG thumbnail, then records the photo
func PhotoUpload(c *gin.Context, user *models.User) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierr.Write(c, apierr.Validation("No file provided"))
		return
	}
	if fileHeader.Size > int64(config.MAX_UPLOAD_MB)<<20 {
		apierr.Write(c, apierr.Validation(fmt.Sprintf("File is larger than %d MB", config.MAX_UPLOAD_MB)))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Upload failed", err))
		return
	}
	original, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Upload failed", err))
		return
	}

	var thumb bytes.Buffer
	converted, err := utils.CreateThumb(uint(config.THUMB_SIZE), bytes.NewReader(original), &thumb)
	if err != nil {
		log.WithError(err).WithField("file", fileHeader.Filename).Debug("Not an image")
		apierr.Write(c, apierr.Validation("Invalid image file"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(original)
	}
	// the row id is part of the key so no two photos share an object
	id := uuid.New()
	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), id, utils.SafeFileName(fileHeader.Filename))
	prefix := "users/" + user.ID.String()
	originalObject := &object{key: prefix + "/original/" + name, body: original, contentType: contentType}
	thumbObject := &object{key: prefix + "/thumbnails/" + name, body: thumb.Bytes(), contentType: "image/jpeg"}
	if err = putObjects(c.Request.Context(), originalObject, thumbObject); err != nil {
		apierr.Write(c, apierr.Unexpected("Upload failed", err))
		return
	}

	photo, err := models.PhotoCreate(c.Request.Context(), id, user.ID, originalObject.url, thumbObject.url, models.PhotoMetadata{
		OriginalName: fileHeader.Filename,
		Size:         int64(len(original)),
		Type:         contentType,
		Width:        &converted.Width,
		Height:       &converted.Height,
	})
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Upload failed", err))
		return
	}
	c.JSON(http.StatusOK, PhotoUploadResponse{
		ID:           photo.ID,
		OriginalURL:  photo.OriginalURL,
		ThumbnailURL: photo.ThumbnailURL,
	})
}

func PhotoList(c *gin.Context, user *models.User) {
	page, err := parsePagination(c)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	photos, total, err := models.PhotoList(c.Request.Context(), user.ID, page.Limit, page.Offset)
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to list photos", err))
		return
	}
	page.Total = total
	c.JSON(http.StatusOK, PhotoListResponse{Photos: photos, Pagination: page})
}

// PhotoGet returns a photo owned by or shared with the caller
func PhotoGet(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", photoIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	photo, err := models.PhotoFindVisible(c.Request.Context(), id, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Write(c, apierr.NotFound("Photo not found"))
		return
	} else if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to get photo", err))
		return
	}
	c.JSON(http.StatusOK, photo)
}

// PhotoDelete removes both stored objects first, then the row.
// If an object delete fails the row is kept. models.PhotoDelete also removes the grants
// on the photo and clears it as an album cover; the schema has no cascades for that.
// A photo owned by someone else is reported as missing and left untouched.
func PhotoDelete(c *gin.Context, user *models.User) {
	id, err := paramUUID(c, "id", photoIDRequired)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	ctx := c.Request.Context()
	photo, err := models.PhotoFindOwned(ctx, id, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Write(c, apierr.NotFound("Photo not found"))
		return
	} else if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to delete photo", err))
		return
	}
	if err = deleteObjects(ctx, photo.OriginalURL, photo.ThumbnailURL); err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to delete photo", err))
		return
	}
	if err = models.PhotoDelete(ctx, photo.ID, user.ID); errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Write(c, apierr.NotFound("Photo not found"))
		return
	} else if err != nil {
		apierr.Write(c, apierr.Unexpected("Failed to delete photo", fmt.Errorf("objects of %s deleted, row kept: %w", photo.ID, err)))
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Photo deleted successfully"})
}
