package models

import (
	"context"
	"time"

	"photostore/db"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PhotoMetadata struct {
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
}

type Photo struct {
	ID           uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID                         `gorm:"type:uuid;not null;index:photos_user_id_index" json:"userId"`
	OriginalURL  string                            `gorm:"type:text;not null" json:"originalUrl"`
	ThumbnailURL string                            `gorm:"type:text;not null" json:"thumbnailUrl"`
	Metadata     datatypes.JSONType[PhotoMetadata] `gorm:"not null" json:"metadata"`
	CreatedAt    time.Time                         `json:"createdAt"`
	UpdatedAt    time.Time                         `json:"updatedAt"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PhotoCreate inserts the row under id, which the caller already used in the object keys
func PhotoCreate(ctx context.Context, id, userID uuid.UUID, originalURL, thumbnailURL string, meta PhotoMetadata) (p Photo, err error) {
	p = Photo{
		ID:           id,
		UserID:       userID,
		OriginalURL:  originalURL,
		ThumbnailURL: thumbnailURL,
		Metadata:     datatypes.NewJSONType(meta),
	}
	return p, db.Instance.WithContext(ctx).Create(&p).Error
}

// PhotoList returns a page of the user's photos, newest first, plus the user's total photo count
func PhotoList(ctx context.Context, userID uuid.UUID, limit, offset int) (photos []Photo, total int64, err error) {
	photos = []Photo{}
	err = db.Instance.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&photos).Error
	if err != nil {
		return nil, 0, err
	}
	err = db.Instance.WithContext(ctx).Model(&Photo{}).Where("user_id = ?", userID).Count(&total).Error
	return photos, total, err
}

// PhotoFindOwned returns gorm.ErrRecordNotFound if the photo doesn't exist or belongs to someone else
func PhotoFindOwned(ctx context.Context, id, userID uuid.UUID) (p Photo, err error) {
	err = db.Instance.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error
	return
}

// PhotoFindVisible returns the photo if it is owned by or shared with the user
func PhotoFindVisible(ctx context.Context, id, userID uuid.UUID) (p Photo, err error) {
	err = db.Instance.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR EXISTS (?))", id, userID, grantSubquery(ctx, ItemTypePhoto, userID)).
		First(&p).Error
	return
}

// PhotoDelete removes the row together with the grants on it and any album cover references
func PhotoDelete(ctx context.Context, id, userID uuid.UUID) error {
	return db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Album{}).Where("cover_photo_id = ?", id).Update("cover_photo_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id = ?", ItemTypePhoto, id).Delete(&SharedItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Photo{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
