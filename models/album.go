package models

import (
	"context"
	"errors"
	"time"

	"photostore/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCoverNotOwned is returned when an album cover points to a photo of another user (or nowhere)
var ErrCoverNotOwned = errors.New("cover photo not found")

type Album struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:albums_user_id_index" json:"userId"`
	Name         string     `gorm:"type:text;not null" json:"name"`
	Description  *string    `gorm:"type:text" json:"description,omitempty"`
	CoverPhotoID *uuid.UUID `gorm:"type:uuid" json:"coverPhotoId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AlbumCreate inserts a new album. The cover photo, if given, must belong to the same user.
func AlbumCreate(ctx context.Context, userID uuid.UUID, name string, description *string, coverPhotoID *uuid.UUID) (a Album, err error) {
	a = Album{
		UserID:       userID,
		Name:         name,
		Description:  description,
		CoverPhotoID: coverPhotoID,
	}
	err = db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if coverPhotoID != nil {
			var count int64
			if err := tx.Model(&Photo{}).Where("id = ? AND user_id = ?", *coverPhotoID, userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrCoverNotOwned
			}
		}
		return tx.Create(&a).Error
	})
	return
}

func AlbumList(ctx context.Context, userID uuid.UUID, limit, offset int) (albums []Album, total int64, err error) {
	albums = []Album{}
	err = db.Instance.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&albums).Error
	if err != nil {
		return nil, 0, err
	}
	err = db.Instance.WithContext(ctx).Model(&Album{}).Where("user_id = ?", userID).Count(&total).Error
	return albums, total, err
}

func AlbumFindOwned(ctx context.Context, id, userID uuid.UUID) (a Album, err error) {
	err = db.Instance.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error
	return
}

// AlbumFindVisible returns the album if it is owned by or shared with the user
func AlbumFindVisible(ctx context.Context, id, userID uuid.UUID) (a Album, err error) {
	err = db.Instance.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR EXISTS (?))", id, userID, grantSubquery(ctx, ItemTypeAlbum, userID)).
		First(&a).Error
	return
}

// AlbumDelete removes an owned album and the grants on it
func AlbumDelete(ctx context.Context, id, userID uuid.UUID) error {
	return db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Album{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("item_type = ? AND item_id = ?", ItemTypeAlbum, id).Delete(&SharedItem{}).Error
	})
}
