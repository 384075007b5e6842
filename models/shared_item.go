package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photostore/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemType string

type PermissionLevel string

const (
	ItemTypePhoto ItemType = "photo"
	ItemTypeAlbum ItemType = "album"

	PermissionLevelRead  PermissionLevel = "read"
	PermissionLevelWrite PermissionLevel = "write"
)

var ErrShareWithSelf = errors.New("cannot share an item with its owner")

func (l PermissionLevel) Valid() bool {
	return l == PermissionLevelRead || l == PermissionLevelWrite
}

// ItemRef points at either a Photo or an Album. Storage keeps it as item_type + item_id;
// the referenced row is checked when a grant is written since no foreign key covers it.
type ItemRef struct {
	Type ItemType
	ID   uuid.UUID
}

func PhotoRef(id uuid.UUID) ItemRef { return ItemRef{Type: ItemTypePhoto, ID: id} }
func AlbumRef(id uuid.UUID) ItemRef { return ItemRef{Type: ItemTypeAlbum, ID: id} }

func (r ItemRef) String() string {
	return string(r.Type) + ":" + r.ID.String()
}

// model returns the table model that item_id refers to
func (r ItemRef) model() (any, error) {
	switch r.Type {
	case ItemTypePhoto:
		return &Photo{}, nil
	case ItemTypeAlbum:
		return &Album{}, nil
	}
	return nil, fmt.Errorf("unknown item type %q", r.Type)
}

type SharedItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemType         ItemType        `gorm:"type:text;not null;check:item_type IN ('photo', 'album');index:shared_items_item_type_item_id_index,priority:1" json:"itemType"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null;index:shared_items_item_type_item_id_index,priority:2" json:"itemId"`
	SharedWithUserID uuid.UUID       `gorm:"type:uuid;not null;index:shared_items_shared_with_user_id_index" json:"sharedWithUserId"`
	PermissionLevel  PermissionLevel `gorm:"type:text;not null;check:permission_level IN ('read', 'write')" json:"permissionLevel"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func (s *SharedItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShareCreate grants sharedWith access to an item owned by ownerID.
// gorm.ErrRecordNotFound is returned when the item is missing or not owned.
func ShareCreate(ctx context.Context, ref ItemRef, ownerID, sharedWith uuid.UUID, level PermissionLevel) (s SharedItem, err error) {
	if sharedWith == ownerID {
		return s, ErrShareWithSelf
	}
	model, err := ref.model()
	if err != nil {
		return s, err
	}
	s = SharedItem{
		ItemType:         ref.Type,
		ItemID:           ref.ID,
		SharedWithUserID: sharedWith,
		PermissionLevel:  level,
	}
	err = db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Where("id = ? AND user_id = ?", ref.ID, ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&s).Error
	})
	return
}

// ShareDelete revokes a grant on an item owned by ownerID
func ShareDelete(ctx context.Context, ref ItemRef, ownerID, shareID uuid.UUID) error {
	model, err := ref.model()
	if err != nil {
		return err
	}
	return db.Instance.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Where("id = ? AND user_id = ?", ref.ID, ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		result := tx.Where("id = ? AND item_type = ? AND item_id = ?", shareID, ref.Type, ref.ID).Delete(&SharedItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SharedWith lists grants given to the user, newest first
func SharedWith(ctx context.Context, userID uuid.UUID, limit, offset int) (items []SharedItem, total int64, err error) {
	items = []SharedItem{}
	err = db.Instance.WithContext(ctx).
		Where("shared_with_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	err = db.Instance.WithContext(ctx).Model(&SharedItem{}).Where("shared_with_user_id = ?", userID).Count(&total).Error
	return items, total, err
}

// grantSubquery matches grants of the outer row (photos.id / albums.id) to userID
func grantSubquery(ctx context.Context, itemType ItemType, userID uuid.UUID) *gorm.DB {
	outer := "photos.id"
	if itemType == ItemTypeAlbum {
		outer = "albums.id"
	}
	return db.Instance.WithContext(ctx).
		Model(&SharedItem{}).
		Select("1").
		Where("shared_items.item_type = ? AND shared_items.item_id = "+outer+" AND shared_items.shared_with_user_id = ?", itemType, userID)
}
