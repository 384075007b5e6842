package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"photostore/cloud"
	"photostore/config"

	log "github.com/sirupsen/logrus"
)

const (
	StorageTypeS3   = "s3"
	StorageTypeDisk = "disk"
)

var ErrForeignURL = errors.New("url does not belong to this storage")

// StorageAPI is the object store used for originals and thumbnails
type StorageAPI interface {
	// Put stores the object under key and returns its public URL
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL reverses Put: it extracts the object key from a URL returned earlier
	KeyFromURL(url string) (string, error)
}

var Default StorageAPI

func Init() error {
	switch config.STORAGE_TYPE {
	case StorageTypeS3:
		if config.UPLOAD_BUCKET == "" {
			return errors.New("UPLOAD_BUCKET must be set for S3 storage")
		}
		if cloud.Session == nil {
			return errors.New("AWS session is not initialised")
		}
		Default = NewS3Storage(cloud.Session, config.UPLOAD_BUCKET)
	case StorageTypeDisk:
		s, err := NewDiskStorage(config.DISK_STORAGE_PATH, strings.TrimSuffix(config.PUBLIC_BASE_URL, "/")+DiskURLPrefix)
		if err != nil {
			return err
		}
		Default = s
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", config.STORAGE_TYPE)
	}
	log.WithField("type", config.STORAGE_TYPE).Info("Storage initialised")
	return nil
}
