package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// DiskURLPrefix is the route under which disk-stored objects are served
const DiskURLPrefix = "/files"

var ErrInvalidKey = errors.New("invalid object key")

// DiskStorage keeps objects on a local drive. Used for development and tests.
type DiskStorage struct {
	// BasePath is a directory (usually mount point of a disk) that is writable by the current process
	BasePath  string
	BaseURL   string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStorage(basePath, baseURL string) (*DiskStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &DiskStorage{
		BasePath: basePath,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		dirs:     make(map[string]bool, 10),
	}, nil
}

func (s *DiskStorage) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

// getFullPath refuses keys escaping BasePath
func (s *DiskStorage) getFullPath(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean != "/"+key {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.BasePath, filepath.FromSlash(clean)), nil
}

func (s *DiskStorage) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	fileName, err := s.getFullPath(key)
	if err != nil {
		return "", err
	}
	if err = s.createDir(filepath.Dir(fileName)); err != nil {
		return "", err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	return s.BaseURL + "/" + key, nil
}

// Delete succeeds when the object is already gone, same as S3
func (s *DiskStorage) Delete(ctx context.Context, key string) error {
	fileName, err := s.getFullPath(key)
	if err != nil {
		return err
	}
	if err = os.Remove(fileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStorage) KeyFromURL(url string) (string, error) {
	if !strings.HasPrefix(url, s.BaseURL+"/") {
		return "", ErrForeignURL
	}
	return strings.TrimPrefix(url, s.BaseURL+"/"), nil
}

// Serve is a gin handler for GET <DiskURLPrefix>/*key
func (s *DiskStorage) Serve(c *gin.Context) {
	fileName, err := s.getFullPath(strings.TrimPrefix(c.Param("key"), "/"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if _, err = os.Stat(fileName); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.File(fileName)
}
