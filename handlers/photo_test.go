package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"photostore/db"
	"photostore/models"
	"photostore/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) objectPath(url string) string {
	e.t.Helper()
	key, err := e.disk.KeyFromURL(url)
	require.NoError(e.t, err)
	return filepath.Join(e.disk.BasePath, filepath.FromSlash(key))
}

func TestPhotoUpload(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupBasic)

	resp := env.uploadPhoto(u)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Contains(t, resp.OriginalURL, "/users/"+u.id.String()+"/original/")
	assert.Contains(t, resp.ThumbnailURL, "/users/"+u.id.String()+"/thumbnails/")
	assert.True(t, strings.HasSuffix(resp.OriginalURL, "-"+resp.ID.String()+"-holiday.png"), resp.OriginalURL)

	assert.FileExists(t, env.objectPath(resp.OriginalURL))
	thumb, err := os.ReadFile(env.objectPath(resp.ThumbnailURL))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", http.DetectContentType(thumb))

	w := env.doJSON(u, http.MethodGet, "/photos/"+resp.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var photo models.Photo
	decode(t, w, &photo)
	meta := photo.Metadata.Data()
	assert.Equal(t, "holiday.png", meta.OriginalName)
	assert.Equal(t, "image/png", meta.Type)
	require.NotNil(t, meta.Width)
	assert.Equal(t, 10, *meta.Width)
	assert.Equal(t, 10, *meta.Height)
	assert.Equal(t, u.id, photo.UserID)
}

func TestPhotoUploadValidation(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupBasic)

	w := env.do(u, http.MethodPost, "/photos", strings.NewReader("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file provided", errorMessage(t, w))

	w = env.upload(u, "notes.txt", []byte("definitely not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid image file", errorMessage(t, w))
}

func TestPhotoUploadRequiresPermission(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(env.user("guests"), "a.png", testPNG(t, 4, 4))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Missing required permission: photos:create", errorMessage(t, w))

	w = env.upload(testUser{}, "a.png", testPNG(t, 4, 4))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPhotoList(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(models.GroupAdmin)
	other := env.user(models.GroupAdmin)
	for i := 0; i < 3; i++ {
		env.uploadPhoto(admin)
	}
	env.uploadPhoto(other)

	w := env.doJSON(admin, http.MethodGet, "/photos?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page PhotoListResponse
	decode(t, w, &page)
	assert.Len(t, page.Photos, 2)
	assert.Equal(t, Pagination{Total: 3, Limit: 2, Offset: 0}, page.Pagination)
	for _, p := range page.Photos {
		assert.Equal(t, admin.id, p.UserID)
	}

	w = env.doJSON(admin, http.MethodGet, "/photos?limit=2&offset=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Len(t, page.Photos, 1)
	assert.Equal(t, Pagination{Total: 3, Limit: 2, Offset: 2}, page.Pagination)

	w = env.doJSON(admin, http.MethodGet, "/photos", nil)
	decode(t, w, &page)
	assert.Equal(t, defaultPageLimit, page.Pagination.Limit)
}

func TestPhotoListPaginationErrors(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(models.GroupAdmin)

	for _, q := range []string{"limit=0", "limit=101", "limit=abc", "limit=-5"} {
		w := env.doJSON(admin, http.MethodGet, "/photos?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, invalidLimitMessage, errorMessage(t, w), q)
	}
	for _, q := range []string{"offset=-1", "offset=x"} {
		w := env.doJSON(admin, http.MethodGet, "/photos?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, invalidOffsetMessage, errorMessage(t, w), q)
	}
	w := env.doJSON(admin, http.MethodGet, "/photos?limit=100&offset=0", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPhotoListRequiresListAll(t *testing.T) {
	env := newTestEnv(t)
	w := env.doJSON(env.user(models.GroupPremium), http.MethodGet, "/photos", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Missing required permission: photos:list-all", errorMessage(t, w))
}

func TestPhotoGetNotVisible(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(models.GroupBasic)
	stranger := env.user(models.GroupBasic)
	photo := env.uploadPhoto(owner)

	w := env.doJSON(stranger, http.MethodGet, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Photo not found", errorMessage(t, w))

	w = env.doJSON(owner, http.MethodGet, "/photos/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPhotoDelete(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupBasic)
	photo := env.uploadPhoto(u)

	w := env.doJSON(u, http.MethodDelete, "/photos/"+photo.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Photo deleted successfully"}`, w.Body.String())
	assert.NoFileExists(t, env.objectPath(photo.OriginalURL))
	assert.NoFileExists(t, env.objectPath(photo.ThumbnailURL))

	w = env.doJSON(u, http.MethodGet, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.doJSON(u, http.MethodDelete, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPhotoDeleteNotOwnedLeavesEverything(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(models.GroupBasic)
	attacker := env.user(models.GroupBasic)
	photo := env.uploadPhoto(owner)

	w := env.doJSON(attacker, http.MethodDelete, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Photo not found", errorMessage(t, w))

	assert.FileExists(t, env.objectPath(photo.OriginalURL))
	assert.FileExists(t, env.objectPath(photo.ThumbnailURL))
	w = env.doJSON(owner, http.MethodGet, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPhotoDeleteInvalidID(t *testing.T) {
	env := newTestEnv(t)
	w := env.doJSON(env.user(models.GroupBasic), http.MethodDelete, "/photos/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, photoIDRequired, errorMessage(t, w))
}

func TestPhotoDeleteClearsAlbumCover(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupPremium)
	photo := env.uploadPhoto(u)

	w := env.doJSON(u, http.MethodPost, "/albums", obj{"name": "Trip", "coverPhotoId": photo.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var album models.Album
	decode(t, w, &album)

	w = env.doJSON(u, http.MethodDelete, "/photos/"+photo.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.doJSON(u, http.MethodGet, fmt.Sprintf("/albums/%s", album.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reloaded models.Album
	decode(t, w, &reloaded)
	assert.Equal(t, album.ID, reloaded.ID)
	assert.Nil(t, reloaded.CoverPhotoID)
}

func TestPhotoUploadSameNameGetsOwnObjects(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupBasic)
	first := env.uploadPhoto(u)
	second := env.uploadPhoto(u)
	assert.NotEqual(t, first.OriginalURL, second.OriginalURL)
	assert.NotEqual(t, first.ThumbnailURL, second.ThumbnailURL)

	w := env.doJSON(u, http.MethodDelete, "/photos/"+first.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.FileExists(t, env.objectPath(second.OriginalURL))
	assert.FileExists(t, env.objectPath(second.ThumbnailURL))
}

func TestPhotoDeleteWithMissingObject(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupBasic)
	photo := env.uploadPhoto(u)
	require.NoError(t, os.Remove(env.objectPath(photo.ThumbnailURL)))

	w := env.doJSON(u, http.MethodDelete, "/photos/"+photo.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoFileExists(t, env.objectPath(photo.OriginalURL))
	w = env.doJSON(u, http.MethodGet, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// deleteHook wraps a storage backend and runs onDelete instead of its Delete
type deleteHook struct {
	storage.StorageAPI
	onDelete func(ctx context.Context, key string) error
}

func (d *deleteHook) Delete(ctx context.Context, key string) error {
	return d.onDelete(ctx, key)
}

func TestPhotoDeleteObjectFailureKeepsRow(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupBasic)
	photo := env.uploadPhoto(u)
	storage.Default = &deleteHook{StorageAPI: env.disk, onDelete: func(context.Context, string) error {
		return errors.New("AccessDenied: secret bucket detail")
	}}

	w := env.doJSON(u, http.MethodDelete, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete photo", errorMessage(t, w))
	assert.NotContains(t, w.Body.String(), "secret")

	w = env.doJSON(u, http.MethodGet, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, env.objectPath(photo.OriginalURL))
}

func TestPhotoDeleteRowFailureAfterObjectsGone(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.GroupBasic)
	photo := env.uploadPhoto(u)
	var once sync.Once
	storage.Default = &deleteHook{StorageAPI: env.disk, onDelete: func(ctx context.Context, key string) error {
		// break the row delete, which clears album covers first
		once.Do(func() {
			assert.NoError(t, db.Instance.WithContext(ctx).Migrator().DropTable(&models.Album{}))
		})
		return env.disk.Delete(ctx, key)
	}}

	w := env.doJSON(u, http.MethodDelete, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete photo", errorMessage(t, w))
	assert.NoFileExists(t, env.objectPath(photo.OriginalURL))
	assert.NoFileExists(t, env.objectPath(photo.ThumbnailURL))

	w = env.doJSON(u, http.MethodGet, "/photos/"+photo.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type obj map[string]any
