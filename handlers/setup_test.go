package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"photostore/auth"
	"photostore/db"
	"photostore/models"
	"photostore/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

const testGroupsClaim = "cognito:groups"

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	disk   *storage.DiskStorage
}

// newTestEnv points db.Instance at a fresh in-memory SQLite database and
// storage.Default at a temporary directory
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(sqlite.Open("file::memory:"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	oldDB, oldStorage := db.Instance, storage.Default
	db.Instance = conn
	t.Cleanup(func() {
		db.Instance, storage.Default = oldDB, oldStorage
		sqlDB.Close()
	})
	_, err = models.Migrate(context.Background(), models.MigrateUp)
	require.NoError(t, err)

	disk, err := storage.NewDiskStorage(t.TempDir(), "http://photos.test/files")
	require.NoError(t, err)
	storage.Default = disk

	router := gin.New()
	router.GET("/health", Health)
	ar := &auth.Router{Base: router, Auth: auth.NewAuthenticator(testGroupsClaim)}
	ar.POST("/photos", PhotoUpload, models.PermissionPhotosCreate)
	ar.GET("/photos", PhotoList, models.PermissionPhotosListAll)
	ar.GET("/photos/:id", PhotoGet)
	ar.DELETE("/photos/:id", PhotoDelete, models.PermissionPhotosDelete)
	ar.POST("/photos/:id/shares", PhotoShareCreate, models.PermissionPhotosShare)
	ar.DELETE("/photos/:id/shares/:shareId", PhotoShareDelete, models.PermissionPhotosShare)
	ar.POST("/albums", AlbumCreate, models.PermissionAlbumsCreate)
	ar.GET("/albums", AlbumList)
	ar.GET("/albums/:id", AlbumGet)
	ar.DELETE("/albums/:id", AlbumDelete, models.PermissionAlbumsDelete)
	ar.POST("/albums/:id/shares", AlbumShareCreate, models.PermissionAlbumsShare)
	ar.DELETE("/albums/:id/shares/:shareId", AlbumShareDelete, models.PermissionAlbumsShare)
	ar.GET("/shared", SharedList)
	ar.POST("/database/migrate", DatabaseMigrate, models.PermissionUsersManage)
	ar.POST("/database/backup", DatabaseBackup, models.PermissionUsersManage)

	return &testEnv{t: t, router: router, disk: disk}
}

type testUser struct {
	id    uuid.UUID
	token string
}

func (e *testEnv) user(groups ...models.Group) testUser {
	e.t.Helper()
	id := uuid.New()
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, string(g))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":           id.String(),
		"email":         id.String() + "@example.com",
		testGroupsClaim: names,
	}).SignedString([]byte("unused"))
	require.NoError(e.t, err)
	return testUser{id: id, token: token}
}

func (e *testEnv) do(u testUser, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(u testUser, method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	if body == nil {
		return e.do(u, method, path, nil, "")
	}
	b, err := json.Marshal(body)
	require.NoError(e.t, err)
	return e.do(u, method, path, bytes.NewReader(b), "application/json")
}

func (e *testEnv) upload(u testUser, fileName string, content []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(e.t, err)
	_, err = part.Write(content)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())
	return e.do(u, http.MethodPost, "/photos", &body, mw.FormDataContentType())
}

// uploadPhoto uploads a small PNG and returns the response
func (e *testEnv) uploadPhoto(u testUser) PhotoUploadResponse {
	e.t.Helper()
	w := e.upload(u, "holiday.png", testPNG(e.t, 10, 10))
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var resp PhotoUploadResponse
	decode(e.t, w, &resp)
	return resp
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	decode(t, w, &body)
	msg, _ := body["error"].(string)
	return msg
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 20), uint8(y * 20), 100, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
