package main

import (
	"context"
	"os"
	"strings"
	"time"

	"photostore/auth"
	"photostore/cloud"
	"photostore/config"
	"photostore/db"
	"photostore/handlers"
	"photostore/metrics"
	"photostore/models"
	"photostore/storage"
	"photostore/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	setupLogging()
	ctx := context.Background()
	if err := cloud.Init(); err != nil {
		log.WithError(err).Fatal("AWS init failed")
	}
	if err := db.Init(ctx); err != nil {
		log.WithError(err).Fatal("Database init failed")
	}
	// photostore migrate [up|down]
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		direction := models.MigrateUp
		if len(os.Args) > 2 {
			direction = os.Args[2]
		}
		version, err := models.Migrate(ctx, direction)
		if err != nil {
			log.WithError(err).Fatal("Migration failed")
		}
		log.WithField("version", version).Info("Migration completed successfully")
		return
	}
	if err := storage.Init(); err != nil {
		log.WithError(err).Fatal("Storage init failed")
	}
	authenticator, err := newAuthenticator()
	if err != nil {
		log.WithError(err).Fatal("Auth init failed")
	}

	router := setupRouter(authenticator)
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.WithError(err).Fatal("Server stopped")
}

func setupLogging() {
	if config.DEBUG_MODE {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return
	}
	gin.SetMode(gin.ReleaseMode)
	log.SetFormatter(&log.JSONFormatter{})
}

func newAuthenticator() (*auth.Authenticator, error) {
	if config.JWKS_URL != "" {
		log.WithField("jwks", config.JWKS_URL).Info("Verifying token signatures")
		return auth.NewJWKSAuthenticator(config.JWKS_URL, config.JWT_ISSUER, config.GROUPS_CLAIM)
	}
	return auth.NewAuthenticator(config.GROUPS_CLAIM), nil
}

func setupRouter(authenticator *auth.Authenticator) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies([]string{})
	router.MaxMultipartMemory = int64(config.MAX_UPLOAD_MB) << 20
	router.Use(gin.Recovery(), utils.RequestLogger(), metrics.Middleware())
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  config.CorsOrigins(),
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", utils.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", storage.DiskURLPrefix + "/"})))
	}
	// No cache by default, stored objects never change under the same key
	router.Use((&utils.CacheRouter{Default: utils.CacheNoStore}).Cache(storage.DiskURLPrefix+"/", 7*24*time.Hour).Handler())

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if disk, ok := storage.Default.(*storage.DiskStorage); ok {
		router.GET(storage.DiskURLPrefix+"/*key", disk.Serve)
	}

	// Custom Auth Router
	authRouter := &auth.Router{Base: router, Auth: authenticator}
	// Photo handlers
	authRouter.POST("/photos", handlers.PhotoUpload, models.PermissionPhotosCreate)
	authRouter.GET("/photos", handlers.PhotoList, models.PermissionPhotosListAll)
	authRouter.GET("/photos/:id", handlers.PhotoGet)
	authRouter.DELETE("/photos/:id", handlers.PhotoDelete, models.PermissionPhotosDelete)
	authRouter.POST("/photos/:id/shares", handlers.PhotoShareCreate, models.PermissionPhotosShare)
	authRouter.DELETE("/photos/:id/shares/:shareId", handlers.PhotoShareDelete, models.PermissionPhotosShare)
	// Album handlers
	authRouter.POST("/albums", handlers.AlbumCreate, models.PermissionAlbumsCreate)
	authRouter.GET("/albums", handlers.AlbumList)
	authRouter.GET("/albums/:id", handlers.AlbumGet)
	authRouter.DELETE("/albums/:id", handlers.AlbumDelete, models.PermissionAlbumsDelete)
	authRouter.POST("/albums/:id/shares", handlers.AlbumShareCreate, models.PermissionAlbumsShare)
	authRouter.DELETE("/albums/:id/shares/:shareId", handlers.AlbumShareDelete, models.PermissionAlbumsShare)
	// Items shared with the caller
	authRouter.GET("/shared", handlers.SharedList)
	// Database administration
	authRouter.POST("/database/migrate", handlers.DatabaseMigrate, models.PermissionUsersManage)
	authRouter.POST("/database/backup", handlers.DatabaseBackup, models.PermissionUsersManage)

	return router
}
