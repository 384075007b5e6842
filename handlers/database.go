package handlers

import (
	"errors"
	"net/http"

	"photostore/apierr"
	"photostore/cloud"
	"photostore/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type MigrateRequest struct {
	Direction string `json:"direction" binding:"omitempty,oneof=up down"`
}

type MigrateResponse struct {
	Message string `json:"message"`
	Version uint   `json:"version"`
}

type BackupResponse struct {
	Message    string `json:"message"`
	SnapshotID string `json:"snapshotId"`
}

// DatabaseMigrate applies (up) or reverts one step of (down) the schema
func DatabaseMigrate(c *gin.Context, user *models.User) {
	req := MigrateRequest{Direction: models.MigrateUp}
	if err := bindJSON(c, &req, true); err != nil {
		apierr.Write(c, err)
		return
	}
	if req.Direction == "" {
		req.Direction = models.MigrateUp
	}
	log.WithFields(log.Fields{"direction": req.Direction, "user_id": user.ID}).Info("Running migrations")
	version, err := models.Migrate(c.Request.Context(), req.Direction)
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Migration failed", err))
		return
	}
	c.JSON(http.StatusOK, MigrateResponse{Message: "Migration completed successfully", Version: version})
}

// DatabaseBackup starts an RDS snapshot of the production database
func DatabaseBackup(c *gin.Context, user *models.User) {
	if cloud.Backups == nil {
		apierr.Write(c, apierr.Unexpected("Backup failed", errors.New("backups are not configured")))
		return
	}
	snapshotID, err := cloud.Backups.CreateSnapshot(c.Request.Context())
	if err != nil {
		apierr.Write(c, apierr.Unexpected("Backup failed", err))
		return
	}
	log.WithFields(log.Fields{"snapshot": snapshotID, "user_id": user.ID}).Info("Backup requested")
	c.JSON(http.StatusOK, BackupResponse{Message: "Backup created successfully", SnapshotID: snapshotID})
}
