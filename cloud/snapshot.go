package cloud

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	log "github.com/sirupsen/logrus"
)

// Snapshotter triggers manual RDS snapshots of the instance named by an SSM parameter
type Snapshotter struct {
	client        rdsiface.RDSAPI
	params        *ParamStore
	instanceParam string
	now           func() time.Time
}

func NewSnapshotter(client rdsiface.RDSAPI, params *ParamStore, instanceParam string) *Snapshotter {
	return &Snapshotter{
		client:        client,
		params:        params,
		instanceParam: instanceParam,
		now:           time.Now,
	}
}

// CreateSnapshot starts a snapshot named backup-<unix millis> and returns its identifier
func (s *Snapshotter) CreateSnapshot(ctx context.Context) (string, error) {
	instance, err := s.params.Get(ctx, s.instanceParam, false)
	if err != nil {
		return "", err
	}
	snapshotID := "backup-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	out, err := s.client.CreateDBSnapshotWithContext(ctx, &rds.CreateDBSnapshotInput{
		DBInstanceIdentifier: aws.String(instance),
		DBSnapshotIdentifier: aws.String(snapshotID),
	})
	if err != nil {
		return "", fmt.Errorf("create snapshot of %s: %w", instance, err)
	}
	if out.DBSnapshot != nil && out.DBSnapshot.DBSnapshotIdentifier != nil {
		snapshotID = *out.DBSnapshot.DBSnapshotIdentifier
	}
	log.WithFields(log.Fields{"instance": instance, "snapshot": snapshotID}).Info("Database snapshot started")
	return snapshotID, nil
}
