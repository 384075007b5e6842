// Package cloud wraps the AWS services the server talks to besides S3:
// SSM Parameter Store (configuration and credentials) and RDS (snapshots).
package cloud

import (
	"photostore/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/ssm"
)

var (
	Session *session.Session
	Params  *ParamStore
	Backups *Snapshotter
)

// NewSession creates an AWS session using the default credential chain
func NewSession() (*session.Session, error) {
	cfg := aws.NewConfig().WithRegion(config.AWS_REGION)
	if config.S3_ENDPOINT != "" {
		cfg = cfg.WithEndpoint(config.S3_ENDPOINT).WithS3ForcePathStyle(true)
	}
	return session.NewSession(cfg)
}

func Init() error {
	sess, err := NewSession()
	if err != nil {
		return err
	}
	Session = sess
	// S3_ENDPOINT only applies to S3; SSM and RDS always use the regional endpoints
	regional := aws.NewConfig().WithEndpoint("")
	Params = NewParamStore(ssm.New(sess, regional))
	Backups = NewSnapshotter(rds.New(sess, regional), Params, config.DB_INSTANCE_PARAM)
	return nil
}
