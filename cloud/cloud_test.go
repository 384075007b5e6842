package cloud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	ssmiface.SSMAPI
	values    map[string]string
	decrypted []string
}

func (f *fakeSSM) GetParameterWithContext(_ aws.Context, in *ssm.GetParameterInput, _ ...request.Option) (*ssm.GetParameterOutput, error) {
	v, ok := f.values[*in.Name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	if aws.BoolValue(in.WithDecryption) {
		f.decrypted = append(f.decrypted, *in.Name)
	}
	return &ssm.GetParameterOutput{Parameter: &ssm.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

type fakeRDS struct {
	rdsiface.RDSAPI
	input *rds.CreateDBSnapshotInput
	err   error
}

func (f *fakeRDS) CreateDBSnapshotWithContext(_ aws.Context, in *rds.CreateDBSnapshotInput, _ ...request.Option) (*rds.CreateDBSnapshotOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &rds.CreateDBSnapshotOutput{DBSnapshot: &rds.DBSnapshot{DBSnapshotIdentifier: in.DBSnapshotIdentifier}}, nil
}

func TestParamStoreGet(t *testing.T) {
	fake := &fakeSSM{values: map[string]string{"/brd/dev/db-password": "secret"}}
	params := NewParamStore(fake)

	v, err := params.Get(context.Background(), "/brd/dev/db-password", true)
	require.NoError(t, err)
	assert.Equal(t, "secret", v)
	assert.Equal(t, []string{"/brd/dev/db-password"}, fake.decrypted)

	_, err = params.Get(context.Background(), "/missing", false)
	assert.ErrorContains(t, err, "/missing")
}

func TestCreateSnapshot(t *testing.T) {
	fakeDB := &fakeRDS{}
	s := NewSnapshotter(fakeDB, NewParamStore(&fakeSSM{values: map[string]string{"/brd/db-instance": "photos-db"}}), "/brd/db-instance")
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	id, err := s.CreateSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backup-1700000000123", id)
	assert.Equal(t, "photos-db", aws.StringValue(fakeDB.input.DBInstanceIdentifier))
}

func TestCreateSnapshotErrors(t *testing.T) {
	s := NewSnapshotter(&fakeRDS{}, NewParamStore(&fakeSSM{}), "/brd/db-instance")
	_, err := s.CreateSnapshot(context.Background())
	assert.Error(t, err)

	s = NewSnapshotter(&fakeRDS{err: errors.New("quota exceeded")}, NewParamStore(&fakeSSM{values: map[string]string{"/brd/db-instance": "db"}}), "/brd/db-instance")
	_, err = s.CreateSnapshot(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")
}
