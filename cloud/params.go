package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
)

type ParamStore struct {
	client ssmiface.SSMAPI
}

func NewParamStore(client ssmiface.SSMAPI) *ParamStore {
	return &ParamStore{client: client}
}

// Get returns the value of an SSM parameter. decrypt is needed for SecureString parameters.
func (p *ParamStore) Get(ctx context.Context, name string, decrypt bool) (string, error) {
	out, err := p.client.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return "", fmt.Errorf("ssm parameter %s: %w", name, err)
	}
	if out.Parameter == nil || aws.StringValue(out.Parameter.Value) == "" {
		return "", fmt.Errorf("ssm parameter %s is empty", name)
	}
	return aws.StringValue(out.Parameter.Value), nil
}
