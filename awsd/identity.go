package awsd

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"ec2reporter/awsd/models"
	"ec2reporter/errors"
)

// CallerIdentity returns the account and principal behind the loaded credentials
func (a *AwsClient) CallerIdentity(ctx context.Context) (*models.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	output, err := a.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, errors.New(errors.ErrAWSClient, "unable to get caller identity", nil, err)
	}

	profile := a.profile
	if profile == "" {
		profile = "default"
	}

	return &models.Identity{
		Account: aws.ToString(output.Account),
		ARN:     aws.ToString(output.Arn),
		UserID:  aws.ToString(output.UserId),
		Profile: profile,
	}, nil
}
