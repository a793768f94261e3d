package awsd

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"ec2reporter/awsd/models"
	"ec2reporter/configuration"
	"ec2reporter/errors"
)

const (
	packageName = "awsd"

	// DefaultTimeout bounds each AWS API call when no timeout is configured
	DefaultTimeout = 30 * time.Second
)

// EC2API is the subset of the EC2 client used for discovery
type EC2API interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// STSAPI is the subset of the STS client used for identity lookups
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// accessDeniedCodes are the API error codes EC2 returns for regions the caller cannot use
var accessDeniedCodes = map[string]bool{
	"UnauthorizedOperation": true,
	"AuthFailure":           true,
	"OptInRequired":         true,
	"AccessDenied":          true,
	"AccessDeniedException": true,
}

type AwsClient struct {
	client   EC2API
	sts      STSAPI
	regional func(region string) EC2API
	profile  string
	timeout  time.Duration
}

// NewAWSClientWithAPIs builds a client from already constructed API implementations.
// regional returns the EC2 API bound to a given region.
func NewAWSClientWithAPIs(client EC2API, stsClient STSAPI, regional func(region string) EC2API, timeout time.Duration) *AwsClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AwsClient{
		client:   client,
		sts:      stsClient,
		regional: regional,
		timeout:  timeout,
	}
}

// NewEC2ClientWithConfig creates EC2 and STS clients from a loaded AWS config
func NewEC2ClientWithConfig(cfg aws.Config, endpointURL string, timeout time.Duration) *AwsClient {
	ec2Opts := []func(*ec2.Options){}
	stsOpts := []func(*sts.Options){}
	if endpointURL != "" {
		// LocalStack or another EC2-compatible endpoint
		ec2Opts = append(ec2Opts, func(o *ec2.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
		stsOpts = append(stsOpts, func(o *sts.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
	}

	regional := func(region string) EC2API {
		opts := append([]func(*ec2.Options){}, ec2Opts...)
		opts = append(opts, func(o *ec2.Options) {
			o.Region = region
		})
		return ec2.NewFromConfig(cfg, opts...)
	}

	return NewAWSClientWithAPIs(ec2.NewFromConfig(cfg, ec2Opts...), sts.NewFromConfig(cfg, stsOpts...), regional, timeout)
}

// NewAWSClient loads the ambient AWS credentials (profile, role or static keys) and creates a client
func NewAWSClient(ctx context.Context, c *configuration.Config) (*AwsClient, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(c.AWSRegion),
	}
	if c.AWSProfile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.AWSProfile))
	}
	if c.AccessKeyID != "" && c.AccessSecret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.AccessSecret, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New(errors.ErrAWSClient, "unable to load AWS config",
			map[string]interface{}{
				"region":  c.AWSRegion,
				"profile": c.AWSProfile,
			}, err)
	}

	client := NewEC2ClientWithConfig(cfg, c.AWSEndpointURL, c.Timeout())
	client.profile = c.AWSProfile
	return client, nil
}

// ListRegions returns the names of the regions enabled for the account, in provider order
func (a *AwsClient) ListRegions(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	output, err := a.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, errors.New(errors.ErrRegionList, "could not retrieve AWS regions", nil, err)
	}

	regions := make([]string, 0, len(output.Regions))
	for _, r := range output.Regions {
		if name := aws.ToString(r.RegionName); name != "" {
			regions = append(regions, name)
		}
	}
	return regions, nil
}

// ValidatePermissions checks that the credentials may call the EC2 APIs the scan needs
func (a *AwsClient) ValidatePermissions(ctx context.Context) error {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "ValidatePermissions"),
	)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if _, err := a.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{}); err != nil {
		if IsAccessDenied(err) {
			return errors.New(errors.ErrPermission, "insufficient AWS permissions for EC2 operations",
				map[string]interface{}{
					"required_permissions": "ec2:DescribeRegions, ec2:DescribeInstances",
				}, err)
		}
		return errors.New(errors.ErrPermission, "AWS permission check failed", nil, err)
	}

	logger.Info("AWS permissions validated",
		zap.String("operation", "permission_check"),
	)
	return nil
}

// ListInstances returns every instance in region, following pagination
func (a *AwsClient) ListInstances(ctx context.Context, region string) ([]models.InstanceRecord, error) {
	paginator := ec2.NewDescribeInstancesPaginator(a.regional(region), &ec2.DescribeInstancesInput{})

	records := make([]models.InstanceRecord, 0)
	for paginator.HasMorePages() {
		page, err := a.nextPage(ctx, paginator)
		if err != nil {
			if IsAccessDenied(err) {
				return nil, errors.New(errors.ErrRegionAccess, "access denied to region, it may not be enabled for the account",
					map[string]interface{}{
						"region": region,
					}, err)
			}
			return nil, errors.New(errors.ErrRegionListing, "unexpected error listing instances",
				map[string]interface{}{
					"region": region,
				}, err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				records = append(records, toInstanceRecord(region, instance))
			}
		}
	}
	return records, nil
}

func (a *AwsClient) nextPage(ctx context.Context, p *ec2.DescribeInstancesPaginator) (*ec2.DescribeInstancesOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return p.NextPage(ctx)
}

// IsAccessDenied reports whether err is an AWS authorization failure
func IsAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return accessDeniedCodes[apiErr.ErrorCode()]
	}
	return false
}

// toInstanceRecord flattens an EC2 instance into a report record
func toInstanceRecord(region string, i types.Instance) models.InstanceRecord {
	record := models.InstanceRecord{
		Region:         region,
		InstanceID:     aws.ToString(i.InstanceId),
		InstanceType:   string(i.InstanceType),
		State:          models.StateOther,
		PrivateIP:      aws.ToString(i.PrivateIpAddress),
		PublicIP:       aws.ToString(i.PublicIpAddress),
		VpcID:          aws.ToString(i.VpcId),
		SubnetID:       aws.ToString(i.SubnetId),
		SecurityGroups: parseSecurityGroups(i.SecurityGroups),
		Platform:       string(i.Platform),
		Tags:           parseTags(i.Tags),
	}

	record.Name = record.Tags["Name"]
	if i.State != nil {
		record.State = models.ParseInstanceState(string(i.State.Name))
	}
	if i.Placement != nil {
		record.AvailabilityZone = aws.ToString(i.Placement.AvailabilityZone)
	}
	if i.LaunchTime != nil {
		record.LaunchTime = i.LaunchTime.UTC()
	}
	return record
}

// Helper function to parse tags into a key/value map
func parseTags(tags []types.Tag) map[string]string {
	result := make(map[string]string, len(tags))
	for _, tag := range tags {
		if tag.Key != nil {
			result[*tag.Key] = aws.ToString(tag.Value)
		}
	}
	return result
}

// Helper function to parse security group names
func parseSecurityGroups(groups []types.GroupIdentifier) []string {
	result := make([]string, 0, len(groups))
	for _, group := range groups {
		if group.GroupName != nil {
			result = append(result, *group.GroupName)
		}
	}
	return result
}
