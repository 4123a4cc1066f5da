// Package identity derives member-account credentials for cross-account
// alarm provisioning.
package identity

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// RoleARN builds the provisioning role ARN for a member account. The role is
// deployed per region under the name {roleName}-{region}.
func RoleARN(partition, account, roleName, region string) string {
	return fmt.Sprintf("arn:%s:iam::%s:role/%s-%s", partition, account, roleName, region)
}

// Assume returns a copy of base whose credentials come from assuming roleARN
// in the target region. The SDK caches and refreshes the session credentials
// transparently.
func Assume(base aws.Config, roleARN, sessionName, region string) aws.Config {
	client := sts.NewFromConfig(base, func(o *sts.Options) {
		o.Region = region
	})

	provider := stscreds.NewAssumeRoleProvider(client, roleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = sessionName
	})

	derived := base.Copy()
	derived.Region = region
	derived.Credentials = aws.NewCredentialsCache(provider)

	return derived
}
