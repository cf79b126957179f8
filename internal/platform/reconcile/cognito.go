package reconcile

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"facturapos/internal/config"
)

// CognitoPool implements Pool against a Cognito user pool.
type CognitoPool struct {
	client *cip.Client
	poolID string
}

func NewCognitoPool(ctx context.Context, cfg *config.Config) (*CognitoPool, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &CognitoPool{
		client: cip.NewFromConfig(awsCfg),
		poolID: cfg.CognitoUserPoolID,
	}, nil
}

func (p *CognitoPool) Users(ctx context.Context) ([]PoolUser, error) {
	var users []PoolUser
	var token *string

	for {
		out, err := p.client.ListUsers(ctx, &cip.ListUsersInput{
			UserPoolId:      aws.String(p.poolID),
			PaginationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("cognito list users: %w", err)
		}

		for _, u := range out.Users {
			// Unconfirmed signups never reached the PostConfirmation trigger.
			if u.UserStatus != types.UserStatusTypeConfirmed {
				continue
			}
			users = append(users, mapPoolUser(u))
		}

		if out.PaginationToken == nil {
			break
		}
		token = out.PaginationToken
	}

	return users, nil
}

func mapPoolUser(u types.UserType) PoolUser {
	pu := PoolUser{Username: aws.ToString(u.Username)}
	for _, attr := range u.Attributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			pu.Sub = aws.ToString(attr.Value)
		case "email":
			pu.Email = aws.ToString(attr.Value)
		case "name":
			pu.Name = aws.ToString(attr.Value)
		case "phone_number":
			pu.PhoneNumber = aws.ToString(attr.Value)
		case "custom:restaurantName":
			pu.RestaurantName = aws.ToString(attr.Value)
		}
	}
	return pu
}

var _ Pool = (*CognitoPool)(nil)
