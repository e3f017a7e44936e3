package cognito

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// ErrCognitoThrottled marks errors returned when Cognito throttles requests.
var ErrCognitoThrottled = errors.New("cognito throttling")

// ErrCognitoNotAuthorized marks errors returned when Cognito rejects credentials
// or tokens. Unknown users map here too so callers cannot tell which accounts exist.
var ErrCognitoNotAuthorized = errors.New("cognito not authorized")

// ErrCognitoInvalidPassword marks passwords rejected by the pool policy.
var ErrCognitoInvalidPassword = errors.New("cognito password rejected by policy")

// ErrCognitoChallenge is returned when the pool asks for a challenge (new
// password, MFA) instead of issuing tokens.
var ErrCognitoChallenge = errors.New("cognito requires an auth challenge")

const RoleAttribute = "custom:role"

// identityAPI is the subset of the Cognito SDK client used here.
type identityAPI interface {
	InitiateAuth(ctx context.Context, in *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	GetUser(ctx context.Context, in *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
	GlobalSignOut(ctx context.Context, in *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
	AdminSetUserPassword(ctx context.Context, in *cognitoidentityprovider.AdminSetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error)
}

type CognitoClient struct {
	client   identityAPI
	poolID   string
	clientID string
}

// Tokens is the result of a successful password sign-in.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Identity holds the user attributes staff sessions are built from.
type Identity struct {
	Username string
	Subject  string
	Email    string
	Name     string
	Role     string
}

// NewClient creates a new Cognito client from pool ID and client ID.
// The region is extracted from the pool ID (format: "region_poolid").
func NewClient(ctx context.Context, poolID, clientID string) (*CognitoClient, error) {
	region, err := regionFromPoolID(poolID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("cognito client id is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &CognitoClient{
		client:   cognitoidentityprovider.NewFromConfig(awsCfg),
		poolID:   poolID,
		clientID: clientID,
	}, nil
}

// PasswordAuth runs the USER_PASSWORD_AUTH flow. The app client must have
// that flow enabled.
func (c *CognitoClient) PasswordAuth(ctx context.Context, email, password string) (Tokens, error) {
	issuedAt := time.Now()
	out, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return Tokens{}, mapCognitoError(err)
	}
	if out.AuthenticationResult == nil {
		return Tokens{}, fmt.Errorf("%w: %s", ErrCognitoChallenge, out.ChallengeName)
	}

	result := out.AuthenticationResult
	return Tokens{
		AccessToken: aws.ToString(result.AccessToken),
		ExpiresAt:   issuedAt.Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

// GetUser resolves an access token to the user's attributes.
func (c *CognitoClient) GetUser(ctx context.Context, accessToken string) (Identity, error) {
	out, err := c.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return Identity{}, mapCognitoError(err)
	}

	identity := Identity{Username: aws.ToString(out.Username)}
	for _, attr := range out.UserAttributes {
		value := aws.ToString(attr.Value)
		switch aws.ToString(attr.Name) {
		case "sub":
			identity.Subject = value
		case "email":
			identity.Email = value
		case "name":
			identity.Name = value
		case RoleAttribute:
			identity.Role = value
		}
	}
	if identity.Subject == "" {
		identity.Subject = identity.Username
	}
	return identity, nil
}

// GlobalSignOut revokes every token issued to the user behind accessToken.
func (c *CognitoClient) GlobalSignOut(ctx context.Context, accessToken string) error {
	_, err := c.client.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return mapCognitoError(err)
	}
	return nil
}

// SetPassword sets a permanent password for username.
func (c *CognitoClient) SetPassword(ctx context.Context, username, password string) error {
	_, err := c.client.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		return mapCognitoError(err)
	}
	return nil
}

func mapCognitoError(err error) error {
	var throttled *types.TooManyRequestsException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %v", ErrCognitoThrottled, err)
	}
	var limit *types.LimitExceededException
	if errors.As(err, &limit) {
		return fmt.Errorf("%w: %v", ErrCognitoThrottled, err)
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %v", ErrCognitoNotAuthorized, err)
	}
	var notFound *types.UserNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrCognitoNotAuthorized, err)
	}
	var invalidPassword *types.InvalidPasswordException
	if errors.As(err, &invalidPassword) {
		return fmt.Errorf("%w: %v", ErrCognitoInvalidPassword, err)
	}
	return err
}

func regionFromPoolID(poolID string) (string, error) {
	parts := strings.SplitN(poolID, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid cognito pool id: %q", poolID)
	}
	return parts[0], nil
}
