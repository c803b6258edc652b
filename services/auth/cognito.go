package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

var (
	// ErrInvalidCredentials is returned when the identity provider rejects
	// a username and password or a refresh token
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when signing up an existing username
	ErrUsernameTaken = errors.New("username already exists")
)

// AuthTokens is what a successful sign-in returns.
type AuthTokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int64
}

// SignUpInput carries the attributes stored with a new identity.
type SignUpInput struct {
	Username string
	Password string
	Role     models.UserRole
}

// IdentityProvider is the part of the Cognito user pool the auth service
// talks to.
type IdentityProvider interface {
	SignIn(ctx context.Context, username, password string) (*AuthTokens, error)
	SignUp(ctx context.Context, in SignUpInput) (string, error)
	Refresh(ctx context.Context, refreshToken, username string) (*AuthTokens, error)
	ConfirmSignUp(ctx context.Context, username string) error
	DeleteUser(ctx context.Context, username string) error
}

type cognitoProvider struct {
	client         *cognitoidentityprovider.CognitoIdentityProvider
	cfg            config.AuthConfig
	circuitBreaker *utils.CircuitBreaker
}

func newCognitoProvider(cfg config.AuthConfig) (*cognitoProvider, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &cognitoProvider{
		client: cognitoidentityprovider.New(sess),
		cfg:    cfg,
		// rejected credentials are not an outage
		circuitBreaker: utils.NewCircuitBreaker("cognito", 5, 30*time.Second).
			IgnoreErrors(ErrInvalidCredentials, ErrUsernameTaken, models.ErrValidation),
	}, nil
}

// secretHash creates a secret hash for Cognito authentication
func (p *cognitoProvider) secretHash(username string) string {
	if p.cfg.ClientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(p.cfg.ClientSecret))
	mac.Write([]byte(username + p.cfg.ClientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (p *cognitoProvider) initiateAuth(ctx context.Context, flow string, params map[string]*string) (*AuthTokens, error) {
	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       aws.String(flow),
		ClientId:       aws.String(p.cfg.ClientID),
		AuthParameters: params,
	}

	var out *cognitoidentityprovider.InitiateAuthOutput
	err := p.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = p.client.InitiateAuthWithContext(ctx, input)
		return translate(err)
	})
	if err != nil {
		return nil, err
	}

	result := out.AuthenticationResult
	if result == nil {
		// MFA and password-reset challenges are not supported
		return nil, fmt.Errorf("%w: challenge %s required", ErrInvalidCredentials, aws.StringValue(out.ChallengeName))
	}
	return &AuthTokens{
		AccessToken:  aws.StringValue(result.AccessToken),
		IDToken:      aws.StringValue(result.IdToken),
		RefreshToken: aws.StringValue(result.RefreshToken),
		ExpiresIn:    aws.Int64Value(result.ExpiresIn),
	}, nil
}

func (p *cognitoProvider) SignIn(ctx context.Context, username, password string) (*AuthTokens, error) {
	params := map[string]*string{
		"USERNAME": aws.String(username),
		"PASSWORD": aws.String(password),
	}
	if hash := p.secretHash(username); hash != "" {
		params["SECRET_HASH"] = aws.String(hash)
	}
	return p.initiateAuth(ctx, cognitoidentityprovider.AuthFlowTypeUserPasswordAuth, params)
}

// Refresh exchanges a refresh token. With a client secret configured the
// username is required to compute the secret hash.
func (p *cognitoProvider) Refresh(ctx context.Context, refreshToken, username string) (*AuthTokens, error) {
	params := map[string]*string{
		"REFRESH_TOKEN": aws.String(refreshToken),
	}
	if hash := p.secretHash(username); hash != "" && username != "" {
		params["SECRET_HASH"] = aws.String(hash)
	}
	tokens, err := p.initiateAuth(ctx, cognitoidentityprovider.AuthFlowTypeRefreshTokenAuth, params)
	if err != nil {
		return nil, err
	}
	// Cognito does not rotate refresh tokens
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

func (p *cognitoProvider) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(p.cfg.ClientID),
		Username: aws.String(in.Username),
		Password: aws.String(in.Password),
		UserAttributes: []*cognitoidentityprovider.AttributeType{
			{Name: aws.String("custom:role"), Value: aws.String(string(in.Role))},
			{Name: aws.String("email"), Value: aws.String(in.Username)},
		},
	}
	if hash := p.secretHash(in.Username); hash != "" {
		input.SecretHash = aws.String(hash)
	}

	var out *cognitoidentityprovider.SignUpOutput
	err := p.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = p.client.SignUpWithContext(ctx, input)
		return translate(err)
	})
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.UserSub), nil
}

func (p *cognitoProvider) ConfirmSignUp(ctx context.Context, username string) error {
	return p.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		_, err := p.client.AdminConfirmSignUpWithContext(ctx, &cognitoidentityprovider.AdminConfirmSignUpInput{
			UserPoolId: aws.String(p.cfg.UserPoolID),
			Username:   aws.String(username),
		})
		return translate(err)
	})
}

func (p *cognitoProvider) DeleteUser(ctx context.Context, username string) error {
	return p.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		_, err := p.client.AdminDeleteUserWithContext(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
			UserPoolId: aws.String(p.cfg.UserPoolID),
			Username:   aws.String(username),
		})
		return translate(err)
	})
}

// translate maps Cognito client errors onto the service's sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case cognitoidentityprovider.ErrCodeNotAuthorizedException,
			cognitoidentityprovider.ErrCodeUserNotFoundException,
			cognitoidentityprovider.ErrCodeUserNotConfirmedException,
			cognitoidentityprovider.ErrCodePasswordResetRequiredException:
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, aerr.Message())
		case cognitoidentityprovider.ErrCodeUsernameExistsException:
			return fmt.Errorf("%w: %s", ErrUsernameTaken, aerr.Message())
		case cognitoidentityprovider.ErrCodeInvalidPasswordException,
			cognitoidentityprovider.ErrCodeInvalidParameterException:
			return fmt.Errorf("%w: %s", models.ErrValidation, aerr.Message())
		}
	}
	return err
}

// subjectFromToken reads the sub claim of a token the provider just issued.
func subjectFromToken(tokenString string) (string, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims format")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("sub claim not found or not a string")
	}
	return sub, nil
}
