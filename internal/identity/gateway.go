// Package identity wraps the hosted user directory: registration,
// authentication, sign-out and password reset. No credentials or sessions
// are stored locally.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"
	"github.com/kylejryan/claims-intake-backend/internal/models"
	"github.com/kylejryan/claims-intake-backend/internal/validate"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// API is the subset of the Cognito user pool client used by Gateway.
type API interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	AdminConfirmSignUp(ctx context.Context, params *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
	AdminUpdateUserAttributes(ctx context.Context, params *cip.AdminUpdateUserAttributesInput, optFns ...func(*cip.Options)) (*cip.AdminUpdateUserAttributesOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, params *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

// SubjectVerifier turns a verified ID token into its subject.
type SubjectVerifier interface {
	Subject(token string) (string, error)
}

// Subscriber registers an email address for claim notifications of subject.
type Subscriber interface {
	Subscribe(ctx context.Context, email, subject string) error
}

// Gateway is the identity provider facade.
type Gateway struct {
	api        API
	poolID     string
	clientID   string
	verifier   SubjectVerifier
	subscriber Subscriber
}

// New returns a Gateway for the given user pool and app client.
func New(api API, poolID, clientID string, verifier SubjectVerifier, subscriber Subscriber) *Gateway {
	return &Gateway{
		api:        api,
		poolID:     poolID,
		clientID:   clientID,
		verifier:   verifier,
		subscriber: subscriber,
	}
}

// Register signs up email, confirms the account, marks the email verified and
// subscribes it to notifications scoped to the new subject.
func (g *Gateway) Register(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if err := validate.Required(validate.F("email", email), validate.F("password", password)); err != nil {
		return models.User{}, err
	}
	if err := validate.Email(email); err != nil {
		return models.User{}, err
	}

	out, err := g.api.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(g.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		var exists *types.UsernameExistsException
		if errors.As(err, &exists) {
			return models.User{}, apperr.Conflict(exists.ErrorMessage(), err)
		}
		return models.User{}, apperr.Provider(err)
	}
	sub := aws.ToString(out.UserSub)

	if _, err := g.api.AdminConfirmSignUp(ctx, &cip.AdminConfirmSignUpInput{
		UserPoolId: aws.String(g.poolID),
		Username:   aws.String(email),
	}); err != nil {
		return models.User{}, apperr.Provider(err)
	}

	if _, err := g.api.AdminUpdateUserAttributes(ctx, &cip.AdminUpdateUserAttributesInput{
		UserPoolId: aws.String(g.poolID),
		Username:   aws.String(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
	}); err != nil {
		return models.User{}, apperr.Provider(err)
	}

	if g.subscriber != nil {
		if err := g.subscriber.Subscribe(ctx, email, sub); err != nil {
			return models.User{}, err
		}
	}

	slog.InfoContext(ctx, "user registered", "user_id", sub)
	return models.User{SubjectID: sub, Email: email}, nil
}

// Authenticate exchanges email and password for tokens. The subject is read
// from the ID token only after its signature has been verified.
func (g *Gateway) Authenticate(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if err := validate.Required(validate.F("email", email), validate.F("password", password)); err != nil {
		return models.Session{}, err
	}

	out, err := g.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(g.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		if isCredentialError(err) {
			return models.Session{}, apperr.Auth("Invalid credentials", err)
		}
		return models.Session{}, apperr.Provider(err)
	}
	res := out.AuthenticationResult
	if res == nil {
		// A challenge (new password, MFA) is not supported by this backend.
		return models.Session{}, apperr.Auth("authentication challenge "+string(out.ChallengeName)+" is not supported", nil)
	}

	sub, err := g.verifier.Subject(aws.ToString(res.IdToken))
	if err != nil {
		return models.Session{}, err
	}

	return models.Session{
		SubjectID: sub,
		Tokens: models.Tokens{
			AccessToken:  aws.ToString(res.AccessToken),
			IDToken:      aws.ToString(res.IdToken),
			RefreshToken: aws.ToString(res.RefreshToken),
			TokenType:    aws.ToString(res.TokenType),
			ExpiresIn:    res.ExpiresIn,
		},
	}, nil
}

// SignOut invalidates every token of the user owning accessToken.
func (g *Gateway) SignOut(ctx context.Context, accessToken string) error {
	if err := validate.Required(validate.F("access_token", accessToken)); err != nil {
		return err
	}
	if _, err := g.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	}); err != nil {
		var na *types.NotAuthorizedException
		if errors.As(err, &na) {
			return apperr.Auth(na.ErrorMessage(), err)
		}
		return apperr.Provider(err)
	}
	return nil
}

// RequestPasswordReset sends a one-time code to email out of band.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Required(validate.F("email", email)); err != nil {
		return err
	}
	if _, err := g.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId: aws.String(g.clientID),
		Username: aws.String(email),
	}); err != nil {
		return apperr.Provider(err)
	}
	return nil
}

// ConfirmPasswordReset sets newPassword when code matches the one sent.
func (g *Gateway) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(email)
	if err := validate.Required(
		validate.F("email", email),
		validate.F("otp", code),
		validate.F("newPassword", newPassword),
	); err != nil {
		return err
	}
	if _, err := g.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(g.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	}); err != nil {
		var mismatch *types.CodeMismatchException
		var expired *types.ExpiredCodeException
		switch {
		case errors.As(err, &mismatch):
			return apperr.Wrap(apperr.KindValidation, mismatch.ErrorMessage(), err)
		case errors.As(err, &expired):
			return apperr.Wrap(apperr.KindValidation, expired.ErrorMessage(), err)
		}
		return apperr.Provider(err)
	}
	return nil
}

func isCredentialError(err error) bool {
	var na *types.NotAuthorizedException
	var nf *types.UserNotFoundException
	return errors.As(err, &na) || errors.As(err, &nf)
}
