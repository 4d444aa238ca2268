package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAPI is a mock implementation of API for testing.
type mockAPI struct {
	signUpFunc                func(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	adminConfirmSignUpFunc    func(ctx context.Context, params *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
	adminUpdateAttributesFunc func(ctx context.Context, params *cip.AdminUpdateUserAttributesInput, optFns ...func(*cip.Options)) (*cip.AdminUpdateUserAttributesOutput, error)
	initiateAuthFunc          func(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	globalSignOutFunc         func(ctx context.Context, params *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	forgotPasswordFunc        func(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	confirmForgotPasswordFunc func(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	calls                     []string
}

func (m *mockAPI) SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	m.calls = append(m.calls, "SignUp")
	if m.signUpFunc != nil {
		return m.signUpFunc(ctx, params, optFns...)
	}
	return &cip.SignUpOutput{UserSub: aws.String("sub-new")}, nil
}

func (m *mockAPI) AdminConfirmSignUp(ctx context.Context, params *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error) {
	m.calls = append(m.calls, "AdminConfirmSignUp")
	if m.adminConfirmSignUpFunc != nil {
		return m.adminConfirmSignUpFunc(ctx, params, optFns...)
	}
	return &cip.AdminConfirmSignUpOutput{}, nil
}

func (m *mockAPI) AdminUpdateUserAttributes(ctx context.Context, params *cip.AdminUpdateUserAttributesInput, optFns ...func(*cip.Options)) (*cip.AdminUpdateUserAttributesOutput, error) {
	m.calls = append(m.calls, "AdminUpdateUserAttributes")
	if m.adminUpdateAttributesFunc != nil {
		return m.adminUpdateAttributesFunc(ctx, params, optFns...)
	}
	return &cip.AdminUpdateUserAttributesOutput{}, nil
}

func (m *mockAPI) InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	m.calls = append(m.calls, "InitiateAuth")
	if m.initiateAuthFunc != nil {
		return m.initiateAuthFunc(ctx, params, optFns...)
	}
	return &cip.InitiateAuthOutput{}, nil
}

func (m *mockAPI) GlobalSignOut(ctx context.Context, params *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error) {
	m.calls = append(m.calls, "GlobalSignOut")
	if m.globalSignOutFunc != nil {
		return m.globalSignOutFunc(ctx, params, optFns...)
	}
	return &cip.GlobalSignOutOutput{}, nil
}

func (m *mockAPI) ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error) {
	m.calls = append(m.calls, "ForgotPassword")
	if m.forgotPasswordFunc != nil {
		return m.forgotPasswordFunc(ctx, params, optFns...)
	}
	return &cip.ForgotPasswordOutput{}, nil
}

func (m *mockAPI) ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
	m.calls = append(m.calls, "ConfirmForgotPassword")
	if m.confirmForgotPasswordFunc != nil {
		return m.confirmForgotPasswordFunc(ctx, params, optFns...)
	}
	return &cip.ConfirmForgotPasswordOutput{}, nil
}

type stubVerifier struct {
	sub   string
	err   error
	token string
}

func (s *stubVerifier) Subject(token string) (string, error) {
	s.token = token
	return s.sub, s.err
}

type stubSubscriber struct {
	email, subject string
	err            error
}

func (s *stubSubscriber) Subscribe(_ context.Context, email, subject string) error {
	s.email, s.subject = email, subject
	return s.err
}

func newTestGateway(m *mockAPI) (*Gateway, *stubVerifier, *stubSubscriber) {
	v := &stubVerifier{sub: "sub-1"}
	s := &stubSubscriber{}
	return New(m, "us-east-1_pool", "client-123", v, s), v, s
}

func TestRegister_ConfirmsVerifiesAndSubscribes(t *testing.T) {
	var confirmed *cip.AdminConfirmSignUpInput
	var updated *cip.AdminUpdateUserAttributesInput
	m := &mockAPI{
		signUpFunc: func(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
			assert.Equal(t, "client-123", aws.ToString(in.ClientId))
			assert.Equal(t, "jane@example.com", aws.ToString(in.Username))
			return &cip.SignUpOutput{UserSub: aws.String("sub-42")}, nil
		},
		adminConfirmSignUpFunc: func(_ context.Context, in *cip.AdminConfirmSignUpInput, _ ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error) {
			confirmed = in
			return &cip.AdminConfirmSignUpOutput{}, nil
		},
		adminUpdateAttributesFunc: func(_ context.Context, in *cip.AdminUpdateUserAttributesInput, _ ...func(*cip.Options)) (*cip.AdminUpdateUserAttributesOutput, error) {
			updated = in
			return &cip.AdminUpdateUserAttributesOutput{}, nil
		},
	}
	g, _, sub := newTestGateway(m)

	u, err := g.Register(context.Background(), "jane@example.com", "Secr3t!pass")
	require.NoError(t, err)

	assert.Equal(t, "sub-42", u.SubjectID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, []string{"SignUp", "AdminConfirmSignUp", "AdminUpdateUserAttributes"}, m.calls)
	require.NotNil(t, confirmed)
	assert.Equal(t, "us-east-1_pool", aws.ToString(confirmed.UserPoolId))
	require.NotNil(t, updated)
	require.Len(t, updated.UserAttributes, 1)
	assert.Equal(t, "email_verified", aws.ToString(updated.UserAttributes[0].Name))
	assert.Equal(t, "true", aws.ToString(updated.UserAttributes[0].Value))
	assert.Equal(t, "jane@example.com", sub.email)
	assert.Equal(t, "sub-42", sub.subject)
}

func TestRegister_MissingFields(t *testing.T) {
	m := &mockAPI{}
	g, _, _ := newTestGateway(m)

	_, err := g.Register(context.Background(), "", "pw")

	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation})
	assert.Empty(t, m.calls)
}

func TestRegister_EmailTaken(t *testing.T) {
	m := &mockAPI{
		signUpFunc: func(context.Context, *cip.SignUpInput, ...func(*cip.Options)) (*cip.SignUpOutput, error) {
			return nil, &types.UsernameExistsException{Message: aws.String("An account with the given email already exists.")}
		},
	}
	g, _, sub := newTestGateway(m)

	_, err := g.Register(context.Background(), "jane@example.com", "pw")

	require.Error(t, err)
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindConflict})
	assert.Equal(t, "An account with the given email already exists.", err.Error())
	assert.Equal(t, []string{"SignUp"}, m.calls)
	assert.Empty(t, sub.email, "no subscription for a rejected sign up")
}

func TestRegister_SubscribeFailure(t *testing.T) {
	m := &mockAPI{}
	g, _, sub := newTestGateway(m)
	sub.err = apperr.Provider(errors.New("AuthorizationError: not allowed to subscribe"))

	_, err := g.Register(context.Background(), "jane@example.com", "pw")

	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider})
}

func TestAuthenticate_VerifiesIDToken(t *testing.T) {
	m := &mockAPI{
		initiateAuthFunc: func(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
			assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, in.AuthFlow)
			assert.Equal(t, "jane@example.com", in.AuthParameters["USERNAME"])
			return &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{
				AccessToken:  aws.String("access"),
				IdToken:      aws.String("id.token.sig"),
				RefreshToken: aws.String("refresh"),
				TokenType:    aws.String("Bearer"),
				ExpiresIn:    3600,
			}}, nil
		},
	}
	g, v, _ := newTestGateway(m)

	s, err := g.Authenticate(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "sub-1", s.SubjectID)
	assert.Equal(t, "id.token.sig", v.token)
	assert.Equal(t, "access", s.Tokens.AccessToken)
	assert.Equal(t, int32(3600), s.Tokens.ExpiresIn)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	for _, provErr := range []error{
		&types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")},
		&types.UserNotFoundException{Message: aws.String("User does not exist.")},
	} {
		m := &mockAPI{
			initiateAuthFunc: func(context.Context, *cip.InitiateAuthInput, ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
				return nil, provErr
			},
		}
		g, _, _ := newTestGateway(m)

		_, err := g.Authenticate(context.Background(), "jane@example.com", "wrong")

		assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindAuth})
	}
}

func TestAuthenticate_Challenge(t *testing.T) {
	m := &mockAPI{
		initiateAuthFunc: func(context.Context, *cip.InitiateAuthInput, ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
			return &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}, nil
		},
	}
	g, _, _ := newTestGateway(m)

	_, err := g.Authenticate(context.Background(), "jane@example.com", "pw")

	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindAuth})
}

func TestAuthenticate_UntrustedToken(t *testing.T) {
	m := &mockAPI{
		initiateAuthFunc: func(context.Context, *cip.InitiateAuthInput, ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
			return &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{IdToken: aws.String("forged")}}, nil
		},
	}
	g, v, _ := newTestGateway(m)
	v.err = apperr.Auth("invalid id token", errors.New("signature is invalid"))

	_, err := g.Authenticate(context.Background(), "jane@example.com", "pw")

	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindAuth})
}

func TestSignOut(t *testing.T) {
	m := &mockAPI{}
	g, _, _ := newTestGateway(m)
	require.NoError(t, g.SignOut(context.Background(), "access"))

	m.globalSignOutFunc = func(context.Context, *cip.GlobalSignOutInput, ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error) {
		return nil, &types.NotAuthorizedException{Message: aws.String("Access Token has been revoked")}
	}
	err := g.SignOut(context.Background(), "access")
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindAuth})
	assert.Equal(t, "Access Token has been revoked", err.Error())

	err = g.SignOut(context.Background(), "")
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation})
}

func TestPasswordReset(t *testing.T) {
	var confirm *cip.ConfirmForgotPasswordInput
	m := &mockAPI{
		confirmForgotPasswordFunc: func(_ context.Context, in *cip.ConfirmForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
			confirm = in
			return &cip.ConfirmForgotPasswordOutput{}, nil
		},
	}
	g, _, _ := newTestGateway(m)

	require.NoError(t, g.RequestPasswordReset(context.Background(), "jane@example.com"))
	require.NoError(t, g.ConfirmPasswordReset(context.Background(), "jane@example.com", "123456", "N3w!pass"))

	require.NotNil(t, confirm)
	assert.Equal(t, "123456", aws.ToString(confirm.ConfirmationCode))
	assert.Equal(t, "N3w!pass", aws.ToString(confirm.Password))
}

func TestConfirmPasswordReset_BadCode(t *testing.T) {
	m := &mockAPI{
		confirmForgotPasswordFunc: func(context.Context, *cip.ConfirmForgotPasswordInput, ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
			return nil, &types.CodeMismatchException{Message: aws.String("Invalid verification code provided, please try again.")}
		},
	}
	g, _, _ := newTestGateway(m)

	err := g.ConfirmPasswordReset(context.Background(), "jane@example.com", "000000", "pw")

	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation})
	assert.Equal(t, "Invalid verification code provided, please try again.", err.Error())
}

func TestRequestPasswordReset_ProviderError(t *testing.T) {
	m := &mockAPI{
		forgotPasswordFunc: func(context.Context, *cip.ForgotPasswordInput, ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error) {
			return nil, &types.LimitExceededException{Message: aws.String("Attempt limit exceeded")}
		},
	}
	g, _, _ := newTestGateway(m)

	err := g.RequestPasswordReset(context.Background(), "jane@example.com")

	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider})
	assert.Contains(t, err.Error(), "Attempt limit exceeded")
}

func TestEmailIsTrimmedBeforeUse(t *testing.T) {
	var signUpUser, authUser, forgotUser string
	m := &mockAPI{
		signUpFunc: func(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
			signUpUser = aws.ToString(in.Username)
			assert.Equal(t, "a@b.com", aws.ToString(in.UserAttributes[0].Value))
			return &cip.SignUpOutput{UserSub: aws.String("sub-1")}, nil
		},
		initiateAuthFunc: func(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
			authUser = in.AuthParameters["USERNAME"]
			return &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{IdToken: aws.String("id")}}, nil
		},
		forgotPasswordFunc: func(_ context.Context, in *cip.ForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error) {
			forgotUser = aws.ToString(in.Username)
			return &cip.ForgotPasswordOutput{}, nil
		},
	}
	g, _, sub := newTestGateway(m)

	u, err := g.Register(context.Background(), " a@b.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "a@b.com", signUpUser)
	assert.Equal(t, "a@b.com", sub.email)

	_, err = g.Authenticate(context.Background(), "\ta@b.com\n", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", authUser)

	require.NoError(t, g.RequestPasswordReset(context.Background(), " a@b.com"))
	assert.Equal(t, "a@b.com", forgotUser)
}
