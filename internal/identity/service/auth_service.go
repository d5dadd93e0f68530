package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"internship-portal/backend/internal/ledger"
	"internship-portal/backend/internal/notify"
	"internship-portal/backend/internal/otp"
	"internship-portal/backend/internal/security"
	"internship-portal/backend/internal/telemetry"
	userdomain "internship-portal/backend/internal/user/domain"
)

// AuthResult is returned by every flow that ends in a session: the bearer token and the user it resolves to.
type AuthResult struct {
	Token string
	User  *userdomain.User
}

// RegisterInput is the profile submitted by direct and OTP-gated registration.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
	Org      string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// SessionIssuer mints and stores bearer tokens (session.Issuer).
type SessionIssuer interface {
	Mint() (token, hash string, err error)
	Issue(ctx context.Context, userID int64) (string, error)
	Revoke(ctx context.Context, userID int64) error
}

// Config holds the lifetimes and policy switches of the OTP flows.
type Config struct {
	OTPTTL        time.Duration
	LoginTokenTTL time.Duration
	// RevealUnknownAccount makes RequestPasswordReset return ErrNoAccount for an unknown
	// email. When false, the request succeeds silently and no OTP is sent.
	RevealUnknownAccount bool
}

// AuthService sequences the ledger, session issuer and notification sender into the
// register, login, login-with-OTP and password-reset flows.
type AuthService struct {
	users    UserRepo
	ledger   ledger.Ledger
	sessions SessionIssuer
	sender   notify.Sender
	hasher   *security.Hasher
	events   telemetry.EventEmitter
	clock    clockwork.Clock
	cfg      Config
	tracer   trace.Tracer

	generateOTP   func() (string, error)
	generateToken func() (string, error)
}

// NewAuthService returns an AuthService with the given dependencies.
// events may be nil; clock nil uses the real clock.
func NewAuthService(
	users UserRepo,
	l ledger.Ledger,
	sessions SessionIssuer,
	sender notify.Sender,
	hasher *security.Hasher,
	events telemetry.EventEmitter,
	clock clockwork.Clock,
	cfg Config,
) *AuthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.LoginTokenTTL <= 0 {
		cfg.LoginTokenTTL = cfg.OTPTTL
	}
	return &AuthService{
		users:         users,
		ledger:        l,
		sessions:      sessions,
		sender:        sender,
		hasher:        hasher,
		events:        events,
		clock:         clock,
		cfg:           cfg,
		tracer:        otel.Tracer("internship-portal/identity"),
		generateOTP:   otp.Generate,
		generateToken: security.GenerateToken,
	}
}

// Register creates a user from in and issues its first session token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (_ *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer func() { endSpan(span, err) }()

	in = normalizeInput(in)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, dependencyFailure("get_user", err)
	}
	if existing != nil {
		return nil, ErrDuplicateIdentity
	}
	res, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.emit(telemetry.EventRegistered, "", "success", res.User.ID)
	return res, nil
}

// Login checks email and password and issues a new session token, replacing any previous one.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer func() { endSpan(span, err) }()

	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, dependencyFailure("issue_session", err)
	}
	s.emit(telemetry.EventLogin, "password", "success", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate checks email and password without touching the session token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*userdomain.User, error) {
	return s.authenticate(ctx, email, password)
}

// RequestRegistrationOTP sends a registration code to email. The email must not be
// registered yet; that check happens before any code is generated. username and phone
// only address the message.
func (s *AuthService) RequestRegistrationOTP(ctx context.Context, email, username, phone string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.RequestRegistrationOTP")
	defer func() { endSpan(span, err) }()

	email = userdomain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return dependencyFailure("get_user", err)
	}
	if existing != nil {
		return ErrDuplicateIdentity
	}
	return s.sendOTP(ctx, ledger.PurposeRegister, email, notify.Message{
		Email: email,
		Phone: strings.TrimSpace(phone),
		Name:  strings.TrimSpace(username),
	}, 0)
}

// VerifyRegistrationOTP checks code against the pending registration of in.Email, creates
// the user with its session token in one write, and only then consumes the code.
// A concurrent registration of the same email surfaces as ErrDuplicateIdentity.
func (s *AuthService) VerifyRegistrationOTP(ctx context.Context, in RegisterInput, code string) (_ *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.VerifyRegistrationOTP")
	defer func() { endSpan(span, err) }()

	in = normalizeInput(in)
	code = strings.TrimSpace(code)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	if err := checkCode(code); err != nil {
		return nil, err
	}
	r, err := s.ledger.Verify(ctx, ledger.PurposeRegister, in.Email, code)
	if err != nil {
		return nil, dependencyFailure("ledger_verify", err)
	}
	if err := s.adjudicated(ledger.PurposeRegister, r); err != nil {
		return nil, err
	}
	res, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	r, err = s.ledger.VerifyAndConsume(ctx, ledger.PurposeRegister, in.Email, code)
	if err != nil {
		log.Printf("identity: consume registration otp after create: %v", err)
	} else if r != ledger.Success {
		log.Printf("identity: registration otp was %s at consume; user %d already created", r, res.User.ID)
	}
	s.emit(telemetry.EventOTPVerified, string(ledger.PurposeRegister), "success", res.User.ID)
	s.emit(telemetry.EventRegistered, "otp", "success", res.User.ID)
	return res, nil
}

// RequestLoginOTP checks email and password, sends a login code, and returns a temp-token
// that stands in for the credentials in VerifyLoginOTP. The code is filed under the
// temp-token, so each challenge only answers to its own token.
func (s *AuthService) RequestLoginOTP(ctx context.Context, email, password string) (_ string, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.RequestLoginOTP")
	defer func() { endSpan(span, err) }()

	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	tempToken, err := s.generateToken()
	if err != nil {
		return "", dependencyFailure("generate_temp_token", err)
	}
	if err := s.ledger.BindTempToken(ctx, tempToken, user.Email, s.cfg.LoginTokenTTL); err != nil {
		return "", dependencyFailure("ledger_bind", err)
	}
	err = s.sendOTP(ctx, ledger.PurposeLogin, tempToken, notify.Message{
		Email: user.Email,
		Phone: user.Phone,
		Name:  user.Username,
	}, user.ID)
	if err != nil {
		if rerr := s.ledger.RevokeTempToken(ctx, tempToken); rerr != nil {
			log.Printf("identity: revoke temp token after failed send: %v", rerr)
		}
		return "", err
	}
	return tempToken, nil
}

// VerifyLoginOTP resolves tempToken to its email, consumes the code issued with that
// token, and issues a session token. The temp-token is revoked on success, so it resolves at most once.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, tempToken, code string) (_ *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.VerifyLoginOTP")
	defer func() { endSpan(span, err) }()

	tempToken = strings.TrimSpace(tempToken)
	code = strings.TrimSpace(code)
	if tempToken == "" {
		return nil, invalid("tempToken is required")
	}
	if err := checkCode(code); err != nil {
		return nil, err
	}
	email, r, err := s.ledger.ResolveTempToken(ctx, tempToken)
	if err != nil {
		return nil, dependencyFailure("ledger_resolve", err)
	}
	if r != ledger.Success {
		s.emit(telemetry.EventOTPRejected, string(ledger.PurposeLogin), "invalid_temp_token", 0)
		return nil, ErrInvalidTempToken
	}
	r, err = s.ledger.VerifyAndConsume(ctx, ledger.PurposeLogin, tempToken, code)
	if err != nil {
		return nil, dependencyFailure("ledger_verify", err)
	}
	if err := s.adjudicated(ledger.PurposeLogin, r); err != nil {
		return nil, err
	}
	if err := s.ledger.RevokeTempToken(ctx, tempToken); err != nil {
		log.Printf("identity: revoke temp token: %v", err)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, dependencyFailure("get_user", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, dependencyFailure("issue_session", err)
	}
	s.emit(telemetry.EventOTPVerified, string(ledger.PurposeLogin), "success", user.ID)
	s.emit(telemetry.EventLogin, "otp", "success", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// RequestPasswordReset sends a reset code to the account registered under email.
// For an unknown email it returns ErrNoAccount when RevealUnknownAccount is set, and
// otherwise succeeds without sending anything.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.RequestPasswordReset")
	defer func() { endSpan(span, err) }()

	email = userdomain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return dependencyFailure("get_user", err)
	}
	if user == nil {
		s.emit(telemetry.EventOTPRequested, string(ledger.PurposeReset), "unknown_account", 0)
		if s.cfg.RevealUnknownAccount {
			return ErrNoAccount
		}
		return nil
	}
	return s.sendOTP(ctx, ledger.PurposeReset, user.Email, notify.Message{
		Email: user.Email,
		Phone: user.Phone,
		Name:  user.Username,
	}, user.ID)
}

// ResetPassword checks code against the pending reset for email, replaces the password,
// and consumes the code. The stored session token is cleared with the old password.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ResetPassword")
	defer func() { endSpan(span, err) }()

	email = userdomain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := checkCode(code); err != nil {
		return err
	}
	if newPassword == "" {
		return invalid("new_password is required")
	}
	r, err := s.ledger.Verify(ctx, ledger.PurposeReset, email, code)
	if err != nil {
		return dependencyFailure("ledger_verify", err)
	}
	if err := s.adjudicated(ledger.PurposeReset, r); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return dependencyFailure("get_user", err)
	}
	if user == nil {
		return ErrNoAccount
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return dependencyFailure("hash_password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return dependencyFailure("update_password", err)
	}
	if _, err := s.ledger.VerifyAndConsume(ctx, ledger.PurposeReset, email, code); err != nil {
		log.Printf("identity: consume reset otp after update: %v", err)
	}
	s.emit(telemetry.EventOTPVerified, string(ledger.PurposeReset), "success", user.ID)
	s.emit(telemetry.EventPasswordReset, "", "success", user.ID)
	return nil
}

// Logout clears the session token of userID.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		return dependencyFailure("revoke_session", err)
	}
	s.emit(telemetry.EventLogout, "", "success", userID)
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*userdomain.User, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" {
		return nil, invalid("email is required")
	}
	if password == "" {
		return nil, invalid("password is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, dependencyFailure("get_user", err)
	}
	if user == nil || !s.hasher.Matches(user.PasswordHash, password) {
		s.emit(telemetry.EventLoginFailed, "password", "invalid_credentials", 0)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// createUser hashes the password, mints a session token and inserts the user with the
// token hash in a single statement.
func (s *AuthService) createUser(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, dependencyFailure("hash_password", err)
	}
	token, tokenHash, err := s.sessions.Mint()
	if err != nil {
		return nil, dependencyFailure("mint_session", err)
	}
	user := &userdomain.User{
		Username:         in.Username,
		Email:            in.Email,
		Phone:            in.Phone,
		Org:              in.Org,
		PasswordHash:     hash,
		SessionTokenHash: tokenHash,
	}
	if err := user.Validate(); err != nil {
		return nil, invalid(err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userdomain.ErrDuplicateEmail) {
			return nil, ErrDuplicateIdentity
		}
		return nil, dependencyFailure("create_user", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// sendOTP writes a fresh code for (purpose, subject) to the ledger, replacing any
// pending one, and then notifies msg's recipient. A failed send leaves the record in place.
func (s *AuthService) sendOTP(ctx context.Context, purpose ledger.Purpose, subject string, msg notify.Message, userID int64) error {
	code, err := s.generateOTP()
	if err != nil {
		return dependencyFailure("generate_otp", err)
	}
	if err := s.ledger.Put(ctx, purpose, subject, code, s.cfg.OTPTTL); err != nil {
		return dependencyFailure("ledger_put", err)
	}
	msg.Purpose = purpose
	msg.Code = code
	msg.TTL = s.cfg.OTPTTL
	if err := s.sender.SendOTP(ctx, msg); err != nil {
		s.emit(telemetry.EventOTPRequested, string(purpose), "send_failed", userID)
		return notificationFailure(err)
	}
	s.emit(telemetry.EventOTPRequested, string(purpose), "sent", userID)
	return nil
}

// adjudicated maps a non-Success ledger result to its error and records the rejection.
func (s *AuthService) adjudicated(purpose ledger.Purpose, r ledger.Result) error {
	var err error
	switch r {
	case ledger.Success:
		return nil
	case ledger.NotFound:
		err = ErrOTPNotRequested
	case ledger.Expired:
		err = ErrOTPExpired
	default:
		err = ErrOTPMismatch
	}
	s.emit(telemetry.EventOTPRejected, string(purpose), r.String(), 0)
	return err
}

func (s *AuthService) emit(eventType, purpose, outcome string, userID int64) {
	if s.events == nil {
		return
	}
	telemetry.EmitAsync(s.events, &telemetry.AuthEvent{
		Type:    eventType,
		Purpose: purpose,
		Outcome: outcome,
		UserID:  userID,
		At:      s.clock.Now().UTC(),
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.Bool("auth.dependency_failure", IsDependencyFailure(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func normalizeInput(in RegisterInput) RegisterInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = userdomain.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Org = strings.TrimSpace(in.Org)
	return in
}

func validateRegistration(in RegisterInput) error {
	if in.Username == "" {
		return invalid("username is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return invalid("password is required")
	}
	return nil
}

// checkCode rejects codes that cannot match any issued code before they reach the ledger,
// so they never use up an attempt.
func checkCode(code string) error {
	if code == "" {
		return invalid("otp is required")
	}
	if !otp.WellFormed(code) {
		return invalid("otp must be 6 digits")
	}
	return nil
}

var simpleEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	if !simpleEmail.MatchString(email) {
		return invalid("invalid email format")
	}
	return nil
}
