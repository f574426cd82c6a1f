package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tempizhere/shortify/internal/models"
	"github.com/tempizhere/shortify/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Notifier доставляет письма пользователям
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier пишет письма в лог вместо отправки
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier создаёт LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send записывает письмо в лог
func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.logger.Info("Email notification",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// AccountService управляет учётными записями
type AccountService struct {
	users      repository.UserRepository
	tokens     *TokenManager
	notifier   Notifier
	validate   *validator.Validate
	baseURL    string
	bcryptCost int
	logger     *zap.Logger
}

// AccountOption настраивает AccountService
type AccountOption func(*AccountService)

// WithBcryptCost задаёт стоимость bcrypt; в тестах используется bcrypt.MinCost
func WithBcryptCost(cost int) AccountOption {
	return func(s *AccountService) {
		s.bcryptCost = cost
	}
}

// NewAccountService создаёт AccountService
func NewAccountService(users repository.UserRepository, tokens *TokenManager, notifier Notifier, baseURL string, logger *zap.Logger, opts ...AccountOption) *AccountService {
	s := &AccountService{
		users:      users,
		tokens:     tokens,
		notifier:   notifier,
		validate:   validator.New(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validateRequest проверяет DTO по тегам validate и собирает описание ошибок
func (s *AccountService) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, validationMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return "passwords must match"
	default:
		return field + " is invalid"
	}
}

// Register создаёт учётную запись и отправляет письмо для подтверждения email
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	if err := s.validateRequest(req); err != nil {
		return models.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}
	id, err := GenerateUserID()
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:           id,
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	s.logger.Info("User registered", zap.String("user_id", user.ID))
	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// fingerprint привязывает токен к значению поля учётной записи; смена значения отзывает токен
func fingerprint(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:12])
}

// parseBound проверяет токен назначения purpose и сверяет отпечаток с текущим состоянием пользователя
func (s *AccountService) parseBound(ctx context.Context, token string, purpose TokenPurpose, field func(models.User) string) (models.User, error) {
	userID, fp, err := s.tokens.ParseBound(token, purpose)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, ErrInvalidToken
	}
	if err != nil {
		return models.User{}, err
	}
	if subtle.ConstantTimeCompare([]byte(fp), []byte(fingerprint(field(user)))) != 1 {
		return models.User{}, ErrInvalidToken
	}
	return user, nil
}

func userEmail(u models.User) string {
	return normalizeEmail(u.Email)
}

func userPasswordHash(u models.User) string {
	return u.PasswordHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) sendVerification(ctx context.Context, user models.User) error {
	token, err := s.tokens.GenerateBound(user.ID, PurposeVerify, fingerprint(userEmail(user)))
	if err != nil {
		return err
	}
	link := s.baseURL + "/api/accounts/verify-email?token=" + token
	return s.notifier.Send(ctx, user.Email, "Confirm your email", "Follow the link to confirm your email: "+link)
}

// VerifyEmail подтверждает email по токену из письма; токен, выданный для прежнего адреса, не принимается
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.parseBound(ctx, token, PurposeVerify, userEmail)
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	user.Verified = true
	return s.users.Update(ctx, user)
}

// ResendVerification повторно отправляет письмо подтверждения
func (s *AccountService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	return s.sendVerification(ctx, user)
}

// Login проверяет пароль и возвращает сессионный токен
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (string, models.User, error) {
	if err := s.validateRequest(req); err != nil {
		return "", models.User{}, err
	}
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}
	token, err := s.tokens.GenerateJWT(user.ID)
	if err != nil {
		return "", models.User{}, err
	}
	return token, user, nil
}

// RequestPasswordReset отправляет ссылку для сброса пароля; неизвестный email не раскрывается
func (s *AccountService) RequestPasswordReset(ctx context.Context, req models.EmailRequest) error {
	if err := s.validateRequest(req); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := s.tokens.GenerateBound(user.ID, PurposeReset, fingerprint(userPasswordHash(user)))
	if err != nil {
		return err
	}
	link := s.baseURL + "/api/accounts/reset-password?token=" + token
	return s.notifier.Send(ctx, user.Email, "Reset your password", "Follow the link to set a new password: "+link)
}

// ResetPassword устанавливает новый пароль по токену из письма.
// Токен привязан к хэшу пароля и перестаёт действовать после любой смены пароля.
func (s *AccountService) ResetPassword(ctx context.Context, token string, req models.PasswordResetRequest) error {
	user, err := s.parseBound(ctx, token, PurposeReset, userPasswordHash)
	if err != nil {
		return err
	}
	if err := s.validateRequest(req); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.users.Update(ctx, user)
}

// UpdateProfile меняет имя и фамилию пользователя
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (models.User, error) {
	if err := s.validateRequest(req); err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего
func (s *AccountService) ChangePassword(ctx context.Context, userID string, req models.PasswordChangeRequest) error {
	if err := s.validateRequest(req); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("user_id", user.ID))
	return nil
}

// ChangeEmail меняет email, снимает подтверждение и отправляет письмо на новый адрес
func (s *AccountService) ChangeEmail(ctx context.Context, userID string, req models.EmailChangeRequest) (models.User, error) {
	if err := s.validateRequest(req); err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	email := normalizeEmail(req.Email)
	if email == userEmail(user) {
		return user, nil
	}
	user.Email = email
	user.Verified = false
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	s.logger.Info("Email changed", zap.String("user_id", user.ID))
	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}
