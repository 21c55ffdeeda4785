package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/quickcred/internal/config"
	"github.com/cradoe/quickcred/internal/errHandler"
	"github.com/cradoe/quickcred/internal/helper"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/cradoe/quickcred/internal/request"
	"github.com/cradoe/quickcred/internal/response"
	"github.com/cradoe/quickcred/internal/smtp"
	"github.com/cradoe/quickcred/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
	"github.com/shopspring/decimal"
)

type AuthHandler struct {
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityRepository
	Helper       helper.HelperInterface
	Mailer       smtp.MailerInterface
	Config       *config.Config
	ErrHandler   *errHandler.ErrorRepository
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return &AuthHandler{
		UserRepo:     handler.UserRepo,
		ActivityRepo: handler.ActivityRepo,
		Helper:       handler.Helper,
		Mailer:       handler.Mailer,
		Config:       handler.Config,
		ErrHandler:   handler.ErrHandler,
	}
}

type UserResponseData struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Role          models.Role     `json:"role"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

func userResponse(user *models.User) UserResponseData {
	return UserResponseData{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		WalletBalance: user.WalletBalance,
		CreatedAt:     user.CreatedAt,
	}
}

// Registration validates the password policy first, then the remaining
// fields. Every new account starts with an empty wallet; money only enters
// through a recorded top-up so the ledger always reconciles.
func (h *AuthHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name      string              `json:"name"`
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Role      models.Role         `json:"role"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// It's important that users have a strong password, so these errors are
	// returned before we check the other fields
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = models.RoleBorrower
	}

	input.Validator.Check(validator.NotBlank(input.Name), "Name is required")
	input.Validator.Check(validator.MaxChars(input.Name, 255), "Name must not be more than 255 characters")
	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(input.Role.Valid(), "Role must be borrower or lender")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	// we want to make sure no two users have the same email
	_, found, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if found {
		h.ErrHandler.FailedValidation(w, r, []string{"Email is already in use"})
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	user := &models.User{
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		HashedPassword: hashedPassword,
		Role:           input.Role,
		WalletBalance:  decimal.Zero,
	}

	userID, err := h.UserRepo.Insert(r.Context(), user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// lost a race with a concurrent registration
		h.ErrHandler.FailedValidation(w, r, []string{"Email is already in use"})
		return
	}
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(context.Background(), &models.ActivityLog{
			UserID:      userID,
			Entity:      models.ActivityLogUserEntity,
			EntityId:    userID,
			Description: UserActivityLogRegistrationDescription,
		})
		return err
	})

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = user.Name
		emailData["Role"] = string(user.Role)

		return h.Mailer.Send(context.Background(), user.Email, emailData, "welcome.tmpl")
	})

	err = response.JSONCreatedResponse(w, userResponse(user), "Account created successfully")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user, found, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.FailedValidation(w, r, []string{"Incorrect email/password"})
		return
	}

	passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !passwordMatches {
		h.Helper.BackgroundTask(r, func() error {
			_, err := h.ActivityRepo.Insert(context.Background(), &models.ActivityLog{
				UserID:      user.ID,
				Entity:      models.ActivityLogUserEntity,
				EntityId:    user.ID,
				Description: UserActivityLogFailedLoginDescription,
			})
			return err
		})

		h.ErrHandler.FailedValidation(w, r, []string{"Incorrect email/password"})
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(context.Background(), &models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogUserEntity,
			EntityId:    user.ID,
			Description: UserActivityLogLoginDescription,
		})
		return err
	})

	var claims jwt.Claims
	claims.Subject = user.ID

	now := time.Now()
	expiry := now.Add(h.Config.Jwt.TTL)
	claims.Issued = jwt.NewNumericTime(now)
	claims.NotBefore = jwt.NewNumericTime(now)
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
		"user":         userResponse(user),
	}
	err = response.JSONOkResponse(w, data, "Login successful", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
