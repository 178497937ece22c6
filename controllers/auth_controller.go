package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/stackit/stackit/config"
	"github.com/stackit/stackit/models"
	"github.com/stackit/stackit/utils"
)

// AuthController handles signup and login.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Signup registers a new account. The role is always USER; admin accounts
// are only created by direct database modification.
func (a *AuthController) Signup(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(ctx, 40001, bindingFieldErrors(err)...)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		utils.ValidationFailed(ctx, 40001, utils.FieldError{Field: "username", Message: "username cannot be empty"})
		return
	}

	var existing models.User
	if err := a.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		return
	}
	if err := a.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40902, "username already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}

	if err := a.db.Create(&user).Error; err != nil {
		// Two concurrent signups can both pass the pre-check; the unique
		// index rejects the loser, which is still a conflict to the caller.
		if code, msg, conflict := signupConflict(err); conflict {
			utils.Error(ctx, http.StatusConflict, code, msg)
			return
		}
		logDBError("signup: create user", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	utils.Created(ctx, gin.H{
		"msg":  "user created",
		"user": publicUserResponse(user, true),
	})
}

// Login verifies credentials and issues a signed token. Unknown email and
// wrong password produce the same message so accounts cannot be enumerated.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(ctx, 40003, bindingFieldErrors(err)...)
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Username, user.Email, user.Role, ttl)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"msg":       "login successful",
		"authToken": token,
		"user":      publicUserResponse(user, true),
	})
}

// publicUserResponse shapes a user for API responses. The email is included
// only for the account owner, never the password hash.
func publicUserResponse(user models.User, includeEmail bool) gin.H {
	resp := gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	}
	if includeEmail {
		resp["email"] = user.Email
	}
	return resp
}

// bindingFieldErrors flattens gin binding failures into field-level detail.
func bindingFieldErrors(err error) []utils.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]utils.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, utils.FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: "failed " + fe.Tag() + " validation",
			})
		}
		return out
	}
	return []utils.FieldError{{Field: "body", Message: "invalid request payload"}}
}

// signupConflict maps a unique-index violation from a racing signup to the
// same 409 the pre-check produces. Both drivers name the violated column in
// the error text.
func signupConflict(err error) (int, string, bool) {
	if !errors.Is(err, gorm.ErrDuplicatedKey) && !isUniqueViolation(err) {
		return 0, "", false
	}
	if strings.Contains(err.Error(), "email") {
		return 40901, "email already registered", true
	}
	return 40902, "username already registered", true
}

func logDBError(op string, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorw("database error", "op", op, "err", err)
	}
}
