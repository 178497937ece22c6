package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit/stackit/middleware"
	"github.com/stackit/stackit/models"
	"github.com/stackit/stackit/utils"
)

// UserController serves profiles and reputation stats.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

type ownedQuestion struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	AnswerCount int64     `json:"answer_count"`
}

type ownedAnswer struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	VoteCount int64     `json:"vote_count"`
}

// Me returns the caller's full profile with owned questions and answers.
func (u *UserController) Me(ctx *gin.Context) {
	userID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := u.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40407, "user not found")
			return
		}
		logDBError("users: me", err)
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load profile")
		return
	}

	questions, answers, err := u.ownedContent(user.ID)
	if err != nil {
		logDBError("users: owned content", err)
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to load profile")
		return
	}

	resp := publicUserResponse(user, true)
	resp["questions"] = questions
	resp["answers"] = answers
	utils.Success(ctx, resp)
}

// Profile returns a public profile by username. The email is omitted.
func (u *UserController) Profile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))

	if b, ok := utils.CacheGetBytes(utils.CacheUserProfilePrefix + username); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var user models.User
	if err := u.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40408, "user not found")
			return
		}
		logDBError("users: profile", err)
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load profile")
		return
	}

	questions, answers, err := u.ownedContent(user.ID)
	if err != nil {
		logDBError("users: owned content", err)
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to load profile")
		return
	}

	resp := publicUserResponse(user, false)
	resp["questions"] = questions
	resp["answers"] = answers
	utils.CacheSetJSON(utils.CacheUserProfilePrefix+username, resp, time.Hour)
	utils.Success(ctx, resp)
}

// Stats returns question count, answer count, and reputation for a user.
// Reputation is the sum of vote values across all of the user's answers.
func (u *UserController) Stats(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))

	var user models.User
	if err := u.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40409, "user not found")
			return
		}
		logDBError("users: stats lookup", err)
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to load stats")
		return
	}

	var questionCount, answerCount, reputation int64
	if err := u.db.Model(&models.Question{}).Where("user_id = ?", user.ID).Count(&questionCount).Error; err != nil {
		logDBError("users: question count", err)
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to load stats")
		return
	}
	if err := u.db.Model(&models.Answer{}).Where("user_id = ?", user.ID).Count(&answerCount).Error; err != nil {
		logDBError("users: answer count", err)
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to load stats")
		return
	}
	if err := u.db.Model(&models.Vote{}).
		Joins("JOIN answers ON answers.id = votes.answer_id").
		Where("answers.user_id = ?", user.ID).
		Select("COALESCE(SUM(votes.value),0)").
		Scan(&reputation).Error; err != nil {
		logDBError("users: reputation", err)
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to load stats")
		return
	}

	utils.Success(ctx, gin.H{
		"questionCount": questionCount,
		"answerCount":   answerCount,
		"reputation":    reputation,
	})
}

// ownedContent loads a user's questions with answer counts and answers with
// vote counts.
func (u *UserController) ownedContent(userID uint) ([]ownedQuestion, []ownedAnswer, error) {
	var questions []ownedQuestion
	err := u.db.Model(&models.Question{}).
		Select("questions.id, questions.title, questions.created_at, COUNT(answers.id) AS answer_count").
		Joins("LEFT JOIN answers ON answers.question_id = questions.id").
		Where("questions.user_id = ?", userID).
		Group("questions.id").
		Order("questions.created_at DESC").
		Scan(&questions).Error
	if err != nil {
		return nil, nil, err
	}

	var answers []ownedAnswer
	err = u.db.Model(&models.Answer{}).
		Select("answers.id, answers.content, answers.created_at, COUNT(votes.id) AS vote_count").
		Joins("LEFT JOIN votes ON votes.answer_id = answers.id").
		Where("answers.user_id = ?", userID).
		Group("answers.id").
		Order("answers.created_at DESC").
		Scan(&answers).Error
	if err != nil {
		return nil, nil, err
	}

	if questions == nil {
		questions = []ownedQuestion{}
	}
	if answers == nil {
		answers = []ownedAnswer{}
	}
	return questions, answers, nil
}
