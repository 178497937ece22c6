package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit/stackit/middleware"
	"github.com/stackit/stackit/models"
	"github.com/stackit/stackit/utils"
)

// VoteController records single, fixed-value votes on answers.
type VoteController struct {
	db *gorm.DB
}

// NewVoteController creates a new VoteController instance.
func NewVoteController(db *gorm.DB) *VoteController {
	return &VoteController{db: db}
}

// Vote casts a one-shot vote of value 1 on an answer and returns the new
// total. The pre-check catches ordinary duplicates; the unique index on
// (user_id, answer_id) catches racing ones.
func (v *VoteController) Vote(ctx *gin.Context) {
	answerID, err := strconv.ParseUint(ctx.Param("answerId"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid answer id")
		return
	}

	userID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var answer models.Answer
	if err := v.db.First(&answer, uint(answerID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "answer not found")
			return
		}
		logDBError("votes: load answer", err)
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load answer")
		return
	}

	var existing models.Vote
	if err := v.db.Where("user_id = ? AND answer_id = ?", userID, answer.ID).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "you have already voted for this answer")
		return
	}

	vote := models.Vote{
		Value:    1,
		UserID:   userID,
		AnswerID: answer.ID,
	}
	if err := v.db.Create(&vote).Error; err != nil {
		// Two in-flight votes can both pass the pre-check; the unique index
		// rejects the loser, which is still a duplicate to the caller.
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			utils.Error(ctx, http.StatusBadRequest, 40041, "you have already voted for this answer")
			return
		}
		logDBError("votes: create", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to record vote")
		return
	}

	var voteCount int64
	if err := v.db.Model(&models.Vote{}).
		Where("answer_id = ?", answer.ID).
		Select("COALESCE(SUM(value),0)").
		Scan(&voteCount).Error; err != nil {
		logDBError("votes: count", err)
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to count votes")
		return
	}

	// The vote changes the answer author's profile counts as well.
	utils.InvalidateByPrefix(
		utils.CacheQuestionListPrefix,
		fmt.Sprintf("%s%d", utils.CacheQuestionDetailPrefix, answer.QuestionID),
		utils.CacheUserProfilePrefix,
	)

	utils.Success(ctx, gin.H{"msg": "vote registered", "voteCount": voteCount})
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
