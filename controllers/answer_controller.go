package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit/stackit/middleware"
	"github.com/stackit/stackit/models"
	"github.com/stackit/stackit/utils"
)

// AnswerController manages answers to questions.
type AnswerController struct {
	db *gorm.DB
}

// NewAnswerController creates a new AnswerController instance.
func NewAnswerController(db *gorm.DB) *AnswerController {
	return &AnswerController{db: db}
}

// Create posts an answer on an existing question.
func (a *AnswerController) Create(ctx *gin.Context) {
	var req struct {
		QuestionID uint   `json:"question_id" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(ctx, 40030, bindingFieldErrors(err)...)
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.ValidationFailed(ctx, 40030, utils.FieldError{Field: "content", Message: "answer content is required"})
		return
	}

	var question models.Question
	if err := a.db.First(&question, req.QuestionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "question not found")
			return
		}
		logDBError("answers: load question", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load question")
		return
	}

	userID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	answer := models.Answer{
		Content:    content,
		UserID:     userID,
		QuestionID: question.ID,
	}

	if err := a.db.Create(&answer).Error; err != nil {
		logDBError("answers: create", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create answer")
		return
	}

	if err := a.db.Preload("User").First(&answer, answer.ID).Error; err != nil {
		logDBError("answers: reload", err)
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load answer")
		return
	}

	utils.InvalidateByPrefix(
		utils.CacheQuestionListPrefix,
		fmt.Sprintf("%s%d", utils.CacheQuestionDetailPrefix, question.ID),
		utils.CacheUserProfilePrefix,
	)

	utils.Created(ctx, gin.H{"msg": "answer posted", "answer": answer})
}

// Delete removes an answer and its votes. Only the owner or an admin may
// delete; votes go in the same transaction since the store does not cascade.
func (a *AnswerController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	var answer models.Answer
	if err := a.db.First(&answer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "answer not found")
			return
		}
		logDBError("answers: load for delete", err)
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load answer")
		return
	}

	if !middleware.IsOwnerOrAdmin(ctx, answer.UserID) {
		utils.Error(ctx, http.StatusForbidden, 40304, "not authorized to delete this answer")
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("answer_id = ?", answer.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&answer).Error
	})
	if err != nil {
		logDBError("answers: delete", err)
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to delete answer")
		return
	}

	utils.InvalidateByPrefix(
		utils.CacheQuestionListPrefix,
		fmt.Sprintf("%s%d", utils.CacheQuestionDetailPrefix, answer.QuestionID),
		utils.CacheUserProfilePrefix,
	)

	utils.Success(ctx, gin.H{"msg": "answer deleted"})
}

// AdminAll returns every answer with author and question context plus a
// computed vote sum.
func (a *AnswerController) AdminAll(ctx *gin.Context) {
	var answers []models.Answer
	err := a.db.Preload("User").
		Preload("Votes").
		Order("created_at DESC").
		Find(&answers).Error
	if err != nil {
		logDBError("answers: admin list", err)
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to list answers")
		return
	}

	questionTitles := map[uint]string{}
	{
		var questions []models.Question
		if err := a.db.Select("id", "title").Find(&questions).Error; err != nil {
			logDBError("answers: load question titles", err)
			utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to list answers")
			return
		}
		for _, q := range questions {
			questionTitles[q.ID] = q.Title
		}
	}

	type answerWithStats struct {
		models.Answer
		QuestionTitle string `json:"question_title"`
		VoteCount     int    `json:"voteCount"`
	}

	out := make([]answerWithStats, 0, len(answers))
	for _, ans := range answers {
		count := 0
		for _, v := range ans.Votes {
			count += v.Value
		}
		out = append(out, answerWithStats{
			Answer:        ans,
			QuestionTitle: questionTitles[ans.QuestionID],
			VoteCount:     count,
		})
	}

	utils.Success(ctx, gin.H{
		"totalAnswers": len(out),
		"answers":      out,
	})
}
