package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit/stackit/middleware"
	"github.com/stackit/stackit/models"
	"github.com/stackit/stackit/utils"
)

// QuestionController manages CRUD operations for questions.
type QuestionController struct {
	db *gorm.DB
}

// NewQuestionController creates a new QuestionController instance.
func NewQuestionController(db *gorm.DB) *QuestionController {
	return &QuestionController{db: db}
}

// questionWithVotes annotates a question with the summed vote value of all
// its answers.
type questionWithVotes struct {
	models.Question
	VoteCount int `json:"voteCount"`
}

func annotateVotes(questions []models.Question) []questionWithVotes {
	out := make([]questionWithVotes, 0, len(questions))
	for _, q := range questions {
		count := 0
		for _, ans := range q.Answers {
			for _, v := range ans.Votes {
				count += v.Value
			}
		}
		out = append(out, questionWithVotes{Question: q, VoteCount: count})
	}
	return out
}

// List returns a newest-first page of questions, each with embedded answers
// and its total vote count.
func (q *QuestionController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("pageSize"))

	cacheKey := fmt.Sprintf("%spage=%d:size=%d", utils.CacheQuestionListPrefix, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var total int64
	if err := q.db.Model(&models.Question{}).Count(&total).Error; err != nil {
		logDBError("questions: count", err)
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count questions")
		return
	}

	var questions []models.Question
	err := q.db.Preload("User").
		Preload("Answers").
		Preload("Answers.Votes").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&questions).Error
	if err != nil {
		logDBError("questions: list", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list questions")
		return
	}

	payload := gin.H{
		"questions": annotateVotes(questions),
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
	}
	utils.CacheSetJSON(cacheKey, payload, time.Hour)
	utils.Success(ctx, payload)
}

// GetByID returns a full question with answers, their votes, and author usernames.
func (q *QuestionController) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	if b, ok := utils.CacheGetBytes(utils.CacheQuestionDetailPrefix + id); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var question models.Question
	err := q.db.Preload("User").
		Preload("Answers").
		Preload("Answers.User").
		Preload("Answers.Votes").
		First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "question not found")
			return
		}
		logDBError("questions: get", err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load question")
		return
	}

	payload := gin.H{"question": question}
	utils.CacheSetJSON(utils.CacheQuestionDetailPrefix+id, payload, time.Hour)
	utils.Success(ctx, payload)
}

// Trending returns up to 10 questions from the last 7 days ordered by
// descending answer count.
func (q *QuestionController) Trending(ctx *gin.Context) {
	cutoff := time.Now().AddDate(0, 0, -7)

	var questions []models.Question
	err := q.db.Model(&models.Question{}).
		Select("questions.*, COUNT(answers.id) AS answer_total").
		Joins("LEFT JOIN answers ON answers.question_id = questions.id").
		Where("questions.created_at >= ?", cutoff).
		Group("questions.id").
		Order("answer_total DESC").
		Limit(10).
		Preload("User").
		Preload("Answers").
		Find(&questions).Error
	if err != nil {
		logDBError("questions: trending", err)
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load trending questions")
		return
	}

	utils.Success(ctx, gin.H{"questions": questions})
}

// Unanswered returns questions with zero answers, newest first.
func (q *QuestionController) Unanswered(ctx *gin.Context) {
	var questions []models.Question
	err := q.db.Preload("User").
		Where("NOT EXISTS (SELECT 1 FROM answers WHERE answers.question_id = questions.id)").
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		logDBError("questions: unanswered", err)
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load unanswered questions")
		return
	}

	utils.Success(ctx, gin.H{"questions": questions})
}

// ByTag filters questions by exact tag membership. Tags are stored as a JSON
// array of strings, so membership is a match on the quoted element.
func (q *QuestionController) ByTag(ctx *gin.Context) {
	tag := strings.TrimSpace(ctx.Param("tag"))
	if tag == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "missing tag")
		return
	}

	var questions []models.Question
	err := q.db.Preload("User").
		Preload("Answers").
		Where("tags LIKE ? ESCAPE '!'", `%"`+escapeLike(tag)+`"%`).
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		logDBError("questions: by tag", err)
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load questions by tag")
		return
	}

	utils.Success(ctx, gin.H{"questions": questions})
}

// ByUser returns all questions created by the given user.
func (q *QuestionController) ByUser(ctx *gin.Context) {
	userID := ctx.Param("userId")

	var questions []models.Question
	err := q.db.Preload("User").
		Preload("Answers").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		logDBError("questions: by user", err)
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load user questions")
		return
	}

	utils.Success(ctx, gin.H{"questions": questions})
}

// Search performs a case-insensitive substring match against title,
// description, and tags.
func (q *QuestionController) Search(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("query"))
	if query == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "missing search query")
		return
	}

	needle := "%" + escapeLike(strings.ToLower(query)) + "%"
	var questions []models.Question
	err := q.db.Preload("User").
		Preload("Answers").
		Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(tags) LIKE ? ESCAPE '!'", needle, needle, needle).
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		logDBError("questions: search", err)
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to search questions")
		return
	}

	utils.Success(ctx, gin.H{"questions": questions})
}

// Ask creates a new question owned by the caller.
func (q *QuestionController) Ask(ctx *gin.Context) {
	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description" binding:"required"`
		Tags        []string `json:"tags" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(ctx, 40020, bindingFieldErrors(err)...)
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	description := utils.Sanitize(strings.TrimSpace(req.Description))
	tags := cleanTags(req.Tags)

	var fieldErrs []utils.FieldError
	if title == "" {
		fieldErrs = append(fieldErrs, utils.FieldError{Field: "title", Message: "title is required"})
	}
	if description == "" {
		fieldErrs = append(fieldErrs, utils.FieldError{Field: "description", Message: "description is required"})
	}
	if len(tags) == 0 {
		fieldErrs = append(fieldErrs, utils.FieldError{Field: "tags", Message: "at least one tag is required"})
	}
	if len(fieldErrs) > 0 {
		utils.ValidationFailed(ctx, 40020, fieldErrs...)
		return
	}

	userID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	question := models.Question{
		Title:       title,
		Description: description,
		Tags:        tags,
		UserID:      userID,
	}

	if err := q.db.Create(&question).Error; err != nil {
		logDBError("questions: create", err)
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to create question")
		return
	}

	utils.InvalidateByPrefix(utils.CacheQuestionListPrefix, utils.CacheUserProfilePrefix)

	utils.Created(ctx, gin.H{"msg": "question posted", "question": question})
}

// Update applies a partial update to a question. Only the owner or an admin
// may update; every supplied field must still satisfy its non-empty rule.
func (q *QuestionController) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req struct {
		Title            *string   `json:"title"`
		Description      *string   `json:"description"`
		Tags             *[]string `json:"tags"`
		AcceptedAnswerID *uint     `json:"accepted_answer_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(ctx, 40024, bindingFieldErrors(err)...)
		return
	}

	var question models.Question
	if err := q.db.First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "question not found")
			return
		}
		logDBError("questions: load for update", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load question")
		return
	}

	if !middleware.IsOwnerOrAdmin(ctx, question.UserID) {
		utils.Error(ctx, http.StatusForbidden, 40302, "not authorized to update this question")
		return
	}

	updates := map[string]interface{}{}
	var fieldErrs []utils.FieldError
	if req.Title != nil {
		title := utils.Sanitize(strings.TrimSpace(*req.Title))
		if title == "" {
			fieldErrs = append(fieldErrs, utils.FieldError{Field: "title", Message: "title cannot be empty"})
		} else {
			updates["title"] = title
		}
	}
	if req.Description != nil {
		description := utils.Sanitize(strings.TrimSpace(*req.Description))
		if description == "" {
			fieldErrs = append(fieldErrs, utils.FieldError{Field: "description", Message: "description cannot be empty"})
		} else {
			updates["description"] = description
		}
	}
	if req.Tags != nil {
		tags := cleanTags(*req.Tags)
		if len(tags) == 0 {
			fieldErrs = append(fieldErrs, utils.FieldError{Field: "tags", Message: "at least one tag is required"})
		} else {
			updates["tags"] = tags
		}
	}
	if req.AcceptedAnswerID != nil {
		updates["accepted_answer_id"] = *req.AcceptedAnswerID
	}
	if len(fieldErrs) > 0 {
		utils.ValidationFailed(ctx, 40024, fieldErrs...)
		return
	}

	if len(updates) > 0 {
		if err := q.db.Model(&question).Updates(updates).Error; err != nil {
			logDBError("questions: update", err)
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update question")
			return
		}
		if err := q.db.First(&question, question.ID).Error; err != nil {
			logDBError("questions: reload after update", err)
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update question")
			return
		}
	}

	utils.InvalidateByPrefix(utils.CacheQuestionListPrefix, utils.CacheQuestionDetailPrefix+id, utils.CacheUserProfilePrefix)

	utils.Success(ctx, gin.H{"msg": "question updated", "question": question})
}

// Delete removes a question together with its answers and their votes in a
// single transaction, so a mid-cascade failure cannot leave orphans.
func (q *QuestionController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	var question models.Question
	if err := q.db.First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "question not found")
			return
		}
		logDBError("questions: load for delete", err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load question")
		return
	}

	if !middleware.IsOwnerOrAdmin(ctx, question.UserID) {
		utils.Error(ctx, http.StatusForbidden, 40303, "not authorized to delete this question")
		return
	}

	err := q.db.Transaction(func(tx *gorm.DB) error {
		answerIDs := tx.Model(&models.Answer{}).Select("id").Where("question_id = ?", question.ID)
		if err := tx.Where("answer_id IN (?)", answerIDs).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		logDBError("questions: delete cascade", err)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to delete question")
		return
	}

	// The cascade touches answers and votes owned by arbitrary users, so the
	// whole profile prefix goes too.
	utils.InvalidateByPrefix(utils.CacheQuestionListPrefix, utils.CacheQuestionDetailPrefix+id, utils.CacheUserProfilePrefix)

	utils.Success(ctx, gin.H{"msg": "question deleted"})
}

// AdminList returns every question with full author records for moderation.
func (q *QuestionController) AdminList(ctx *gin.Context) {
	var questions []models.Question
	err := q.db.Preload("User").
		Preload("Answers").
		Preload("Answers.User").
		Preload("Answers.Votes").
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		logDBError("questions: admin list", err)
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to list questions")
		return
	}

	utils.Success(ctx, gin.H{"questions": annotateVotes(questions)})
}

// escapeLike neutralizes LIKE metacharacters in user input so a query like
// "100%" matches the literal text. '!' is the escape character since a
// literal backslash inside a MySQL string needs escaping of its own.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "!", "!!")
	s = strings.ReplaceAll(s, "%", "!%")
	s = strings.ReplaceAll(s, "_", "!_")
	return s
}

func cleanTags(tags []string) models.StringList {
	out := models.StringList{}
	for _, t := range tags {
		if trimmed := utils.Sanitize(strings.TrimSpace(t)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page, pageSize := 1, 10
	if v := strings.TrimSpace(pageStr); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(sizeStr); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}
