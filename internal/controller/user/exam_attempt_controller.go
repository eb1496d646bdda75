package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/khangnd/certiprep/internal/dto"
	"github.com/khangnd/certiprep/internal/service"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ExamAttemptController struct {
	sessionService  service.AttemptSessionService
	userExamService service.UserExamService
}

func NewExamAttemptController(sessionService service.AttemptSessionService, userExamService service.UserExamService) *ExamAttemptController {
	return &ExamAttemptController{
		sessionService:  sessionService,
		userExamService: userExamService,
	}
}

// GetEligibility godoc
// @Summary (User) Check exam eligibility
// @Description Returns whether a new attempt may start and, during a cooldown, when it becomes possible. Safe to poll.
// @Tags User - Exam Attempts
// @Produce json
// @Param cohort_id path int true "Cohort ID"
// @Param user_id query int true "Student user ID"
// @Success 200 {object} dto.EligibilityResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Failure 404 {object} dto.ErrorResponse "Cohort or active config not found"
// @Router /cohorts/{cohort_id}/exam/eligibility [get]
func (c *ExamAttemptController) GetEligibility(ctx *gin.Context) {
	cohortID, userID, ok := cohortAndUserIDs(ctx)
	if !ok {
		return
	}
	resp, err := c.sessionService.GetEligibility(userID, cohortID)
	if err != nil {
		log.Error().Err(err).Uint("cohortID", cohortID).Uint("userID", userID).Msg("GetEligibility: Service error")
		respondServiceError(ctx, err, "Failed to evaluate eligibility")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetActiveExam godoc
// @Summary (User) Get the active exam
// @Description Returns the active exam config and its questions without answer keys.
// @Tags User - Exam Attempts
// @Produce json
// @Success 200 {object} dto.ExamViewDTO
// @Failure 404 {object} dto.ErrorResponse "No active exam config"
// @Router /cohorts/{cohort_id}/exam [get]
func (c *ExamAttemptController) GetActiveExam(ctx *gin.Context) {
	resp, err := c.userExamService.GetActiveExam()
	if err != nil {
		respondServiceError(ctx, err, "Failed to load active exam")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// PrepareAttempt godoc
// @Summary (User) Prepare a new exam attempt
// @Description Creates the next attempt in prepared state. Fails when an active attempt exists or the student is not eligible.
// @Tags User - Exam Attempts
// @Accept json
// @Produce json
// @Param cohort_id path int true "Cohort ID"
// @Param attempt_data body dto.PrepareAttemptDTO true "Student identification"
// @Success 201 {object} dto.AttemptDetailDTO "Attempt prepared"
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Not eligible"
// @Failure 409 {object} dto.ErrorResponse "Active attempt already exists"
// @Router /cohorts/{cohort_id}/exam/attempts [post]
func (c *ExamAttemptController) PrepareAttempt(ctx *gin.Context) {
	cohortID, ok := pathID(ctx, "cohort_id")
	if !ok {
		return
	}
	var req dto.PrepareAttemptDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.sessionService.Prepare(req.UserID, cohortID)
	if err != nil {
		log.Error().Err(err).Uint("cohortID", cohortID).Uint("userID", req.UserID).Msg("PrepareAttempt: Service error")
		respondServiceError(ctx, err, "Failed to prepare attempt")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// BeginAttempt godoc
// @Summary (User) Begin a prepared attempt
// @Description Transitions the attempt to in_progress and starts its timer.
// @Tags User - Exam Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt is not in prepared state"
// @Router /exam-attempts/{attempt_id}/begin [post]
func (c *ExamAttemptController) BeginAttempt(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.sessionService.Begin(attemptID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("BeginAttempt: Service error")
		respondServiceError(ctx, err, "Failed to begin attempt")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SaveProgress godoc
// @Summary (User) Save attempt progress
// @Description Saves the resume pointer and the currently held answers so an expired attempt can be auto-submitted with them.
// @Tags User - Exam Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param progress body dto.ProgressUpdateDTO true "Current progress"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt is not in progress"
// @Router /exam-attempts/{attempt_id}/progress [put]
func (c *ExamAttemptController) SaveProgress(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.ProgressUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.sessionService.SaveProgress(attemptID, req)
	if err != nil {
		respondServiceError(ctx, err, "Failed to save progress")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAttempt godoc
// @Summary (User) Submit an attempt for grading
// @Description Grades the submitted answers, finalizes the attempt, and on a pass issues the certificate, approves the portfolio item, and awards points. A second submit returns 409 and grades nothing.
// @Tags User - Exam Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answers body dto.AttemptSubmitDTO true "Final answers"
// @Success 200 {object} dto.AttemptDetailDTO "Graded attempt"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Already submitted or not in progress"
// @Router /exam-attempts/{attempt_id}/submit [post]
func (c *ExamAttemptController) SubmitAttempt(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.AttemptSubmitDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.sessionService.Submit(attemptID, req)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("SubmitAttempt: Service error")
		respondServiceError(ctx, err, "Failed to submit attempt")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptDetails godoc
// @Summary (User) Get one attempt with graded answers
// @Tags User - Exam Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /exam-attempts/{attempt_id} [get]
func (c *ExamAttemptController) GetAttemptDetails(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.sessionService.GetAttemptDetails(attemptID)
	if err != nil {
		respondServiceError(ctx, err, "Failed to load attempt")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetMyAttempts godoc
// @Summary (User) List my attempts for this cohort's exam
// @Tags User - Exam Attempts
// @Produce json
// @Param cohort_id path int true "Cohort ID"
// @Param user_id query int true "Student user ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Router /cohorts/{cohort_id}/exam/my-attempts [get]
func (c *ExamAttemptController) GetMyAttempts(ctx *gin.Context) {
	cohortID, userID, ok := cohortAndUserIDs(ctx)
	if !ok {
		return
	}
	resp, err := c.sessionService.GetMyAttempts(userID, cohortID)
	if err != nil {
		respondServiceError(ctx, err, "Failed to load attempts")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetCertificate godoc
// @Summary (User) Get my certificate
// @Description Returns the issued certificate. The URL is empty until the rendering service has produced the document.
// @Tags User - Exam Attempts
// @Produce json
// @Param cohort_id path int true "Cohort ID"
// @Param user_id query int true "Student user ID"
// @Success 200 {object} dto.CertificateResponseDTO
// @Failure 404 {object} dto.ErrorResponse "No certificate issued"
// @Router /cohorts/{cohort_id}/exam/certificate [get]
func (c *ExamAttemptController) GetCertificate(ctx *gin.Context) {
	cohortID, userID, ok := cohortAndUserIDs(ctx)
	if !ok {
		return
	}
	resp, err := c.userExamService.GetCertificate(userID, cohortID)
	if err != nil {
		respondServiceError(ctx, err, "Certificate not found")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetPointsSummary godoc
// @Summary (User) Get my points total
// @Description Returns the sum of all points ledger entries for the student in this cohort.
// @Tags User - Exam Attempts
// @Produce json
// @Param cohort_id path int true "Cohort ID"
// @Param user_id query int true "Student user ID"
// @Success 200 {object} dto.PointsSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Router /cohorts/{cohort_id}/exam/points [get]
func (c *ExamAttemptController) GetPointsSummary(ctx *gin.Context) {
	cohortID, userID, ok := cohortAndUserIDs(ctx)
	if !ok {
		return
	}
	resp, err := c.userExamService.GetPointsSummary(userID, cohortID)
	if err != nil {
		respondServiceError(ctx, err, "Failed to load points summary")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(id), true
}

// cohortAndUserIDs reads the cohort from the path and the student from the
// user_id query param, the pre-auth identification scheme the client uses.
func cohortAndUserIDs(ctx *gin.Context) (cohortID, userID uint, ok bool) {
	cohortID, ok = pathID(ctx, "cohort_id")
	if !ok {
		return 0, 0, false
	}
	val, err := strconv.ParseUint(ctx.Query("user_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid or missing user_id query parameter"})
		return 0, 0, false
	}
	return cohortID, uint(val), true
}

func respondServiceError(ctx *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrActiveAttemptExists),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotEligible):
		status = http.StatusForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	}
	ctx.JSON(status, dto.ErrorResponse{Message: message, Details: []string{err.Error()}})
}
