package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/khangnd/certiprep/internal/dto"
	"github.com/khangnd/certiprep/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminExamController struct {
	adminExamService service.AdminExamService
}

func NewAdminExamController(adminExamService service.AdminExamService) *AdminExamController {
	return &AdminExamController{adminExamService: adminExamService}
}

// CreateExamConfig godoc
// @Summary (Admin) Create a new exam config version
// @Description Admin creates a new versioned exam config with all of its questions. The config is created inactive; activate it separately.
// @Tags Admin - Exam Configs
// @Accept json
// @Produce json
// @Param config_data body dto.ExamConfigCreateDTO true "Exam config with questions"
// @Success 201 {object} dto.ExamConfigResponseDTO "Config created"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/exam-configs [post]
func (c *AdminExamController) CreateExamConfig(ctx *gin.Context) {
	var req dto.ExamConfigCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateExamConfig: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.adminExamService.CreateExamConfig(req)
	if err != nil {
		log.Error().Err(err).Msg("Admin CreateExamConfig: Service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create exam config", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetAllExamConfigs godoc
// @Summary (Admin) List all exam config versions
// @Tags Admin - Exam Configs
// @Produce json
// @Success 200 {array} dto.ExamConfigResponseDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/exam-configs [get]
func (c *AdminExamController) GetAllExamConfigs(ctx *gin.Context) {
	configs, err := c.adminExamService.GetAllExamConfigs()
	if err != nil {
		log.Error().Err(err).Msg("Admin GetAllExamConfigs: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve exam configs", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, configs)
}

// ActivateExamConfig godoc
// @Summary (Admin) Activate an exam config version
// @Description Makes the given config the single active one. All attempts prepared from now on reference it.
// @Tags Admin - Exam Configs
// @Produce json
// @Param config_id path int true "Exam config ID"
// @Success 204 "Activated"
// @Failure 400 {object} dto.ErrorResponse "Invalid config ID format"
// @Failure 404 {object} dto.ErrorResponse "Config not found"
// @Router /admin/exam-configs/{config_id}/activate [post]
func (c *AdminExamController) ActivateExamConfig(ctx *gin.Context) {
	configID, err := strconv.ParseUint(ctx.Param("config_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid config ID format"})
		return
	}

	if err := c.adminExamService.ActivateExamConfig(uint(configID)); err != nil {
		log.Error().Err(err).Uint64("configID", configID).Msg("Admin ActivateExamConfig: Service error")
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Failed to activate exam config", Details: []string{err.Error()}})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// CreateCohort godoc
// @Summary (Admin) Register a cohort
// @Tags Admin - Cohorts
// @Accept json
// @Produce json
// @Param cohort_data body dto.CohortCreateDTO true "Cohort data"
// @Success 201 {object} dto.CohortResponseDTO "Cohort created"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Router /admin/cohorts [post]
func (c *AdminExamController) CreateCohort(ctx *gin.Context) {
	var req dto.CohortCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateCohort: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.adminExamService.CreateCohort(req)
	if err != nil {
		log.Error().Err(err).Msg("Admin CreateCohort: Service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create cohort", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetAllCohorts godoc
// @Summary (Admin) List cohorts
// @Tags Admin - Cohorts
// @Produce json
// @Success 200 {array} dto.CohortResponseDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/cohorts [get]
func (c *AdminExamController) GetAllCohorts(ctx *gin.Context) {
	cohorts, err := c.adminExamService.GetAllCohorts()
	if err != nil {
		log.Error().Err(err).Msg("Admin GetAllCohorts: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve cohorts", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, cohorts)
}
