package service

import (
	"encoding/json"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/khangnd/certiprep/internal/dto"
	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"github.com/rs/zerolog/log"
)

// AdminExamService covers exam authoring: creating versioned configs with their
// questions, activating a version, and registering cohorts.
type AdminExamService interface {
	CreateExamConfig(req dto.ExamConfigCreateDTO) (*dto.ExamConfigResponseDTO, error)
	ActivateExamConfig(configID uint) error
	GetAllExamConfigs() ([]dto.ExamConfigResponseDTO, error)
	CreateCohort(req dto.CohortCreateDTO) (*dto.CohortResponseDTO, error)
	GetAllCohorts() ([]dto.CohortResponseDTO, error)
}

type adminExamService struct {
	configRepo repository.ExamConfigRepository
	cohortRepo repository.CohortRepository
}

func NewAdminExamService(configRepo repository.ExamConfigRepository, cohortRepo repository.CohortRepository) AdminExamService {
	return &adminExamService{configRepo: configRepo, cohortRepo: cohortRepo}
}

func (s *adminExamService) CreateExamConfig(req dto.ExamConfigCreateDTO) (*dto.ExamConfigResponseDTO, error) {
	if err := validateExamConfig(req); err != nil {
		return nil, err
	}

	config := model.ExamConfig{
		Title:                          req.Title,
		Version:                        req.Version,
		IsActive:                       false,
		AttemptsAllowed:                req.AttemptsAllowed,
		TotalQuestions:                 req.TotalQuestions,
		QuestionsPerSection:            req.QuestionsPerSection,
		TimeLimitMinutes:               req.TimeLimitMinutes,
		PassMarkPercent:                req.PassMarkPercent,
		CooldownAfterAttempt2Hours:     req.CooldownAfterAttempt2Hours,
		CooldownAfterAttempt3FailHours: req.CooldownAfterAttempt3FailHours,
		UnlockWeek:                     req.UnlockWeek,
	}
	if config.CooldownAfterAttempt2Hours == 0 {
		config.CooldownAfterAttempt2Hours = 24
	}
	if config.CooldownAfterAttempt3FailHours == 0 {
		config.CooldownAfterAttempt3FailHours = 48
	}

	for _, q := range req.Questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return nil, fmt.Errorf("encoding options: %w", err)
		}
		keysJSON, err := json.Marshal(q.CorrectKeys)
		if err != nil {
			return nil, fmt.Errorf("encoding answer keys: %w", err)
		}
		config.Questions = append(config.Questions, model.ExamQuestion{
			Section:     q.Section,
			OrderInExam: q.OrderInExam,
			Prompt:      q.Prompt,
			Options:     optionsJSON,
			CorrectKeys: keysJSON,
			Points:      q.Points,
		})
	}

	if err := s.configRepo.Create(&config); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create exam config")
		return nil, fmt.Errorf("creating exam config: %w", err)
	}

	log.Info().Uint("configID", config.ID).Int("version", config.Version).Int("questions", len(config.Questions)).Msg("Exam config created")

	var resp dto.ExamConfigResponseDTO
	if err := copier.Copy(&resp, &config); err != nil {
		return nil, fmt.Errorf("preparing exam config response: %w", err)
	}
	return &resp, nil
}

func (s *adminExamService) ActivateExamConfig(configID uint) error {
	if err := s.configRepo.Activate(configID); err != nil {
		log.Error().Err(err).Uint("configID", configID).Msg("Failed to activate exam config")
		return fmt.Errorf("activating exam config %d: %w", configID, err)
	}
	log.Info().Uint("configID", configID).Msg("Exam config activated")
	return nil
}

func (s *adminExamService) GetAllExamConfigs() ([]dto.ExamConfigResponseDTO, error) {
	configs, err := s.configRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("fetching exam configs: %w", err)
	}
	dtos := make([]dto.ExamConfigResponseDTO, 0, len(configs))
	for i := range configs {
		var resp dto.ExamConfigResponseDTO
		if err := copier.Copy(&resp, &configs[i]); err != nil {
			log.Error().Err(err).Uint("configID", configs[i].ID).Msg("Failed to copy exam config to DTO")
			continue
		}
		dtos = append(dtos, resp)
	}
	return dtos, nil
}

func (s *adminExamService) CreateCohort(req dto.CohortCreateDTO) (*dto.CohortResponseDTO, error) {
	cohort := model.Cohort{Name: req.Name, StartDate: req.StartDate}
	if err := s.cohortRepo.Create(&cohort); err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to create cohort")
		return nil, fmt.Errorf("creating cohort: %w", err)
	}
	var resp dto.CohortResponseDTO
	if err := copier.Copy(&resp, &cohort); err != nil {
		return nil, fmt.Errorf("preparing cohort response: %w", err)
	}
	return &resp, nil
}

func (s *adminExamService) GetAllCohorts() ([]dto.CohortResponseDTO, error) {
	cohorts, err := s.cohortRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("fetching cohorts: %w", err)
	}
	dtos := make([]dto.CohortResponseDTO, 0, len(cohorts))
	for i := range cohorts {
		var resp dto.CohortResponseDTO
		if err := copier.Copy(&resp, &cohorts[i]); err != nil {
			continue
		}
		dtos = append(dtos, resp)
	}
	return dtos, nil
}

func validateExamConfig(req dto.ExamConfigCreateDTO) error {
	if len(req.Questions) != req.TotalQuestions {
		return fmt.Errorf("config declares %d questions but %d were provided", req.TotalQuestions, len(req.Questions))
	}

	perSection := make(map[int]int)
	for _, q := range req.Questions {
		perSection[q.Section]++

		optionKeys := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if optionKeys[o.Key] {
				return fmt.Errorf("question %d has duplicate option key %q", q.OrderInExam, o.Key)
			}
			optionKeys[o.Key] = true
		}
		for _, k := range q.CorrectKeys {
			if !optionKeys[k] {
				return fmt.Errorf("question %d marks %q correct but has no such option", q.OrderInExam, k)
			}
		}
	}
	for section, count := range perSection {
		if count != req.QuestionsPerSection {
			return fmt.Errorf("section %d has %d questions, expected %d", section, count, req.QuestionsPerSection)
		}
	}
	return nil
}
