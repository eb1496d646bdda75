package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/khangnd/certiprep/internal/dto"
	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"github.com/rs/zerolog/log"
)

// UserExamService serves the student-facing read paths: the active exam with
// its questions (answer keys stripped), the student's certificate, and the
// points total accumulated in the cohort.
type UserExamService interface {
	GetActiveExam() (*dto.ExamViewDTO, error)
	GetCertificate(studentUserID, cohortID uint) (*dto.CertificateResponseDTO, error)
	GetPointsSummary(studentUserID, cohortID uint) (*dto.PointsSummaryDTO, error)
}

type userExamService struct {
	configRepo repository.ExamConfigRepository
	certRepo   repository.CertificateRepository
	pointsRepo repository.PointsLedgerRepository
}

func NewUserExamService(
	configRepo repository.ExamConfigRepository,
	certRepo repository.CertificateRepository,
	pointsRepo repository.PointsLedgerRepository,
) UserExamService {
	return &userExamService{configRepo: configRepo, certRepo: certRepo, pointsRepo: pointsRepo}
}

func (s *userExamService) GetActiveExam() (*dto.ExamViewDTO, error) {
	config, err := s.configRepo.FindActiveWithQuestions()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load active exam config")
		return nil, fmt.Errorf("no active exam config: %w", err)
	}

	view := &dto.ExamViewDTO{
		ConfigID:         config.ID,
		Title:            config.Title,
		TotalQuestions:   config.TotalQuestions,
		TimeLimitMinutes: config.TimeLimitMinutes,
		PassMarkPercent:  config.PassMarkPercent,
	}
	for i := range config.Questions {
		qDTO, err := questionToDTO(&config.Questions[i])
		if err != nil {
			return nil, err
		}
		view.Questions = append(view.Questions, *qDTO)
	}
	return view, nil
}

func (s *userExamService) GetCertificate(studentUserID, cohortID uint) (*dto.CertificateResponseDTO, error) {
	cert, err := s.certRepo.FindByStudentAndCohort(studentUserID, cohortID)
	if err != nil {
		return nil, fmt.Errorf("certificate not found for student %d in cohort %d: %w", studentUserID, cohortID, err)
	}
	var resp dto.CertificateResponseDTO
	if err := copier.Copy(&resp, cert); err != nil {
		return nil, fmt.Errorf("preparing certificate response: %w", err)
	}
	return &resp, nil
}

func (s *userExamService) GetPointsSummary(studentUserID, cohortID uint) (*dto.PointsSummaryDTO, error) {
	total, err := s.pointsRepo.SumByStudentAndCohort(studentUserID, cohortID)
	if err != nil {
		return nil, fmt.Errorf("summing points for student %d in cohort %d: %w", studentUserID, cohortID, err)
	}
	return &dto.PointsSummaryDTO{
		StudentUserID: studentUserID,
		CohortID:      cohortID,
		TotalPoints:   total,
	}, nil
}

// questionToDTO maps a question for student display. The answer key never
// leaves the model.
func questionToDTO(q *model.ExamQuestion) (*dto.QuestionResponseDTO, error) {
	opts, err := q.OptionList()
	if err != nil {
		return nil, fmt.Errorf("decoding options for question %d: %w", q.ID, err)
	}
	optDTOs := make([]dto.QuestionOptionDTO, 0, len(opts))
	for _, o := range opts {
		optDTOs = append(optDTOs, dto.QuestionOptionDTO{Key: o.Key, Text: o.Text})
	}
	return &dto.QuestionResponseDTO{
		ID:          q.ID,
		Section:     q.Section,
		OrderInExam: q.OrderInExam,
		Prompt:      q.Prompt,
		Options:     optDTOs,
		Points:      q.Points,
	}, nil
}
