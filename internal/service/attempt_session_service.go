package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/khangnd/certiprep/internal/dto"
	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptSessionService governs the prepared -> in_progress -> submitted
// lifecycle of a single attempt. Any load of an in_progress attempt whose timer
// has run out finalizes it first, so a disconnected client cannot hold an
// attempt open past its expiry.
type AttemptSessionService interface {
	GetEligibility(studentUserID, cohortID uint) (*dto.EligibilityResponseDTO, error)
	Prepare(studentUserID, cohortID uint) (*dto.AttemptDetailDTO, error)
	Begin(attemptID uint) (*dto.AttemptDetailDTO, error)
	SaveProgress(attemptID uint, req dto.ProgressUpdateDTO) (*dto.AttemptDetailDTO, error)
	Submit(attemptID uint, req dto.AttemptSubmitDTO) (*dto.AttemptDetailDTO, error)
	GetAttemptDetails(attemptID uint) (*dto.AttemptDetailDTO, error)
	GetMyAttempts(studentUserID, cohortID uint) ([]dto.AttemptSummaryDTO, error)
}

type attemptSessionService struct {
	attemptRepo    repository.ExamAttemptRepository
	configRepo     repository.ExamConfigRepository
	cohortRepo     repository.CohortRepository
	eligibilitySvc EligibilityService
	scoringSvc     ScoringService
	clock          Clock
	db             *gorm.DB
}

func NewAttemptSessionService(
	attemptRepo repository.ExamAttemptRepository,
	configRepo repository.ExamConfigRepository,
	cohortRepo repository.CohortRepository,
	eligibilitySvc EligibilityService,
	scoringSvc ScoringService,
	clock Clock,
	db *gorm.DB,
) AttemptSessionService {
	return &attemptSessionService{
		attemptRepo:    attemptRepo,
		configRepo:     configRepo,
		cohortRepo:     cohortRepo,
		eligibilitySvc: eligibilitySvc,
		scoringSvc:     scoringSvc,
		clock:          clock,
		db:             db,
	}
}

func (s *attemptSessionService) GetEligibility(studentUserID, cohortID uint) (*dto.EligibilityResponseDTO, error) {
	cohort, err := s.cohortRepo.FindByID(cohortID)
	if err != nil {
		return nil, fmt.Errorf("cohort %d not found: %w", cohortID, err)
	}
	config, err := s.configRepo.FindActive()
	if err != nil {
		return nil, fmt.Errorf("no active exam config: %w", err)
	}

	attempts, err := s.loadHistoryWithExpirySweep(studentUserID, cohortID)
	if err != nil {
		return nil, err
	}

	result := s.eligibilitySvc.Evaluate(attempts, config, cohort.StartDate, s.clock.Now())
	resp := &dto.EligibilityResponseDTO{
		Status:            string(result.Status),
		Reason:            result.Reason,
		NextAttemptNumber: result.NextAttemptNumber,
		WeeksRemaining:    result.WeeksRemaining,
		EligibleAt:        result.EligibleAt,
	}
	if result.ActiveAttempt != nil {
		resp.ActiveAttemptID = &result.ActiveAttempt.ID
	}
	return resp, nil
}

func (s *attemptSessionService) Prepare(studentUserID, cohortID uint) (*dto.AttemptDetailDTO, error) {
	cohort, err := s.cohortRepo.FindByID(cohortID)
	if err != nil {
		return nil, fmt.Errorf("cohort %d not found: %w", cohortID, err)
	}
	config, err := s.configRepo.FindActive()
	if err != nil {
		return nil, fmt.Errorf("no active exam config: %w", err)
	}

	attempts, err := s.loadHistoryWithExpirySweep(studentUserID, cohortID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := s.eligibilitySvc.Evaluate(attempts, config, cohort.StartDate, now)
	switch result.Status {
	case EligibilityEligible:
	case EligibilityActiveAttempt:
		return nil, ErrActiveAttemptExists
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, result.Reason)
	}

	attempt := &model.ExamAttempt{
		StudentUserID: studentUserID,
		CohortID:      cohortID,
		ExamConfigID:  config.ID,
		AttemptNumber: result.NextAttemptNumber,
		Status:        model.AttemptStatusPrepared,
		PreparedAt:    now,
	}

	// Check-then-create runs in one transaction so two near-simultaneous
	// prepare calls cannot both claim the single active slot; the loser
	// surfaces the conflict instead of creating a duplicate.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing model.ExamAttempt
		findErr := tx.
			Where("student_user_id = ? AND cohort_id = ? AND status IN ?",
				studentUserID, cohortID,
				[]model.AttemptStatus{model.AttemptStatusPrepared, model.AttemptStatusInProgress}).
			First(&existing).Error
		if findErr == nil {
			return ErrActiveAttemptExists
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		return tx.Create(attempt).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("studentUserID", studentUserID).
		Uint("cohortID", cohortID).
		Int("attemptNumber", attempt.AttemptNumber).
		Msg("Attempt prepared")
	return s.toDetailDTO(attempt)
}

func (s *attemptSessionService) Begin(attemptID uint) (*dto.AttemptDetailDTO, error) {
	attempt, err := s.loadWithExpiryCheck(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusPrepared {
		return nil, fmt.Errorf("%w: begin requires a prepared attempt, attempt %d is %s", ErrInvalidState, attempt.ID, attempt.Status)
	}

	config, err := s.configRepo.FindByID(attempt.ExamConfigID)
	if err != nil {
		return nil, fmt.Errorf("loading exam config %d: %w", attempt.ExamConfigID, err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(time.Duration(config.TimeLimitMinutes) * time.Minute)
	attempt.Status = model.AttemptStatusInProgress
	attempt.StartedAt = &now
	attempt.ExpiresAt = &expiresAt
	if err := s.attemptRepo.Update(attempt); err != nil {
		return nil, fmt.Errorf("starting attempt %d: %w", attemptID, err)
	}

	log.Info().Uint("attemptID", attempt.ID).Time("expiresAt", expiresAt).Msg("Attempt started")
	return s.toDetailDTO(attempt)
}

func (s *attemptSessionService) SaveProgress(attemptID uint, req dto.ProgressUpdateDTO) (*dto.AttemptDetailDTO, error) {
	attempt, err := s.loadWithExpiryCheck(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, fmt.Errorf("%w: progress requires an in_progress attempt, attempt %d is %s", ErrInvalidState, attempt.ID, attempt.Status)
	}

	drafts := make([]model.DraftAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		drafts = append(drafts, model.DraftAnswer{QuestionID: a.QuestionID, SelectedKeys: a.SelectedKeys})
	}
	draftsJSON, err := json.Marshal(drafts)
	if err != nil {
		return nil, fmt.Errorf("encoding draft answers: %w", err)
	}
	attempt.CurrentQuestionIndex = req.CurrentQuestionIndex
	attempt.DraftAnswers = draftsJSON
	if err := s.attemptRepo.Update(attempt); err != nil {
		return nil, fmt.Errorf("saving progress for attempt %d: %w", attemptID, err)
	}
	return s.toDetailDTO(attempt)
}

func (s *attemptSessionService) Submit(attemptID uint, req dto.AttemptSubmitDTO) (*dto.AttemptDetailDTO, error) {
	// An attempt past its deadline is finalized from the saved drafts before the
	// request body is even looked at, so a late submit cannot buy extra time;
	// the caller gets ErrAlreadySubmitted and reads back the finalized result.
	attempt, err := s.loadWithExpiryCheck(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, fmt.Errorf("%w: submit requires an in_progress attempt, attempt %d is %s", ErrInvalidState, attempt.ID, attempt.Status)
	}

	submitted := make([]model.DraftAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		submitted = append(submitted, model.DraftAnswer{QuestionID: a.QuestionID, SelectedKeys: a.SelectedKeys})
	}

	if err := s.grade(attempt, submitted, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.GetAttemptDetails(attempt.ID)
}

func (s *attemptSessionService) GetAttemptDetails(attemptID uint) (*dto.AttemptDetailDTO, error) {
	if _, err := s.loadWithExpiryCheck(attemptID); err != nil {
		return nil, err
	}
	attempt, err := s.attemptRepo.FindByIDWithDetails(attemptID)
	if err != nil {
		return nil, fmt.Errorf("attempt %d not found: %w", attemptID, err)
	}
	return s.toDetailDTOWithAnswers(attempt)
}

func (s *attemptSessionService) GetMyAttempts(studentUserID, cohortID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.loadHistoryWithExpirySweep(studentUserID, cohortID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		var summary dto.AttemptSummaryDTO
		if err := copier.Copy(&summary, &attempts[i]); err != nil {
			log.Error().Err(err).Uint("attemptID", attempts[i].ID).Msg("Failed to copy attempt to summary DTO")
			continue
		}
		summary.Status = string(attempts[i].Status)
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// loadHistoryWithExpirySweep returns the full attempt history, finalizing any
// attempt whose timer ran out while no client was connected.
func (s *attemptSessionService) loadHistoryWithExpirySweep(studentUserID, cohortID uint) ([]model.ExamAttempt, error) {
	attempts, err := s.attemptRepo.FindAllByStudentAndCohort(studentUserID, cohortID)
	if err != nil {
		return nil, fmt.Errorf("loading attempt history: %w", err)
	}
	now := s.clock.Now()
	swept := false
	for i := range attempts {
		if attempts[i].Expired(now) {
			if err := s.finalizeExpired(&attempts[i]); err != nil {
				return nil, err
			}
			swept = true
		}
	}
	if swept {
		attempts, err = s.attemptRepo.FindAllByStudentAndCohort(studentUserID, cohortID)
		if err != nil {
			return nil, fmt.Errorf("reloading attempt history: %w", err)
		}
	}
	return attempts, nil
}

func (s *attemptSessionService) loadWithExpiryCheck(attemptID uint) (*model.ExamAttempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, fmt.Errorf("attempt %d not found: %w", attemptID, err)
	}
	if attempt.Expired(s.clock.Now()) {
		if err := s.finalizeExpired(attempt); err != nil {
			return nil, err
		}
	}
	return attempt, nil
}

// finalizeExpired grades an expired attempt with whatever draft answers were
// saved; unanswered questions score as incorrect. The submission timestamp is
// the moment the timer ran out, not the moment the expiry was noticed.
func (s *attemptSessionService) finalizeExpired(attempt *model.ExamAttempt) error {
	drafts, err := attempt.DraftAnswerList()
	if err != nil {
		return fmt.Errorf("decoding draft answers for attempt %d: %w", attempt.ID, err)
	}
	log.Info().Uint("attemptID", attempt.ID).Msg("Attempt expired, finalizing with saved draft answers")
	return s.grade(attempt, drafts, *attempt.ExpiresAt)
}

func (s *attemptSessionService) grade(attempt *model.ExamAttempt, submitted []model.DraftAnswer, submittedAt time.Time) error {
	config, err := s.configRepo.FindByIDWithQuestions(attempt.ExamConfigID)
	if err != nil {
		return fmt.Errorf("loading exam config %d: %w", attempt.ExamConfigID, err)
	}
	_, err = s.scoringSvc.Score(attempt, config, config.Questions, submitted, submittedAt)
	return err
}

func (s *attemptSessionService) toDetailDTO(attempt *model.ExamAttempt) (*dto.AttemptDetailDTO, error) {
	var resp dto.AttemptDetailDTO
	if err := copier.Copy(&resp, attempt); err != nil {
		return nil, fmt.Errorf("preparing attempt response: %w", err)
	}
	resp.Status = string(attempt.Status)
	resp.Answers = nil
	return &resp, nil
}

func (s *attemptSessionService) toDetailDTOWithAnswers(attempt *model.ExamAttempt) (*dto.AttemptDetailDTO, error) {
	resp, err := s.toDetailDTO(attempt)
	if err != nil {
		return nil, err
	}
	answers := make([]dto.AnswerResponseDTO, 0, len(attempt.Answers))
	for i := range attempt.Answers {
		ans := &attempt.Answers[i]
		keys, err := ans.SubmittedKeySet()
		if err != nil {
			return nil, fmt.Errorf("decoding submitted keys for answer %d: %w", ans.ID, err)
		}
		ansDTO := dto.AnswerResponseDTO{
			ID:            ans.ID,
			QuestionID:    ans.QuestionID,
			SubmittedKeys: keys,
			IsCorrect:     ans.IsCorrect,
			PointsEarned:  ans.PointsEarned,
		}
		if ans.Question.ID != 0 {
			qDTO, err := questionToDTO(&ans.Question)
			if err != nil {
				return nil, err
			}
			ansDTO.Question = *qDTO
		}
		answers = append(answers, ansDTO)
	}
	resp.Answers = answers
	return resp, nil
}
