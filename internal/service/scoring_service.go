package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ScoringResult carries the outcome of grading one attempt.
type ScoringResult struct {
	ScorePercent float64
	PassFlag     bool
	Answers      []model.ExamAnswer
}

// ScoringService grades a submitted attempt against the answer key of the
// config it was prepared under and, on a pass, applies the reward side effects
// exactly once.
type ScoringService interface {
	Score(attempt *model.ExamAttempt, config *model.ExamConfig, questions []model.ExamQuestion, submitted []model.DraftAnswer, submittedAt time.Time) (*ScoringResult, error)
}

type scoringService struct {
	answerRepo repository.ExamAnswerRepository
	awardSvc   AwardService
	db         *gorm.DB
}

func NewScoringService(
	answerRepo repository.ExamAnswerRepository,
	awardSvc AwardService,
	db *gorm.DB,
) ScoringService {
	return &scoringService{
		answerRepo: answerRepo,
		awardSvc:   awardSvc,
		db:         db,
	}
}

func (s *scoringService) Score(attempt *model.ExamAttempt, config *model.ExamConfig, questions []model.ExamQuestion, submitted []model.DraftAnswer, submittedAt time.Time) (*ScoringResult, error) {
	if attempt.Status == model.AttemptStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, fmt.Errorf("%w: attempt %d is %s", ErrInvalidState, attempt.ID, attempt.Status)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("exam config %d has no questions", config.ID)
	}

	// Existence check covers the case where a crash left graded answers behind
	// without the attempt row reaching submitted.
	if existing, err := s.answerRepo.CountByAttemptID(attempt.ID); err != nil {
		return nil, fmt.Errorf("checking for existing answers: %w", err)
	} else if existing > 0 {
		return nil, ErrAlreadySubmitted
	}

	submittedByQuestion := make(map[uint][]string, len(submitted))
	for _, a := range submitted {
		submittedByQuestion[a.QuestionID] = a.SelectedKeys
	}

	totalPoints := 0
	earnedPoints := 0
	answers := make([]model.ExamAnswer, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		totalPoints += q.Points

		correctKeys, err := q.CorrectKeySet()
		if err != nil {
			return nil, fmt.Errorf("decoding answer key for question %d: %w", q.ID, err)
		}

		selected := submittedByQuestion[q.ID]
		isCorrect := keySetsEqual(selected, correctKeys)
		earned := 0
		if isCorrect {
			earned = q.Points
		}
		earnedPoints += earned

		selectedJSON, err := json.Marshal(selected)
		if err != nil {
			return nil, fmt.Errorf("encoding submitted keys for question %d: %w", q.ID, err)
		}
		answers = append(answers, model.ExamAnswer{
			ExamAttemptID: attempt.ID,
			QuestionID:    q.ID,
			SubmittedKeys: selectedJSON,
			IsCorrect:     isCorrect,
			PointsEarned:  earned,
		})
	}

	if totalPoints == 0 {
		return nil, fmt.Errorf("exam config %d has no scoreable points", config.ID)
	}

	scorePercent := math.Round(100 * float64(earnedPoints) / float64(totalPoints))
	passFlag := scorePercent >= float64(config.PassMarkPercent)

	// Answers and the attempt's terminal state commit together; a partial
	// failure leaves nothing written and the whole batch is retried.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&answers).Error; err != nil {
			return fmt.Errorf("persisting graded answers: %w", err)
		}
		attempt.Status = model.AttemptStatusSubmitted
		attempt.SubmittedAt = &submittedAt
		attempt.ScorePercent = &scorePercent
		attempt.PassFlag = &passFlag
		return tx.Save(attempt).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("attemptID", attempt.ID).
		Int("attemptNumber", attempt.AttemptNumber).
		Float64("scorePercent", scorePercent).
		Bool("pass", passFlag).
		Msg("Attempt graded")

	if passFlag {
		if err := s.awardSvc.GrantExamPassRewards(attempt.StudentUserID, attempt.CohortID, attempt.ID, submittedAt); err != nil {
			// The attempt is graded; the caller retries the rewards, which are
			// individually idempotent and converge to fully applied.
			return nil, fmt.Errorf("granting pass rewards for attempt %d: %w", attempt.ID, err)
		}
	}

	return &ScoringResult{ScorePercent: scorePercent, PassFlag: passFlag, Answers: answers}, nil
}

// keySetsEqual compares submitted and correct answer keys as sets: order does
// not matter and duplicates never count twice.
func keySetsEqual(selected, correct []string) bool {
	a := dedupSorted(selected)
	b := dedupSorted(correct)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dedupSorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i == 0 || k != out[i-1] {
			out[n] = k
			n++
		}
	}
	return out[:n]
}
