package service

import (
	"errors"
	"testing"
	"time"

	"github.com/khangnd/certiprep/internal/dto"
	"github.com/khangnd/certiprep/internal/model"
)

const testStudentID uint = 7

func newSessionFixture(t *testing.T) (AttemptSessionService, *fixedClock, *model.ExamConfig, uint) {
	t.Helper()
	db := newTestDB(t)
	cfg := seedExamConfig(t, db)
	cohort := seedCohort(t, db, baseTime.Add(-7*24*time.Hour))
	clock := &fixedClock{now: baseTime}
	return newSessionService(t, db, clock), clock, cfg, cohort.ID
}

func submitAllCorrect(cfg *model.ExamConfig) dto.AttemptSubmitDTO {
	var req dto.AttemptSubmitDTO
	for _, q := range cfg.Questions {
		req.Answers = append(req.Answers, dto.AnswerSubmissionDTO{QuestionID: q.ID, SelectedKeys: []string{"a"}})
	}
	return req
}

func submitAllWrong(cfg *model.ExamConfig) dto.AttemptSubmitDTO {
	var req dto.AttemptSubmitDTO
	for _, q := range cfg.Questions {
		req.Answers = append(req.Answers, dto.AnswerSubmissionDTO{QuestionID: q.ID, SelectedKeys: []string{"b"}})
	}
	return req
}

func TestPrepareBeginSubmitRoundTrip(t *testing.T) {
	svc, clock, cfg, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prepared.Status != string(model.AttemptStatusPrepared) {
		t.Fatalf("status after prepare = %s", prepared.Status)
	}
	if prepared.AttemptNumber != 1 {
		t.Errorf("attempt number = %d, want 1", prepared.AttemptNumber)
	}
	if prepared.StartedAt != nil || prepared.ExpiresAt != nil {
		t.Error("timer must not run before begin")
	}

	started, err := svc.Begin(prepared.ID)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if started.Status != string(model.AttemptStatusInProgress) {
		t.Fatalf("status after begin = %s", started.Status)
	}
	wantExpiry := clock.Now().Add(90 * time.Minute)
	if started.ExpiresAt == nil || !started.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expiresAt = %v, want %v", started.ExpiresAt, wantExpiry)
	}

	clock.Advance(30 * time.Minute)
	result, err := svc.Submit(prepared.ID, submitAllCorrect(cfg))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Status != string(model.AttemptStatusSubmitted) {
		t.Fatalf("status after submit = %s", result.Status)
	}
	if result.ScorePercent == nil || *result.ScorePercent != 100 {
		t.Errorf("scorePercent = %v, want 100", result.ScorePercent)
	}
	if result.PassFlag == nil || !*result.PassFlag {
		t.Error("expected a pass")
	}
	if len(result.Answers) != len(cfg.Questions) {
		t.Errorf("graded answers = %d, want %d", len(result.Answers), len(cfg.Questions))
	}
}

func TestPrepareConflictsWithActiveAttempt(t *testing.T) {
	svc, _, _, cohortID := newSessionFixture(t)

	if _, err := svc.Prepare(testStudentID, cohortID); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}
	_, err := svc.Prepare(testStudentID, cohortID)
	if !errors.Is(err, ErrActiveAttemptExists) {
		t.Fatalf("second Prepare: expected ErrActiveAttemptExists, got %v", err)
	}
}

func TestBeginRequiresPreparedAttempt(t *testing.T) {
	svc, _, _, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := svc.Begin(prepared.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_, err = svc.Begin(prepared.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second Begin: expected ErrInvalidState, got %v", err)
	}
}

func TestSubmitTwiceReturnsAlreadySubmitted(t *testing.T) {
	svc, _, cfg, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := svc.Begin(prepared.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Submit(prepared.ID, submitAllWrong(cfg)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err = svc.Submit(prepared.ID, submitAllWrong(cfg))
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second Submit: expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestSubmitRequiresInProgressAttempt(t *testing.T) {
	svc, _, cfg, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	_, err = svc.Submit(prepared.ID, submitAllCorrect(cfg))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestExpiredAttemptFinalizedFromDrafts(t *testing.T) {
	svc, clock, cfg, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	started, err := svc.Begin(prepared.ID)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// The client answers two questions, saves, and disconnects.
	progress := dto.ProgressUpdateDTO{
		CurrentQuestionIndex: 2,
		Answers: []dto.AnswerSubmissionDTO{
			{QuestionID: cfg.Questions[0].ID, SelectedKeys: []string{"a"}},
			{QuestionID: cfg.Questions[1].ID, SelectedKeys: []string{"a"}},
		},
	}
	if _, err := svc.SaveProgress(prepared.ID, progress); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	clock.Advance(91 * time.Minute)

	detail, err := svc.GetAttemptDetails(prepared.ID)
	if err != nil {
		t.Fatalf("GetAttemptDetails: %v", err)
	}
	if detail.Status != string(model.AttemptStatusSubmitted) {
		t.Fatalf("status after expiry = %s, want submitted", detail.Status)
	}
	if detail.ScorePercent == nil || *detail.ScorePercent != 50 {
		t.Errorf("scorePercent = %v, want 50 from two saved drafts", detail.ScorePercent)
	}
	if detail.PassFlag == nil || *detail.PassFlag {
		t.Error("expected a fail")
	}
	// Finalization backdates the submission to the moment the timer ran out.
	if detail.SubmittedAt == nil || !detail.SubmittedAt.Equal(*started.ExpiresAt) {
		t.Errorf("submittedAt = %v, want %v", detail.SubmittedAt, started.ExpiresAt)
	}
}

func TestLateSubmitFinalizedFromDraftsNotRequest(t *testing.T) {
	svc, clock, cfg, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	started, err := svc.Begin(prepared.ID)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	progress := dto.ProgressUpdateDTO{
		CurrentQuestionIndex: 1,
		Answers: []dto.AnswerSubmissionDTO{
			{QuestionID: cfg.Questions[0].ID, SelectedKeys: []string{"a"}},
		},
	}
	if _, err := svc.SaveProgress(prepared.ID, progress); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	// The submit arrives hours past the deadline carrying a perfect answer
	// sheet. The attempt is finalized from the one saved draft instead, and the
	// late request is turned away.
	clock.Advance(10 * time.Hour)
	_, err = svc.Submit(prepared.ID, submitAllCorrect(cfg))
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("late Submit: expected ErrAlreadySubmitted, got %v", err)
	}

	detail, err := svc.GetAttemptDetails(prepared.ID)
	if err != nil {
		t.Fatalf("GetAttemptDetails: %v", err)
	}
	if detail.ScorePercent == nil || *detail.ScorePercent != 25 {
		t.Errorf("scorePercent = %v, want 25 from the single saved draft", detail.ScorePercent)
	}
	if detail.PassFlag == nil || *detail.PassFlag {
		t.Error("expected a fail")
	}
	if detail.SubmittedAt == nil || !detail.SubmittedAt.Equal(*started.ExpiresAt) {
		t.Errorf("submittedAt = %v, want %v", detail.SubmittedAt, started.ExpiresAt)
	}
}

func TestExpirySweepUnblocksEligibility(t *testing.T) {
	svc, clock, _, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := svc.Begin(prepared.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	elig, err := svc.GetEligibility(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("GetEligibility: %v", err)
	}
	if elig.Status != string(EligibilityActiveAttempt) {
		t.Fatalf("eligibility while running = %s, want active_attempt", elig.Status)
	}

	// The abandoned attempt expires; the next eligibility read finalizes it and
	// the student may prepare attempt 2 immediately.
	clock.Advance(2 * time.Hour)
	elig, err = svc.GetEligibility(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("GetEligibility after expiry: %v", err)
	}
	if elig.Status != string(EligibilityEligible) {
		t.Fatalf("eligibility after expiry = %s, want eligible", elig.Status)
	}
	if elig.NextAttemptNumber != 2 {
		t.Errorf("next attempt = %d, want 2", elig.NextAttemptNumber)
	}
}

func TestAttemptNumberingAcrossFailures(t *testing.T) {
	svc, clock, cfg, cohortID := newSessionFixture(t)

	failOnce := func(wantNumber int) {
		t.Helper()
		prepared, err := svc.Prepare(testStudentID, cohortID)
		if err != nil {
			t.Fatalf("Prepare attempt %d: %v", wantNumber, err)
		}
		if prepared.AttemptNumber != wantNumber {
			t.Fatalf("attempt number = %d, want %d", prepared.AttemptNumber, wantNumber)
		}
		if _, err := svc.Begin(prepared.ID); err != nil {
			t.Fatalf("Begin attempt %d: %v", wantNumber, err)
		}
		if _, err := svc.Submit(prepared.ID, submitAllWrong(cfg)); err != nil {
			t.Fatalf("Submit attempt %d: %v", wantNumber, err)
		}
	}

	failOnce(1)
	failOnce(2) // no cooldown between attempts 1 and 2

	// Attempt 3 waits out the 24h cooldown.
	if _, err := svc.Prepare(testStudentID, cohortID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible during cooldown, got %v", err)
	}
	clock.Advance(24 * time.Hour)
	failOnce(3)

	history, err := svc.GetMyAttempts(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("GetMyAttempts: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	for i, summary := range history {
		if summary.AttemptNumber != i+1 {
			t.Errorf("history[%d].AttemptNumber = %d, want %d", i, summary.AttemptNumber, i+1)
		}
		if summary.Status != string(model.AttemptStatusSubmitted) {
			t.Errorf("history[%d].Status = %s, want submitted", i, summary.Status)
		}
	}
}

func TestPrepareBlockedAfterPass(t *testing.T) {
	svc, clock, cfg, cohortID := newSessionFixture(t)

	prepared, err := svc.Prepare(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := svc.Begin(prepared.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Submit(prepared.ID, submitAllCorrect(cfg)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	clock.Advance(72 * time.Hour)
	_, err = svc.Prepare(testStudentID, cohortID)
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible after pass, got %v", err)
	}

	elig, err := svc.GetEligibility(testStudentID, cohortID)
	if err != nil {
		t.Fatalf("GetEligibility: %v", err)
	}
	if elig.Status != string(EligibilityPassed) {
		t.Errorf("eligibility after pass = %s, want passed", elig.Status)
	}
}
