package service

import (
	"fmt"
	"time"

	"github.com/khangnd/certiprep/internal/model"
)

// EligibilityStatus enumerates the possible outcomes of an eligibility check.
type EligibilityStatus string

const (
	EligibilityLocked        EligibilityStatus = "locked"
	EligibilityPassed        EligibilityStatus = "passed"
	EligibilityActiveAttempt EligibilityStatus = "active_attempt"
	EligibilityCooldown      EligibilityStatus = "cooldown"
	EligibilityEligible      EligibilityStatus = "eligible"
	EligibilityExhausted     EligibilityStatus = "exhausted"
)

// EligibilityResult is the outcome of evaluating one student's attempt history
// against the active exam config. EligibleAt is set only for timed cooldowns;
// a cooldown with a nil EligibleAt means the student must finish earlier
// attempts first and no countdown applies.
type EligibilityResult struct {
	Status            EligibilityStatus
	Reason            string
	NextAttemptNumber int
	WeeksRemaining    int
	EligibleAt        *time.Time
	ActiveAttempt     *model.ExamAttempt
}

// EligibilityService decides whether and when a student may start a new exam
// attempt. Evaluate is pure: no I/O, no side effects, safe to call on every
// poll tick while a countdown is shown.
type EligibilityService interface {
	Evaluate(attempts []model.ExamAttempt, config *model.ExamConfig, cohortStart, now time.Time) EligibilityResult
}

type eligibilityService struct{}

func NewEligibilityService() EligibilityService {
	return &eligibilityService{}
}

func (s *eligibilityService) Evaluate(attempts []model.ExamAttempt, config *model.ExamConfig, cohortStart, now time.Time) EligibilityResult {
	cohort := model.Cohort{StartDate: cohortStart}
	if week := cohort.CurrentWeek(now); week < config.UnlockWeek {
		return EligibilityResult{
			Status:         EligibilityLocked,
			Reason:         "exam not yet unlocked",
			WeeksRemaining: config.UnlockWeek - week,
		}
	}

	attemptsUsed := 0
	for _, a := range attempts {
		if !a.PreparedAt.IsZero() {
			attemptsUsed++
		}
	}
	next := attemptsUsed + 1

	for i := range attempts {
		if attempts[i].Passed() {
			return EligibilityResult{Status: EligibilityPassed, Reason: "exam already passed"}
		}
	}

	for i := range attempts {
		if attempts[i].Active() && attempts[i].SubmittedAt == nil {
			return EligibilityResult{
				Status:        EligibilityActiveAttempt,
				Reason:        "an attempt is already in progress",
				ActiveAttempt: &attempts[i],
			}
		}
	}

	switch next {
	case 2:
		// No cooldown between attempt 1 and attempt 2.
	case 3:
		prev := findAttemptByNumber(attempts, 2)
		if prev == nil || prev.SubmittedAt == nil {
			return blockedCooldown(next)
		}
		if res, gated := cooldownGate(prev, config.CooldownAfterAttempt2Hours, next, now); gated {
			return res
		}
	case 4:
		prev := findAttemptByNumber(attempts, 3)
		if prev == nil || prev.SubmittedAt == nil {
			return blockedCooldown(next)
		}
		if prev.Passed() {
			// Unreachable after the pass check above, but the gate must hold
			// even if history rows are inconsistent.
			return EligibilityResult{
				Status: EligibilityCooldown,
				Reason: "no further attempts permitted",
			}
		}
		if res, gated := cooldownGate(prev, config.CooldownAfterAttempt3FailHours, next, now); gated {
			return res
		}
	}

	if next > config.AttemptsAllowed {
		return EligibilityResult{Status: EligibilityExhausted, Reason: "all attempts used"}
	}

	return EligibilityResult{Status: EligibilityEligible, NextAttemptNumber: next}
}

func findAttemptByNumber(attempts []model.ExamAttempt, number int) *model.ExamAttempt {
	for i := range attempts {
		if attempts[i].AttemptNumber == number {
			return &attempts[i]
		}
	}
	return nil
}

func blockedCooldown(next int) EligibilityResult {
	return EligibilityResult{
		Status:            EligibilityCooldown,
		Reason:            "finish previous attempts first",
		NextAttemptNumber: next,
	}
}

// cooldownGate returns (result, true) when the student is still inside the
// waiting window that starts at the previous attempt's submission time.
func cooldownGate(prev *model.ExamAttempt, hours, next int, now time.Time) (EligibilityResult, bool) {
	eligibleAt := prev.SubmittedAt.Add(time.Duration(hours) * time.Hour)
	if now.Before(eligibleAt) {
		return EligibilityResult{
			Status:            EligibilityCooldown,
			Reason:            fmt.Sprintf("cooldown after attempt %d", prev.AttemptNumber),
			NextAttemptNumber: next,
			EligibleAt:        &eligibleAt,
		}, true
	}
	return EligibilityResult{}, false
}
