package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/khangnd/certiprep/config"
	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping test database: %v", err)
	}
	// A pooled second connection would see a different empty :memory: database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&model.Cohort{},
		&model.ExamConfig{},
		&model.ExamQuestion{},
		&model.ExamAttempt{},
		&model.ExamAnswer{},
		&model.Certificate{},
		&model.PointsLedgerEntry{},
		&model.PortfolioItemStatus{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func mustJSON(t *testing.T, v any) datatypes.JSON {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling test fixture: %v", err)
	}
	return b
}

// seedExamConfig creates an active config with four single-key questions worth
// one point each, split over two sections.
func seedExamConfig(t *testing.T, db *gorm.DB) *model.ExamConfig {
	t.Helper()
	cfg := &model.ExamConfig{
		Title:                          "Certification Exam",
		Version:                        1,
		IsActive:                       true,
		AttemptsAllowed:                4,
		TotalQuestions:                 4,
		QuestionsPerSection:            2,
		TimeLimitMinutes:               90,
		PassMarkPercent:                75,
		CooldownAfterAttempt2Hours:     24,
		CooldownAfterAttempt3FailHours: 48,
		UnlockWeek:                     1,
	}
	options := mustJSON(t, []model.QuestionOption{
		{Key: "a", Text: "Option A"},
		{Key: "b", Text: "Option B"},
		{Key: "c", Text: "Option C"},
	})
	for i := 1; i <= 4; i++ {
		section := 1
		if i > 2 {
			section = 2
		}
		cfg.Questions = append(cfg.Questions, model.ExamQuestion{
			Section:     section,
			OrderInExam: i,
			Prompt:      "Question",
			Options:     options,
			CorrectKeys: mustJSON(t, []string{"a"}),
			Points:      1,
		})
	}
	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("seeding exam config: %v", err)
	}
	return cfg
}

func seedCohort(t *testing.T, db *gorm.DB, start time.Time) *model.Cohort {
	t.Helper()
	cohort := &model.Cohort{Name: "Cohort " + start.Format("2006-01"), StartDate: start}
	if err := db.Create(cohort).Error; err != nil {
		t.Fatalf("seeding cohort: %v", err)
	}
	return cohort
}

// newSessionService wires the full service stack over the test database with a
// no-op certificate renderer.
func newSessionService(t *testing.T, db *gorm.DB, clock Clock) AttemptSessionService {
	t.Helper()
	attemptRepo := repository.NewExamAttemptRepository(db)
	answerRepo := repository.NewExamAnswerRepository(db)
	configRepo := repository.NewExamConfigRepository(db)
	cohortRepo := repository.NewCohortRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	portfolioRepo := repository.NewPortfolioItemRepository(db)
	pointsRepo := repository.NewPointsLedgerRepository(db)

	renderer := NewCertificateRendererService(&config.Config{}, certRepo)
	awardSvc := NewAwardService(certRepo, portfolioRepo, pointsRepo, renderer)
	scoringSvc := NewScoringService(answerRepo, awardSvc, db)
	return NewAttemptSessionService(attemptRepo, configRepo, cohortRepo, NewEligibilityService(), scoringSvc, clock, db)
}

func allCorrectAnswers(cfg *model.ExamConfig) []model.DraftAnswer {
	answers := make([]model.DraftAnswer, 0, len(cfg.Questions))
	for _, q := range cfg.Questions {
		answers = append(answers, model.DraftAnswer{QuestionID: q.ID, SelectedKeys: []string{"a"}})
	}
	return answers
}
