package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AwardService applies the side effects of a passing attempt: certificate
// issuance, portfolio auto-approval, and the points award. Every step is
// guarded by an existence check, so repeated invocation is a no-op and retries
// after a partial failure converge to the fully-applied state.
type AwardService interface {
	GrantExamPassRewards(studentUserID, cohortID, attemptID uint, now time.Time) error
}

type awardService struct {
	certRepo      repository.CertificateRepository
	portfolioRepo repository.PortfolioItemRepository
	pointsRepo    repository.PointsLedgerRepository
	renderer      CertificateRendererService
}

func NewAwardService(
	certRepo repository.CertificateRepository,
	portfolioRepo repository.PortfolioItemRepository,
	pointsRepo repository.PointsLedgerRepository,
	renderer CertificateRendererService,
) AwardService {
	return &awardService{
		certRepo:      certRepo,
		portfolioRepo: portfolioRepo,
		pointsRepo:    pointsRepo,
		renderer:      renderer,
	}
}

func (s *awardService) GrantExamPassRewards(studentUserID, cohortID, attemptID uint, now time.Time) error {
	if err := s.ensureCertificate(studentUserID, cohortID, attemptID, now); err != nil {
		return err
	}
	if err := s.ensurePortfolioApproval(studentUserID, cohortID, now); err != nil {
		return err
	}
	return s.ensurePoints(studentUserID, cohortID, attemptID)
}

func (s *awardService) ensureCertificate(studentUserID, cohortID, attemptID uint, now time.Time) error {
	_, err := s.certRepo.FindByStudentAndCohort(studentUserID, cohortID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking for existing certificate: %w", err)
	}

	cert := &model.Certificate{
		StudentUserID:     studentUserID,
		CohortID:          cohortID,
		ExamAttemptID:     attemptID,
		CertificateIDCode: certificateIDCode(cohortID, attemptID),
		IssuedAt:          now,
	}
	if err := s.certRepo.Create(cert); err != nil {
		return fmt.Errorf("creating certificate: %w", err)
	}
	log.Info().Uint("studentUserID", studentUserID).Uint("cohortID", cohortID).Str("code", cert.CertificateIDCode).Msg("Certificate issued")

	// Rendering is fire-and-forget; the URL lands on the record later.
	s.renderer.RenderAsync(cert)
	return nil
}

func (s *awardService) ensurePortfolioApproval(studentUserID, cohortID uint, now time.Time) error {
	item, err := s.portfolioRepo.FindByStudentCohortTemplate(studentUserID, cohortID, model.PortfolioTemplateCertificationExam)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = &model.PortfolioItemStatus{
			StudentUserID: studentUserID,
			CohortID:      cohortID,
			TemplateKey:   model.PortfolioTemplateCertificationExam,
			Status:        model.PortfolioStatusApproved,
			ReviewedAt:    &now,
		}
		if err := s.portfolioRepo.Create(item); err != nil {
			return fmt.Errorf("creating portfolio item status: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking portfolio item status: %w", err)
	}
	if item.Status == model.PortfolioStatusApproved {
		return nil
	}
	item.Status = model.PortfolioStatusApproved
	item.ReviewedAt = &now
	if err := s.portfolioRepo.Update(item); err != nil {
		return fmt.Errorf("approving portfolio item: %w", err)
	}
	return nil
}

func (s *awardService) ensurePoints(studentUserID, cohortID, attemptID uint) error {
	_, err := s.pointsRepo.FindBySource(studentUserID, model.PointsSourceTypeExam, attemptID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking points ledger: %w", err)
	}
	entry := &model.PointsLedgerEntry{
		StudentUserID: studentUserID,
		CohortID:      cohortID,
		Points:        model.ExamPassPoints,
		Reason:        model.PointsReasonExamPassed,
		SourceType:    model.PointsSourceTypeExam,
		SourceID:      attemptID,
	}
	if err := s.pointsRepo.Create(entry); err != nil {
		return fmt.Errorf("appending points ledger entry: %w", err)
	}
	return nil
}

func certificateIDCode(cohortID, attemptID uint) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CP-%d-%d-%s", cohortID, attemptID, suffix)
}
