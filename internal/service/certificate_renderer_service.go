package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/khangnd/certiprep/config"
	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"github.com/rs/zerolog/log"
)

// CertificateRendererService is the external rendering collaborator. The engine
// only creates the certificate row; rendering happens out of band and the
// resulting URL is patched onto the record whenever the renderer answers.
type CertificateRendererService interface {
	RenderAsync(cert *model.Certificate)
}

type certificateRendererService struct {
	cfg      *config.Config
	certRepo repository.CertificateRepository
	client   *http.Client
}

func NewCertificateRendererService(cfg *config.Config, certRepo repository.CertificateRepository) CertificateRendererService {
	if cfg.RendererURL == "" {
		log.Warn().Msg("RENDERER_URL is not set. Certificates will be issued without a rendered document.")
	}
	return &certificateRendererService{
		cfg:      cfg,
		certRepo: certRepo,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *certificateRendererService) RenderAsync(cert *model.Certificate) {
	if s.cfg.RendererURL == "" {
		return
	}
	go func() {
		url, err := s.render(cert)
		if err != nil {
			log.Error().Err(err).Str("code", cert.CertificateIDCode).Msg("Certificate rendering failed")
			return
		}
		cert.CertificateURL = &url
		if err := s.certRepo.Update(cert); err != nil {
			log.Error().Err(err).Str("code", cert.CertificateIDCode).Msg("Failed to save rendered certificate URL")
			return
		}
		log.Info().Str("code", cert.CertificateIDCode).Str("url", url).Msg("Certificate rendered")
	}()
}

func (s *certificateRendererService) render(cert *model.Certificate) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"certificate_id_code": cert.CertificateIDCode,
		"student_user_id":     cert.StudentUserID,
		"cohort_id":           cert.CohortID,
		"issued_at":           cert.IssuedAt,
	})
	if err != nil {
		return "", err
	}

	resp, err := s.client.Post(s.cfg.RendererURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("calling renderer at %s: %w", s.cfg.RendererURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding renderer response: %w", err)
	}
	if body.URL == "" {
		return "", fmt.Errorf("renderer response contained no url")
	}
	return body.URL, nil
}
