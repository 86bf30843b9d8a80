package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"review_boost/internal/adapters/observability"
	"review_boost/internal/domain"
)

type ReviewSettings struct {
	BusinessName  string
	ReviewSiteURL string
}

// ActionResult is what every review action hands back to the caller: the
// draft as it now stands plus the notifications to show.
type ActionResult struct {
	Draft         domain.ReviewDraft
	Notifications []domain.Notification
}

type ShareAction struct {
	ClipboardText string
	OpenURL       string
	Notifications []domain.Notification
}

type ReviewService struct {
	drafts  *DraftRegistry
	refiner domain.Refiner
	repo    domain.ReviewRepository
	survey  domain.SurveyLauncher
	codes   func() (string, error)
	cfg     ReviewSettings
}

func NewReviewService(d *DraftRegistry, rf domain.Refiner, r domain.ReviewRepository, sl domain.SurveyLauncher, cfg ReviewSettings) *ReviewService {
	return &ReviewService{drafts: d, refiner: rf, repo: r, survey: sl, codes: NewUniqueCode, cfg: cfg}
}

// WithCodeGenerator swaps the share code source; used by tests.
func (s *ReviewService) WithCodeGenerator(fn func() (string, error)) *ReviewService {
	s.codes = fn
	return s
}

var (
	noteReviewRequired = domain.Alert("Review required", "Please write your initial thoughts before creating a review.")
	noteRefineRejected = domain.Alert("Review creation", "We couldn't create your review at this moment. Please try again later.")
	noteRefineFailed   = domain.Alert("Error", "Failed to create review. Please try again.")
	noteAlreadyGood    = domain.Info("Review creation", "Your review is already well-written! Feel free to submit it or add more details.")
	noteRefined        = domain.Info("Review created!", "Your review has been professionally created.")
	noteConcerns       = domain.Info("We notice you had some concerns", "Would you like to share your feedback directly through our AI survey call? We'd love to make it right.")
	noteSubmitted      = domain.Info("Review submitted!", "Your review has been submitted successfully.")
	noteSubmitFailed   = domain.Alert("Error", "Failed to submit review. Please try again.")
	noteCopied         = domain.Info("Review copied to clipboard!", "Opening Google Reviews in a new tab. Please paste your review there.")
	noteSurveyFailed   = domain.Alert("Error", "We couldn't start the survey call. Please try again later.")
)

func (s *ReviewService) NewDraft(businessName string) domain.ReviewDraft {
	if businessName == "" {
		businessName = s.cfg.BusinessName
	}
	d := s.drafts.Create(businessName)
	observability.OpenDrafts.Set(float64(s.drafts.Len()))
	return d
}

func (s *ReviewService) Draft(id string) (domain.ReviewDraft, error) {
	return s.drafts.Get(id)
}

func (s *ReviewService) Discard(id string) error {
	err := s.drafts.Delete(id)
	observability.OpenDrafts.Set(float64(s.drafts.Len()))
	return err
}

func (s *ReviewService) Edit(id, text string) (domain.ReviewDraft, error) {
	return s.drafts.Update(id, func(d *domain.ReviewDraft) error { return d.Edit(text) })
}

func (s *ReviewService) AttachReceipt(id string, r *domain.ReceiptAnalysis, photoURL string) (domain.ReviewDraft, error) {
	return s.drafts.Update(id, func(d *domain.ReviewDraft) error { return d.AttachReceipt(r, photoURL) })
}

// Refine sends the draft text to the refinement service and applies the
// result. The draft is never left in Refining once this returns.
func (s *ReviewService) Refine(ctx context.Context, id string) (ActionResult, error) {
	var req domain.RefineRequest
	d, err := s.drafts.Update(id, func(d *domain.ReviewDraft) (e error) {
		req, e = d.BeginRefine()
		return e
	})
	if err != nil {
		res := ActionResult{Draft: d}
		if errors.Is(err, domain.ErrValidation) {
			res.Notifications = []domain.Notification{noteReviewRequired}
		}
		return res, err
	}

	resp, err := s.refiner.Refine(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("draft", id).Msg("refine review failed")
		observability.ObserveFlow("review", "refine_error")
		d, uerr := s.drafts.Update(id, func(d *domain.ReviewDraft) error { d.FailRefine(); return nil })
		if uerr != nil {
			return ActionResult{}, uerr
		}
		return ActionResult{Draft: d, Notifications: []domain.Notification{noteRefineFailed}}, asTransport(err)
	}

	var out domain.RefineOutcome
	d, err = s.drafts.Update(id, func(d *domain.ReviewDraft) (e error) {
		out, e = d.CompleteRefine(resp)
		return e
	})
	switch {
	case errors.Is(err, domain.ErrService):
		log.Warn().Str("draft", id).Str("reason", resp.Error).Msg("refinement service rejected review")
		observability.ObserveFlow("review", "refine_rejected")
		return ActionResult{Draft: d, Notifications: []domain.Notification{noteRefineRejected}}, err
	case err != nil:
		return ActionResult{Draft: d}, err
	}

	res := ActionResult{Draft: d}
	switch {
	case out.Unchanged:
		res.Notifications = append(res.Notifications, noteAlreadyGood)
		observability.ObserveFlow("review", "refine_unchanged")
	case !out.Complaint:
		res.Notifications = append(res.Notifications, noteRefined)
		observability.ObserveFlow("review", "refined")
	default:
		observability.ObserveFlow("review", "refined")
	}
	if out.Complaint {
		res.Notifications = append(res.Notifications, noteConcerns)
		observability.ObserveFlow("review", "complaint_flagged")
	}
	return res, nil
}

// Submit persists a refined draft under a fresh share code. A failed attempt
// discards its code; retrying mints a new one.
func (s *ReviewService) Submit(ctx context.Context, id string) (ActionResult, error) {
	code, err := s.codes()
	if err != nil {
		log.Error().Err(err).Msg("generate unique code failed")
		d, _ := s.drafts.Get(id)
		return ActionResult{Draft: d, Notifications: []domain.Notification{noteSubmitFailed}}, fmt.Errorf("generate code: %w", err)
	}

	var row domain.SubmittedReview
	d, err := s.drafts.Update(id, func(d *domain.ReviewDraft) (e error) {
		row, e = d.BeginSubmit(code)
		return e
	})
	if err != nil {
		return ActionResult{Draft: d}, err
	}

	start := time.Now()
	if err := s.repo.InsertReview(ctx, row); err != nil {
		ev := log.Error().Err(err).Str("draft", id)
		if errors.Is(err, domain.ErrConflict) {
			ev = ev.Bool("code_collision", true)
		}
		ev.Msg("submit review failed")
		observability.ObserveFlow("review", "submit_error")
		d, uerr := s.drafts.Update(id, func(d *domain.ReviewDraft) error { d.FailSubmit(); return nil })
		if uerr != nil {
			return ActionResult{}, uerr
		}
		return ActionResult{Draft: d, Notifications: []domain.Notification{noteSubmitFailed}}, asTransport(err)
	}

	d, err = s.drafts.Update(id, func(d *domain.ReviewDraft) error { d.CompleteSubmit(code); return nil })
	if err != nil {
		// the draft was discarded while the insert ran; the review is stored regardless
		log.Warn().Str("draft", id).Str("code", code).Msg("draft gone after submit")
		return ActionResult{}, err
	}
	log.Info().Str("draft", id).Str("business", row.BusinessName).Dur("took", time.Since(start)).Msg("review submitted")
	observability.ObserveFlow("review", "submitted")
	return ActionResult{Draft: d, Notifications: []domain.Notification{noteSubmitted}}, nil
}

// Share returns the copy-and-redirect instructions for a submitted review.
func (s *ReviewService) Share(id string) (ShareAction, error) {
	d, err := s.drafts.Get(id)
	if err != nil {
		return ShareAction{}, err
	}
	if d.State != domain.StateSubmitted {
		return ShareAction{}, fmt.Errorf("%w: review not submitted", domain.ErrInvalidState)
	}
	observability.ObserveFlow("review", "shared")
	return ShareAction{
		ClipboardText: d.Text,
		OpenURL:       s.cfg.ReviewSiteURL,
		Notifications: []domain.Notification{noteCopied},
	}, nil
}

// TakeSurvey clears the complaint flag and hands the draft to the survey
// launcher.
func (s *ReviewService) TakeSurvey(ctx context.Context, id string) (ActionResult, error) {
	d, err := s.drafts.Update(id, func(d *domain.ReviewDraft) error { return d.DismissComplaint() })
	if err != nil {
		return ActionResult{Draft: d}, err
	}
	if err := s.survey.LaunchSurvey(ctx, d); err != nil {
		log.Error().Err(err).Str("draft", id).Msg("launch survey failed")
		return ActionResult{Draft: d, Notifications: []domain.Notification{noteSurveyFailed}}, asTransport(err)
	}
	observability.ObserveFlow("review", "survey_started")
	return ActionResult{Draft: d}, nil
}

// SweepDrafts drops drafts idle for longer than ttl.
func (s *ReviewService) SweepDrafts(ttl time.Duration) int {
	n := s.drafts.Sweep(ttl)
	observability.OpenDrafts.Set(float64(s.drafts.Len()))
	return n
}

func asTransport(err error) error {
	if errors.Is(err, domain.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}
