package domain

import (
	"fmt"
	"strings"
)

type ReviewState int

const (
	StateEmpty ReviewState = iota
	StateDrafting
	StateRefining
	StateRefined
	StateSubmitting
	StateSubmitted
)

func (s ReviewState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateDrafting:
		return "drafting"
	case StateRefining:
		return "refining"
	case StateRefined:
		return "refined"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// InFlight is true while an outbound request owns the draft.
func (s ReviewState) InFlight() bool { return s == StateRefining || s == StateSubmitting }

// ReviewDraft is the unpersisted review of a single diner session.
type ReviewDraft struct {
	ID               string
	BusinessName     string
	Text             string
	State            ReviewState
	ComplaintFlagged bool
	Receipt          *ReceiptAnalysis
	PhotoURL         string
	UniqueCode       string

	// restored when a refinement fails
	prevState ReviewState
	prevFlag  bool
}

type SubmittedReview struct {
	ReviewText   string
	UniqueCode   string
	BusinessName string
	PhotoURL     *string
}

type RefineRequest struct {
	Review      string           `json:"review"`
	ReceiptData *ReceiptAnalysis `json:"receiptData"`
}

type RefineResponse struct {
	RefinedReview string `json:"refinedReview"`
	Error         string `json:"error,omitempty"`
}

// RefineOutcome tells the caller which branch a successful refinement took.
type RefineOutcome struct {
	Unchanged bool
	Complaint bool
}

func NewDraft(id, businessName string) ReviewDraft {
	return ReviewDraft{ID: id, BusinessName: businessName, State: StateEmpty}
}

func (d *ReviewDraft) checkIdle() error {
	if d.State.InFlight() {
		return ErrBusy
	}
	if d.State == StateSubmitted {
		return fmt.Errorf("%w: draft already submitted", ErrInvalidState)
	}
	return nil
}

func (d *ReviewDraft) Edit(text string) error {
	if err := d.checkIdle(); err != nil {
		return err
	}
	d.Text = text
	if d.State == StateRefined {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		d.State = StateEmpty
	} else {
		d.State = StateDrafting
	}
	return nil
}

func (d *ReviewDraft) AttachReceipt(r *ReceiptAnalysis, photoURL string) error {
	if err := d.checkIdle(); err != nil {
		return err
	}
	if r != nil {
		d.Receipt = r
	}
	if photoURL != "" {
		d.PhotoURL = photoURL
	}
	return nil
}

// BeginRefine moves the draft into Refining and returns the outbound request.
func (d *ReviewDraft) BeginRefine() (RefineRequest, error) {
	if err := d.checkIdle(); err != nil {
		return RefineRequest{}, err
	}
	if strings.TrimSpace(d.Text) == "" {
		return RefineRequest{}, fmt.Errorf("%w: review text is empty", ErrValidation)
	}
	d.prevState, d.prevFlag = d.State, d.ComplaintFlagged
	d.State = StateRefining
	d.ComplaintFlagged = false
	return RefineRequest{Review: d.Text, ReceiptData: d.Receipt}, nil
}

// CompleteRefine applies a refinement response. A response carrying an error
// flag reverts the draft and returns ErrService.
func (d *ReviewDraft) CompleteRefine(resp RefineResponse) (RefineOutcome, error) {
	if d.State != StateRefining {
		return RefineOutcome{}, fmt.Errorf("%w: not refining", ErrInvalidState)
	}
	if resp.Error != "" {
		d.FailRefine()
		return RefineOutcome{}, fmt.Errorf("%w: %s", ErrService, resp.Error)
	}
	var out RefineOutcome
	if resp.RefinedReview == "" || resp.RefinedReview == d.Text {
		out.Unchanged = true
	} else {
		d.Text = resp.RefinedReview
	}
	out.Complaint = ContainsComplaint(d.Text)
	d.ComplaintFlagged = out.Complaint
	d.State = StateRefined
	return out, nil
}

func (d *ReviewDraft) FailRefine() {
	if d.State != StateRefining {
		return
	}
	d.State, d.ComplaintFlagged = d.prevState, d.prevFlag
}

// BeginSubmit moves a refined draft into Submitting and returns the row to
// persist under code.
func (d *ReviewDraft) BeginSubmit(code string) (SubmittedReview, error) {
	if d.State.InFlight() {
		return SubmittedReview{}, ErrBusy
	}
	if d.State != StateRefined {
		return SubmittedReview{}, fmt.Errorf("%w: review must be refined before submitting", ErrInvalidState)
	}
	if strings.TrimSpace(d.Text) == "" {
		return SubmittedReview{}, fmt.Errorf("%w: review text is empty", ErrValidation)
	}
	d.State = StateSubmitting
	sr := SubmittedReview{ReviewText: d.Text, UniqueCode: code, BusinessName: d.BusinessName}
	if d.PhotoURL != "" {
		p := d.PhotoURL
		sr.PhotoURL = &p
	}
	return sr, nil
}

func (d *ReviewDraft) CompleteSubmit(code string) {
	if d.State != StateSubmitting {
		return
	}
	d.State = StateSubmitted
	d.UniqueCode = code
	// the survey offer only stands while the review is still refined
	d.ComplaintFlagged = false
}

func (d *ReviewDraft) FailSubmit() {
	if d.State != StateSubmitting {
		return
	}
	d.State = StateRefined
}

func (d *ReviewDraft) DismissComplaint() error {
	if !d.ComplaintFlagged {
		return fmt.Errorf("%w: no complaint flagged", ErrInvalidState)
	}
	d.ComplaintFlagged = false
	return nil
}
