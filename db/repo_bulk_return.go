package db

import (
	"context"
	"dive_center_rental/models"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// BulkReturnInput selects assignments either by basket or by id. LostIDs
// lists assignments to close as lost instead of returned.
type BulkReturnInput struct {
	BasketID         string
	AssignmentIDs    []string
	LostIDs          []string
	ActualReturnDate time.Time
	ReturnedBy       string
}

type ReturnFailure struct {
	AssignmentID string `json:"assignmentId"`
	Reason       string `json:"reason"`
}

type BulkReturnSummary struct {
	ReturnedCount        int             `json:"returnedCount"`
	LostCount            int             `json:"lostCount"`
	SkippedLostCount     int             `json:"skippedLostCount"`
	SkippedReturnedCount int             `json:"skippedReturnedCount"`
	Failures             []ReturnFailure `json:"failures"`
	SettledBaskets       []string        `json:"settledBaskets"`
}

type returnOutcome int

const (
	outcomeReturned returnOutcome = iota
	outcomeLost
	outcomeSkippedLost
	outcomeSkippedReturned
)

// BulkReturn closes many assignments in one transaction. Each assignment
// runs in its own savepoint: a caller-fixable failure is rolled back and
// reported in the summary while its siblings go through. Storage errors
// abort the whole call.
func (r *Repo) BulkReturn(ctx context.Context, in BulkReturnInput) (*BulkReturnSummary, error) {
	if in.ActualReturnDate.IsZero() {
		return nil, fmt.Errorf("%w: actual return date is required", models.ErrInvalidInput)
	}
	if in.BasketID == "" && len(in.AssignmentIDs) == 0 {
		return nil, fmt.Errorf("%w: basketId or assignmentIds is required", models.ErrInvalidInput)
	}
	lost := make(map[string]bool, len(in.LostIDs))
	for _, id := range in.LostIDs {
		lost[id] = true
	}

	var summary *BulkReturnSummary
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := &BulkReturnSummary{Failures: []ReturnFailure{}, SettledBaskets: []string{}}

		ids, owner, err := bulkTargets(tx, in)
		if err != nil {
			return err
		}
		if err := lockBaskets(tx, owner, in.BasketID); err != nil {
			return err
		}

		touched := map[string]bool{}
		for _, id := range ids {
			if in.BasketID != "" && owner[id] != in.BasketID {
				s.Failures = append(s.Failures, ReturnFailure{AssignmentID: id, Reason: "assignment is not on this basket"})
				continue
			}
			var outcome returnOutcome
			err := tx.Transaction(func(stx *gorm.DB) error {
				var err error
				outcome, err = settleOne(stx, id, lost[id], in.ActualReturnDate, in.ReturnedBy)
				return err
			})
			if err != nil {
				if !IsDomainError(err) {
					return err
				}
				s.Failures = append(s.Failures, ReturnFailure{AssignmentID: id, Reason: err.Error()})
				continue
			}
			switch outcome {
			case outcomeReturned:
				s.ReturnedCount++
			case outcomeLost:
				s.LostCount++
			case outcomeSkippedLost:
				s.SkippedLostCount++
			case outcomeSkippedReturned:
				s.SkippedReturnedCount++
			}
			if b := owner[id]; b != "" {
				touched[b] = true
			}
		}
		s.Failures = append(s.Failures, strayLostIDs(in.LostIDs, ids)...)
		if in.BasketID != "" {
			touched[in.BasketID] = true
		}

		for _, b := range sortedKeys(touched) {
			settled, err := settleBasket(tx, b, in.ActualReturnDate)
			if err != nil {
				return err
			}
			if settled {
				s.SettledBaskets = append(s.SettledBaskets, b)
			}
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// bulkTargets lists the assignment ids to process and maps each to its
// basket.
func bulkTargets(tx *gorm.DB, in BulkReturnInput) ([]string, map[string]string, error) {
	type ref struct {
		ID       string
		BasketID *string
	}
	var refs []ref
	qry := tx.Model(&models.Assignment{}).Select("id, basket_id")
	if len(in.AssignmentIDs) > 0 {
		qry = qry.Where("id IN ?", in.AssignmentIDs)
	} else {
		var b models.Basket
		if err := first(tx, &b, "basket", in.BasketID); err != nil {
			return nil, nil, err
		}
		qry = qry.Where("basket_id = ?", in.BasketID)
	}
	if err := qry.Order("created_at, id").Scan(&refs).Error; err != nil {
		return nil, nil, err
	}

	owner := make(map[string]string, len(refs))
	var ids []string
	for _, r := range refs {
		if r.BasketID != nil {
			owner[r.ID] = *r.BasketID
		} else {
			owner[r.ID] = ""
		}
		ids = append(ids, r.ID)
	}
	if len(in.AssignmentIDs) == 0 {
		return ids, owner, nil
	}

	// keep the caller's order and surface unknown ids as failures later
	seen := map[string]bool{}
	ids = make([]string, 0, len(in.AssignmentIDs))
	for _, id := range in.AssignmentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, owner, nil
}

// strayLostIDs reports lost ids outside the processed set so the loss is
// not dropped silently.
func strayLostIDs(lostIDs, processed []string) []ReturnFailure {
	in := make(map[string]bool, len(processed))
	for _, id := range processed {
		in[id] = true
	}
	var out []ReturnFailure
	for _, id := range lostIDs {
		if in[id] {
			continue
		}
		in[id] = true
		out = append(out, ReturnFailure{AssignmentID: id, Reason: "lost id is not part of this return"})
	}
	return out
}

func lockBaskets(tx *gorm.DB, owner map[string]string, basketID string) error {
	set := map[string]bool{}
	if basketID != "" {
		set[basketID] = true
	}
	for _, b := range owner {
		if b != "" {
			set[b] = true
		}
	}
	for _, id := range sortedKeys(set) {
		var b models.Basket
		if err := first(forUpdate(tx), &b, "basket", id); err != nil {
			return err
		}
	}
	return nil
}

func settleOne(tx *gorm.DB, id string, markLost bool, actual time.Time, by string) (returnOutcome, error) {
	var a models.Assignment
	if err := first(forUpdate(tx), &a, "assignment", id); err != nil {
		return 0, err
	}
	switch a.Status {
	case models.AssignmentLost:
		return outcomeSkippedLost, nil
	case models.AssignmentReturned:
		if markLost {
			return 0, a.Status.TransitionTo(models.AssignmentLost)
		}
		return outcomeSkippedReturned, nil
	case models.AssignmentPending:
		return 0, fmt.Errorf("%w: assignment was never checked out", models.ErrInvalidStateTransition)
	case models.AssignmentCheckedOut:
	}

	if markLost {
		if err := applyTransition(tx, &a, Transition{To: models.AssignmentLost, By: by}); err != nil {
			return 0, err
		}
		return outcomeLost, nil
	}
	if err := applyTransition(tx, &a, Transition{To: models.AssignmentReturned, ActualReturnDate: actual, By: by}); err != nil {
		return 0, err
	}
	return outcomeReturned, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
