package lending

import (
	"context"
	"fmt"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// RequestCard opens a pending library card valid for the policy's validity
// period starting today. A student holds at most one card at a time.
func (s *Service) RequestCard(ctx context.Context, studentID uint) (*entities.LibraryCard, error) {
	const op = "request card"
	if studentID == 0 {
		return nil, withOp(op, Validation("student_id is required"))
	}

	var card entities.LibraryCard
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetStudent(studentID); err != nil {
			return err
		}
		existing, err := tx.FindCardByStudent(studentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return DuplicateCard(studentID)
		}

		start := s.today()
		card = entities.LibraryCard{
			StudentID: studentID,
			StartDate: start,
			EndDate:   start.AddYears(s.policy.CardValidityYears),
			Status:    entities.CardStatusPending,
		}
		return tx.CreateCard(&card)
	})
	if err != nil {
		return nil, withOp(op, err)
	}

	s.audit(entities.AuditEventCard, "card_request", "library_card", card.ID,
		fmt.Sprintf("Student %d requested a library card", studentID), nil)
	return &card, nil
}

// AcceptCard moves a pending card to accepted.
func (s *Service) AcceptCard(ctx context.Context, cardID uint) (*entities.LibraryCard, error) {
	return s.updateCard(ctx, "accept card", "card_accept", cardID, func(card *entities.LibraryCard) error {
		if card.Status != entities.CardStatusPending {
			return InvalidState("card %d is already %s", card.ID, card.Status)
		}
		card.Status = entities.CardStatusAccepted
		return nil
	})
}

// ExtendCard pushes the end date of an accepted card by the validity period,
// counted from the current end date.
func (s *Service) ExtendCard(ctx context.Context, cardID uint) (*entities.LibraryCard, error) {
	return s.updateCard(ctx, "extend card", "card_extend", cardID, func(card *entities.LibraryCard) error {
		if card.Status != entities.CardStatusAccepted {
			return InvalidState("card %d must be accepted before it can be extended", card.ID)
		}
		card.EndDate = card.EndDate.AddYears(s.policy.CardValidityYears)
		return nil
	})
}

// DeleteCard soft-deletes a card, freeing the student to request a new one.
func (s *Service) DeleteCard(ctx context.Context, cardID uint) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetCard(cardID); err != nil {
			return err
		}
		return tx.DeleteCard(cardID)
	})
	if err != nil {
		return withOp("delete card", err)
	}
	s.audit(entities.AuditEventCard, "card_delete", "library_card", cardID, "Deleted library card", nil)
	return nil
}

func (s *Service) updateCard(ctx context.Context, op, action string, cardID uint, mutate func(*entities.LibraryCard) error) (*entities.LibraryCard, error) {
	var card *entities.LibraryCard
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		card, err = tx.GetCard(cardID)
		if err != nil {
			return err
		}
		if err := mutate(card); err != nil {
			return err
		}
		return tx.UpdateCard(card)
	})
	if err != nil {
		return nil, withOp(op, err)
	}

	s.audit(entities.AuditEventCard, action, "library_card", cardID,
		fmt.Sprintf("Card %d is %s until %s", card.ID, card.Status, card.EndDate), nil)
	return card, nil
}
