package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/peermarket/backend/internal/eventbus"
	"github.com/peermarket/backend/internal/model"
	"github.com/peermarket/backend/internal/repository"
	"gorm.io/gorm"
)

// NegotiationService owns the offer / price-negotiation / proof / escrow
// state machine. Every operation runs inside one database transaction
// covering all of its side effects, mirrored conversation messages included;
// events describing committed outcomes are published afterwards.
type NegotiationService interface {
	CreateOffer(ctx context.Context, postID uint64, makerUID, title, description string, price float64, isPublic bool) (*model.Offer, error)
	Negotiate(ctx context.Context, offerID uint64, actorUID string, proposedPrice float64, message string) (*model.PriceNegotiation, error)
	AcceptOffer(ctx context.Context, offerID uint64, actorUID string) (*model.Offer, error)
	AcceptCounterOffer(ctx context.Context, offerID uint64, actorUID string) (*model.Offer, error)
	RejectOffer(ctx context.Context, offerID uint64, actorUID string) (*model.Offer, error)
	RequestProof(ctx context.Context, offerID uint64, actorUID, note string) error
	SubmitProof(ctx context.Context, offerID uint64, actorUID, imageURL, description string) (*model.ProductProof, error)
	ApproveProof(ctx context.Context, proofID uint64, actorUID string) (*model.ProductProof, error)
	RejectProof(ctx context.Context, proofID uint64, actorUID string) (*model.ProductProof, error)
	CreateEscrow(ctx context.Context, offerID uint64, actorUID string, amount float64) (*model.EscrowTransaction, error)
}

type negotiationService struct {
	db           *gorm.DB
	posts        repository.PostRepository
	offers       repository.OfferRepository
	negotiations repository.NegotiationRepository
	proofs       repository.ProofRepository
	escrows      repository.EscrowRepository
	convs        repository.ConversationRepository
	bus          eventbus.Publisher
}

func NewNegotiationService(
	db *gorm.DB,
	posts repository.PostRepository,
	offers repository.OfferRepository,
	negotiations repository.NegotiationRepository,
	proofs repository.ProofRepository,
	escrows repository.EscrowRepository,
	convs repository.ConversationRepository,
	bus eventbus.Publisher,
) NegotiationService {
	return &negotiationService{
		db:           db,
		posts:        posts,
		offers:       offers,
		negotiations: negotiations,
		proofs:       proofs,
		escrows:      escrows,
		convs:        convs,
		bus:          bus,
	}
}

// pendingEvent is an outcome event held back until the transaction commits.
type pendingEvent struct {
	topic string
	ev    eventbus.Event
}

// errLostRace marks a guarded status update that matched no rows. The caller
// rolls back and reloads on a fresh connection; inside the transaction a
// repeatable-read re-read would still report the pre-race snapshot.
var errLostRace = errors.New("offer status changed concurrently")

func outcome(typ string, subjectID uint64, message string) eventbus.Event {
	return eventbus.Event{
		Type:       typ,
		ID:         uuid.NewString(),
		SubjectID:  strconv.FormatUint(subjectID, 10),
		Message:    message,
		ModifiedAt: time.Now().UTC(),
	}
}

func postTopic(postID uint64) string {
	return fmt.Sprintf("post:%d", postID)
}

func userTopic(uid string) string {
	return "user:" + uid
}

func (s *negotiationService) publishAll(events []pendingEvent) {
	for _, e := range events {
		s.bus.Publish(e.topic, e.ev)
	}
}

func (s *negotiationService) CreateOffer(ctx context.Context, postID uint64, makerUID, title, description string, price float64, isPublic bool) (*model.Offer, error) {
	var offer *model.Offer
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := s.posts.WithTx(tx).FindByID(ctx, postID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if post.OwnerUID == makerUID {
			return ErrInvalidState
		}
		offer = &model.Offer{
			PostID:            postID,
			MakerUID:          makerUID,
			Title:             title,
			Description:       description,
			Price:             price,
			OriginalPrice:     price,
			IsPublic:          isPublic,
			Status:            model.OfferStatusPending,
			NegotiationStatus: model.NegotiationPhaseIdle,
		}
		if err := s.offers.WithTx(tx).Create(ctx, offer); err != nil {
			return err
		}
		ev := outcome(eventbus.TypeOfferCreated, offer.ID, fmt.Sprintf("New offer on your request (%.2f)", price))
		events = append(events,
			pendingEvent{postTopic(postID), ev},
			pendingEvent{userTopic(post.OwnerUID), ev},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishAll(events)
	return offer, nil
}

func (s *negotiationService) Negotiate(ctx context.Context, offerID uint64, actorUID string, proposedPrice float64, message string) (*model.PriceNegotiation, error) {
	var neg *model.PriceNegotiation
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, post, err := s.loadOfferAndPost(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if actorUID != offer.MakerUID && actorUID != post.OwnerUID {
			return ErrUnauthorized
		}
		if offer.Status != model.OfferStatusPending {
			return ErrInvalidState
		}
		if err := s.offers.WithTx(tx).UpdateNegotiationPhase(ctx, offerID, model.NegotiationPhaseInProgress); err != nil {
			return err
		}
		neg = &model.PriceNegotiation{
			OfferID:       offerID,
			ProposerUID:   actorUID,
			ProposedPrice: proposedPrice,
			Message:       message,
			Status:        model.NegotiationStatusPending,
		}
		if err := s.negotiations.WithTx(tx).Create(ctx, neg); err != nil {
			return err
		}
		body := message
		if body == "" {
			body = fmt.Sprintf("Proposed a new price: %.2f", proposedPrice)
		}
		if err := s.mirror(ctx, tx, post, offer, actorUID, model.ContextTypeNegotiation, neg.ID, body, map[string]any{
			"offer_id":       offer.ID,
			"offer_status":   string(model.OfferStatusPending),
			"proposed_price": proposedPrice,
		}); err != nil {
			return err
		}
		counterparty := offer.MakerUID
		if actorUID == offer.MakerUID {
			counterparty = post.OwnerUID
		}
		ev := outcome(eventbus.TypeNegotiationStarted, offer.ID, fmt.Sprintf("Counter-offer: %.2f", proposedPrice))
		events = append(events,
			pendingEvent{postTopic(post.ID), ev},
			pendingEvent{userTopic(counterparty), ev},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishAll(events)
	return neg, nil
}

func (s *negotiationService) AcceptOffer(ctx context.Context, offerID uint64, actorUID string) (*model.Offer, error) {
	return s.accept(ctx, offerID, actorUID, false)
}

// AcceptCounterOffer is the maker-side acceptance of the owner's counter:
// the same cascade as AcceptOffer, plus the offer price moves to the
// accepted negotiation's proposed price.
func (s *negotiationService) AcceptCounterOffer(ctx context.Context, offerID uint64, actorUID string) (*model.Offer, error) {
	return s.accept(ctx, offerID, actorUID, true)
}

func (s *negotiationService) accept(ctx context.Context, offerID uint64, actorUID string, counter bool) (*model.Offer, error) {
	var result *model.Offer
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offers := s.offers.WithTx(tx)
		negs := s.negotiations.WithTx(tx)

		offer, post, err := s.loadOfferAndPost(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if counter {
			if actorUID != offer.MakerUID {
				return ErrUnauthorized
			}
		} else if actorUID != post.OwnerUID {
			return ErrUnauthorized
		}

		// The guarded update is the race arbiter: a concurrent acceptance
		// leaves zero rows and the loser reports the current status.
		rows, err := offers.AcceptIfPending(ctx, offerID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errLostRace
		}

		// Accept the most recent pending negotiation, if any; its pending
		// siblings are rejected in the same breath.
		var acceptedPrice *float64
		latest, err := negs.LatestPending(ctx, offerID)
		switch {
		case err == nil:
			if err := negs.UpdateStatus(ctx, latest.ID, model.NegotiationStatusAccepted); err != nil {
				return err
			}
			if _, err := negs.RejectPendingByOffer(ctx, offerID, latest.ID); err != nil {
				return err
			}
			acceptedPrice = &latest.ProposedPrice
		case errors.Is(err, gorm.ErrRecordNotFound):
			if counter {
				// Nothing to counter-accept.
				result = offer
				return ErrInvalidState
			}
		default:
			return err
		}

		if counter && acceptedPrice != nil {
			if err := offers.UpdatePrice(ctx, offerID, *acceptedPrice); err != nil {
				return err
			}
		}

		// Every rival pending offer on the post is rejected, together with
		// all of its pending negotiations, and each rejection is mirrored.
		rivals, err := offers.ListPendingByPost(ctx, post.ID, offerID)
		if err != nil {
			return err
		}
		for i := range rivals {
			rival := &rivals[i]
			if err := offers.UpdateStatus(ctx, rival.ID, model.OfferStatusRejected); err != nil {
				return err
			}
			if _, err := negs.RejectPendingByOffer(ctx, rival.ID, 0); err != nil {
				return err
			}
			if err := s.mirror(ctx, tx, post, rival, post.OwnerUID, model.ContextTypeOffer, rival.ID,
				"Another offer was accepted for this request.", map[string]any{
					"offer_id":           rival.ID,
					"offer_status":       string(model.OfferStatusRejected),
					"negotiation_status": string(model.NegotiationStatusRejected),
				}); err != nil {
				return err
			}
			ev := outcome(eventbus.TypeOfferRejected, rival.ID, "Your offer was not selected.")
			events = append(events, pendingEvent{userTopic(rival.MakerUID), ev})
		}

		if err := s.posts.WithTx(tx).UpdateStatus(ctx, post.ID, model.RequestStatusFulfilled); err != nil {
			return err
		}

		result, err = offers.FindByID(ctx, offerID)
		if err != nil {
			return err
		}
		meta := map[string]any{
			"offer_id":     result.ID,
			"offer_status": string(model.OfferStatusAccepted),
			"price":        result.Price,
		}
		if acceptedPrice != nil {
			meta["accepted_negotiation_price"] = *acceptedPrice
		}
		if err := s.mirror(ctx, tx, post, result, actorUID, model.ContextTypeOffer, result.ID,
			fmt.Sprintf("Offer accepted at %.2f.", result.Price), meta); err != nil {
			return err
		}

		typ := eventbus.TypeOfferAccepted
		if counter {
			typ = eventbus.TypeNegotiationAccepted
		}
		counterparty := offer.MakerUID
		if counter {
			counterparty = post.OwnerUID
		}
		ev := outcome(typ, result.ID, fmt.Sprintf("Offer accepted at %.2f.", result.Price))
		events = append(events,
			pendingEvent{postTopic(post.ID), ev},
			pendingEvent{userTopic(counterparty), ev},
		)
		return nil
	})
	if err != nil {
		if errors.Is(err, errLostRace) {
			return s.reloadAfterLostRace(ctx, offerID)
		}
		// result carries the authoritative status when the race was lost.
		return result, err
	}
	s.publishAll(events)
	return result, nil
}

// reloadAfterLostRace reads the offer outside the rolled-back transaction so
// the caller sees the winner's committed status.
func (s *negotiationService) reloadAfterLostRace(ctx context.Context, offerID uint64) (*model.Offer, error) {
	cur, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cur, ErrInvalidState
}

func (s *negotiationService) RejectOffer(ctx context.Context, offerID uint64, actorUID string) (*model.Offer, error) {
	var result *model.Offer
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offers := s.offers.WithTx(tx)
		offer, post, err := s.loadOfferAndPost(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if actorUID != post.OwnerUID {
			return ErrUnauthorized
		}
		rows, err := offers.RejectIfPending(ctx, offerID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errLostRace
		}
		result, err = offers.FindByID(ctx, offerID)
		if err != nil {
			return err
		}
		if err := s.mirror(ctx, tx, post, result, actorUID, model.ContextTypeOffer, result.ID,
			"Offer declined.", map[string]any{
				"offer_id":     result.ID,
				"offer_status": string(model.OfferStatusRejected),
			}); err != nil {
			return err
		}
		ev := outcome(eventbus.TypeOfferRejected, result.ID, "Your offer was declined.")
		events = append(events, pendingEvent{userTopic(offer.MakerUID), ev})
		return nil
	})
	if err != nil {
		if errors.Is(err, errLostRace) {
			return s.reloadAfterLostRace(ctx, offerID)
		}
		return result, err
	}
	s.publishAll(events)
	return result, nil
}

func (s *negotiationService) RequestProof(ctx context.Context, offerID uint64, actorUID, note string) error {
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, post, err := s.loadOfferAndPost(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if actorUID != post.OwnerUID {
			return ErrUnauthorized
		}
		shell := &model.ProductProof{
			OfferID:      offerID,
			SubmitterUID: offer.MakerUID,
			Status:       model.ProofStatusRequested,
		}
		if err := s.proofs.WithTx(tx).Create(ctx, shell); err != nil {
			return err
		}
		body := note
		if body == "" {
			body = "Please share a proof of the product."
		}
		if err := s.mirror(ctx, tx, post, offer, actorUID, model.ContextTypeProof, shell.ID, body, map[string]any{
			"offer_id":     offer.ID,
			"proof_id":     shell.ID,
			"proof_status": string(model.ProofStatusRequested),
		}); err != nil {
			return err
		}
		ev := outcome(eventbus.TypeProofRequested, shell.ID, "Proof of product requested.")
		events = append(events, pendingEvent{userTopic(offer.MakerUID), ev})
		return nil
	})
	if err != nil {
		return err
	}
	s.publishAll(events)
	return nil
}

func (s *negotiationService) SubmitProof(ctx context.Context, offerID uint64, actorUID, imageURL, description string) (*model.ProductProof, error) {
	var proof *model.ProductProof
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, post, err := s.loadOfferAndPost(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if actorUID != offer.MakerUID {
			return ErrUnauthorized
		}
		proofs := s.proofs.WithTx(tx)
		// An outstanding requested shell is filled in place; otherwise the
		// submission is unsolicited and gets its own row.
		shell, err := proofs.LatestRequested(ctx, offerID)
		switch {
		case err == nil:
			rows, err := proofs.FillRequested(ctx, shell.ID, imageURL, description)
			if err != nil {
				return err
			}
			if rows > 0 {
				if proof, err = proofs.FindByID(ctx, shell.ID); err != nil {
					return err
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
		if proof == nil {
			proof = &model.ProductProof{
				OfferID:      offerID,
				SubmitterUID: actorUID,
				ImageURL:     imageURL,
				Description:  description,
				Status:       model.ProofStatusPending,
			}
			if err := proofs.Create(ctx, proof); err != nil {
				return err
			}
		}
		if err := s.mirror(ctx, tx, post, offer, actorUID, model.ContextTypeProof, proof.ID,
			"Submitted a proof of the product.", map[string]any{
				"offer_id":     offer.ID,
				"proof_id":     proof.ID,
				"proof_status": string(model.ProofStatusPending),
				"image_url":    imageURL,
			}); err != nil {
			return err
		}
		ev := outcome(eventbus.TypeProofSubmitted, proof.ID, "A proof was submitted for your request.")
		events = append(events, pendingEvent{userTopic(post.OwnerUID), ev})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishAll(events)
	return proof, nil
}

func (s *negotiationService) ApproveProof(ctx context.Context, proofID uint64, actorUID string) (*model.ProductProof, error) {
	return s.reviewProof(ctx, proofID, actorUID, model.ProofStatusApproved)
}

func (s *negotiationService) RejectProof(ctx context.Context, proofID uint64, actorUID string) (*model.ProductProof, error) {
	return s.reviewProof(ctx, proofID, actorUID, model.ProofStatusRejected)
}

func (s *negotiationService) reviewProof(ctx context.Context, proofID uint64, actorUID string, verdict model.ProofStatus) (*model.ProductProof, error) {
	var proof *model.ProductProof
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proofs := s.proofs.WithTx(tx)
		p, err := proofs.FindByID(ctx, proofID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		offer, post, err := s.loadOfferAndPost(ctx, tx, p.OfferID)
		if err != nil {
			return err
		}
		if actorUID != post.OwnerUID {
			return ErrUnauthorized
		}
		if p.Status != model.ProofStatusPending {
			proof = p
			return ErrInvalidState
		}
		if err := proofs.UpdateStatus(ctx, proofID, verdict); err != nil {
			return err
		}
		proof, err = proofs.FindByID(ctx, proofID)
		if err != nil {
			return err
		}
		body := "Proof approved."
		typ := eventbus.TypeProofApproved
		if verdict == model.ProofStatusRejected {
			body = "Proof rejected, please submit another one."
			typ = eventbus.TypeProofRejected
		}
		if err := s.mirror(ctx, tx, post, offer, actorUID, model.ContextTypeProof, proof.ID, body, map[string]any{
			"offer_id":     offer.ID,
			"proof_id":     proof.ID,
			"proof_status": string(verdict),
		}); err != nil {
			return err
		}
		ev := outcome(typ, proof.ID, body)
		events = append(events, pendingEvent{userTopic(offer.MakerUID), ev})
		return nil
	})
	if err != nil {
		return proof, err
	}
	s.publishAll(events)
	return proof, nil
}

func (s *negotiationService) CreateEscrow(ctx context.Context, offerID uint64, actorUID string, amount float64) (*model.EscrowTransaction, error) {
	var escrow *model.EscrowTransaction
	var events []pendingEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, post, err := s.loadOfferAndPost(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if actorUID != post.OwnerUID {
			return ErrUnauthorized
		}
		escrow = &model.EscrowTransaction{
			OfferID:   offerID,
			BuyerUID:  post.OwnerUID,
			SellerUID: offer.MakerUID,
			Amount:    amount,
			Status:    model.EscrowStatusHeld,
		}
		if err := s.escrows.WithTx(tx).Create(ctx, escrow); err != nil {
			return err
		}
		if err := s.mirror(ctx, tx, post, offer, actorUID, model.ContextTypeEscrow, escrow.ID,
			fmt.Sprintf("Funds of %.2f are now held in escrow.", amount), map[string]any{
				"offer_id":      offer.ID,
				"escrow_id":     escrow.ID,
				"escrow_status": string(model.EscrowStatusHeld),
				"amount":        amount,
			}); err != nil {
			return err
		}
		ev := outcome(eventbus.TypeEscrowCreated, escrow.ID, fmt.Sprintf("Escrow of %.2f created.", amount))
		events = append(events, pendingEvent{userTopic(offer.MakerUID), ev})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishAll(events)
	return escrow, nil
}

// loadOfferAndPost resolves the offer and its post, translating missing rows
// to ErrNotFound.
func (s *negotiationService) loadOfferAndPost(ctx context.Context, tx *gorm.DB, offerID uint64) (*model.Offer, *model.Post, error) {
	offer, err := s.offers.WithTx(tx).FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	post, err := s.posts.WithTx(tx).FindByID(ctx, offer.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return offer, post, nil
}

// mirror writes the status change into the negotiation conversation between
// the post owner and the offer maker, inside the caller's transaction.
func (s *negotiationService) mirror(ctx context.Context, tx *gorm.DB, post *model.Post, offer *model.Offer, senderUID, contextType string, contextID uint64, body string, meta map[string]any) error {
	convs := s.convs.WithTx(tx)
	cv, err := convs.FindOrCreate(ctx, post.ID, post.OwnerUID, offer.MakerUID)
	if err != nil {
		return err
	}
	msg := &model.Message{
		ConversationID: cv.ID,
		SenderUID:      senderUID,
		Body:           body,
		ContextType:    contextType,
		ContextID:      contextID,
	}
	if err := msg.SetMetadata(meta); err != nil {
		return err
	}
	return convs.CreateMessage(ctx, msg)
}
