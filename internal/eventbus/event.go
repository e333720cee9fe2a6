package eventbus

import "time"

// Event types published by the negotiation workflow.
const (
	TypeOfferCreated        = "offer_created"
	TypeOfferAccepted       = "offer_accepted"
	TypeOfferRejected       = "offer_rejected"
	TypeNegotiationStarted  = "negotiation_started"
	TypeNegotiationAccepted = "negotiation_accepted"
	TypeProofRequested      = "proof_requested"
	TypeProofSubmitted      = "proof_submitted"
	TypeProofApproved       = "proof_approved"
	TypeProofRejected       = "proof_rejected"
	TypeEscrowCreated       = "escrow_created"
)

// Event is the wire-stable payload delivered to subscribers:
// {type, id, subject_id, message, modified_at}. ID is unique per event;
// SubjectID names the offer/negotiation/proof/escrow row it describes.
type Event struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	SubjectID  string    `json:"subject_id"`
	Message    string    `json:"message"`
	ModifiedAt time.Time `json:"modified_at"`
}
