package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/peermarket/backend/internal/model"
	"github.com/peermarket/backend/internal/service"
)

type OfferHandler struct {
	svc service.NegotiationService
}

func NewOfferHandler(svc service.NegotiationService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

func requireUID(c echo.Context) (string, bool) {
	uid, _ := c.Get("uid").(string)
	return uid, uid != ""
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func offerStatus(o *model.Offer) string {
	if o == nil {
		return ""
	}
	return string(o.Status)
}

func (h *OfferHandler) Create(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	postID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid post id"))
	}
	var body struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		IsPublic    *bool   `json:"isPublic"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if body.Price <= 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "price must be positive"))
	}
	isPublic := true
	if body.IsPublic != nil {
		isPublic = *body.IsPublic
	}
	offer, err := h.svc.CreateOffer(c.Request().Context(), postID, uid, body.Title, body.Description, body.Price, isPublic)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusCreated, offer)
}

func (h *OfferHandler) Negotiate(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid offer id"))
	}
	var body struct {
		ProposedPrice float64 `json:"proposedPrice"`
		Message       string  `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if body.ProposedPrice <= 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "proposedPrice must be positive"))
	}
	neg, err := h.svc.Negotiate(c.Request().Context(), offerID, uid, body.ProposedPrice, body.Message)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusCreated, neg)
}

func (h *OfferHandler) Accept(c echo.Context) error {
	return h.decide(c, func(c echo.Context, offerID uint64, uid string) (*model.Offer, error) {
		return h.svc.AcceptOffer(c.Request().Context(), offerID, uid)
	})
}

func (h *OfferHandler) AcceptCounter(c echo.Context) error {
	return h.decide(c, func(c echo.Context, offerID uint64, uid string) (*model.Offer, error) {
		return h.svc.AcceptCounterOffer(c.Request().Context(), offerID, uid)
	})
}

func (h *OfferHandler) Reject(c echo.Context) error {
	return h.decide(c, func(c echo.Context, offerID uint64, uid string) (*model.Offer, error) {
		return h.svc.RejectOffer(c.Request().Context(), offerID, uid)
	})
}

func (h *OfferHandler) decide(c echo.Context, op func(echo.Context, uint64, string) (*model.Offer, error)) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid offer id"))
	}
	offer, err := op(c, offerID, uid)
	if err != nil {
		return serviceError(c, err, offerStatus(offer))
	}
	return c.JSON(http.StatusOK, offer)
}

func (h *OfferHandler) RequestProof(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid offer id"))
	}
	var body struct {
		Note string `json:"note"`
	}
	_ = c.Bind(&body)
	if err := h.svc.RequestProof(c.Request().Context(), offerID, uid, body.Note); err != nil {
		return serviceError(c, err, "")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *OfferHandler) SubmitProof(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid offer id"))
	}
	var body struct {
		ImageURL    string `json:"imageUrl"`
		Description string `json:"description"`
	}
	if err := c.Bind(&body); err != nil || body.ImageURL == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "imageUrl is required"))
	}
	proof, err := h.svc.SubmitProof(c.Request().Context(), offerID, uid, body.ImageURL, body.Description)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusCreated, proof)
}

func (h *OfferHandler) ApproveProof(c echo.Context) error {
	return h.reviewProof(c, true)
}

func (h *OfferHandler) RejectProof(c echo.Context) error {
	return h.reviewProof(c, false)
}

func (h *OfferHandler) reviewProof(c echo.Context, approve bool) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	proofID, err := pathID(c, "proofId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid proof id"))
	}
	var proof *model.ProductProof
	if approve {
		proof, err = h.svc.ApproveProof(c.Request().Context(), proofID, uid)
	} else {
		proof, err = h.svc.RejectProof(c.Request().Context(), proofID, uid)
	}
	if err != nil {
		status := ""
		if proof != nil {
			status = string(proof.Status)
		}
		return serviceError(c, err, status)
	}
	return c.JSON(http.StatusOK, proof)
}

func (h *OfferHandler) CreateEscrow(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	offerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid offer id"))
	}
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := c.Bind(&body); err != nil || body.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "amount must be positive"))
	}
	escrow, err := h.svc.CreateEscrow(c.Request().Context(), offerID, uid, body.Amount)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusCreated, escrow)
}
