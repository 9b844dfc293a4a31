package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/middleware"
	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/storage"
)

// DisputeHandler owns the complaint ticket endpoints.
type DisputeHandler struct {
	store storage.Store
}

// NewDisputeHandler creates the dispute endpoint group.
func NewDisputeHandler(store storage.Store) *DisputeHandler {
	return &DisputeHandler{store: store}
}

// callerRef builds the authenticated caller's party reference from locals.
func callerRef(c *fiber.Ctx) models.PartyRef {
	return models.PartyRef{
		Kind: middleware.UserType(c),
		ID:   middleware.UserID(c),
	}
}

// Create opens a dispute against another party. The complainant is always
// the authenticated caller.
func (h *DisputeHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Subject     string          `json:"subject"`
		Description string          `json:"description"`
		Respondent  models.PartyRef `json:"respondent"`
	}
	if err := c.BodyParser(&req); err != nil || req.Subject == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "subject is required"})
	}
	if err := req.Respondent.Validate(); err != nil || req.Respondent.ID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "respondent kind and id are required"})
	}

	complainant := callerRef(c)
	if err := complainant.Validate(); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unknown caller identity"})
	}

	dispute, err := h.store.CreateDispute(&models.Dispute{
		Subject:     req.Subject,
		Description: req.Description,
		Status:      models.DisputeStatusOpen,
		Complainant: complainant,
		Respondent:  req.Respondent,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Dispute created", "dispute": dispute})
}

// List returns every dispute.
func (h *DisputeHandler) List(c *fiber.Ctx) error {
	disputes, err := h.store.ListDisputes()
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(disputes), "disputes": disputes})
}

// Get returns one dispute with its reply thread.
func (h *DisputeHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dispute id"})
	}
	dispute, err := h.store.GetDispute(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"dispute": dispute})
}

// Reply appends a message to a dispute thread.
func (h *DisputeHandler) Reply(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dispute id"})
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
	}

	if _, err := h.store.GetDispute(uint(id)); err != nil {
		return respondServiceError(c, err)
	}

	reply, err := h.store.CreateDisputeReply(&models.DisputeReply{
		DisputeID: uint(id),
		Replier:   callerRef(c),
		Message:   req.Message,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Reply added", "reply": reply})
}

// UpdateStatus moves a dispute between open, resolved, and closed.
func (h *DisputeHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dispute id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	switch req.Status {
	case models.DisputeStatusOpen, models.DisputeStatusResolved, models.DisputeStatusClosed:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "status must be open, resolved, or closed",
		})
	}

	dispute, err := h.store.GetDispute(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	dispute.Status = req.Status
	if err := h.store.UpdateDispute(dispute); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Dispute status updated", "dispute": dispute})
}
