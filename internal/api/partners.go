package api

import (
	"net/http"

	"github.com/Victor-talka/talka-history/internal/services"

	"github.com/gin-gonic/gin"
)

// CreatePartner registers a partner
func (h *Handler) CreatePartner(c *gin.Context) {
	var in services.CreatePartnerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	partner, err := h.partnerService.CreatePartner(c.Request.Context(), in)
	if err != nil {
		h.serviceError(c, "Failed to create partner", err)
		return
	}
	c.JSON(http.StatusCreated, partner)
}

// ListPartners lists all partners
func (h *Handler) ListPartners(c *gin.Context) {
	partners, err := h.partnerService.ListPartners(c.Request.Context())
	if err != nil {
		h.serviceError(c, "Failed to list partners", err)
		return
	}
	c.JSON(http.StatusOK, partners)
}

// GetPartner returns a partner with its stats
func (h *Handler) GetPartner(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid partner ID", nil)
		return
	}

	details, err := h.partnerService.GetPartner(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to get partner", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// CreateSale registers a pending sale
func (h *Handler) CreateSale(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid partner ID", nil)
		return
	}

	var in services.CreateSaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := h.partnerService.CreateSale(c.Request.Context(), id, in)
	if err != nil {
		h.serviceError(c, "Failed to create sale", err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// ListSales lists a partner's sales
func (h *Handler) ListSales(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid partner ID", nil)
		return
	}

	sales, err := h.partnerService.ListSales(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to list sales", err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// ConfirmSale confirms a sale and creates its commission
func (h *Handler) ConfirmSale(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid sale ID", nil)
		return
	}

	confirmation, err := h.partnerService.ConfirmSale(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to confirm sale", err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

// ListCommissions lists a partner's commissions
func (h *Handler) ListCommissions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid partner ID", nil)
		return
	}

	commissions, err := h.partnerService.ListCommissions(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to list commissions", err)
		return
	}
	c.JSON(http.StatusOK, commissions)
}

// PayCommission marks a commission as paid
func (h *Handler) PayCommission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid commission ID", nil)
		return
	}

	commission, err := h.partnerService.PayCommission(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to pay commission", err)
		return
	}
	c.JSON(http.StatusOK, commission)
}

// AddPaymentMethod stores a payment method for a partner
func (h *Handler) AddPaymentMethod(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid partner ID", nil)
		return
	}

	var in services.PaymentMethodInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	method, err := h.partnerService.AddPaymentMethod(c.Request.Context(), id, in)
	if err != nil {
		h.serviceError(c, "Failed to add payment method", err)
		return
	}
	c.JSON(http.StatusCreated, method)
}

// ListPaymentMethods lists a partner's payment methods
func (h *Handler) ListPaymentMethods(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid partner ID", nil)
		return
	}

	methods, err := h.partnerService.ListPaymentMethods(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to list payment methods", err)
		return
	}
	c.JSON(http.StatusOK, methods)
}
