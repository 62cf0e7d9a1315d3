package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Rule gate headers.
const (
	HeaderRule     = "X-POS-Rule"
	HeaderPassword = "X-POS-Password"
)

// GateHandler exposes the rule gate.
type GateHandler struct {
	gate   RuleGate
	logger *zap.Logger
}

// NewGateHandler constructs the rule gate adapter.
func NewGateHandler(gate RuleGate, logger *zap.Logger) *GateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GateHandler{gate: gate, logger: logger}
}

// Require aborts the request unless the rule headers carry a valid password.
func (h *GateHandler) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderRule)
		password := c.GetHeader(HeaderPassword)

		if err := h.gate.Verify(c.Request.Context(), key, password); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.Set("rule", key)
		c.Next()
	}
}

// ListRules returns the selectable rules without their passwords.
func (h *GateHandler) ListRules(c *gin.Context) {
	rules, err := h.gate.Rules(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]gin.H, 0, len(rules))
	for _, rule := range rules {
		out = append(out, gin.H{"key": rule.Key, "type": rule.Type})
	}
	c.JSON(http.StatusOK, out)
}

// Verify checks a password without touching any guarded resource.
func (h *GateHandler) Verify(c *gin.Context) {
	var req struct {
		Rule     string `json:"rule" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest(err, "invalid request body"))
		return
	}

	if err := h.gate.Verify(c.Request.Context(), req.Rule, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
