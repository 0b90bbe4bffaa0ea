package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/finbridge/lps-adaptor/internal/models"
	"github.com/finbridge/lps-adaptor/internal/service"
	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

// CallbackHandler binds the scheme's inbound callbacks onto the workflow.
// Bodies are validated and forwarded; all domain decisions live in the
// workflow.
type CallbackHandler struct {
	workflow *service.Workflow
}

func NewCallbackHandler(workflow *service.Workflow) *CallbackHandler {
	return &CallbackHandler{workflow: workflow}
}

type errorInformationBody struct {
	ErrorInformation models.ErrorInformation `json:"errorInformation"`
}

func (h *CallbackHandler) PutParties(c *gin.Context) {
	var body models.PartiesResult
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandlePartiesResponse(c.Request.Context(), c.Param("idValue"), &body))
}

func (h *CallbackHandler) PutTransactionRequests(c *gin.Context) {
	var body models.TransactionRequestsPutResponse
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleTransactionRequestResponse(c.Request.Context(), c.Param("id"), &body))
}

func (h *CallbackHandler) PutTransactionRequestsError(c *gin.Context) {
	var body errorInformationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleTransactionRequestError(c.Request.Context(), c.Param("id"), &body.ErrorInformation))
}

func (h *CallbackHandler) PostQuotes(c *gin.Context) {
	var body models.QuotesPost
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleQuoteRequest(c.Request.Context(), c.GetHeader("fspiop-source"), &body))
}

func (h *CallbackHandler) PutQuotes(c *gin.Context) {
	var body models.QuotesPutResponse
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleQuoteResponse(c.Request.Context(), c.GetHeader("fspiop-source"), c.Param("id"), &body))
}

func (h *CallbackHandler) PutQuotesError(c *gin.Context) {
	var body errorInformationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleErrorResponse(c.Request.Context(), &service.ErrorCallback{
		QuoteID: c.Param("id"),
		Info:    body.ErrorInformation,
	}))
}

func (h *CallbackHandler) GetAuthorizations(c *gin.Context) {
	h.respond(c, h.workflow.HandleAuthorizationRequest(c.Request.Context(), c.GetHeader("fspiop-source"), c.Param("id")))
}

func (h *CallbackHandler) PostTransfers(c *gin.Context) {
	var body models.TransfersPost
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleTransferRequest(c.Request.Context(), c.GetHeader("fspiop-source"), &body))
}

func (h *CallbackHandler) PutTransfers(c *gin.Context) {
	var body models.TransfersPutResponse
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleTransferResponse(c.Request.Context(), c.Param("id"), &body))
}

func (h *CallbackHandler) PutTransfersError(c *gin.Context) {
	var body errorInformationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, h.workflow.HandleErrorResponse(c.Request.Context(), &service.ErrorCallback{
		TransferID: c.Param("id"),
		Info:       body.ErrorInformation,
	}))
}

// respond acknowledges the callback. Handler failures are logged and already
// mirrored to the relevant party by the workflow; the scheme still gets its
// 200 so it stops retrying.
func (h *CallbackHandler) respond(c *gin.Context, err error) {
	if err != nil {
		telemetry.Logger.Error("Callback handling failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
