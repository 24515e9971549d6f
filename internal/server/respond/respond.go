// Package respond renders the API envelope shared by every handler:
// {"success": bool, "message": string, "data": ...}. The SPA shows `message`
// verbatim, so only taxonomy errors, whose texts are display-ready
// Portuguese, reach the client; everything unclassified becomes a generic
// message with the detail kept in the logs.
package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/common"
)

const genericMessage = "erro interno, tente novamente em instantes"

// OK writes a success envelope.
func OK(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// Fail classifies err against the taxonomy and writes a failure envelope.
func Fail(c *gin.Context, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, common.ErrUnauthorized.Error()
	case errors.Is(err, common.ErrAffiliateNotFound),
		errors.Is(err, common.ErrReferralNotFound),
		errors.Is(err, common.ErrPlanNotFound),
		errors.Is(err, common.ErrTransactionNotFound):
		return http.StatusNotFound, taxonomyMessage(err)
	case errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, common.ErrMissingInvoice):
		return http.StatusBadRequest, taxonomyMessage(err)
	case errors.Is(err, common.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, common.ErrInsufficientBalance.Error()
	case errors.Is(err, common.ErrPlanWithoutCommission):
		return http.StatusUnprocessableEntity, common.ErrPlanWithoutCommission.Error()
	case errors.Is(err, common.ErrAlreadyAffiliate),
		errors.Is(err, common.ErrAlreadyReferred),
		errors.Is(err, common.ErrCommissionAlreadyRecorded),
		errors.Is(err, common.ErrWithdrawalNotPending):
		return http.StatusConflict, taxonomyMessage(err)
	case errors.Is(err, common.ErrCodeGenerationExhausted):
		return http.StatusServiceUnavailable, common.ErrCodeGenerationExhausted.Error()
	case errors.Is(err, common.ErrInconsistency):
		return http.StatusInternalServerError, common.ErrInconsistency.Error()
	default:
		return http.StatusInternalServerError, genericMessage
	}
}

// taxonomyMessage unwraps to the sentinel's display text, dropping any
// internal wrapping context.
func taxonomyMessage(err error) string {
	for _, sentinel := range []error{
		common.ErrAffiliateNotFound, common.ErrReferralNotFound,
		common.ErrPlanNotFound, common.ErrTransactionNotFound,
		common.ErrInvalidAmount, common.ErrMissingInvoice,
		common.ErrAlreadyAffiliate, common.ErrAlreadyReferred,
		common.ErrCommissionAlreadyRecorded, common.ErrWithdrawalNotPending,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return genericMessage
}
