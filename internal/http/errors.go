package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/curve-route-engine/internal/common"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
	"github.com/hxuan190/curve-route-engine/internal/services/catalogue"
	"github.com/hxuan190/curve-route-engine/internal/services/gauge"
	"github.com/hxuan190/curve-route-engine/internal/services/router"
)

// toHttpError maps service errors onto HTTP statuses
func toHttpError(err error) *common.HttpError {
	if httpErr := common.AsHttpError(err); httpErr != nil {
		return httpErr
	}
	switch {
	case errors.Is(err, router.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidAddress):
		return common.HTTPErrorBadRequest(err.Error())
	case errors.Is(err, router.ErrPairNotExchangeable):
		return common.HTTPErrorNotFound(err.Error())
	case errors.Is(err, router.ErrRouteTooLong), errors.Is(err, gauge.ErrProbeFailed):
		return common.HTTPErrorUnprocessable(err.Error())
	case errors.Is(err, router.ErrCatalogueNotReady), errors.Is(err, catalogue.ErrNotLoaded),
		errors.Is(err, router.ErrAllQuotesFailed), errors.Is(err, context.DeadlineExceeded):
		return common.HTTPErrorServiceUnavailable(err.Error())
	default:
		return common.HTTPErrorInternalError("")
	}
}

func handleError(c *gin.Context, err error) {
	httpErr := toHttpError(err)
	if httpErr.StatusCode >= 500 {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("[httpService] request failed")
	}
	httputil.HandleHttpError(c, httpErr)
}
