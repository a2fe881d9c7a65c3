package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/config"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HTTPStatus maps the ledger error taxonomy onto HTTP.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Aborted:
		return http.StatusConflict
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	st := status.Convert(err)
	httpStatus := HTTPStatus(st.Code())
	if httpStatus >= http.StatusInternalServerError {
		config.LogError(logger, "handlers", c.FullPath(), "request failed", nil, err)
	}
	c.JSON(httpStatus, gin.H{
		"error":   st.Code().String(),
		"message": st.Message(),
	})
}
