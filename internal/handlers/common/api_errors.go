package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "stdapi-go/internal/errors"
)

// AbortWithAPIError serializes the error in the OpenAI envelope and aborts
// the request. Every error response in the service goes through here.
func AbortWithAPIError(c *gin.Context, err *apperrors.APIError) {
	if err == nil {
		err = apperrors.New(http.StatusInternalServerError, apperrors.TypeServerError, "", "unknown error")
	}

	payload, marshalErr := err.ToJSON()
	if marshalErr != nil {
		c.JSON(safeStatus(err.HTTPStatus), gin.H{
			"error": gin.H{
				"message": err.Message,
				"type":    err.Type,
				"param":   nil,
				"code":    nil,
			},
		})
		c.Abort()
		return
	}

	c.Data(safeStatus(err.HTTPStatus), "application/json", payload)
	c.Abort()
}

// AbortWithError converts any error to an APIError first, so raw provider
// messages never leak into a response.
func AbortWithError(c *gin.Context, err error) {
	AbortWithAPIError(c, apperrors.AsAPIError(err))
}

func safeStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}
