package handlers

import (
	"github.com/gin-gonic/gin"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
)

// apiResponse is the success envelope every endpoint returns.
type apiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
}

// apiErrorResponse is the failure envelope: the error kind, never a stack.
type apiErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, apiResponse{StatusCode: status, Data: data, Message: message})
}

func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, apiErrorResponse{
		StatusCode: status,
		Error:      string(apperr.KindOf(err)),
		Message:    apperr.MessageOf(err),
	})
}

// currentUserKey is the gin context key set by the authentication middleware.
const currentUserKey = "currentUser"

// SetCurrentUser stores the authenticated caller on the request context.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(currentUserKey, user)
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
