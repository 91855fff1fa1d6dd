package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	"github.com/oksasatya/user-account-api/pkg/apperror"
)

// statusFor maps application error kinds to HTTP status codes.
func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindInvalidEmail, apperror.KindWeakPassword, apperror.KindEmptyPassword,
		apperror.KindEmptyName, apperror.KindEmptyCredential:
		return http.StatusBadRequest
	case apperror.KindInvalidCredentials:
		return http.StatusUnauthorized
	case apperror.KindUserNotFound:
		return http.StatusNotFound
	case apperror.KindEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorBody hides storage details from clients; validation/auth/conflict
// messages are safe to surface as-is.
func errorBody(err error) (int, string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return status, "internal server error"
	}
	return status, err.Error()
}

func userJSON(u *entity.User) gin.H {
	return gin.H{
		"id":         u.ID(),
		"email":      u.Email().String(),
		"first_name": u.FirstName(),
		"last_name":  u.LastName(),
		"full_name":  u.FullName(),
		"created_at": u.CreatedAt(),
		"updated_at": u.UpdatedAt(),
	}
}
