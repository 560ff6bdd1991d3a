package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"school-directory/models"

	"github.com/sirupsen/logrus"
)

func RespondWithError(w http.ResponseWriter, status int, body models.Error) {
	RespondWithJSON(w, status, body)
}

func ResponseJSON(w http.ResponseWriter, data interface{}) {
	RespondWithJSON(w, http.StatusOK, data)
}

func RespondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// RespondWithAppError maps err onto a status code and a client-safe message.
// Anything that is not a validation error is logged with its detail and
// answered generically.
func RespondWithAppError(w http.ResponseWriter, log logrus.FieldLogger, err error, message string) {
	var (
		validationErr *models.ValidationError
		uploadErr     *models.UploadError
		storageErr    *models.StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		RespondWithError(w, http.StatusBadRequest, models.Error{Message: validationErr.Message})
	case errors.Is(err, models.ErrMethodNotAllowed):
		RespondWithError(w, http.StatusMethodNotAllowed, models.Error{Message: "Method not allowed"})
	case errors.As(err, &uploadErr):
		log.WithError(uploadErr.Err).Error("image upload failed")
		RespondWithError(w, http.StatusInternalServerError, models.Error{Message: message})
	case errors.As(err, &storageErr):
		log.WithError(storageErr.Err).WithField("op", storageErr.Op).Error("storage failure")
		RespondWithError(w, http.StatusInternalServerError, models.Error{Message: message})
	default:
		log.WithError(err).Error("unexpected failure")
		RespondWithError(w, http.StatusInternalServerError, models.Error{Message: message})
	}
}

var contactRegex = regexp.MustCompile(`^[0-9]{10}$`)

// IsContactNumber reports whether input is exactly ten ASCII digits.
func IsContactNumber(input string) bool {
	return contactRegex.MatchString(input)
}
