package controllers

import (
	"context"
	"net/http"
	"time"

	"school-directory/models"
	"school-directory/utils"

	"github.com/sirupsen/logrus"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Controller struct {
	Log logrus.FieldLogger
}

func (c Controller) Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.Log.WithError(err).Warn("health check failed")
			utils.RespondWithError(w, http.StatusServiceUnavailable, models.Error{Message: "Database unavailable"})
			return
		}
		utils.ResponseJSON(w, map[string]string{"status": "ok"})
	}
}

func (c Controller) NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Not found"})
	}
}

func (c Controller) MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithAppError(w, c.Log, models.ErrMethodNotAllowed, "")
	}
}
