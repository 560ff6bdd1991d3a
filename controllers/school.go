package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"school-directory/imagehost"
	"school-directory/models"
	"school-directory/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// SchoolStore is the record store as seen by the handlers.
type SchoolStore interface {
	Insert(ctx context.Context, school models.School) (int64, error)
	ListRecent(ctx context.Context) ([]models.SchoolSummary, error)
}

type SchoolController struct {
	Log           logrus.FieldLogger
	Validate      *validator.Validate
	MaxImageBytes int64
}

const (
	// Room for the text fields and multipart framing on top of the image.
	formOverhead   = 1 << 20
	formMemory     = 10 << 20
	cleanupTimeout = 10 * time.Second
)

func (sc SchoolController) AddSchool(store SchoolStore, images imagehost.Uploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, sc.MaxImageBytes+formOverhead)
		if err := r.ParseMultipartForm(formMemory); err != nil {
			sc.Log.WithError(err).Debug("rejecting unparsable form")
			utils.RespondWithAppError(w, sc.Log, formError(err), "Failed to add school")
			return
		}
		defer r.MultipartForm.RemoveAll()

		// Validation precedes every side effect.
		form := utils.DecodeSchoolForm(r)
		if err := utils.ValidateSchoolForm(sc.Validate, form); err != nil {
			utils.RespondWithAppError(w, sc.Log, err, "Failed to add school")
			return
		}
		contact, err := strconv.ParseInt(form.Contact, 10, 64)
		if err != nil {
			utils.RespondWithAppError(w, sc.Log, &models.ValidationError{Field: "contact", Message: "contact must be exactly 10 digits"}, "Failed to add school")
			return
		}

		var upload *imagehost.Upload
		file, header, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			utils.RespondWithAppError(w, sc.Log, &models.ValidationError{Field: "image", Message: "Could not read image"}, "Failed to add school")
			return
		default:
			defer file.Close()
			info, err := utils.InspectImage(file, header, sc.MaxImageBytes)
			if err != nil {
				utils.RespondWithAppError(w, sc.Log, err, "Failed to add school")
				return
			}
			upload = &imagehost.Upload{
				Name:        uuid.NewString(),
				Extension:   info.Extension,
				ContentType: info.ContentType,
				Body:        file,
				Size:        info.Size,
			}
		}

		school := models.School{
			Name:    form.Name,
			Address: form.Address,
			City:    form.City,
			State:   form.State,
			Contact: contact,
			EmailID: form.EmailID,
		}

		var image imagehost.Image
		if upload != nil {
			image, err = images.Upload(r.Context(), *upload)
			if err != nil {
				utils.RespondWithAppError(w, sc.Log, &models.UploadError{Err: err}, "Failed to upload image")
				return
			}
			school.Image.String, school.Image.Valid = image.URL, true
		}

		id, err := store.Insert(r.Context(), school)
		if err != nil {
			if upload != nil {
				sc.discardImage(r.Context(), images, image, err)
			}
			utils.RespondWithAppError(w, sc.Log, err, "Failed to add school")
			return
		}

		sc.Log.WithFields(logrus.Fields{"school_id": id, "with_image": upload != nil}).Info("school added")
		utils.RespondWithJSON(w, http.StatusCreated, models.CreatedResponse{
			Message:  "School added successfully",
			SchoolID: id,
		})
	}
}

// discardImage deletes an image whose row could not be written, so no hosted
// image outlives a failed request.
func (sc SchoolController) discardImage(ctx context.Context, images imagehost.Uploader, image imagehost.Image, insertErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := images.Delete(ctx, image.PublicID); err != nil {
		combined := multierror.Append(insertErr, err)
		sc.Log.WithError(combined).WithField("public_id", image.PublicID).Error("orphaned image after failed insert")
	}
}

func (sc SchoolController) GetSchools(store SchoolStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schools, err := store.ListRecent(r.Context())
		if err != nil {
			utils.RespondWithAppError(w, sc.Log, err, "Failed to fetch schools")
			return
		}
		utils.ResponseJSON(w, schools)
	}
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &models.ValidationError{Message: "Request body too large"}
	case errors.Is(err, http.ErrNotMultipart):
		return &models.ValidationError{Message: "Request must be multipart/form-data"}
	default:
		return &models.ValidationError{Message: "Error parsing form data"}
	}
}
