package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/audit"
	pdaws "github.com/pawdesk/pawdesk/internal/aws"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/image"
	"github.com/pawdesk/pawdesk/internal/middleware"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

const (
	fileKindOriginal  = "ORIGINAL"
	fileKindThumbnail = "THUMBNAIL"

	photoURLExpiry = time.Hour
	photoFormField = "photo"
)

type PetPhotoView struct {
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s Server) photoView(r *http.Request, originalKey, thumbnailKey string) (PetPhotoView, error) {
	expires := time.Now().Add(photoURLExpiry).UTC()
	url, err := s.storage.PresignGet(r.Context(), originalKey, photoURLExpiry)
	if err != nil {
		return PetPhotoView{}, err
	}
	v := PetPhotoView{URL: url, ExpiresAt: expires}
	if thumbnailKey != "" {
		thumb, err := s.storage.PresignGet(r.Context(), thumbnailKey, photoURLExpiry)
		if err != nil {
			middleware.GetLoggerFromContext(r.Context()).Warn("failed to presign thumbnail", "key", thumbnailKey, "error", err)
		} else {
			v.ThumbnailURL = thumb
		}
	}
	return v, nil
}

// UploadPetPhoto replaces the photo of a pet with a multipart "photo" part.
func (s Server) UploadPetPhoto(w http.ResponseWriter, r *http.Request) {
	p, pet, ok := s.loadPet(w, r, rbac.PetUpdate)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromContext(r.Context())

	// room for multipart framing on top of the image itself
	r.Body = http.MaxBytesReader(w, r.Body, s.images.MaxSize()+1<<20)
	file, _, err := r.FormFile(photoFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			NewError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Photo exceeds the upload size limit").Write(w)
			return
		}
		ValidationErr("Missing photo field", []ErrorDetail{{Field: photoFormField, Message: "is required"}}).Write(w)
		return
	}
	defer file.Close()

	processed, err := s.images.Process(file)
	switch {
	case errors.Is(err, image.ErrTooLarge):
		NewError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Photo exceeds the upload size limit").Write(w)
		return
	case errors.Is(err, image.ErrUnsupportedType):
		ValidationErr("Photo must be a JPEG or PNG image", []ErrorDetail{{Field: photoFormField, Message: "unsupported file type"}}).Write(w)
		return
	case err != nil:
		ValidationErr("Photo could not be read", []ErrorDetail{{Field: photoFormField, Message: err.Error()}}).Write(w)
		return
	}

	tenant, petID := pet.TenantID.String(), pet.ID.String()
	originalKey := pdaws.PetPhotoKey(tenant, petID, "original", processed.Extension)
	thumbnailKey := pdaws.PetPhotoKey(tenant, petID, "thumbnail", processed.Extension)

	previous, err := s.db.Queries().ListEntityFiles(r.Context(), db.ListEntityFilesParams{
		TenantID: pet.TenantID, EntityType: audit.EntityPet, EntityID: pet.ID,
	})
	if err != nil {
		internalError(w, r, "Failed to load pet files", err)
		return
	}

	if err := s.storage.PutObject(r.Context(), originalKey, bytes.NewReader(processed.Original), processed.ContentType); err != nil {
		internalError(w, r, "Failed to upload photo", err)
		return
	}
	if err := s.storage.PutObject(r.Context(), thumbnailKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		_ = s.storage.DeleteObject(r.Context(), originalKey)
		internalError(w, r, "Failed to upload thumbnail", err)
		return
	}

	err = s.db.WithTx(r.Context(), func(q *db.Queries) error {
		if err := q.SoftDeleteEntityFiles(r.Context(), db.SoftDeleteEntityFilesParams{
			TenantID: pet.TenantID, EntityType: audit.EntityPet, EntityID: pet.ID,
		}); err != nil {
			return err
		}
		for _, f := range []struct {
			kind, key string
			data      []byte
		}{
			{fileKindOriginal, originalKey, processed.Original},
			{fileKindThumbnail, thumbnailKey, processed.Thumbnail},
		} {
			if _, err := q.CreateFile(r.Context(), db.CreateFileParams{
				TenantID:    pet.TenantID,
				EntityType:  audit.EntityPet,
				EntityID:    pet.ID,
				Kind:        f.kind,
				ObjectKey:   f.key,
				ContentType: processed.ContentType,
				SizeBytes:   int64(len(f.data)),
			}); err != nil {
				return err
			}
		}
		return q.SetPetPhoto(r.Context(), db.SetPetPhotoParams{
			ID:       pet.ID,
			PhotoKey: pgtype.Text{String: originalKey, Valid: true},
		})
	})
	if err != nil {
		_ = s.storage.DeleteObject(r.Context(), originalKey)
		_ = s.storage.DeleteObject(r.Context(), thumbnailKey)
		internalError(w, r, "Failed to save photo record", err)
		return
	}

	// objects under a different extension are orphaned by the new upload
	for _, f := range previous {
		if f.ObjectKey != originalKey && f.ObjectKey != thumbnailKey {
			if err := s.storage.DeleteObject(r.Context(), f.ObjectKey); err != nil {
				logger.Warn("failed to delete replaced photo", "key", f.ObjectKey, "error", err)
			}
		}
	}

	before := petView(pet)
	after := before
	after.HasPhoto = true
	s.record(r, p, audit.ActionUpdate, audit.EntityPet, pet.TenantID, pet.ID, before, after)

	view, err := s.photoView(r, originalKey, thumbnailKey)
	if err != nil {
		internalError(w, r, "Failed to generate photo URL", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetPetPhoto returns presigned download URLs for the pet's photo.
func (s Server) GetPetPhoto(w http.ResponseWriter, r *http.Request) {
	_, pet, ok := s.loadPet(w, r, rbac.PetView)
	if !ok {
		return
	}
	if !pet.PhotoKey.Valid {
		NotFound("Photo").Write(w)
		return
	}

	files, err := s.db.Queries().ListEntityFiles(r.Context(), db.ListEntityFilesParams{
		TenantID: pet.TenantID, EntityType: audit.EntityPet, EntityID: pet.ID,
	})
	if err != nil {
		internalError(w, r, "Failed to load pet files", err)
		return
	}
	var thumbnailKey string
	for _, f := range files {
		if f.Kind == fileKindThumbnail {
			thumbnailKey = f.ObjectKey
		}
	}

	view, err := s.photoView(r, pet.PhotoKey.String, thumbnailKey)
	if err != nil {
		internalError(w, r, "Failed to generate photo URL", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
