// file: internal/handlers/web/profile_handler.go
package web

import (
	"net/http"

	"badgehub/internal/contextutils"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// maxAvatarBytes caps the multipart form holding an avatar upload
const maxAvatarBytes = 10 << 20

// ProfileHandler exposes the per-user aggregate and the leaderboard
type ProfileHandler struct {
	profiles services.ProfileService
	builder  *response.Builder
	logger   *zap.Logger
}

// NewProfileHandler creates the profile endpoint handler
func NewProfileHandler(profiles services.ProfileService, builder *response.Builder, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, builder: builder, logger: logger}
}

// Me returns the caller's profile
// @Summary      Current profile
// @Tags         profile
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /profile [get]
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfile(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, profile)
}

// UpdateProfile edits the caller's mutable fields
// @Summary      Update the profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body services.UpdateProfileRequest true "Fields to update"
// @Success      200 {object} response.APIResponse
// @Router       /profile [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	req.UserID = contextutils.GetUserID(r.Context())

	profile, err := h.profiles.UpdateProfile(r.Context(), &req)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, profile)
}

// Leaderboard returns profiles ordered by skill points
// @Summary      Leaderboard
// @Tags         profile
// @Produce      json
// @Param        limit  query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {object} response.APIResponse
// @Router       /leaderboard [get]
func (h *ProfileHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	page, err := h.profiles.GetLeaderboard(r.Context(), parsePagination(r))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, page)
}

// UploadAvatar stores a new profile image
// @Summary      Upload an avatar
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Param        avatar formData file true "Image file"
// @Success      200 {object} response.APIResponse
// @Router       /profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		h.builder.WriteError(w, r, services.NewValidationError("Fichier trop volumineux ou formulaire invalide", err))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		h.builder.WriteError(w, r, services.InvalidInputError("avatar", "fichier manquant"))
		return
	}
	defer file.Close()

	result, err := h.profiles.UploadAvatar(r.Context(), &services.AvatarUploadRequest{
		UserID:   contextutils.GetUserID(r.Context()),
		File:     file,
		Filename: header.Filename,
		Size:     header.Size,
	})
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	h.builder.WriteSuccess(w, r, result)
}
