package handlers

import (
	"errors"
	"net/http"

	"github.com/chessarena/tournament-system/middleware"
	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	requestedUserID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), requestedUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"user": user,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UpdateUserByID(w http.ResponseWriter, r *http.Request) {
	requestedUserID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := requireSelfOrAdmin(r, requestedUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input services.UpdateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.FirstName == nil && input.LastName == nil {
		badRequestResponse(w, r, errors.New("no fields provided for update"))
		return
	}

	updatedUser, err := h.userService.Update(r.Context(), requestedUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"user": updatedUser,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UploadUserAvatar(w http.ResponseWriter, r *http.Request) {
	requestedUserID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	if requestedUserID != currentUserID {
		forbiddenResponse(w, r, "operation not allowed for the current user")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	user, err := h.userService.UploadAvatar(r.Context(), requestedUserID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"user": user,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) DeleteUserByID(w http.ResponseWriter, r *http.Request) {
	requestedUserID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := requireSelfOrAdmin(r, requestedUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), requestedUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireSelfOrAdmin lets a user act on their own account, and admins act
// on anyone's.
func requireSelfOrAdmin(r *http.Request, targetUserID int) error {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return services.ErrForbiddenOperation
	}
	currentUserRole, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		return services.ErrForbiddenOperation
	}
	if targetUserID != currentUserID && currentUserRole != models.RoleAdmin {
		return services.ErrForbiddenOperation
	}
	return nil
}
