package handlers

import (
	"net/http"

	"github.com/chessarena/tournament-system/middleware"
	"github.com/chessarena/tournament-system/services"
)

type InscriptionHandler struct {
	inscriptionService services.InscriptionService
}

func NewInscriptionHandler(is services.InscriptionService) *InscriptionHandler {
	return &InscriptionHandler{inscriptionService: is}
}

// Register inscribes the authenticated user into the tournament.
func (h *InscriptionHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	inscription, err := h.inscriptionService.Register(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"inscription": inscription,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InscriptionHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	inscriptions, err := h.inscriptionService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"inscriptions": inscriptions,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InscriptionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	inscriptionID, err := idFromURL(r, "inscriptionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	requesterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	requesterRole, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user role")
		return
	}

	if err := h.inscriptionService.Withdraw(r.Context(), inscriptionID, requesterID, requesterRole); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
