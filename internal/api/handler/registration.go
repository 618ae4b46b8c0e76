package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ic-ufrj/alumnic/internal/api/request"
	"github.com/ic-ufrj/alumnic/internal/api/response"
	"github.com/ic-ufrj/alumnic/internal/services/registration"
)

// RegistrationHandler handles the account registration endpoint
type RegistrationHandler struct {
	service *registration.Service
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(service *registration.Service) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
	}
}

// Register handles POST /api/cadastrar
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	// Detailed field validation happens in the service; only reject the
	// outright absent fields here.
	if req.Enrollment == "" {
		WriteError(w, NewInvalidRequestError("dre is required"))
		return
	}
	if req.FullName == "" {
		WriteError(w, NewInvalidRequestError("nome is required"))
		return
	}
	if req.Password.Len() == 0 {
		WriteError(w, NewInvalidRequestError("senha is required"))
		return
	}

	username, err := h.service.Register(r.Context(), registration.Input{
		Enrollment:    req.Enrollment,
		IssueDate:     req.IssueDate,
		IssueTime:     req.IssueTime,
		SignatureCode: req.SignatureCode,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Password:      req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RegisterResponse{Username: username})
}
