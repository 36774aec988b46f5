package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/promibe/poshbot/internal/models"
	"github.com/promibe/poshbot/internal/store"
)

// usersHandler routes /users: POST creates a user, GET lists users.
func (s *Server) usersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createUser(w, r)
	case http.MethodGet:
		s.listUsers(w, r)
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	}
}

// ordersHandler routes /orders: POST creates a course order.
func (s *Server) ordersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	s.createOrder(w, r)
}

// createUser validates the payload and inserts a user record.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("createUser invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Debug("createUser validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrInvalidDOB.Error()))
		return
	}

	id, err := s.st.CreateUser(models.User{
		Name:          req.Name,
		DOB:           dob,
		Qualification: req.Qualification,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
	})
	if err != nil {
		slog.Error("createUser store failure", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal Server Error"))
		return
	}

	slog.Info("User created", "user_id", id, "email", req.Email)
	writeJSONResponse(w, http.StatusCreated, models.CreateUserResponse{UserID: id})
}

// createOrder validates the payload and inserts a course order for an
// existing user. An unknown user id is a 404, matching the contract the
// chat agent relies on to distinguish rejection from transport failure.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("createOrder invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Debug("createOrder validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	id, err := s.st.CreateOrder(models.CourseOrder{
		UserID:     req.UserID,
		CourseName: req.OrderDetails,
	})
	if errors.Is(err, store.ErrUserNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("User not found"))
		return
	}
	if err != nil {
		slog.Error("createOrder store failure", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal Server Error"))
		return
	}

	slog.Info("Order created", "order_id", id, "user_id", req.UserID)
	writeJSONResponse(w, http.StatusCreated, models.CreateOrderResponse{OrderID: id})
}

// listUsers returns all persisted users.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.st.ListUsers()
	if err != nil {
		slog.Error("listUsers store failure", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal Server Error"))
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSONResponse(w, http.StatusOK, users)
}
