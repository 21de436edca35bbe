package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bookdir/backend/internal/domain"
	"bookdir/backend/internal/service/directory"
	"bookdir/backend/internal/store"
)

type directoryService interface {
	CreateProfile(ctx context.Context, role domain.Role, username string, caller domain.Principal) (domain.Profile, error)
	GetProfile(ctx context.Context, role domain.Role, id int32) (domain.Profile, error)
	ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error)
	DeleteProfile(ctx context.Context, role domain.Role, id int32, caller domain.Principal) (domain.Profile, error)
	CreateBooking(ctx context.Context, in directory.CreateBookingInput) (domain.Booking, error)
	GetBooking(ctx context.Context, id int32) (domain.Booking, error)
	ListBookingsForUser(ctx context.Context, userID int32) ([]domain.Booking, error)
	ListBookingsForDoctor(ctx context.Context, doctorID int32) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, id int32) (domain.Booking, error)
}

type DirectoryServer struct {
	svc directoryService
	log *slog.Logger
}

func NewDirectoryServer(svc directoryService, log *slog.Logger) *DirectoryServer {
	if log == nil {
		log = slog.Default()
	}
	return &DirectoryServer{
		svc: svc,
		log: log.With(slog.String("component", "http.directory")),
	}
}

type createProfileRequest struct {
	Role     string `json:"role"`
	Username string `json:"username"`
}

func (s *DirectoryServer) CreateProfile(c *gin.Context) {
	log := s.log.With(slog.String("handler", "CreateProfile"))

	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := s.svc.CreateProfile(c.Request.Context(), domain.Role(req.Role), req.Username, callerFrom(c))
	if err != nil {
		s.writeError(c, log, err)
		return
	}

	log.Info("profile created",
		slog.String("role", p.Role.String()),
		slog.Int("id", int(p.ID)),
		slog.String("username", p.Username),
	)
	c.JSON(http.StatusCreated, p)
}

func (s *DirectoryServer) GetProfile(c *gin.Context) {
	log := s.log.With(slog.String("handler", "GetProfile"))

	role, id, ok := s.roleAndID(c, log)
	if !ok {
		return
	}

	p, err := s.svc.GetProfile(c.Request.Context(), role, id)
	if err != nil {
		s.writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *DirectoryServer) ListProfiles(c *gin.Context) {
	log := s.log.With(slog.String("handler", "ListProfiles"))

	role, ok := domain.ParseRole(c.Param("role"))
	if !ok {
		log.Warn("invalid request", slog.String("reason", "bad_role"), slog.String("role", c.Param("role")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or doctor"})
		return
	}

	profiles, err := s.svc.ListProfiles(c.Request.Context(), role)
	if err != nil {
		s.writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *DirectoryServer) DeleteProfile(c *gin.Context) {
	log := s.log.With(slog.String("handler", "DeleteProfile"))

	role, id, ok := s.roleAndID(c, log)
	if !ok {
		return
	}

	p, err := s.svc.DeleteProfile(c.Request.Context(), role, id, callerFrom(c))
	if err != nil {
		s.writeError(c, log, err)
		return
	}

	log.Info("profile deleted", slog.String("role", p.Role.String()), slog.Int("id", int(p.ID)))
	c.JSON(http.StatusOK, p)
}

type createBookingRequest struct {
	UserID   int32      `json:"user_id"`
	DoctorID int32      `json:"doctor_id"`
	StartAt  *time.Time `json:"start_at"`
	EndAt    *time.Time `json:"end_at"`
}

func (s *DirectoryServer) CreateBooking(c *gin.Context) {
	log := s.log.With(slog.String("handler", "CreateBooking"))

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if (req.StartAt == nil) != (req.EndAt == nil) {
		log.Warn("invalid request", slog.String("reason", "partial_interval"))
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_at and end_at must be provided together"})
		return
	}

	in := directory.CreateBookingInput{UserID: req.UserID, DoctorID: req.DoctorID}
	if req.StartAt != nil {
		in.Interval = &domain.Interval{StartAt: *req.StartAt, EndAt: *req.EndAt}
	}

	b, err := s.svc.CreateBooking(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, log, err)
		return
	}

	log.Info("booking created",
		slog.Int("id", int(b.ID)),
		slog.Int("user_id", int(b.UserID)),
		slog.Int("doctor_id", int(b.DoctorID)),
	)
	c.JSON(http.StatusCreated, b)
}

func (s *DirectoryServer) GetBooking(c *gin.Context) {
	log := s.log.With(slog.String("handler", "GetBooking"))

	id, ok := s.idParam(c, log)
	if !ok {
		return
	}

	b, err := s.svc.GetBooking(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *DirectoryServer) ListBookingsForUser(c *gin.Context) {
	log := s.log.With(slog.String("handler", "ListBookingsForUser"))

	id, ok := s.idParam(c, log)
	if !ok {
		return
	}

	bookings, err := s.svc.ListBookingsForUser(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (s *DirectoryServer) ListBookingsForDoctor(c *gin.Context) {
	log := s.log.With(slog.String("handler", "ListBookingsForDoctor"))

	id, ok := s.idParam(c, log)
	if !ok {
		return
	}

	bookings, err := s.svc.ListBookingsForDoctor(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (s *DirectoryServer) DeleteBooking(c *gin.Context) {
	log := s.log.With(slog.String("handler", "DeleteBooking"))

	id, ok := s.idParam(c, log)
	if !ok {
		return
	}

	b, err := s.svc.DeleteBooking(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, log, err)
		return
	}

	log.Info("booking deleted", slog.Int("id", int(b.ID)))
	c.JSON(http.StatusOK, b)
}

func (s *DirectoryServer) roleAndID(c *gin.Context, log *slog.Logger) (domain.Role, int32, bool) {
	role, ok := domain.ParseRole(c.Param("role"))
	if !ok {
		log.Warn("invalid request", slog.String("reason", "bad_role"), slog.String("role", c.Param("role")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or doctor"})
		return "", 0, false
	}
	id, ok := s.idParam(c, log)
	if !ok {
		return "", 0, false
	}
	return role, id, true
}

func (s *DirectoryServer) idParam(c *gin.Context, log *slog.Logger) (int32, bool) {
	v, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_id"), slog.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a 32-bit integer"})
		return 0, false
	}
	return int32(v), true
}

func (s *DirectoryServer) writeError(c *gin.Context, log *slog.Logger, err error) {
	var vErr *directory.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found", slog.Any("err", err))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		log.Info("conflict", slog.Any("err", err))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnauthorized):
		log.Info("unauthorized", slog.Any("err", err))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Error("request failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
