package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/userfile-api/internal/api/shared"
	"github.com/phrazzld/userfile-api/internal/domain"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/phrazzld/userfile-api/internal/service"
)

// UserHandler serves the /users endpoints.
type UserHandler struct {
	users          service.UserService
	files          service.FileService
	images         service.ImageService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewUserHandler creates a UserHandler. maxUploadBytes bounds every
// multipart request body.
func NewUserHandler(
	users service.UserService,
	files service.FileService,
	images service.ImageService,
	maxUploadBytes int64,
	logger *slog.Logger,
) *UserHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}
	return &UserHandler{
		users:          users,
		files:          files,
		images:         images,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "user_handler")),
	}
}

// RegisterRoutes mounts the user endpoints on r under /users.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/hello", h.Hello)
		r.Post("/create-users", h.CreateUser)
		r.Get("/get-all-users", h.ListUsers)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Post("/upload/{id}", h.UploadUserFile)
		r.Get("/find-file/{id}", h.FindUserFile)
		r.Post("/upload-image-redis/", h.UploadImage)
		r.Get("/status/{image_id}", h.ImageStatus)
		r.Post("/files/", h.FileSize)
		r.Post("/uploadfile/", h.UploadFilename)
	})
}

// Hello handles GET /users/hello.
func (h *UserHandler) Hello(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Hello_world"})
}

// CreateUser handles POST /users/create-users.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newUserResponse(*user))
}

// ListUsers handles GET /users/get-all-users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// UpdateUser handles PUT /users/users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	req, ok := h.decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := h.users.RenameUser(r.Context(), id, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(*user))
}

// DeleteUser handles DELETE /users/users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{Deleted: id})
}

// UploadUserFile handles POST /users/upload/{id}.
func (h *UserHandler) UploadUserFile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	file, header, err := formFile(w, r, h.maxUploadBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	defer closeFile(file, log)

	user, err := h.files.UploadUserFile(r.Context(), id, header.Filename, file)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to upload file")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// FindUserFile handles GET /users/find-file/{id}.
func (h *UserHandler) FindUserFile(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	found, err := h.files.FindUserFile(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to find file")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, found)
}

// UploadImage handles POST /users/upload-image-redis/.
func (h *UserHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	file, header, err := formFile(w, r, h.maxUploadBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	defer closeFile(file, log)

	intake, err := h.images.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to accept image")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, intake)
}

// ImageStatus handles GET /users/status/{image_id}.
// Unknown IDs report not_found with 200.
func (h *UserHandler) ImageStatus(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "image_id")
	if imageID == "" {
		HandleAPIError(w, r, domain.NewValidationError("image_id", "is required", domain.ErrValidation), "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ImageStatusResponse{
		ImageID: imageID,
		Status:  h.images.Status(r.Context(), imageID),
	})
}

// FileSize handles POST /users/files/.
func (h *UserHandler) FileSize(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	file, _, err := formFile(w, r, h.maxUploadBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	defer closeFile(file, log)

	n, err := io.Copy(io.Discard, file)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read file")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, FileSizeResponse{FileSize: n})
}

// UploadFilename handles POST /users/uploadfile/.
func (h *UserHandler) UploadFilename(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	file, header, err := formFile(w, r, h.maxUploadBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	closeFile(file, log)

	shared.RespondWithJSON(w, r, http.StatusOK, FilenameResponse{Filename: header.Filename})
}

func (h *UserHandler) decodeUserRequest(w http.ResponseWriter, r *http.Request) (*UserRequest, bool) {
	var req UserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", ErrMalformedBody, err), "")
		return nil, false
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	return &req, true
}

func closeFile(f io.Closer, log *slog.Logger) {
	if err := f.Close(); err != nil {
		log.Warn("failed to close uploaded file", "error", err)
	}
}
