package api

import "github.com/phrazzld/userfile-api/internal/domain"

// UserRequest is the payload for creating or renaming a user.
type UserRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UserResponse is a user without its file path.
type UserResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newUserResponse(u domain.UserRecord) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name}
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// ImageStatusResponse reports the status of an image job.
type ImageStatusResponse struct {
	ImageID string             `json:"image_id"`
	Status  domain.ImageStatus `json:"status"`
}

// MessageResponse carries a plain message.
type MessageResponse struct {
	Message string `json:"message"`
}

// FileSizeResponse reports the size of an uploaded file in bytes.
type FileSizeResponse struct {
	FileSize int64 `json:"file_size"`
}

// FilenameResponse echoes the client-supplied name of an uploaded file.
type FilenameResponse struct {
	Filename string `json:"filename"`
}
