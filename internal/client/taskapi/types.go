package taskapi

import "github.com/TWRT/buildtrack/internal/models"

type ErrorResponse struct {
	Message string `json:"message"`
}

type TasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

type TaskResponse struct {
	Task models.Task `json:"task"`
}

type UsersResponse struct {
	Users []models.User `json:"users"`
}

type UpdateStatusRequest struct {
	Status models.Status `json:"status"`
}
