package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/services"
)

// TaskScheduler exposes the scheduler operations the ops API needs.
type TaskScheduler interface {
	Reprogram(name string, at time.Time) error
	NextRun(name string) (time.Time, bool)
}

type Handler struct {
	config    *config.Config
	services  *services.Services
	scheduler TaskScheduler
}

type paginationResponse struct {
	NextKey string `json:"next_key"`
}

type PublicResponse[T any] struct {
	Data       T                   `json:"data"`
	Pagination *paginationResponse `json:"pagination,omitempty"`
}

type Result struct {
	Data   interface{}
	Status int
}

// NewResult returns a successful result, with default status code 200
func NewResultWithPagination[T any](data T, pageToken string) *Result {
	res := &PublicResponse[T]{Data: data, Pagination: &paginationResponse{NextKey: pageToken}}
	return &Result{Data: res, Status: http.StatusOK}
}

func NewResult[T any](data T) *Result {
	res := &PublicResponse[T]{Data: data}
	return &Result{Data: res, Status: http.StatusOK}
}

func New(
	ctx context.Context, cfg *config.Config, services *services.Services, scheduler TaskScheduler,
) (*Handler, error) {
	return &Handler{
		config:    cfg,
		services:  services,
		scheduler: scheduler,
	}, nil
}
