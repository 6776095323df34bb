package jobs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/godown-ops/godown/internal/platform/httpx"
)

// Enqueuer is the subset of Client used by Handler.
type Enqueuer interface {
	EnqueueFleetReconcile(ctx context.Context) (*asynq.TaskInfo, error)
	EnqueueIdempotencyCleanup(ctx context.Context) (*asynq.TaskInfo, error)
}

// QueueInspector reads queue state.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes job operations to admins.
type Handler struct {
	inspector QueueInspector
	client    Enqueuer
	logger    *slog.Logger
}

// NewHandler constructs Handler. Nil collaborators degrade the endpoints
// instead of panicking.
func NewHandler(inspector QueueInspector, client Enqueuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, client: client, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/reconcile", h.trigger(TaskFleetReconcile))
	r.Post("/idempotency-cleanup", h.trigger(TaskIdempotencyCleanup))
}

type queueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	stats := queueStats{Queue: QueueDefault}
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, stats)
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Error(w, http.StatusServiceUnavailable, "job queue unavailable")
		return
	}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) trigger(taskType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.client == nil {
			httpx.Error(w, http.StatusServiceUnavailable, "job queue not configured")
			return
		}
		var (
			info *asynq.TaskInfo
			err  error
		)
		switch taskType {
		case TaskFleetReconcile:
			info, err = h.client.EnqueueFleetReconcile(r.Context())
		default:
			info, err = h.client.EnqueueIdempotencyCleanup(r.Context())
		}
		if err != nil {
			h.logger.Error("enqueue task", slog.String("type", taskType), slog.Any("error", err))
			httpx.Error(w, http.StatusServiceUnavailable, "enqueue failed")
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"taskId": info.ID, "type": taskType})
	}
}
