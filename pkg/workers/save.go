package workers

import (
	"context"

	"github.com/rinooks/pixel-war/pkg/game/types"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/metrics"
	"github.com/rinooks/pixel-war/pkg/pubsub"
	"github.com/rinooks/pixel-war/pkg/repositories"
	"github.com/rinooks/pixel-war/pkg/repositories/models"
)

// SessionUpdatedChannel is the pub/sub channel notified after a session
// document lands in the repository.
const SessionUpdatedChannel = "session.updated"

// Save requests carry repository documents prepared by the session loop.
// The loop never shares live state with this worker; it snapshots into a
// doc and sends that, so the worker can write at its own pace.

type SaveSessionRequest struct {
	Doc *models.SessionDoc
}

type SavePixelRequest struct {
	SessionID string
	Coord     types.Coord
	Pixel     models.PixelDoc
}

type SavePixelBatchRequest struct {
	SessionID string
	Pixels    map[types.Coord]models.PixelDoc
}

type SavePlayerRequest struct {
	SessionID string
	Doc       *models.PlayerDoc
}

type SaveScoreRequest struct {
	SessionID string
	EntityID  string
	Points    int
	// Team routes the increment to the team sub-collection as well.
	Team bool
}

type SaveStatsRequest struct {
	Doc *models.StatsDoc
}

// SaveChannels bundles the request channels feeding the save worker.
type SaveChannels struct {
	Session    chan SaveSessionRequest
	Pixel      chan SavePixelRequest
	PixelBatch chan SavePixelBatchRequest
	Player     chan SavePlayerRequest
	Score      chan SaveScoreRequest
	Stats      chan SaveStatsRequest
}

func NewSaveChannels(size int) *SaveChannels {
	return &SaveChannels{
		Session:    make(chan SaveSessionRequest, size),
		Pixel:      make(chan SavePixelRequest, size),
		PixelBatch: make(chan SavePixelBatchRequest, size),
		Player:     make(chan SavePlayerRequest, size),
		Score:      make(chan SaveScoreRequest, size),
		Stats:      make(chan SaveStatsRequest, size),
	}
}

type SaveSessionWorker struct {
	repository  repositories.Repository
	channels    *SaveChannels
	broadcaster pubsub.Broadcaster
	metrics     *metrics.Manager
}

type NewSaveSessionWorkerOptions struct {
	Repository  repositories.Repository
	Channels    *SaveChannels
	Broadcaster pubsub.Broadcaster
	Metrics     *metrics.Manager
}

// NewSaveSessionWorker creates a new SaveSessionWorker.
// The worker drains save requests from the session loop and mirrors them
// into the repository. Writes are best-effort: a failure is logged and
// counted, never surfaced back to the game.
func NewSaveSessionWorker(opts NewSaveSessionWorkerOptions) *SaveSessionWorker {
	return &SaveSessionWorker{
		repository:  opts.Repository,
		channels:    opts.Channels,
		broadcaster: opts.Broadcaster,
		metrics:     opts.Metrics,
	}
}

func (w *SaveSessionWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.channels.Session:
			w.saveSession(ctx, req)
		case req := <-w.channels.Pixel:
			w.fail(w.repository.SetPixel(ctx, req.SessionID, req.Coord, req.Pixel))
		case req := <-w.channels.PixelBatch:
			w.fail(w.repository.SetPixels(ctx, req.SessionID, req.Pixels))
		case req := <-w.channels.Player:
			w.fail(w.repository.UpdatePlayer(ctx, req.SessionID, req.Doc))
		case req := <-w.channels.Score:
			w.saveScore(ctx, req)
		case req := <-w.channels.Stats:
			w.fail(w.repository.SaveStats(ctx, req.Doc))
		}
	}
}

func (w *SaveSessionWorker) saveSession(ctx context.Context, req SaveSessionRequest) {
	if err := w.repository.SaveSession(ctx, req.Doc); err != nil {
		w.fail(err)
		return
	}
	if w.broadcaster == nil {
		return
	}
	if err := w.broadcaster.Publish(ctx, SessionUpdatedChannel, []byte(req.Doc.ID)); err != nil {
		log.Error("Failed to publish session update: %v", err)
	}
}

func (w *SaveSessionWorker) saveScore(ctx context.Context, req SaveScoreRequest) {
	w.fail(w.repository.IncrementScore(ctx, req.SessionID, req.EntityID, req.Points))
	if req.Team {
		w.fail(w.repository.IncrementTeamScore(ctx, req.SessionID, req.EntityID, req.Points))
	}
}

func (w *SaveSessionWorker) fail(err error) {
	if err == nil {
		return
	}
	w.metrics.SaveFailed()
	log.Error("Failed to save: %v", err)
}
