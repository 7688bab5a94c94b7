package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	cacheT "tripsync/cache/cache"
	dbt "tripsync/db/db"
	"tripsync/image"
	"tripsync/infer"
	"tripsync/mq/mq"
	"tripsync/news"
	"tripsync/trip"
)

const defaultOwner = "default"

// App wires one coordinator (store + scheduler) per owner on top of shared
// backends. Coordinators are created lazily on the first request that names
// an owner; the first access also triggers the initial remote load.
type App struct {
	gateway  dbt.TripGateway
	cache    cacheT.TripCache
	bus      mq.TripEventBus
	provider image.Provider
	news     *news.Service
	logger   *slog.Logger

	// lifetime for background schedulers and event pumps
	ctx context.Context

	mu     sync.Mutex
	coords map[string]*coordinator
}

type coordinator struct {
	store *trip.Store
	sched *trip.Scheduler
}

// NewApp builds the handler state. bus may be nil to disable events.
func NewApp(ctx context.Context, gateway dbt.TripGateway, cache cacheT.TripCache,
	bus mq.TripEventBus, provider image.Provider, newsSvc *news.Service, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		gateway:  gateway,
		cache:    cache,
		bus:      bus,
		provider: provider,
		news:     newsSvc,
		logger:   logger,
		ctx:      ctx,
		coords:   make(map[string]*coordinator),
	}
}

func (a *App) coordinatorFor(ownerID string) *coordinator {
	a.mu.Lock()
	if c, ok := a.coords[ownerID]; ok {
		a.mu.Unlock()
		return c
	}

	opts := []trip.StoreOption{trip.WithLogger(a.logger)}
	if a.bus != nil {
		opts = append(opts, trip.WithEventBus(a.bus))
	}
	store := trip.NewStore(ownerID, a.gateway, a.cache, opts...)
	sched := trip.NewScheduler(store, a.provider, trip.WithSchedulerLogger(a.logger))
	store.SetKick(sched.Kick)
	sched.Start(a.ctx)

	c := &coordinator{store: store, sched: sched}
	a.coords[ownerID] = c
	a.mu.Unlock()

	// Initial load outside the lock: it hits the remote gateway and must
	// not serialize other owners behind a slow backend.
	store.LoadTrips(a.ctx)
	return c
}

func ownerFromRequest(c *gin.Context) string {
	if owner := c.GetHeader("X-Owner-ID"); owner != "" {
		return owner
	}
	if owner := c.Query("owner"); owner != "" {
		return owner
	}
	return defaultOwner
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(app *App) *gin.Engine {
	r := gin.New()
	setupMiddlewares(r)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/trips", app.listTrips)
		api.GET("/trips/ongoing", app.listOngoingTrips)
		api.GET("/trips/past", app.listPastTrips)
		api.POST("/trips", app.createTrip)
		api.PUT("/trips/:id", app.updateTrip)
		api.DELETE("/trips/:id", app.deleteTrip)
		api.POST("/trips/:id/messages", app.addMessage)
		api.GET("/trips/:id/image", app.tripImage)
		api.POST("/refresh", app.refresh)
		api.GET("/news", app.travelNews)
	}

	r.GET("/events", app.events)

	return r
}

type tripPayload struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Members         []string   `json:"members"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastMessageDate *time.Time `json:"lastMessageDate,omitempty"`
	MessageCount    int        `json:"messageCount"`
	HasArtifact     bool       `json:"hasArtifact"`
}

func payloadOf(t *dbt.Trip) tripPayload {
	return tripPayload{
		ID:              t.ID,
		Name:            t.Name,
		Members:         t.Members,
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		CreatedAt:       t.CreatedAt,
		LastMessageDate: t.LastMessageDate,
		MessageCount:    t.MessageCount,
		HasArtifact:     t.HasArtifact(),
	}
}

func payloadsOf(trips []dbt.Trip) []tripPayload {
	out := make([]tripPayload, 0, len(trips))
	for i := range trips {
		out = append(out, payloadOf(&trips[i]))
	}
	return out
}

type tripRequest struct {
	Name      string    `json:"name" binding:"required"`
	Members   []string  `json:"members"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

func (a *App) listTrips(c *gin.Context) {
	coord := a.coordinatorFor(ownerFromRequest(c))
	c.JSON(http.StatusOK, gin.H{"trips": payloadsOf(coord.store.Trips())})
}

func (a *App) listOngoingTrips(c *gin.Context) {
	coord := a.coordinatorFor(ownerFromRequest(c))
	c.JSON(http.StatusOK, gin.H{"trips": payloadsOf(coord.store.OngoingTrips())})
}

func (a *App) listPastTrips(c *gin.Context) {
	coord := a.coordinatorFor(ownerFromRequest(c))
	c.JSON(http.StatusOK, gin.H{"trips": payloadsOf(coord.store.PastTrips())})
}

func (a *App) createTrip(c *gin.Context) {
	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := ownerFromRequest(c)
	coord := a.coordinatorFor(owner)

	t := dbt.NewTrip(req.Name, req.Members, req.StartDate, req.EndDate, owner)
	if err := coord.store.AddTrip(c.Request.Context(), &t); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, payloadOf(&t))
}

func (a *App) updateTrip(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}
	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coord := a.coordinatorFor(ownerFromRequest(c))
	existing, err := coord.store.TripByID(id)
	if err != nil {
		// Updating an unknown id is a no-op, not an error: the trip may
		// have been deleted while the client held a stale view.
		c.Status(http.StatusNoContent)
		return
	}

	existing.Name = req.Name
	existing.Members = req.Members
	existing.StartDate = req.StartDate
	existing.EndDate = req.EndDate
	if err := coord.store.UpdateTrip(c.Request.Context(), &existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payloadOf(&existing))
}

func (a *App) deleteTrip(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	coord := a.coordinatorFor(ownerFromRequest(c))
	if err := coord.store.DeleteTrip(c.Request.Context(), id); err != nil {
		if errors.Is(err, dbt.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) addMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	coord := a.coordinatorFor(ownerFromRequest(c))
	if err := coord.store.AddMessage(c.Request.Context(), id); err != nil {
		if errors.Is(err, dbt.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	t, err := coord.store.TripByID(id)
	if err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, payloadOf(&t))
}

func (a *App) tripImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	coord := a.coordinatorFor(ownerFromRequest(c))
	t, err := coord.store.TripByID(id)
	if err != nil || !t.HasArtifact() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no image for trip"})
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(t.Artifact), t.Artifact)
}

// refresh re-syncs from the remote gateway and re-evaluates the
// ongoing/past split. The sync itself never fails, so this always accepts.
func (a *App) refresh(c *gin.Context) {
	coord := a.coordinatorFor(ownerFromRequest(c))
	coord.store.LoadTrips(c.Request.Context())
	coord.store.RefreshCategorization()
	c.JSON(http.StatusAccepted, gin.H{"generation": coord.store.Generation()})
}

func (a *App) travelNews(c *gin.Context) {
	coord := a.coordinatorFor(ownerFromRequest(c))

	seen := make(map[string]struct{})
	var destinations []string
	for _, t := range coord.store.Trips() {
		dest := infer.Destination(t.Name)
		if dest == infer.DefaultDestination {
			continue
		}
		if _, dup := seen[dest]; dup {
			continue
		}
		seen[dest] = struct{}{}
		destinations = append(destinations, dest)
	}

	items := a.news.TravelNews(c.Request.Context(), destinations)
	c.JSON(http.StatusOK, gin.H{"news": items})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow all origins for WebSocket connections
		// should only in dev
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsEvent struct {
	Action  string    `json:"action"`
	TripID  uuid.UUID `json:"tripId"`
	Name    string    `json:"name"`
	Changed []string  `json:"changed,omitempty"`
	At      time.Time `json:"at"`
}

// events streams trip events for one owner over a websocket. One pump per
// action feeds a merged channel; the connection closing tears it all down.
func (a *App) events(c *gin.Context) {
	if a.bus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "events disabled"})
		return
	}
	owner := ownerFromRequest(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	merged := make(chan wsEvent, 32)
	for action := mq.Action(0); action < mq.ActionCnt; action++ {
		queue := a.bus.GetTripEventQueue(action)
		if queue == nil {
			continue
		}

		out := make(chan wsEvent, 8)
		name := action.String()
		mq.SubscribeProcessor(ctx, owner, queue, func(evt mq.TripEvent) (wsEvent, bool, error) {
			return wsEvent{
				Action:  name,
				TripID:  evt.TripID,
				Name:    evt.Name,
				Changed: evt.Changed,
				At:      evt.At,
			}, false, nil
		}, out)

		go func() {
			for evt := range out {
				select {
				case merged <- evt:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Reader only detects the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	defer func() { _ = conn.Close() }()
	for {
		select {
		case evt := <-merged:
			if writeErr := conn.WriteJSON(evt); writeErr != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
