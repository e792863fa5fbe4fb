package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"nucliasync/internal/api"
	"nucliasync/internal/config"
	"nucliasync/internal/logging"
	"nucliasync/internal/queue"
	"nucliasync/internal/syncer"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/reindex", srv.handleReindex)
	mux.HandleFunc("/api/relabel", srv.handleRelabel)
	mux.HandleFunc("/api/cancel", srv.handleCancel)
	mux.HandleFunc("/api/index", srv.handleIndex)
	mux.HandleFunc("/api/delete", srv.handleDelete)

	if d.metrics != nil {
		mux.Handle("/metrics", d.metrics.Handler())
	}
	if cfg.Proxy.Enabled && d.gateway != nil {
		mux.Handle("/nuclia-proxy/", d.gateway.PathHandler("/nuclia-proxy"))
		mux.Handle("/api/v1/nuclia/", d.gateway.RESTHandler("/api/v1/nuclia"))
	}

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()

	indexing, err := s.daemon.syncer.IndexingStatus(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	relabel, err := s.daemon.syncer.RelabelStatus(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	indexed, err := s.daemon.syncer.IndexedCount(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pendingByType := make(map[string]int, len(s.daemon.cfg.Indexing.ContentTypes))
	for _, contentType := range s.daemon.cfg.Indexing.ContentTypes {
		count, err := s.daemon.syncer.PendingCountForType(ctx, contentType)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		pendingByType[contentType] = count
	}

	payload := api.StatusResponse{
		Running:         s.daemon.Running(),
		PID:             os.Getpid(),
		RemoteReachable: s.daemon.remoteReachable(ctx),
		Indexing:        toGroupCounts(indexing),
		Relabel:         toGroupCounts(relabel),
		IndexedCount:    indexed,
		PendingByType:   pendingByType,
		QueueDBPath:     s.daemon.store.Path(),
		IndexDBPath:     s.daemon.records.Path(),
		LockFilePath:    s.daemon.lockPath,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	contentType := strings.TrimSpace(r.URL.Query().Get("type"))

	var scheduled int
	var err error
	if contentType != "" {
		if !s.daemon.cfg.IndexableType(contentType) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("content type %q is not indexable", contentType))
			return
		}
		scheduled, err = s.daemon.syncer.ScheduleType(r.Context(), contentType)
	} else {
		scheduled, err = s.daemon.syncer.ScheduleFullReindex(r.Context())
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ScheduleResponse{Scheduled: scheduled})
}

func (s *apiServer) handleRelabel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	scheduled, err := s.daemon.syncer.ScheduleFullReprocess(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ScheduleResponse{Scheduled: scheduled})
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	target := strings.TrimSpace(query.Get("target"))
	contentType := strings.TrimSpace(query.Get("type"))

	var removed int64
	var err error
	switch target {
	case "relabel":
		removed, err = s.daemon.syncer.CancelAllReprocess(r.Context())
	case "", "indexing":
		if contentType != "" {
			removed, err = s.daemon.syncer.CancelForType(r.Context(), contentType)
		} else {
			removed, err = s.daemon.syncer.CancelAll(r.Context())
		}
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown cancel target %q", target))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CancelResponse{Removed: removed})
}

func (s *apiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listIndex(w, r)
	case http.MethodPost:
		s.indexOne(w, r)
	case http.MethodDelete:
		s.clearIndex(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	records, err := s.daemon.records.List(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.daemon.records.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := api.ListIndexResponse{Total: total, Records: make([]api.IndexRecord, 0, len(records))}
	for _, rec := range records {
		out.Records = append(out.Records, api.IndexRecord{
			ContentID:  rec.ContentID,
			ResourceID: rec.ResourceID,
			SequenceID: rec.SequenceID,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) indexOne(w http.ResponseWriter, r *http.Request) {
	var req api.IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID <= 0 {
		s.writeError(w, http.StatusBadRequest, "content_id required")
		return
	}
	if err := s.daemon.syncer.HandleContentSaved(r.Context(), syncer.SaveEvent{ContentID: req.ContentID}); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.IndexResponse{Synced: true})
}

func (s *apiServer) clearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.syncer.ClearIndex(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID <= 0 {
		s.writeError(w, http.StatusBadRequest, "content_id required")
		return
	}
	if err := s.daemon.syncer.HandleContentDeleted(r.Context(), req.ContentID); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toGroupCounts(counts queue.Counts) api.GroupCounts {
	return api.GroupCounts{
		Pending:  counts.Pending,
		Running:  counts.Running,
		Failed:   counts.Failed,
		IsActive: counts.IsActive(),
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("api response encode failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
