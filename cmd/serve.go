package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coi-cli/internal/batch"
	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/internal/report"
	"github.com/sells-group/coi-cli/internal/store"
	"github.com/sells-group/coi-cli/pkg/portal"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assessment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var pc portal.Client
		if cfg.Portal.BaseURL != "" {
			pc = initPortal(cfg.Portal)
		}

		api := &server{
			assessor: &batch.Assessor{
				Extractor:   initExtractor(cfg.Extract),
				Store:       st,
				Options:     assessOptions(cfg.Assess),
				Concurrency: cfg.Batch.MaxConcurrentPartners,
			},
			store:   st,
			portal:  pc,
			rowOpts: report.RowOptions{DocumentURL: cfg.Portal.DocumentURL},
			now:     func() time.Time { return time.Now().UTC() },
		}

		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

type server struct {
	assessor *batch.Assessor
	store    store.Store
	portal   portal.Client
	rowOpts  report.RowOptions
	now      func() time.Time
}

func (s *server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(api chi.Router) {
		api.Post("/assess", s.handleAssess)
		api.Post("/validate", s.handleValidate)
		api.Get("/assessments", s.handleListAssessments)
		api.Get("/assessments/{id}", s.handleGetAssessment)
	})
	return r
}

type assessResponse struct {
	Assessments []model.Assessment `json:"assessments"`
	Rows        []report.Row       `json:"rows"`
}

func (s *server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var docs []model.Document
	if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	assessments, err := s.assessor.Assess(r.Context(), docs)
	if err != nil {
		zap.L().Error("assess request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "assessment failed")
		return
	}
	if assessments == nil {
		assessments = []model.Assessment{}
	}
	writeJSON(w, http.StatusOK, assessResponse{
		Assessments: assessments,
		Rows:        report.BuildRows(assessments, s.rowOpts),
	})
}

type validateResponse struct {
	model.Decision
	Posted bool `json:"posted"`
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var doc model.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	d, err := batch.Validate(r.Context(), s.assessor.Extractor, doc, s.now())
	if err != nil {
		zap.L().Error("validate request failed", zap.String("document", doc.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}

	resp := validateResponse{Decision: d}
	if r.URL.Query().Get("post") == "true" && s.portal != nil {
		if err := s.portal.PostDecision(r.Context(), doc.ID, d); err != nil {
			zap.L().Error("post decision failed", zap.String("document", doc.ID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "posting decision failed")
			return
		}
		resp.Posted = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AssessmentFilter{PartnerID: q.Get("partner")}
	if v := q.Get("action"); v != "" {
		act, err := model.ParseAction(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid action")
			return
		}
		filter.Action = act
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			*dst = n
		}
	}

	list, err := s.store.ListAssessments(r.Context(), filter)
	if err != nil {
		zap.L().Error("list assessments failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if list == nil {
		list = []model.Assessment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.store.GetAssessment(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}
	if err != nil {
		zap.L().Error("get assessment failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
