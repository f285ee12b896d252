package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turnwise/turnwise/core"
	"github.com/turnwise/turnwise/runner"
	"github.com/turnwise/turnwise/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP front-end",
	Long: `Serve exposes the agent over HTTP:

  POST /chat     execute one turn  {"message": "...", "conversation_id": "...", "team": "..."}
  GET  /tools    list registered tool schemas
  GET  /healthz  liveness probe
  GET  /metrics  Prometheus metrics

Scheduled jobs from the config file start with the server and stop with it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()
		return serve(a)
	},
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Team           string `json:"team,omitempty"`
}

type chatResponse struct {
	ConversationID string            `json:"conversation_id"`
	Answer         string            `json:"answer"`
	Route          core.Route        `json:"route"`
	Team           string            `json:"team,omitempty"`
	LoopCount      int               `json:"loop_count"`
	Invocations    []core.Invocation `json:"invocations,omitempty"`
}

func serve(a *app) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", a.handleChat)
	mux.HandleFunc("GET /tools", a.handleTools)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", a.metrics.Handler())

	sched := scheduler.New(a.engine.Runner(), func(o *scheduler.Options) {
		o.Logger = a.logger
	})
	for _, job := range a.cfg.Jobs {
		if err := sched.Add(scheduler.Job{
			ID:     job.ID,
			Prompt: job.Prompt,
			Cron:   job.Cron,
			Team:   job.Team,
		}); err != nil {
			return fmt.Errorf("configure job %s: %w", job.ID, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		a.logger.Info("server.listening", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-stop:
		a.logger.Info("server.shutdown", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func (a *app) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message must not be empty", http.StatusBadRequest)
		return
	}

	a.metrics.RecordTurn("http")

	opts := []func(o *runner.RunOptions){}
	if req.ConversationID != "" {
		opts = append(opts, runner.WithConversationID(req.ConversationID))
	}
	if req.Team != "" {
		opts = append(opts, runner.WithTeamOverride(req.Team))
	}

	st, err := a.engine.Run(r.Context(), req.Message, opts...)
	if err != nil {
		a.logger.Error("server.chat.failed", "error", err.Error())
		http.Error(w, "turn execution failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, chatResponse{
		ConversationID: st.ConversationID,
		Answer:         st.Answer,
		Route:          st.Route,
		Team:           st.Team,
		LoopCount:      st.LoopCount,
		Invocations:    st.Invocations,
	})
}

func (a *app) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, a.engine.Registry().Schemas())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response failed", http.StatusInternalServerError)
	}
}
