package server

import (
	"net/http"
	"strings"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/storage/artifacts"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/signup", s.handleSignup)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/auth/me", s.handleMe)

	// Generation
	mux.HandleFunc("/api/generate/text-to-image", s.handleTextToImage)
	mux.HandleFunc("/api/generate/text-to-video", s.handleTextToVideo)
	mux.HandleFunc("/api/generate/image-to-video", s.handleImageToVideo)
	mux.HandleFunc("/api/generate/jobs/", s.routeJobs)

	// Assets
	mux.HandleFunc("/api/assets/", s.routeAssets)
	mux.HandleFunc("/api/assets", s.handleAssetList)

	// Admin
	mux.HandleFunc("/api/admin/queue-status", s.handleQueueStatus)
	mux.HandleFunc("/api/admin/ws/jobs", s.handleJobsWS)

	// Generated artifacts with static-file semantics
	fileServer := http.FileServer(http.Dir(s.app.Artifacts.Root()))
	mux.Handle(artifacts.URLPrefix, http.StripPrefix(artifacts.URLPrefix, fileServer))
}

// routeJobs dispatches /api/generate/jobs/{id} and /api/generate/jobs/{id}/stream.
func (s *Server) routeJobs(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/generate/jobs/")
	if path == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	if id, ok := strings.CutSuffix(path, "/stream"); ok {
		s.handleJobStream(w, r, id)
		return
	}
	if strings.Contains(path, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleJobGet(w, r, path)
}

// routeAssets dispatches /api/assets/ (list) and /api/assets/{id}.
func (s *Server) routeAssets(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/assets/")
	if path == "" {
		s.handleAssetList(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleAssetGet(w, r, path)
	case http.MethodDelete:
		s.handleAssetDelete(w, r, path)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
