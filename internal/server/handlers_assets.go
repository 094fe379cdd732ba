package server

import (
	"net/http"
	"strconv"

	"github.com/kimhyeog/forge/internal/models"
)

// handleAssetList handles GET /api/assets/ — the caller's assets, newest first.
func (s *Server) handleAssetList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 20)

	assets, err := s.app.Storage.AssetStore().ListByUser(r.Context(), userID, skip, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list assets")
		WriteError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []*models.Asset{}
	}

	WriteJSON(w, http.StatusOK, assets)
}

// handleAssetGet handles GET /api/assets/{id}. Assets of other users are
// reported as absent, never as forbidden.
func (s *Server) handleAssetGet(w http.ResponseWriter, r *http.Request, idParam string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	asset, status := s.loadOwnedAsset(r, idParam, userID)
	if asset == nil {
		WriteError(w, status, "asset not found")
		return
	}

	WriteJSON(w, http.StatusOK, asset)
}

// handleAssetDelete handles DELETE /api/assets/{id} — removes the row and
// the file. A missing file is tolerated; a missing row is 404.
func (s *Server) handleAssetDelete(w http.ResponseWriter, r *http.Request, idParam string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	asset, status := s.loadOwnedAsset(r, idParam, userID)
	if asset == nil {
		WriteError(w, status, "asset not found")
		return
	}

	if asset.FilePath != "" {
		if err := s.app.Artifacts.Delete(asset.FilePath); err != nil {
			s.logger.Warn().Int64("asset_id", asset.ID).Err(err).Msg("Failed to delete artifact file")
		}
	}

	if err := s.app.Storage.AssetStore().Delete(r.Context(), asset.ID); err != nil {
		s.logger.Error().Int64("asset_id", asset.ID).Err(err).Msg("Failed to delete asset row")
		WriteError(w, http.StatusInternalServerError, "failed to delete asset")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{})
}

// loadOwnedAsset resolves an asset id and enforces ownership. Returns the
// asset, or nil with the HTTP status to report.
func (s *Server) loadOwnedAsset(r *http.Request, idParam string, userID int64) (*models.Asset, int) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return nil, http.StatusNotFound
	}

	asset, err := s.app.Storage.AssetStore().GetByID(r.Context(), id)
	if err != nil {
		return nil, http.StatusNotFound
	}
	// Ownership failures are indistinguishable from absence to avoid an
	// existence oracle.
	if asset.UserID != userID {
		return nil, http.StatusNotFound
	}
	return asset, http.StatusOK
}

// queryInt parses a non-negative integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
