package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vmelnikov/filedrop/internal/checkout"
	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/fileenc"
	"github.com/vmelnikov/filedrop/internal/files"
)

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")

	rec, err := s.files.Lookup(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}

	if files.IsPlaceholder(rec.Content) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%s (%d bytes): the content is not hosted here.\n", rec.Name, rec.ByteSize)
		return
	}

	data, err := fileenc.Decode(rec.Content)
	if err != nil {
		s.internalError(w, fmt.Errorf("decode file %s: %w", id, err))
		return
	}

	mime := rec.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	if rec.IsTruncated {
		w.Header().Set("X-Content-Truncated", "true")
	}
	_, _ = w.Write(data)
}

// storeView is what GET /store renders when no payment redirect is present.
type storeView struct {
	Files  int              `json:"files"`
	Banner *checkout.Result `json:"banner,omitempty"`
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	if red := checkout.ParseRedirect(r.URL.Query()); red != nil {
		res, err := s.checkout.Reconcile(r.Context(), red)
		if err != nil {
			s.internalError(w, err)
			return
		}
		if res != nil {
			s.setBanner(res)
		}
		// Strip the query so a reload cannot replay the redirect.
		http.Redirect(w, r, strings.SplitN(r.URL.RequestURI(), "?", 2)[0], http.StatusSeeOther)
		return
	}

	view := storeView{Banner: s.takeBanner()}
	if u, err := s.accounts.CurrentUser(r.Context()); err == nil && u != nil {
		recs, err := s.files.ListByOwner(r.Context(), u.ID)
		if err != nil {
			s.internalError(w, err)
			return
		}
		view.Files = len(recs)
	}
	s.writeJSON(w, http.StatusOK, view)
}

type checkoutRequest struct {
	PackageID string `json:"packageId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.PackageID == "" || req.UserID == "" {
		http.Error(w, "packageId and userId required", http.StatusBadRequest)
		return
	}

	url, err := s.checkout.Initiate(r.Context(), req.UserID, req.UserEmail, req.PackageID)
	if err != nil {
		if errors.Is(err, common.ErrCheckoutInitiation) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner required", http.StatusBadRequest)
		return
	}

	recs, err := s.files.ListByOwner(r.Context(), owner)
	if err != nil {
		s.internalError(w, err)
		return
	}

	// Metadata only, the encoded content does not belong on a listing.
	for _, rec := range recs {
		rec.Content = ""
	}
	s.writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.CurrentUser(r.Context())
	if err != nil {
		if isNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.internalError(w, err)
		return
	}
	if u == nil {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}
