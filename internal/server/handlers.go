package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/nitobe/mitsukeru/internal/embedding"
	"github.com/nitobe/mitsukeru/internal/extract"
	"github.com/nitobe/mitsukeru/internal/generate"
	"github.com/nitobe/mitsukeru/internal/models"
	"github.com/nitobe/mitsukeru/internal/segment"
	"github.com/nitobe/mitsukeru/internal/verify"
)

const (
	maxUploadBytes   = 32 << 20
	uploadPreviewLen = 200
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountSnippets(r.Context())
	if err != nil {
		s.logger.Error("status: count snippets failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"snippets":    count,
		"corpus_size": s.rag.CorpusSize(),
		"keywords":    len(s.verifier.Keywords()),
		"config": map[string]interface{}{
			"embed_model":          s.config.Provider.EmbedModel,
			"generate_model":       s.config.Provider.GenerateModel,
			"top_k":                s.config.Retrieval.TopK,
			"similarity_threshold": s.config.Retrieval.SimilarityThreshold,
			"database_path":        s.config.Storage.DatabasePath,
			"snippets_dir":         s.config.Storage.SnippetsDir,
		},
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runVerify(w, r, &req)
}

func (s *Server) handleVerifyUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	text, err := extract.Extract(header.Filename, content)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			s.respondError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		s.logger.Error("upload extraction failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	req := models.VerifyRequest{Document: text}
	if v := r.FormValue("num_results"); v != "" {
		if req.NumResults, err = strconv.Atoi(v); err != nil {
			s.respondError(w, http.StatusBadRequest, "num_results must be an integer")
			return
		}
	}
	if v := r.FormValue("top_sentences"); v != "" {
		if req.TopSentences, err = strconv.Atoi(v); err != nil {
			s.respondError(w, http.StatusBadRequest, "top_sentences must be an integer")
			return
		}
	}

	s.runVerifyUpload(w, r, &req, header.Filename, text)
}

func (s *Server) runVerify(w http.ResponseWriter, r *http.Request, req *models.VerifyRequest) {
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.verifier.Verify(r.Context(), req.Document, req.NumResults, req.TopSentences)
	if err != nil {
		s.respondVerifyError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) runVerifyUpload(w http.ResponseWriter, r *http.Request, req *models.VerifyRequest, filename, text string) {
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.verifier.Verify(r.Context(), req.Document, req.NumResults, req.TopSentences)
	if err != nil {
		s.respondVerifyError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"filename":     filename,
		"text_preview": extract.Preview(text, uploadPreviewLen),
		"report":       report,
	})
}

func (s *Server) respondVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, segment.ErrEmptyDocument):
		s.respondError(w, http.StatusBadRequest, "document contains no text")
	case errors.Is(err, verify.ErrNoKeywords):
		s.respondError(w, http.StatusConflict, "no keywords configured")
	default:
		var perr *embedding.ProviderError
		if errors.As(err, &perr) {
			s.logger.Error("embedding provider failed", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.logger.Error("verification failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleKeywordsList(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"keywords": s.verifier.Keywords(),
	})
}

type keywordsRequest struct {
	Keywords []string `json:"keywords"`
}

func (s *Server) handleKeywordsReplace(w http.ResponseWriter, r *http.Request) {
	var req keywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.verifier.SetKeywords(r.Context(), req.Keywords); err != nil {
		var perr *embedding.ProviderError
		if errors.As(err, &perr) {
			s.logger.Error("keyword embedding failed", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"keywords": s.verifier.Keywords(),
		"status":   "replaced",
	})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var query models.RetrieveQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("retrieve request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	resp, err := s.rag.Retrieve(r.Context(), &query)
	if err != nil {
		s.respondRAGError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var query models.RetrieveQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("generate request", zap.String("query", query.Query))
	resp, err := s.rag.Answer(r.Context(), &query)
	if err != nil {
		s.respondRAGError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondRAGError(w http.ResponseWriter, err error) {
	var perr *embedding.ProviderError
	var gerr *generate.GenerationError
	if errors.As(err, &perr) || errors.As(err, &gerr) {
		s.logger.Error("provider failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.logger.Error("retrieval failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleSnippetsReload(w http.ResponseWriter, r *http.Request) {
	loaded := 0
	if dir := s.config.Storage.SnippetsDir; dir != "" {
		n, err := s.loader.LoadDir(r.Context(), dir)
		if err != nil {
			s.logger.Error("snippet directory load failed", zap.String("dir", dir), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		loaded = n
	}
	if err := s.corpus.Rebuild(r.Context()); err != nil {
		s.logger.Error("corpus rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "reloaded",
		"loaded":      loaded,
		"corpus_size": s.rag.CorpusSize(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
