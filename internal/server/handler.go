package server

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJsonResponse(w http.ResponseWriter, response any, statusCode int) {
	if resp, err := json.Marshal(response); err != nil {
		s.Logger.Errorf("Error encoding response: %+v, err: %v", response, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		if _, err = w.Write(resp); err != nil {
			s.Logger.Errorf("Error writing JSON response: %s, err: %v", resp, err)
		}
	}
}

func (s *Server) writeJsonError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJsonResponse(w, errorResponse{Error: message}, statusCode)
}

func (s *Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		s.Logger.Debugf("notFoundHandler: Requested resource not found: %s, TraceID: %s", r.URL.Path, tc.traceID)
		s.renderError(w, http.StatusNotFound, nil)
	}
}
