// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, detail string) {
	writeJSON(w, code, errorBody{Error: errCode, Detail: detail})
}

func writeNotFound(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusNotFound, "not_found", detail)
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusBadRequest, "bad_request", detail)
}
