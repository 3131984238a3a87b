package httputil

import (
	"encoding/json"
	"net/http"
)

func RespondJSON(rw http.ResponseWriter, status int, resp any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(resp)
}

func RespondError(rw http.ResponseWriter, status int, message string) {
	RespondJSON(rw, status, map[string]string{"error": message})
}
