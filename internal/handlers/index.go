package handlers

import "net/http"

// Endpoints lists the resources mounted under /v1.
var Endpoints = []string{"/audit", "/feature", "/featureGroup", "/identityProvider", "/layer", "/user"}

// Index is the base /v1 responder.
func Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"endpoints": Endpoints})
}
