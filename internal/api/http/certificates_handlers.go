package http

import (
	"encoding/json"
	"net/http"

	"github.com/vertechie/vertechie-learn/internal/certificate"
	"github.com/vertechie/vertechie-learn/internal/rbac"
)

func ListCertificatesHandler(issuer *certificate.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		certs, err := issuer.List(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, "state error", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(certs)
	}
}
