package swagger

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	apispec "github.com/pawdesk/pawdesk/api"
	httpSwagger "github.com/swaggo/http-swagger"
)

const DocPath = "/swagger/doc.json"

// ServeSwaggerJSON writes the OpenAPI document as JSON.
func ServeSwaggerJSON(w http.ResponseWriter, r *http.Request) {
	spec, err := apispec.GetSwagger()
	if err != nil {
		http.Error(w, "Failed to load OpenAPI spec", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*") // docs are public
	_ = json.NewEncoder(w).Encode(spec)
}

// Mount registers the JSON document and the Swagger UI on r.
func Mount(r chi.Router) {
	r.Get(DocPath, ServeSwaggerJSON)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(DocPath)))
}
