package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapiYAML []byte

var registerOnce sync.Once

// RegisterSwagger converts the embedded YAML document to JSON and registers
// it with swag under the default instance name.
func RegisterSwagger() error {
	var err error
	registerOnce.Do(func() {
		var doc map[string]any
		if err = yaml.Unmarshal(openapiYAML, &doc); err != nil {
			err = fmt.Errorf("invalid embedded openapi document: %w", err)
			return
		}
		var raw []byte
		if raw, err = json.Marshal(doc); err != nil {
			return
		}
		info, _ := doc["info"].(map[string]any)
		title, _ := info["title"].(string)
		version, _ := info["version"].(string)
		swag.Register(swag.Name, &swag.Spec{
			Title:            title,
			Version:          version,
			BasePath:         "/api/v1",
			InfoInstanceName: swag.Name,
			SwaggerTemplate:  string(raw),
			LeftDelim:        "[[",
			RightDelim:       "]]",
		})
	})
	return err
}

// SwaggerHandler serves the registered document as JSON.
func SwaggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := RegisterSwagger(); err != nil {
			Error(w, http.StatusInternalServerError, "swagger document unavailable")
			return
		}
		doc, err := swag.ReadDoc()
		if err != nil {
			Error(w, http.StatusInternalServerError, "swagger document unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}
}
