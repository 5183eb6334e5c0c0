// Copyright (c) 2024 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/topazui/topaz/topaz/layout"
	"github.com/topazui/topaz/topaz/passwd"
)

func newAPIHandler(server *Server) http.Handler {
	api := &topazAPI{
		server: server,
		mux:    http.NewServeMux(),
	}

	api.mux.HandleFunc("POST /v1/translate", api.handleTranslate)
	api.mux.HandleFunc("POST /v1/classify", api.handleClassify)
	api.mux.HandleFunc("GET /v1/menus", api.handleListMenus)
	api.mux.HandleFunc("GET /v1/menus/{name}", api.handleGetMenu)
	api.mux.HandleFunc("GET /v1/status", api.handleStatus)
	api.mux.HandleFunc("POST /v1/rehash", api.handleRehash)
	api.mux.HandleFunc("GET /v1/ws", api.handleWebSocket)

	return api
}

type topazAPI struct {
	server *Server
	mux    *http.ServeMux
}

func (a *topazAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer a.server.HandlePanic()

	defer a.server.logger.Debug("api", r.Method, r.URL.Path)

	config := a.server.Config()
	if subject, ok := a.checkBearerAuth(config, r.Header.Get("Authorization")); ok {
		a.server.logger.Debug("api", "authorized", subject)
		r.Body = http.MaxBytesReader(w, r.Body, int64(config.MaxRequestSize()))
		a.mux.ServeHTTP(w, r)
	} else {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
}

// checkBearerAuth accepts either a token matching one of the configured
// hashes or a JWT accepted by one of the configured keys.
func (a *topazAPI) checkBearerAuth(config *Config, authHeader string) (subject string, authorized bool) {
	if authHeader == "" {
		return "", false
	}
	if !config.Server.API.Enabled {
		return "", false
	}
	spaceIdx := strings.IndexByte(authHeader, ' ')
	if spaceIdx < 0 {
		return "", false
	}
	if !strings.EqualFold("Bearer", authHeader[:spaceIdx]) {
		return "", false
	}
	providedToken := strings.TrimSpace(authHeader[spaceIdx+1:])
	if providedToken == "" {
		return "", false
	}
	for _, hash := range config.Server.API.bearerTokenHashes {
		if passwd.CompareHashAndPassword(hash, []byte(providedToken)) == nil {
			return "static-token", true
		}
	}
	if config.Server.API.JWT.Enabled {
		subject, err := config.Server.API.JWT.Validate(providedToken)
		if err == nil {
			return subject, true
		}
		a.server.logger.Debug("api", "rejected jwt", err.Error())
	}
	return "", false
}

func (a *topazAPI) decodeJSONRequest(request any, w http.ResponseWriter, r *http.Request) (err error) {
	err = json.NewDecoder(r.Body).Decode(request)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, fmt.Sprintf("failed to deserialize json request: %v", err), http.StatusBadRequest)
		}
	}
	return err
}

func (a *topazAPI) writeJSONResponse(status int, response any, w http.ResponseWriter, r *http.Request) {
	j, err := json.Marshal(response)
	if err == nil {
		j = append(j, '\n') // less annoying in curl output
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(j)
	} else {
		a.server.logger.Error("internal", "failed to serialize API response", r.URL.String(), err.Error())
		http.Error(w, fmt.Sprintf("failed to serialize json response: %v", err), http.StatusInternalServerError)
	}
}

type apiGenericResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

type apiTranslateRequest struct {
	Text  string `json:"text"`
	Strip bool   `json:"strip"`
}

type apiTranslateResponse struct {
	apiGenericResponse
	Markup string `json:"markup"`
}

func (a *topazAPI) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var request apiTranslateRequest
	if err := a.decodeJSONRequest(&request, w, r); err != nil {
		return
	}

	tr := a.server.Config().LegacyTranslator()
	var response apiTranslateResponse
	response.Success = true
	if request.Strip {
		response.Markup = tr.Strip(request.Text)
	} else {
		response.Markup = tr.Translate(request.Text)
	}
	a.writeJSONResponse(http.StatusOK, response, w, r)
}

type apiClassifyRequest struct {
	Rows []string `json:"rows"`
}

type apiClassifyResponse struct {
	apiGenericResponse
	Shape  layout.Shape `json:"shape"`
	Size   int          `json:"size"`
	Fitted layout.Shape `json:"fitted"`
}

func (a *topazAPI) handleClassify(w http.ResponseWriter, r *http.Request) {
	var request apiClassifyRequest
	if err := a.decodeJSONRequest(&request, w, r); err != nil {
		return
	}

	var response apiClassifyResponse
	response.Success = true
	response.Shape = layout.Classify(request.Rows)
	response.Size = response.Shape.ContainerSize(len(request.Rows))
	_, response.Fitted = layout.Fit(request.Rows)
	a.writeJSONResponse(http.StatusOK, response, w, r)
}

type apiMenuSummary struct {
	Name  string       `json:"name"`
	Key   string       `json:"key"`
	Shape layout.Shape `json:"shape"`
	Size  int          `json:"size"`
	Pages int          `json:"pages"`
}

type apiListMenusResponse struct {
	apiGenericResponse
	Menus []apiMenuSummary `json:"menus"`
}

func (a *topazAPI) handleListMenus(w http.ResponseWriter, r *http.Request) {
	var response apiListMenusResponse
	menus, err := LoadMenus(a.server.store)
	if err != nil {
		a.server.logger.Error("api", "could not load menus", err.Error())
		response.Error = err.Error()
		response.ErrorCode = "DATASTORE_ERROR"
		a.writeJSONResponse(http.StatusInternalServerError, response, w, r)
		return
	}

	response.Success = true
	response.Menus = make([]apiMenuSummary, 0, len(menus))
	for _, menu := range menus {
		response.Menus = append(response.Menus, apiMenuSummary{
			Name:  menu.Name,
			Key:   menu.Key,
			Shape: menu.Shape,
			Size:  menu.Size,
			Pages: menu.Pages,
		})
	}
	a.writeJSONResponse(http.StatusOK, response, w, r)
}

type apiGetMenuResponse struct {
	apiGenericResponse
	Menu *Menu `json:"menu,omitempty"`
}

func (a *topazAPI) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	var response apiGetMenuResponse
	menu, err := LoadMenu(a.server.store, r.PathValue("name"))
	switch {
	case err == nil:
		response.Success = true
		response.Menu = menu
		a.writeJSONResponse(http.StatusOK, response, w, r)
	case errors.Is(err, errNoSuchMenu):
		response.Error = err.Error()
		response.ErrorCode = "NO_SUCH_MENU"
		a.writeJSONResponse(http.StatusNotFound, response, w, r)
	default:
		a.server.logger.Error("api", "could not load menu", err.Error())
		response.Error = err.Error()
		response.ErrorCode = "DATASTORE_ERROR"
		a.writeJSONResponse(http.StatusInternalServerError, response, w, r)
	}
}

type apiStatusResponse struct {
	apiGenericResponse
	Version string    `json:"version"`
	Server  string    `json:"server"`
	Started time.Time `json:"started"`
	Menus   int       `json:"menus"`
}

func (a *topazAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	config := a.server.Config()
	response := apiStatusResponse{
		Version: Ver,
		Server:  config.Server.Name,
		Started: a.server.ctime,
		Menus:   len(config.CompiledMenus()),
	}
	response.Success = true
	a.writeJSONResponse(http.StatusOK, response, w, r)
}

func (a *topazAPI) handleRehash(w http.ResponseWriter, r *http.Request) {
	var response apiGenericResponse
	err := a.server.rehash()
	if err == nil {
		response.Success = true
	} else {
		response.Success = false
		response.Error = err.Error()
		response.ErrorCode = "REHASH_FAILED"
	}
	a.writeJSONResponse(http.StatusOK, response, w, r)
}
