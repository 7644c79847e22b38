package server

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/utils/logging"
)

type Server struct {
	mux *chi.Mux
}

func safeWrite(w http.ResponseWriter, code int, body []byte) {
	w.WriteHeader(code)

	// nosemgrep: go.lang.security.audit.xss.no-direct-write-to-responsewriter.no-direct-write-to-responsewriter
	// Why: The response data is not from user input
	if _, err := w.Write(body); err != nil {
		logging.Default().Error("fail to write response", slog.Any("error", err))
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	encoded, err := json.Marshal(body)
	if err != nil {
		logging.Default().Error("fail to encode response", slog.Any("error", err))
		safeWrite(w, http.StatusInternalServerError, []byte("response encoding failed"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	safeWrite(w, code, encoded)
}

type adminOperation func(r *http.Request, id types.BindingID) *model.AdminResult

// adminHandler wraps an administrative use case operation. Operation
// failures are inside the result's errors list; the HTTP status is 200
// either way so the caller never special-cases transport errors.
func adminHandler(op adminOperation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := types.BindingID(chi.URLParam(r, "id"))
		result := op(r, id)
		if result.Errors == nil {
			result.Errors = []string{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func New(uc interfaces.UseCase) *Server {
	r := chi.NewRouter()
	r.Use(preProcess)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		safeWrite(w, http.StatusOK, []byte("ok"))
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/github/{binding}", func(w http.ResponseWriter, r *http.Request) {
			handleWebhook(uc, w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/bindings/{id}", func(r chi.Router) {
			r.Post("/check", adminHandler(func(req *http.Request, id types.BindingID) *model.AdminResult {
				return uc.AdminCheck(req.Context(), id)
			}))
			r.Post("/sync", adminHandler(func(req *http.Request, id types.BindingID) *model.AdminResult {
				return uc.AdminSynchronize(req.Context(), id)
			}))
			r.Post("/stop", adminHandler(func(req *http.Request, id types.BindingID) *model.AdminResult {
				return uc.AdminStop(req.Context(), id)
			}))
			r.Post("/info", adminHandler(func(req *http.Request, id types.BindingID) *model.AdminResult {
				return uc.AdminInfo(req.Context(), id)
			}))
			r.Post("/revoke", adminHandler(func(req *http.Request, id types.BindingID) *model.AdminResult {
				return uc.AdminRevoke(req.Context(), id)
			}))
			r.Post("/installation", adminHandler(func(req *http.Request, id types.BindingID) *model.AdminResult {
				return uc.AdminInstallation(req.Context(), id)
			}))
		})
	})

	return &Server{
		mux: r,
	}
}

func (x *Server) Mux() *chi.Mux {
	return x.mux
}
