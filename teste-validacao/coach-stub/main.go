// Upstream falso da API do coach, para validar o gateway na mão:
//
//	go run ./teste-validacao/coach-stub
//	UPSTREAM_URL=http://localhost:8081 go run ./cmd/gateway
//	for i in $(seq 1 21); do curl -s -o /dev/null -w '%{http_code}\n' -X POST localhost:8080/api/auth/login; done
package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	log.Infof("coach stub rodando em http://localhost%s", addr)
	if err := http.ListenAndServe(addr, newStubAPI(log)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("erro ao subir o servidor: %v", err)
	}
}

func newStubAPI(log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"xff":    r.Header.Get("X-Forwarded-For"),
			}).Info("requisição recebida")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/api/auth/signup", reply(http.StatusCreated, "account created"))
	r.Post("/api/auth/login", reply(http.StatusOK, "logged in"))
	r.Post("/api/interview/start", reply(http.StatusOK, "interview started"))
	r.Post("/api/interview/feedback", reply(http.StatusOK, "feedback generated"))
	r.Post("/api/resume/analyze", reply(http.StatusOK, "resume analyzed"))
	r.NotFound(reply(http.StatusNotFound, "not found"))
	return r
}

func reply(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": status < http.StatusBadRequest,
			"message": message,
		})
	}
}
