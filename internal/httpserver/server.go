package httpserver

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/fdg312/nomnom/internal/auth"
	"github.com/fdg312/nomnom/internal/blob"
	"github.com/fdg312/nomnom/internal/config"
	"github.com/fdg312/nomnom/internal/recipes"
	"github.com/fdg312/nomnom/internal/storage"
	"github.com/fdg312/nomnom/internal/storage/memory"
	"github.com/fdg312/nomnom/internal/storage/postgres"
)

// Server — HTTP сервер приложения.
type Server struct {
	config  *config.Config
	mux     *http.ServeMux
	storage storage.Storage

	httpServer *http.Server

	authMiddleware *auth.Middleware
}

// New создает новый HTTP сервер.
func New(cfg *config.Config) (*Server, error) {
	st, err := initStorage(cfg)
	if err != nil {
		return nil, err
	}

	blobStore, blobMode, err := blob.NewBlobStore(cfg.Blob, log.Default())
	if err != nil {
		st.Close()
		return nil, err
	}
	log.Printf("INFO: blob storage mode=%s", blobMode)

	authService := auth.NewService(cfg, st)
	authHandlers := auth.NewHandlers(authService)
	authMiddleware := auth.NewMiddleware(cfg, authService)

	recipeService := recipes.NewService(
		st,
		blobStore,
		cfg.UploadMaxMB,
		cfg.UploadAllowedMime,
		cfg.MaxImagesPerRecipe,
		cfg.Blob.S3.PublicBaseURL,
		cfg.Blob.S3.PreferPublicURL,
		cfg.Blob.S3.PresignTTLSeconds,
	)
	recipeHandlers := recipes.NewHandlers(recipeService)

	s := &Server{
		config:         cfg,
		mux:            http.NewServeMux(),
		storage:        st,
		authMiddleware: authMiddleware,
	}
	s.routes(authHandlers, recipeHandlers)

	return s, nil
}

// initStorage выбирает хранилище: Postgres при наличии DATABASE_URL,
// иначе in-memory. При ошибке подключения падаем обратно на in-memory,
// чтобы сервер оставался пригодным для локальной разработки.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.DatabaseURL == "" {
		log.Println("INFO: DATABASE_URL not set, using in-memory storage")
		return memory.New(), nil
	}

	pg, err := postgres.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Printf("WARNING: postgres connection failed (%v), falling back to in-memory storage", err)
		return memory.New(), nil
	}

	log.Println("INFO: connected to postgres")
	return pg, nil
}

func (s *Server) routes(authHandlers *auth.Handlers, recipeHandlers *recipes.Handlers) {
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /auth/register", authHandlers.HandleRegister)
	s.mux.HandleFunc("POST /auth/login", authHandlers.HandleLogin)
	s.mux.HandleFunc("GET /auth/me", authHandlers.HandleMe)

	s.mux.HandleFunc("GET /recipes", recipeHandlers.HandleList)
	s.mux.HandleFunc("POST /recipes", recipeHandlers.HandleCreate)
	s.mux.HandleFunc("GET /recipes/{id}", recipeHandlers.HandleGet)
	s.mux.HandleFunc("PUT /recipes/{id}", recipeHandlers.HandleUpdate)
	s.mux.HandleFunc("DELETE /recipes/{id}", recipeHandlers.HandleDelete)
	s.mux.HandleFunc("POST /recipes/{id}/images", recipeHandlers.HandleUploadImage)
	s.mux.HandleFunc("GET /recipes/{id}/images/{imageID}", recipeHandlers.HandleDownloadImage)
	s.mux.HandleFunc("DELETE /recipes/{id}/images/{imageID}", recipeHandlers.HandleDeleteImage)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handler строит цепочку middleware (снаружи внутрь):
// CORS → Rate Limit → Auth → Router. При AUTH_REQUIRED токен обязателен на
// всех непубличных маршрутах, иначе он проверяется только когда передан.
func (s *Server) handler() http.Handler {
	var handler http.Handler = s.mux
	if s.config.AuthRequired {
		handler = s.authMiddleware.RequireAuth(handler)
	} else {
		handler = s.authMiddleware.OptionalAuth(handler)
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает HTTP сервер.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	handler := s.handler()

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	log.Printf("INFO: server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Close освобождает ресурсы сервера.
func (s *Server) Close() {
	if s.httpServer != nil {
		_ = s.httpServer.Shutdown(context.Background())
	}
	if s.storage != nil {
		s.storage.Close()
	}
}
