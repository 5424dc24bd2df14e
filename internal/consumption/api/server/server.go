package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/henjigg/consumption/internal/consumption/services/authservice"
	"github.com/henjigg/consumption/internal/consumption/services/userservice"
	"github.com/henjigg/consumption/internal/pkg/config"
	"github.com/henjigg/consumption/pkg/logger"
)

type Server struct {
	serv        *http.Server
	userService UserService
	authService AuthService
	lg          logger.Logger
}

type AuthService interface {
	AuthenticateAndResolve(ctx context.Context, account, password string) (authservice.LoginResult, error)
}

type UserService interface {
	GetUsers(ctx context.Context, req userservice.ListUsersRequest) (userservice.UserPage, error)
	AddUser(ctx context.Context, req userservice.CreateUserRequest) error
	UpdateUser(ctx context.Context, id int, req userservice.UpdateUserRequest) error
	DeleteUser(ctx context.Context, id int) error
}

func New(cfg config.Server, us UserService, as AuthService, lg logger.Logger) *Server {
	s := &Server{
		serv:        nil,
		userService: us,
		authService: as,
		lg:          lg,
	}

	r := chi.NewRouter()
	r.Use(loggingMiddleware(lg))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/user/login", s.Login)
		r.Get("/users", s.GetUsers)
		r.Post("/user", s.AddUser)
		r.Put("/user/{id}", s.UpdateUser)
		r.Delete("/user/{id}", s.DeleteUser)
	})

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			close(errCh)
		}
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctxS, cancel := context.WithTimeout(ctx, s.serv.IdleTimeout)
	defer cancel()

	if err := s.serv.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}

// Аутентификация и получение доступных меню
// (POST /user/login).
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req authservice.LoginRequest

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.writeResponse(w, fail("request failed"))

		return
	}

	result, err := s.authService.AuthenticateAndResolve(r.Context(), req.Account, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrInvalidInput):
			s.writeResponse(w, fail(authservice.ErrInvalidInput.Error()))
		case errors.Is(err, authservice.ErrInvalidCredentials):
			s.writeResponse(w, fail(authservice.ErrInvalidCredentials.Error()))
		default:
			// Never leak store detail on the login path.
			s.writeResponse(w, fail("login failed"))
		}

		return
	}

	s.writeResponse(w, ok(result))
}

// Постраничный список пользователей
// (GET /users).
func (s *Server) GetUsers(w http.ResponseWriter, r *http.Request) {
	var req userservice.ListUsersRequest

	req.Search = r.URL.Query().Get("search")
	req.PageIndex, _ = strconv.Atoi(r.URL.Query().Get("pageIndex")) //nolint:errcheck
	req.PageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))   //nolint:errcheck

	page, err := s.userService.GetUsers(r.Context(), req)
	if err != nil {
		s.writeResponse(w, fail("can't get data"))

		return
	}

	s.writeResponse(w, ok(page))
}

// Создание пользователя
// (POST /user).
func (s *Server) AddUser(w http.ResponseWriter, r *http.Request) {
	var req userservice.CreateUserRequest

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.writeResponse(w, fail("add data error"))

		return
	}

	if err := s.userService.AddUser(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidInput):
			s.writeResponse(w, fail(userservice.ErrInvalidInput.Error()))
		case errors.Is(err, userservice.ErrAlreadyExists):
			s.writeResponse(w, fail(userservice.ErrAlreadyExists.Error()))
		default:
			s.writeResponse(w, fail("error saving data"))
		}

		return
	}

	s.writeResponse(w, ok(nil))
}

// Обновление пользователя
// (PUT /user/{id}).
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, fail("update data error"))

		return
	}

	var req userservice.UpdateUserRequest

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.writeResponse(w, fail("update data error"))

		return
	}

	if err := s.userService.UpdateUser(r.Context(), id, req); err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			s.writeResponse(w, fail("the user was not found"))
		default:
			s.writeResponse(w, fail(fmt.Sprintf("update user %d failed when saving", id)))
		}

		return
	}

	s.writeResponse(w, ok(nil))
}

// Удаление пользователя
// (DELETE /user/{id}).
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, fail("delete data error"))

		return
	}

	if err := s.userService.DeleteUser(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			s.writeResponse(w, fail("the user was not found"))
		default:
			s.writeResponse(w, fail(fmt.Sprintf("deleting user %d failed when saving", id)))
		}

		return
	}

	s.writeResponse(w, ok(nil))
}

func (s *Server) writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Add("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	if err := enc.Encode(resp); err != nil {
		s.lg.Errorf("encode response error: %s", err.Error())
	}
}
