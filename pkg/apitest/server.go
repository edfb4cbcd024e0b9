// Package apitest runs an in-memory task service for tests. It implements
// the same routes as the real service, issues HS256 session tokens and keeps
// a log of the requests it served.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/harrisonrobin/tasks/pkg/model"
)

// Request is one request observed by the server.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type user struct {
	id       model.ID
	name     string
	email    string
	password string
}

type record struct {
	owner model.ID
	task  model.Task
}

// Claims are the claims of tokens issued by the server.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Server is a fake task service.
type Server struct {
	*httptest.Server

	// Now is the server clock used for doneAt and token expiry.
	Now func() time.Time
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	mu       sync.Mutex
	secret   []byte
	users    map[string]user
	records  []record
	nextID   int
	requests []Request
	failures map[string]int
}

// NewServer starts a server and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		Now:      time.Now,
		TokenTTL: time.Hour,
		secret:   []byte("apitest-secret"),
		users:    make(map[string]user),
		nextID:   1,
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := gin.New()
	r.Use(s.recordRequest())

	r.POST("/signup", s.signUp)
	r.POST("/signin", s.signIn)

	private := r.Group("/")
	private.Use(s.authenticate())
	{
		private.GET("/tasks", s.listTasks)
		private.POST("/tasks", s.createTask)
		private.PUT("/tasks/:id/toggle", s.toggleTask)
		private.DELETE("/tasks/:id", s.deleteTask)
	}
	return r
}

func (s *Server) recordRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.Request.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Query:         c.Request.URL.RawQuery,
			Authorization: c.GetHeader("Authorization"),
			RequestID:     c.GetHeader("X-Request-ID"),
		})
		status, fail := s.failures[key]
		if fail {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if fail {
			c.AbortWithStatusJSON(status, gin.H{"error": "injected failure"})
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		claims := &Claims{}
		parser := jwt.NewParser(jwt.WithoutClaimsValidation())
		parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if claims.ExpiresAt != nil && !s.Now().Before(claims.ExpiresAt.Time) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}
		c.Set("uid", claims.UserID)
		c.Next()
	}
}

// FailNext makes the next request matching method and path fail with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// AddUser registers an account directly and returns its ID.
func (s *Server) AddUser(name, email, password string) model.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password)
}

func (s *Server) addUserLocked(name, email, password string) model.ID {
	id := model.ID(strconv.Itoa(len(s.users) + 1))
	s.users[strings.ToLower(email)] = user{id: id, name: name, email: email, password: password}
	return id
}

// Token issues a token for a registered user.
func (s *Server) Token(email string) (string, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown user %s", email)
	}
	return s.issue(u)
}

func (s *Server) issue(u user) (string, error) {
	claims := &Claims{
		UserID: u.id.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.Now().Add(s.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// SetTasks replaces the collection of the user registered under email. Tasks
// without an ID get the next free one.
func (s *Server) SetTasks(email string, tasks ...model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return
	}
	kept := s.records[:0]
	for _, r := range s.records {
		if r.owner != u.id {
			kept = append(kept, r)
		}
	}
	s.records = kept
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = s.nextTaskIDLocked()
		} else if n, err := strconv.Atoi(t.ID.String()); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
		s.records = append(s.records, record{owner: u.id, task: t})
	}
}

// Tasks returns a copy of the collection of the user registered under email.
func (s *Server) Tasks(email string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[strings.ToLower(email)]
	var out []model.Task
	for _, r := range s.records {
		if r.owner == u.id {
			out = append(out, r.task)
		}
	}
	return out
}

// Requests returns the requests served so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and a path prefix.
func (s *Server) Count(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func (s *Server) nextTaskIDLocked() model.ID {
	id := model.ID(strconv.Itoa(s.nextID))
	s.nextID++
	return id
}

func (s *Server) signUp(c *gin.Context) {
	var in struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Email == "" || in.Password == "" || in.Password != in.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sign-up data"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[strings.ToLower(in.Email)]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		return
	}
	s.addUserLocked(in.Name, in.Email, in.Password)
	c.Status(http.StatusNoContent)
}

func (s *Server) signIn(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok || u.password != in.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := s.issue(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"userId": u.id,
		"name":   u.name,
		"email":  u.email,
	})
}

func (s *Server) listTasks(c *gin.Context) {
	owner := model.ID(c.GetString("uid"))
	maxDate := s.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := model.ParseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		maxDate = parsed
	}

	s.mu.Lock()
	out := make([]model.Task, 0)
	for _, r := range s.records {
		if r.owner == owner && !r.task.EstimateAt.After(maxDate) {
			out = append(out, r.task)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EstimateAt.Before(out[j].EstimateAt.Time)
	})
	c.JSON(http.StatusOK, out)
}

func (s *Server) createTask(c *gin.Context) {
	var in struct {
		Desc       string     `json:"desc"`
		EstimateAt model.Time `json:"estimateAt"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(in.Desc) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "desc is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task := model.Task{ID: s.nextTaskIDLocked(), Desc: in.Desc, EstimateAt: in.EstimateAt}
	s.records = append(s.records, record{owner: model.ID(c.GetString("uid")), task: task})
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findLocked(c)
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if r.task.Done() {
		r.task.DoneAt = nil
	} else {
		r.task.DoneAt = model.NewTime(s.Now())
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := model.ID(c.GetString("uid"))
	id := model.ID(c.Param("id"))
	for i, r := range s.records {
		if r.owner == owner && r.task.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
}

func (s *Server) findLocked(c *gin.Context) *record {
	owner := model.ID(c.GetString("uid"))
	id := model.ID(c.Param("id"))
	for i := range s.records {
		if s.records[i].owner == owner && s.records[i].task.ID == id {
			return &s.records[i]
		}
	}
	return nil
}
