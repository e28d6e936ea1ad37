package mock

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"stockportal/pkg/logging"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// Messages mirror the real backend so clients can be tested against them.
	msgNoAccount    = "No active account found with the given credentials"
	msgTokenInvalid = "Token is invalid or expired"
	msgNotValidType = "Given token not valid for any token type"
	msgNoAuth       = "Authentication credentials were not provided."
	msgRequired     = "This field is required."
	msgBlank        = "This field may not be blank."
)

// PortalConfig configures the mock portal.
type PortalConfig struct {
	// Secret signs credentials. A random secret is generated when empty.
	Secret []byte

	// AccessLifetime is how long access credentials are valid (default 5m).
	AccessLifetime time.Duration

	// RefreshLifetime is how long refresh credentials are valid (default 24h).
	RefreshLifetime time.Duration

	// Clock judges expiry (defaults to RealClock).
	Clock Clock

	// Users seeds accounts, username to password.
	Users map[string]string

	// Tickers maps known tickers to today's price. Defaults to a small set
	// of large caps; other tickers get a "no data" error.
	Tickers map[string]float64

	// RefreshDelay holds every refresh response, widening the window in
	// which concurrent calls can fail.
	RefreshDelay time.Duration

	// Debug enables gin debug output and request logging.
	Debug bool
}

// PortalServer is a mock of the stock prediction portal.
type PortalServer struct {
	config PortalConfig
	clock  Clock
	engine *gin.Engine

	mu      sync.RWMutex
	users   map[string]*account
	revoked map[string]bool

	httpServer *http.Server
	listener   net.Listener
	running    bool

	tokenCalls     atomic.Int64
	refreshCalls   atomic.Int64
	protectedCalls atomic.Int64
	rejectedCalls  atomic.Int64
}

type account struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	password  string
}

type portalClaims struct {
	TokenType string `json:"token_type"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// NewPortalServer creates a mock portal. It does not listen until Start.
func NewPortalServer(config PortalConfig) *PortalServer {
	if config.AccessLifetime == 0 {
		config.AccessLifetime = 5 * time.Minute
	}
	if config.RefreshLifetime == 0 {
		config.RefreshLifetime = 24 * time.Hour
	}
	if len(config.Secret) == 0 {
		config.Secret = make([]byte, 32)
		_, _ = rand.Read(config.Secret)
	}
	if config.Tickers == nil {
		config.Tickers = map[string]float64{
			"AAPL":  229.87,
			"MSFT":  415.10,
			"GOOGL": 167.42,
			"AMZN":  186.51,
			"NVDA":  124.92,
			"TSLA":  251.44,
		}
	}

	clock := config.Clock
	if clock == nil {
		clock = RealClock{}
	}

	s := &PortalServer{
		config:  config,
		clock:   clock,
		users:   make(map[string]*account),
		revoked: make(map[string]bool),
	}
	for username, password := range config.Users {
		s.users[username] = &account{Username: username, password: password}
	}
	s.engine = s.setupRouter()
	return s
}

func (s *PortalServer) setupRouter() *gin.Engine {
	if !s.config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if s.config.Debug {
		router.Use(requestLogger())
	}

	api := router.Group("/api/v1")
	{
		api.POST("/token/", s.handleToken)
		api.POST("/token/refresh/", s.handleRefresh)
		api.POST("/token/verify/", s.handleVerify)
		api.POST("/register/", s.handleRegister)
	}

	protected := api.Group("")
	protected.Use(s.authMiddleware())
	{
		protected.GET("/protected/", s.handleProtected)
		protected.POST("/predict/", s.handlePredict)
	}
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("MockServer", "%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Handler returns the portal as an http.Handler, e.g. for httptest.NewServer.
func (s *PortalServer) Handler() http.Handler {
	return s.engine
}

// Start listens on addr ("" picks a free loopback port) and serves in the
// background. It returns the bound port.
func (s *PortalServer) Start(ctx context.Context, addr string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.New(io.Discard, "", 0),
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("MockServer", err, "Mock portal stopped")
		}
	}()
	s.running = true

	port := listener.Addr().(*net.TCPAddr).Port
	logging.Info("MockServer", "Mock portal listening on %s", listener.Addr())
	return port, nil
}

// Stop shuts the server down.
func (s *PortalServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the API root of a started server.
func (s *PortalServer) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/api/v1", s.listener.Addr())
}

// IsRunning reports whether Start succeeded and Stop was not called.
func (s *PortalServer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// WaitForReady blocks until the listener accepts connections.
func (s *PortalServer) WaitForReady(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.mu.RLock()
			listener := s.listener
			s.mu.RUnlock()
			if listener == nil {
				continue
			}
			conn, err := net.DialTimeout("tcp", listener.Addr().String(), time.Second)
			if err == nil {
				conn.Close()
				return nil
			}
		}
	}
}

// AddUser creates or replaces an account.
func (s *PortalServer) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &account{Username: username, password: password}
}

// HasUser reports whether an account exists.
func (s *PortalServer) HasUser(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok
}

// RevokeRefresh makes a refresh credential unusable.
func (s *PortalServer) RevokeRefresh(refresh string) {
	claims, err := s.parse(refresh, tokenTypeRefresh)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[claims.ID] = true
}

// TokenCalls returns the number of /token/ calls.
func (s *PortalServer) TokenCalls() int64 { return s.tokenCalls.Load() }

// RefreshCalls returns the number of /token/refresh/ calls.
func (s *PortalServer) RefreshCalls() int64 { return s.refreshCalls.Load() }

// ProtectedCalls returns the number of authorized calls to protected endpoints.
func (s *PortalServer) ProtectedCalls() int64 { return s.protectedCalls.Load() }

// RejectedCalls returns the number of protected calls rejected with 401.
func (s *PortalServer) RejectedCalls() int64 { return s.rejectedCalls.Load() }

// IssueAccess signs an access credential for username at the current clock time.
func (s *PortalServer) IssueAccess(username string) (string, error) {
	return s.sign(username, tokenTypeAccess, s.config.AccessLifetime)
}

// IssueRefresh signs a refresh credential for username at the current clock time.
func (s *PortalServer) IssueRefresh(username string) (string, error) {
	return s.sign(username, tokenTypeRefresh, s.config.RefreshLifetime)
}

func (s *PortalServer) sign(username, tokenType string, lifetime time.Duration) (string, error) {
	now := s.clock.Now()
	claims := portalClaims{
		TokenType: tokenType,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
}

var errWrongTokenType = errors.New("wrong token type")

func (s *PortalServer) parse(token, tokenType string) (*portalClaims, error) {
	claims := &portalClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.config.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, errWrongTokenType
	}
	return claims, nil
}

func (s *PortalServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if len(auth) < 8 || !strings.EqualFold(auth[:7], "Bearer ") {
			s.rejectedCalls.Add(1)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msgNoAuth})
			return
		}

		claims, err := s.parse(auth[7:], tokenTypeAccess)
		if err != nil {
			s.rejectedCalls.Add(1)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": msgNotValidType,
				"code":   "token_not_valid",
			})
			return
		}

		s.protectedCalls.Add(1)
		c.Set("username", claims.Username)
		c.Next()
	}
}

type credentialsRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (s *PortalServer) handleToken(c *gin.Context) {
	s.tokenCalls.Add(1)

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error"})
		return
	}
	fields := gin.H{}
	if req.Username == nil {
		fields["username"] = []string{msgRequired}
	}
	if req.Password == nil {
		fields["password"] = []string{msgRequired}
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, fields)
		return
	}

	s.mu.RLock()
	user, ok := s.users[*req.Username]
	s.mu.RUnlock()
	if !ok || user.password != *req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": msgNoAccount})
		return
	}

	access, err := s.IssueAccess(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	refresh, err := s.IssueRefresh(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access, "refresh": refresh})
}

func (s *PortalServer) handleRefresh(c *gin.Context) {
	s.refreshCalls.Add(1)
	if s.config.RefreshDelay > 0 {
		time.Sleep(s.config.RefreshDelay)
	}

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"refresh": []string{msgRequired}})
		return
	}

	claims, err := s.parse(req.Refresh, tokenTypeRefresh)
	if err == nil {
		s.mu.RLock()
		if s.revoked[claims.ID] {
			err = errors.New("revoked")
		}
		s.mu.RUnlock()
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": msgTokenInvalid, "code": "token_not_valid"})
		return
	}

	access, err := s.IssueAccess(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (s *PortalServer) handleVerify(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"token": []string{msgRequired}})
		return
	}
	if _, err := s.parse(req.Token, tokenTypeAccess); err != nil {
		if _, err := s.parse(req.Token, tokenTypeRefresh); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": msgTokenInvalid, "code": "token_not_valid"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{})
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

func (s *PortalServer) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error"})
		return
	}

	fields := gin.H{}
	switch {
	case req.Username == "":
		fields["username"] = []string{msgBlank}
	case s.HasUser(req.Username):
		fields["username"] = []string{"A user with that username already exists."}
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		fields["email"] = []string{"Enter a valid email address."}
	}
	switch {
	case req.Password == "":
		fields["password"] = []string{msgBlank}
	case len(req.Password) < 6:
		fields["password"] = []string{"Ensure this field has at least 6 characters."}
	}
	if req.Password != "" && req.PasswordConfirm != req.Password {
		fields["password_confirm"] = []string{"Passwords do not match."}
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, fields)
		return
	}

	user := &account{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		password:  req.Password,
	}
	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"username": []string{"A user with that username already exists."}})
		return
	}
	s.users[req.Username] = user
	s.mu.Unlock()

	c.JSON(http.StatusCreated, user)
}

func (s *PortalServer) handleProtected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Hello %s, this is a protected view.", c.GetString("username")),
	})
}
