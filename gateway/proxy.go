package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

// ServiceClient handles HTTP communication with one microservice
type ServiceClient struct {
	name           string
	stripPrefix    string
	client         *resty.Client
	circuitBreaker *utils.CircuitBreaker
}

// ServiceClients holds all service clients
type ServiceClients struct {
	AuthService      *ServiceClient
	RentalService    *ServiceClient
	DashboardService *ServiceClient
	ActivityService  *ServiceClient
}

// NewServiceClient creates a client for the service at baseURL. Request
// paths lose stripPrefix before they are forwarded.
func NewServiceClient(name, baseURL, stripPrefix string) *ServiceClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second)

	return &ServiceClient{
		name:        name,
		stripPrefix: stripPrefix,
		client:      client,
		// upstream 5xx answers are forwarded, only transport failures count
		circuitBreaker: utils.NewCircuitBreaker(name, 5, 30*time.Second),
	}
}

func (sc *ServiceClient) target(c *gin.Context) string {
	path := strings.TrimPrefix(c.Request.URL.Path, sc.stripPrefix)
	if path == "" {
		path = "/"
	}
	if c.Request.URL.RawQuery != "" {
		path += "?" + c.Request.URL.RawQuery
	}
	return path
}

// ProxyRequest proxies requests to the microservice
func (sc *ServiceClient) ProxyRequest(c *gin.Context) {
	req := sc.client.R().SetContext(c.Request.Context())

	if c.Request.Body != nil {
		body, err := c.GetRawData()
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to read request body")
			return
		}
		if len(body) > 0 {
			req.SetBody(body)
		}
	}

	for key, values := range c.Request.Header {
		if hopHeaders[key] {
			continue
		}
		req.SetHeaderMultiValues(map[string][]string{key: values})
	}

	// Add user context headers
	userID, email, role := middleware.GetUserFromContext(c)
	if userID != "" {
		req.SetHeader("X-User-ID", userID)
	}
	if email != "" {
		req.SetHeader("X-User-Email", email)
	}
	if role != "" {
		req.SetHeader("X-User-Role", role)
	}

	var resp *resty.Response
	err := sc.circuitBreaker.Execute(c.Request.Context(), func(ctx context.Context) error {
		var err error
		resp, err = req.Execute(c.Request.Method, sc.target(c))
		return err
	})
	if err != nil {
		if errors.Is(err, utils.ErrCircuitOpen) {
			utils.ServiceUnavailableResponse(c, fmt.Sprintf("%s service temporarily unavailable", sc.name))
			return
		}
		logrus.WithError(err).WithField("service", sc.name).Error("Proxy request failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to communicate with service")
		return
	}

	for key, values := range resp.Header() {
		if hopHeaders[key] {
			continue
		}
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Data(resp.StatusCode(), resp.Header().Get("Content-Type"), resp.Body())
}

// HealthCheck checks if a service is healthy
func (sc *ServiceClient) HealthCheck(ctx context.Context) error {
	resp, err := sc.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode())
	}
	return nil
}

// ServiceStatus is one entry of the gateway health report.
type ServiceStatus struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

func (scs *ServiceClients) all() []*ServiceClient {
	return []*ServiceClient{scs.AuthService, scs.RentalService, scs.DashboardService, scs.ActivityService}
}

// GetServiceStatus checks every service concurrently.
func (scs *ServiceClients) GetServiceStatus(ctx context.Context) map[string]ServiceStatus {
	clients := scs.all()
	results := make([]ServiceStatus, len(clients))

	var g errgroup.Group
	for i, sc := range clients {
		i, sc := i, sc
		g.Go(func() error {
			hctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := sc.HealthCheck(hctx); err != nil {
				results[i] = ServiceStatus{Error: err.Error()}
				return nil
			}
			results[i] = ServiceStatus{Healthy: true}
			return nil
		})
	}
	_ = g.Wait()

	status := make(map[string]ServiceStatus, len(clients))
	for i, sc := range clients {
		status[sc.name+"_service"] = results[i]
	}
	return status
}
