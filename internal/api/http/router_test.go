package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/liststore"
	"github.com/spec-kit/helpdesk/internal/liststore/memory"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

// switchStore fails every ticket list operation while broken is set.
type switchStore struct {
	liststore.Store
	broken bool
}

func (s *switchStore) List(title string) liststore.List {
	return &switchList{List: s.Store.List(title), store: s, title: title}
}

type switchList struct {
	liststore.List
	store *switchStore
	title string
}

func (l *switchList) Items(ctx context.Context, q liststore.Query) ([]liststore.Item, error) {
	if l.store.broken {
		return nil, errors.New("connection reset")
	}
	return l.List.Items(ctx, q)
}

type apiFixture struct {
	app       *fiber.App
	store     *switchStore
	repo      repository.TicketRepository
	agent     string
	requester string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	titles := repository.DefaultListTitles()
	store := &switchStore{Store: memory.New(titles.Schema(), clock)}

	anaID, err := store.List(titles.Users).Add(ctx, map[string]any{"Title": "Ana Ruiz", "EMail": "ana@example.com"})
	require.NoError(t, err)
	benID, err := store.List(titles.Users).Add(ctx, map[string]any{"Title": "Ben Ode", "EMail": "ben@example.com"})
	require.NoError(t, err)
	catID, err := store.List(titles.Categories).Add(ctx, map[string]any{"Title": "Network"})
	require.NoError(t, err)
	_, err = store.List(titles.Categories).Add(ctx, map[string]any{"Title": "Access"})
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	ticketRepo := repository.NewTicketRepository(store, repository.TicketRepositoryOptions{ListTitle: titles.Tickets}, logger)
	users := repository.NewUserRepository(store, titles.Users)
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: events.NewInMemoryDispatcher(),
		Clock:      clock,
		Metrics:    metrics,
		Logger:     logger,
	})
	categories := service.NewCategoryService(repository.NewCategoryRepository(store, titles.Categories), nil, time.Minute, logger)
	tokens := auth.NewTokenManager("test-secret", 60, clock)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", store, persistence.NewRedis(config.RedisConfig{}, logger), metrics),
		Tickets:        handlers.NewTicketsHandler(tickets, time.UTC),
		Categories:     handlers.NewCategoriesHandler(categories),
		Auth:           handlers.NewAuthHandler(users, tokens),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users),
	})

	for i := 1; i <= 25; i++ {
		id, err := ticketRepo.CreateDraft(ctx, domain.NewTicket{Title: fmt.Sprintf("Approved %02d", i), CategoryID: catID, RequesterID: benID})
		require.NoError(t, err)
		require.NoError(t, ticketRepo.Update(ctx, id, domain.TicketPatch{Status: domain.Some(domain.TicketStatusApproved)}))
		clock.Advance(time.Minute)
	}
	for i := 1; i <= 3; i++ {
		_, err := ticketRepo.CreateDraft(ctx, domain.NewTicket{Title: fmt.Sprintf("Draft %02d", i), CategoryID: catID, RequesterID: anaID})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	agent, _, err := tokens.GenerateToken(domain.User{ID: anaID}, domain.RoleAgent)
	require.NoError(t, err)
	requester, _, err := tokens.GenerateToken(domain.User{ID: benID}, domain.RoleRequester)
	require.NoError(t, err)

	return &apiFixture{app: app, store: store, repo: ticketRepo, agent: agent, requester: requester}
}

func (f *apiFixture) do(t *testing.T, method, path, token, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

type searchResponse struct {
	Data  []dto.TicketResponse `json:"data"`
	Meta  dto.SearchMeta       `json:"meta"`
	Query map[string]string    `json:"query"`
	Links dto.SearchLinks      `json:"links"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type ticketResponse struct {
	Data dto.TicketResponse `json:"data"`
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestSearchRequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "GET", "/api/tickets", "", "")

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", decode[errorResponse](t, body).Error.Code)
}

func TestSearchPage(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "GET", "/api/tickets?status=Approved&ps=10&p=2&ob=Created&od=asc&utm=mail", f.requester, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	res := decode[searchResponse](t, body)

	require.Len(t, res.Data, 10)
	assert.Equal(t, "Approved 11", res.Data[0].Title)
	assert.Equal(t, "Approved 20", res.Data[9].Title)
	assert.Equal(t, "Network", res.Data[0].Category.Title)
	assert.Equal(t, "Ben Ode", res.Data[0].Requester.Name)

	assert.Equal(t, dto.SearchMeta{Page: 2, PageSize: 10, Total: 25, TotalPages: 3, HasPrev: true, HasNext: true}, res.Meta)
	assert.Equal(t, "2", res.Query["p"])
	assert.Equal(t, "mail", res.Query["utm"])

	assert.Equal(t, "/api/tickets?ob=Created&od=asc&p=3&ps=10&status=Approved&utm=mail", res.Links.Next)
	assert.Equal(t, "/api/tickets?ob=Created&od=asc&p=1&ps=10&status=Approved&utm=mail", res.Links.Prev)
	assert.Equal(t, "/api/tickets?ob=Created&od=desc&p=1&ps=10&status=Approved&utm=mail", res.Links.Sort["created"])
	assert.Equal(t, "/api/tickets?ob=DueDate&od=asc&p=1&ps=10&status=Approved&utm=mail", res.Links.Sort["duedate"])
	assert.Equal(t, "/api/tickets?ob=Created&od=desc&p=1&ps=20", res.Links.Clear)
}

func TestSearchNormalizesMalformedParameters(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "GET", "/api/tickets?p=abc&ps=7&cat=-3&status=Bogus", f.requester, "")
	require.Equal(t, fiber.StatusOK, status)
	res := decode[searchResponse](t, body)

	assert.Equal(t, 1, res.Meta.Page)
	assert.Equal(t, 20, res.Meta.PageSize)
	assert.Equal(t, 28, res.Meta.Total)
	assert.Equal(t, map[string]string{"ob": "Created", "od": "desc", "p": "1", "ps": "20"}, res.Query)
	assert.Equal(t, "Draft 03", res.Data[0].Title, "newest first by default")
}

func TestSearchClampsPagePastTheEnd(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "GET", "/api/tickets?status=Approved&ps=10&p=9", f.requester, "")
	require.Equal(t, fiber.StatusOK, status)
	res := decode[searchResponse](t, body)

	assert.Equal(t, 3, res.Meta.Page)
	require.NotNil(t, res.Meta.RequestedPage)
	assert.Equal(t, 9, *res.Meta.RequestedPage)
	assert.Len(t, res.Data, 5)
	assert.Empty(t, res.Links.Next)
}

func TestSearchText(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "GET", "/api/tickets?q=%20dRaFt%2002%20", f.requester, "")
	require.Equal(t, fiber.StatusOK, status)
	res := decode[searchResponse](t, body)

	require.Len(t, res.Data, 1)
	assert.Equal(t, "Draft 02", res.Data[0].Title)
	assert.Equal(t, "dRaFt 02", res.Query["q"])
}

func TestSearchStoreFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.store.broken = true

	status, body := f.do(t, "GET", "/api/tickets", f.requester, "")

	assert.Equal(t, fiber.StatusBadGateway, status)
	res := decode[errorResponse](t, body)
	assert.Equal(t, "OPERATION_FAILED", res.Error.Code)
	assert.Equal(t, "error searching tickets: connection reset", res.Error.Message)
}

func TestTicketLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "POST", "/api/tickets", f.requester, `{"title":"Monitor flickers","category_id":1,"priority":"High","approver_id":1}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	created := decode[ticketResponse](t, body).Data
	assert.Equal(t, domain.TicketStatusDraft, created.Status)
	assert.Equal(t, "Ben Ode", created.Requester.Name)
	require.NotNil(t, created.Approver)
	assert.Regexp(t, `^HD-[0-9A-F]{8}$`, created.Number)
	path := fmt.Sprintf("/api/tickets/%d", created.ID)

	status, body = f.do(t, "PATCH", path, f.requester, `{"description":"since Monday","approver_id":null}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	patched := decode[ticketResponse](t, body).Data
	assert.Equal(t, "since Monday", patched.Description)
	assert.Nil(t, patched.Approver)
	assert.Equal(t, domain.TicketPriorityHigh, patched.Priority)

	status, body = f.do(t, "POST", path+"/submit", f.requester, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, domain.TicketStatusSubmitted, decode[ticketResponse](t, body).Data.Status)

	status, _ = f.do(t, "DELETE", path, f.requester, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, "DELETE", path, f.agent, "")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = f.do(t, "GET", path, f.agent, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, fmt.Sprintf("error fetching ticket %d: Tickets %d: item not found", created.ID, created.ID), decode[errorResponse](t, body).Error.Message)
}

func TestTicketValidation(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "GET", "/api/tickets/abc", f.requester, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", decode[errorResponse](t, body).Error.Code)

	status, body = f.do(t, "POST", "/api/tickets", f.requester, `{"title":"  "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decode[errorResponse](t, body).Error.Details, "title")

	status, _ = f.do(t, "PATCH", "/api/tickets/1", f.requester, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCategories(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "GET", "/api/categories", f.requester, "")
	require.Equal(t, fiber.StatusOK, status)
	res := decode[struct {
		Data []dto.CategoryOptionResponse `json:"data"`
	}](t, body)
	assert.Equal(t, []dto.CategoryOptionResponse{
		{Key: 0, Text: "All"},
		{Key: 2, Text: "Access"},
		{Key: 1, Text: "Network"},
	}, res.Data)

	f.store.broken = true
	status, body = f.do(t, "GET", "/api/categories", f.requester, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "All (error loading)")
}

func TestDevTokenAndHealth(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, "POST", "/auth/token", "", `{"user_id":2}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	token := decode[struct {
		Data dto.TokenResponse `json:"data"`
	}](t, body).Data
	assert.Equal(t, "Bearer", token.TokenType)

	status, _ = f.do(t, "GET", "/api/tickets", token.AccessToken, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, "POST", "/auth/token", "", `{"user_id":77}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = f.do(t, "GET", "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, body = f.do(t, "GET", "/health/ready", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(body), "redis")

	status, _ = f.do(t, "GET", "/nowhere", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
