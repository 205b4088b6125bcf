// Package canva реализует адаптер участников команды поверх записанных
// HTTP-вызовов веб-приложения Canva. Публичного API у провайдера нет,
// поэтому клиент воспроизводит запросы браузерной сессии администратора:
// cookie, подпись клиента и идентификатор команды берутся из настроек.
package canva

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/teamgate/internal/lib/match"
	"github.com/magabrotheeeer/teamgate/internal/models"
	"github.com/magabrotheeeer/teamgate/internal/provider"
)

// Client ведёт операции по единственной сессии. Вызовы выполняются строго
// последовательно и пейсятся лимитером, чтобы не выдать автоматизацию.
type Client struct {
	session      provider.Session
	baseURL      string
	maxListPages int
	httpClient   *http.Client
	limiter      *rate.Limiter
	log          *slog.Logger
}

// Config — параметры клиента из секции provider конфига.
type Config struct {
	BaseURL      string
	OpTimeout    time.Duration
	OpsPerMinute int
	MaxListPages int
}

// NewClient создаёт клиент, связанный с сессией.
func NewClient(session provider.Session, cfg Config, log *slog.Logger) *Client {
	perMinute := cfg.OpsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	pages := cfg.MaxListPages
	if pages <= 0 {
		pages = 50
	}
	return &Client{
		session:      session,
		baseURL:      cfg.BaseURL,
		maxListPages: pages,
		httpClient:   &http.Client{Timeout: cfg.OpTimeout},
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		log:          log,
	}
}

type memberRow struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"` // ACTIVE | INVITED
}

type membersPage struct {
	Members      []memberRow `json:"members"`
	Continuation string      `json:"continuation"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", c.session.Cookie)
	if c.session.UserAgent != "" {
		req.Header.Set("User-Agent", c.session.UserAgent)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", provider.ErrActionFailed, method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return provider.ErrSessionExpired
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s %s: unexpected status %s", provider.ErrActionFailed, method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s: %v", provider.ErrActionFailed, path, err)
		}
	}
	return nil
}

var errNotFound = fmt.Errorf("member not found")

// Probe проверяет годность сессии одним дешёвым запросом.
func (c *Client) Probe(ctx context.Context) error {
	const op = "canva.Probe"
	var page membersPage
	path := fmt.Sprintf("/_ajax/brand/%s/members?limit=1", c.session.TeamID)
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListMembers исчерпывающе раскрывает список участников: провайдер отдаёт
// страницы с continuation-токеном, цикл продолжается до отсутствия роста
// и жёстко ограничен maxListPages на случай бага провайдера.
func (c *Client) ListMembers(ctx context.Context) ([]models.MemberView, error) {
	const op = "canva.ListMembers"

	var result []models.MemberView
	continuation := ""
	for page := 0; page < c.maxListPages; page++ {
		path := fmt.Sprintf("/_ajax/brand/%s/members", c.session.TeamID)
		if continuation != "" {
			path += "?continuation=" + continuation
		}
		var p membersPage
		if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		before := len(result)
		for _, m := range p.Members {
			result = append(result, models.MemberView{
				DisplayNameOrEmail: m.DisplayName,
				InviteState:        inviteState(m.Status),
			})
		}

		if p.Continuation == "" || len(result) == before {
			return result, nil
		}
		continuation = p.Continuation
	}
	c.log.Warn("member list did not converge, returning partial view",
		slog.Int("pages", c.maxListPages), slog.Int("members", len(result)))
	return result, nil
}

func inviteState(status string) string {
	if status == "INVITED" {
		return models.InviteStateInvited
	}
	return models.InviteStateActive
}

// RemoveMember находит участника по email и выполняет двухшаговое удаление:
// запрос на удаление, затем подтверждение отсутствия строки. Успех
// репортится только после подтверждающего сигнала.
func (c *Client) RemoveMember(ctx context.Context, email string) (provider.RemoveResult, error) {
	const op = "canva.RemoveMember"

	row, err := c.findMember(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if row == nil {
		return provider.NotFound, nil
	}

	path := fmt.Sprintf("/_ajax/brand/%s/members/%s/remove", c.session.TeamID, row.ID)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"brand": c.session.TeamID}, nil); err != nil {
		if err == errNotFound {
			// строка исчезла между поиском и удалением
			return provider.NotFound, nil
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// подтверждающий сигнал: строки больше нет в списке
	still, err := c.findMember(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("%s: confirm: %w", op, err)
	}
	if still != nil {
		return 0, fmt.Errorf("%s: %w: member still present after removal", op, provider.ErrActionFailed)
	}
	return provider.Removed, nil
}

// findMember ищет строку по строгому совпадению email, затем по вхождению.
func (c *Client) findMember(ctx context.Context, email string) (*memberRow, error) {
	var found *memberRow
	continuation := ""
	for page := 0; page < c.maxListPages; page++ {
		path := fmt.Sprintf("/_ajax/brand/%s/members", c.session.TeamID)
		if continuation != "" {
			path += "?continuation=" + continuation
		}
		var p membersPage
		if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
			return nil, err
		}
		for i, m := range p.Members {
			if match.Strict(email, m.DisplayName) {
				return &p.Members[i], nil
			}
			if found == nil && match.Loose(email, m.DisplayName) {
				row := m
				found = &row
			}
		}
		if p.Continuation == "" {
			break
		}
		continuation = p.Continuation
	}
	return found, nil
}

// InviteMember ставит приглашение в очередь провайдера.
func (c *Client) InviteMember(ctx context.Context, email string) error {
	const op = "canva.InviteMember"
	path := fmt.Sprintf("/_ajax/brand/%s/members/invite", c.session.TeamID)
	body := map[string]any{"emails": []string{email}, "role": "MEMBER"}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
