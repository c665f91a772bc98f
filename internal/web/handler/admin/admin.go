// Package admin provides the admin overview of the service.
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/db/controller/catalog"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/web/handler"
	"github.com/traveloop/traveloop/internal/web/handler/dashboard"
	"github.com/traveloop/traveloop/internal/web/navigation"
)

const (
	// Path is the path of the admin overview.
	Path = dashboard.Path + "/admin"

	// TemplateName is the name of the admin template.
	TemplateName = "dashboard/admin"

	// DefaultPageSize is the default number of settings per page.
	DefaultPageSize = 25

	redacted = "********"
)

// Setting is one flattened configuration value.
type Setting struct {
	Name  string
	Type  string
	Value string
}

// Data represents the data passed to the template.
type Data struct {
	Destinations int
	Hotels       int
	Settings     []Setting
	CurrentPage  int
	PageSize     int
	TotalItems   int
	TotalPages   int
	HasPrevPage  bool
	HasNextPage  bool
	PrevPage     int
	NextPage     int
	SearchQuery  string
}

// Service is the admin handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the admin handler.
var Handler = Service{}

// Init initializes the admin handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, auth.RequireRole(deps.ProfileLookup(), models.RoleAdmin), s.Get)

	return nil
}

// Get renders the catalog size and the running configuration, secrets redacted.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Admin", navigation.SectionAdmin, "overview").
		AddBreadcrumb("Home", handler.RootPath, false).
		AddBreadcrumb("Dashboard", dashboard.Path, false).
		AddBreadcrumb("Admin", Path, true).
		WithMenu(dashboard.Path, true)

	settings, err := Flatten(s.deps.Cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to flatten configuration")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateName, fiber.Map{
			"Title":      s.deps.Cfg.Title,
			"Navigation": nav,
			"Error":      "Failed to read configuration",
		}, handler.BaseLayout)
	}

	search := c.Query("search", "")
	filtered := make([]Setting, 0, len(settings))

	for _, st := range settings {
		if includeSetting(st, search) {
			filtered = append(filtered, st)
		}
	}

	page, pageSize := getPaginationParams(c)
	totalPages, page := computeTotalPagesAndAdjust(len(filtered), pageSize, page)
	start, end := pageSliceBounds(len(filtered), pageSize, page)

	ds := s.deps.DataFor(c)
	ctx := c.UserContext()

	data := Data{
		Destinations: len(catalog.Destinations(ctx, ds)),
		Hotels:       len(catalog.Hotels(ctx, ds)),
		Settings:     filtered[start:end],
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalItems:   len(filtered),
		TotalPages:   totalPages,
		HasPrevPage:  page > 1,
		HasNextPage:  page < totalPages,
		PrevPage:     page - 1,
		NextPage:     page + 1,
		SearchQuery:  search,
	}

	return c.Render(TemplateName, fiber.Map{
		"Title":      s.deps.Cfg.Title,
		"Navigation": nav,
		"Data":       data,
	}, handler.BaseLayout)
}

// Flatten lists the configuration as dotted names, sorted by name.
// Values of secrets are redacted.
func Flatten(cfg *config.Config) ([]Setting, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	var tree map[string]any
	if err = json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	out := make([]Setting, 0)
	walk("", tree, &out)

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out, nil
}

func walk(prefix string, v any, out *[]Setting) {
	if m, ok := v.(map[string]any); ok {
		for k, child := range m {
			name := k
			if prefix != "" {
				name = prefix + "." + k
			}

			walk(name, child, out)
		}

		return
	}

	st := Setting{Name: prefix, Type: typeName(v), Value: valueString(v)}

	if isSecret(prefix) && st.Value != "" {
		st.Value = redacted
	}

	*out = append(*out, st)
}

func typeName(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "list"
	case nil:
		return "null"
	default:
		return "value"
	}
}

func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, valueString(item))
		}

		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func isSecret(name string) bool {
	lower := strings.ToLower(name)

	for _, marker := range []string{"secret", "password", "key"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// getPaginationParams parses and normalizes page and pageSize query parameters.
func getPaginationParams(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}

// includeSetting returns true if name or value contain the search text, ignoring case.
func includeSetting(st Setting, search string) bool {
	if search == "" {
		return true
	}

	search = strings.ToLower(search)

	return strings.Contains(strings.ToLower(st.Name), search) ||
		(st.Value != redacted && strings.Contains(strings.ToLower(st.Value), search))
}

// computeTotalPagesAndAdjust computes total pages and adjusts the page into range.
func computeTotalPagesAndAdjust(totalItems, pageSize, page int) (int, int) {
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	return totalPages, page
}

// pageSliceBounds calculates start and end indices for slicing a page.
func pageSliceBounds(totalItems, pageSize, page int) (int, int) {
	startIdx := (page - 1) * pageSize

	endIdx := startIdx + pageSize
	if endIdx > totalItems {
		endIdx = totalItems
	}

	if startIdx < 0 {
		startIdx = 0
	}

	if startIdx > endIdx {
		startIdx = endIdx
	}

	return startIdx, endIdx
}
