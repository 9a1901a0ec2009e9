package mcp

import (
	"context"
	"io"
	"strings"

	json "github.com/json-iterator/go"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/service"
)

// ToolServerName is what MCP clients see in the initialize handshake.
const ToolServerName = "tourscout"

// toolHandlers backs the MCP tools with a TourService.
type toolHandlers struct {
	svc *service.TourService
	log *zap.Logger
}

// NewToolServer exposes the tour service as MCP tools: search_tours,
// get_countries, get_departures and quick_search.
func NewToolServer(svc *service.TourService, logger *zap.Logger, version string) *mcpserver.MCPServer {
	h := &toolHandlers{svc: svc, log: logger.Named("mcp_tools")}
	s := mcpserver.NewMCPServer(ToolServerName, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	s.AddTool(mcpgo.NewTool("search_tours",
		mcpgo.WithDescription("Search package tours on eto.travel. Country and departure accept Russian names or codes."),
		mcpgo.WithString("country", mcpgo.Required(), mcpgo.Description("Destination country, e.g. Турция or TURKEY")),
		mcpgo.WithString("departure", mcpgo.Required(), mcpgo.Description("Departure city, e.g. Москва or MOSCOW")),
		mcpgo.WithString("date_from", mcpgo.Description("Earliest departure date, DD.MM.YYYY")),
		mcpgo.WithString("date_to", mcpgo.Description("Latest departure date, DD.MM.YYYY")),
		mcpgo.WithNumber("nights_from", mcpgo.Description("Minimum nights")),
		mcpgo.WithNumber("nights_to", mcpgo.Description("Maximum nights")),
		mcpgo.WithNumber("adults", mcpgo.Description("Number of adults")),
		mcpgo.WithNumber("children", mcpgo.Description("Number of children")),
		mcpgo.WithNumber("max_price", mcpgo.Description("Price ceiling in roubles")),
		mcpgo.WithNumber("stars", mcpgo.Description("Minimum hotel stars, 0 for any")),
		mcpgo.WithString("meal", mcpgo.Description("Meal plan, e.g. All Inclusive")),
		mcpgo.WithString("resort", mcpgo.Description("Resort name substring")),
	), h.searchTours)

	s.AddTool(mcpgo.NewTool("get_countries",
		mcpgo.WithDescription("List the destination countries a search accepts."),
	), h.countries)

	s.AddTool(mcpgo.NewTool("get_departures",
		mcpgo.WithDescription("List the departure cities a search accepts."),
	), h.departures)

	s.AddTool(mcpgo.NewTool("quick_search",
		mcpgo.WithDescription("Search with a free-text query such as \"Турция из Москвы на 7 ночей\"."),
		mcpgo.WithString("query", mcpgo.Required(), mcpgo.Description("Free-text search query")),
	), h.quickSearch)

	return s
}

// ServeStdio answers MCP requests read from in on out until ctx ends or in
// is closed. Nothing else may write to out.
func ServeStdio(ctx context.Context, s *mcpserver.MCPServer, in io.Reader, out io.Writer, logger *zap.Logger) error {
	stdio := mcpserver.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logger.Named("mcp_stdio")))
	return stdio.Listen(ctx, in, out)
}

func (h *toolHandlers) searchTours(ctx context.Context, call mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	params := SearchParams{
		Country:    call.GetString("country", ""),
		Departure:  call.GetString("departure", ""),
		DateFrom:   call.GetString("date_from", ""),
		DateTo:     call.GetString("date_to", ""),
		NightsFrom: call.GetInt("nights_from", 0),
		NightsTo:   call.GetInt("nights_to", 0),
		Adults:     call.GetInt("adults", 0),
		Children:   call.GetInt("children", 0),
		PriceMax:   call.GetInt("max_price", 0),
		Stars:      call.GetInt("stars", 0),
		Meal:       call.GetString("meal", ""),
		Resort:     call.GetString("resort", ""),
	}
	req, err := params.Request()
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	tours, err := h.svc.Search(ctx, req)
	if err != nil {
		return h.failed("search_tours", err), nil
	}
	return h.result(ToursResponse{Success: true, Tours: tours, Count: len(tours)})
}

func (h *toolHandlers) countries(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	countries := h.svc.Countries()
	return h.result(map[string]interface{}{"countries": countries, "count": len(countries)})
}

func (h *toolHandlers) departures(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	departures := h.svc.Departures()
	return h.result(map[string]interface{}{"departures": departures, "count": len(departures)})
}

func (h *toolHandlers) quickSearch(ctx context.Context, call mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	text := strings.TrimSpace(call.GetString("query", ""))
	if text == "" {
		return mcpgo.NewToolResultError("query is required"), nil
	}
	res, err := h.svc.QuickSearch(ctx, text)
	if err != nil {
		return h.failed("quick_search", err), nil
	}
	return h.result(ToursResponse{
		Success:      true,
		Tours:        res.Tours,
		Count:        len(res.Tours),
		Query:        res.Query,
		ParsedParams: &res.Request,
	})
}

// failed turns a service error into a tool error result. Only unexpected
// failures are logged; validation errors are the caller's to fix.
func (h *toolHandlers) failed(tool string, err error) *mcpgo.CallToolResult {
	if !schemas.IsValidationError(err) {
		h.log.Error("Tool call failed", zap.String("tool", tool), zap.Error(err))
	}
	return mcpgo.NewToolResultError(err.Error())
}

func (h *toolHandlers) result(v interface{}) (*mcpgo.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcpgo.NewToolResultText(string(b)), nil
}
