package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/idgen"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Rules    string // default corpus for tool calls
	Database string // record every analysis when set
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer as an MCP tool over stdio",
		Long: `Run an MCP server on stdin/stdout exposing edgy as tools:

  analyze_screens  analyze a JSON screens document and return the report
  list_rules       list the rules and flows of the corpus

The server is meant to be spawned by a local host process.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
			s := newToolServer(opts.Rules, opts.Database, logger)
			logger.Debug("serving MCP over stdio", "rules", opts.Rules)
			if err := mcpserver.ServeStdio(s.mcp); err != nil {
				return WrapExitError(ExitCommandError, "mcp server failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "default rule corpus (default: built-in corpus)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record every analysis in this SQLite database")

	return cmd
}

// toolServer holds the MCP server and the defaults its tools run with.
type toolServer struct {
	rules    string
	database string
	logger   *slog.Logger
	gen      idgen.RunIDGenerator

	mu  sync.Mutex // serializes analyses writing to the same database
	mcp *mcpserver.MCPServer
}

func newToolServer(rules, database string, logger *slog.Logger) *toolServer {
	s := &toolServer{
		rules:    rules,
		database: database,
		logger:   logger,
		gen:      idgen.UUIDv7Generator{},
	}
	s.mcp = mcpserver.NewMCPServer("edgy", ir.AnalyzerVersion)
	s.registerTools()
	return s
}

func (s *toolServer) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("analyze_screens",
			mcp.WithDescription("Analyze extracted UI screens for missing edge-case states and missing flow screens. Returns the analysis report as JSON."),
			mcp.WithString("screens", mcp.Required(), mcp.Description(`Screens as JSON: an array of screens or {"screens": [...]}`)),
			mcp.WithString("rules", mcp.Description("Rule corpus path (default: the server's corpus)")),
			mcp.WithString("flows", mcp.Description("Comma-separated prefix=flow_type bindings, e.g. login=authentication")),
		),
		s.handleAnalyze,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_rules",
			mcp.WithDescription("List the rules and flow rules of a corpus"),
			mcp.WithString("rules", mcp.Description("Rule corpus path (default: the server's corpus)")),
		),
		s.handleListRules,
	)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func (s *toolServer) corpusPath(args map[string]any) string {
	if p := stringArg(args, "rules"); p != "" {
		return p
	}
	return s.rules
}

func (s *toolServer) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	screensJSON := stringArg(args, "screens")
	if strings.TrimSpace(screensJSON) == "" {
		return mcp.NewToolResultError("screens is required"), nil
	}

	var bindings []string
	if raw := stringArg(args, "flows"); raw != "" {
		bindings = strings.Split(raw, ",")
	}
	flows, err := parseFlowBindings(bindings)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	screens, err := analysis.DecodeScreens(strings.NewReader(screensJSON))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", ErrCodeScreens, err)), nil
	}

	c, err := loadCorpus(s.corpusPath(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := []analysis.Option{
		analysis.WithLogger(s.logger),
		analysis.WithRunIDGenerator(s.gen),
	}
	if len(flows) > 0 {
		opts = append(opts, analysis.WithFlowTypes(flows...))
	}
	analyzer, err := analysis.New(c.Rules, c.Flows, opts...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", ErrCodeAnalysis, err)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := analyzer.Run(ctx, screens)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", ErrCodeAnalysis, err)), nil
	}
	if s.database != "" {
		if err := saveReport(ctx, s.database, report, "mcp"); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", ErrCodeStore, err)), nil
		}
	}
	s.logger.Debug("analyze_screens", "run_id", report.RunID, "findings", len(report.Findings))

	return jsonResult(report)
}

// ruleSummary is one entry of list_rules.
type ruleSummary struct {
	ID       string      `json:"id"`
	Category string      `json:"category"`
	Severity ir.Severity `json:"severity,omitempty"`
	Required bool        `json:"required"`
}

type flowSummary struct {
	FlowType string   `json:"flow_type"`
	Name     string   `json:"name"`
	Screens  []string `json:"screens"`
}

type corpusSummary struct {
	Hash  string        `json:"corpus_hash"`
	Rules []ruleSummary `json:"rules"`
	Flows []flowSummary `json:"flows"`
}

func (s *toolServer) handleListRules(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := loadCorpus(s.corpusPath(request.GetArguments()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := corpusSummary{
		Hash:  c.Hash,
		Rules: make([]ruleSummary, 0, len(c.Rules)),
		Flows: make([]flowSummary, 0, len(c.Flows)),
	}
	for _, r := range c.Rules {
		out.Rules = append(out.Rules, ruleSummary{ID: r.ID, Category: r.Category, Severity: r.Severity, Required: r.Required})
	}
	for _, f := range c.Flows {
		fs := flowSummary{FlowType: f.FlowType, Name: f.DisplayName()}
		for _, es := range f.Screens {
			fs.Screens = append(fs.Screens, es.ID)
		}
		out.Flows = append(out.Flows, fs)
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
