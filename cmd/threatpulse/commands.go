package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/threatpulse/internal/api"
	"github.com/kalambet/threatpulse/internal/config"
	"github.com/kalambet/threatpulse/internal/observability"
	"github.com/kalambet/threatpulse/internal/threat"
)

// --- analyze ---

type reportInput struct {
	Report   string `json:"report"`
	Location string `json:"location"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a safety report",
	Long: `Analyze a safety report with the running server.

Examples:
  threatpulse analyze --report "Man distracted me while another grabbed my phone" --location "Barcelona"
  threatpulse analyze --file ./reports.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, _ := cmd.Flags().GetString("report")
		location, _ := cmd.Flags().GetString("location")
		file, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")

		if file == "" && (strings.TrimSpace(report) == "" || strings.TrimSpace(location) == "") {
			return fmt.Errorf("--report and --location are required (or use --file)")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening reports file: %w", err)
			}
			defer f.Close()

			inputs, err := readReports(f)
			if err != nil {
				return err
			}
			results, err := analyzeBatch(cmd.Context(), client, inputs)
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndented(out, results)
			}
			for i, a := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s\n", colorize(colorCyan, fmt.Sprintf("[%d] %s", i+1, inputs[i].Location)))
				printAnalysis(out, a)
			}
			return nil
		}

		a, err := analyzeOne(cmd.Context(), client, reportInput{Report: report, Location: location})
		if err != nil {
			return err
		}
		if asJSON {
			return writeIndented(out, a)
		}
		printAnalysis(out, a)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("report", "", "report text")
	analyzeCmd.Flags().String("location", "", "where the incident happened")
	analyzeCmd.Flags().String("file", "", "JSON Lines file of {report, location} objects")
	analyzeCmd.Flags().Bool("json", false, "print raw JSON")
}

func analyzeOne(ctx context.Context, client *apiClient, in reportInput) (threat.Analysis, error) {
	resp, err := client.post(ctx, "/api/analyze", in)
	if err != nil {
		return threat.Analysis{}, err
	}

	var result struct {
		Analysis threat.Analysis `json:"analysis"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return threat.Analysis{}, err
	}
	return result.Analysis, nil
}

func analyzeBatch(ctx context.Context, client *apiClient, inputs []reportInput) ([]threat.Analysis, error) {
	resp, err := client.post(ctx, "/api/analyze/batch", map[string]any{"reports": inputs})
	if err != nil {
		return nil, err
	}

	var result struct {
		Analyses []threat.Analysis `json:"analyses"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}
	return result.Analyses, nil
}

// readReports parses one JSON object per line. Blank lines are skipped.
func readReports(r io.Reader) ([]reportInput, error) {
	var inputs []reportInput
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var in reportInput
		if err := json.Unmarshal([]byte(text), &in); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		inputs = append(inputs, in)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading reports: %w", err)
	}
	if len(inputs) == 0 {
		return nil, errors.New("no reports found")
	}
	return inputs, nil
}

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Get safety recommendations for a destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		style, _ := cmd.Flags().GetString("style")
		experience, _ := cmd.Flags().GetString("experience")

		if strings.TrimSpace(location) == "" {
			return fmt.Errorf("--location is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		recs, err := recommend(cmd.Context(), client, location, threat.TravelerProfile{
			TravelStyle: style,
			Experience:  experience,
		})
		if err != nil {
			return err
		}

		printRecommendations(cmd.OutOrStdout(), recs)
		return nil
	},
}

func init() {
	recommendCmd.Flags().String("location", "", "destination")
	recommendCmd.Flags().String("style", threat.StyleSolo, "travel style: solo, group or family")
	recommendCmd.Flags().String("experience", threat.ExperienceBeginner, "experience: beginner, intermediate or expert")
}

func recommend(ctx context.Context, client *apiClient, location string, profile threat.TravelerProfile) ([]string, error) {
	resp, err := client.post(ctx, "/api/recommendations", map[string]any{
		"location":    location,
		"userProfile": profile,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}
	return result.Recommendations, nil
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analysis tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// stdout carries the protocol.
		setupLogging(cfg.Log.Level, os.Stderr)

		c, err := buildCore(cfg, observability.NewMetrics())
		if err != nil {
			return err
		}

		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Analyzer:    c.analyzer,
			Recommender: c.recommender,
			Version:     version,
		})

		slog.Info("MCP server started (stdio transport)")
		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(cmd.Context(), os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		printConfig(cmd.OutOrStdout(), config.ShowAll(cfg))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

func printConfig(w io.Writer, keys []config.KeyInfo) {
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
	}
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
