// Package main provides exchangectl, a command-line client for the agent exchange API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

var (
	serverURL string
	token     string
	timeout   time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "exchangectl",
		Short:         "Query and administer an agent exchange",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("EXCHANGE_URL", "http://localhost:8080"), "exchange base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("EXCHANGE_TOKEN"), "bearer token for agent or admin routes")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	// Commands
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(intentCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(adminCmd())
	return rootCmd
}

func client() *apiClient {
	return newAPIClient(serverURL, token, timeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// searchCmd runs a structured discovery search.
func searchCmd() *cobra.Command {
	var (
		req      domain.StructuredSearchRequest
		lat, lng float64
		radiusKm float64
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find active agents by capability, tags, categories, cuisine and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("radius") {
				req.Geo = &domain.GeoFilter{Lat: lat, Lng: lng, RadiusKm: radiusKm}
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}

			var resp domain.StructuredSearchResponse
			if err := client().do(cmd.Context(), http.MethodPost, "/v1/discovery/search", req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.Capability, "capability", "", "required capability name")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "required tag (repeatable, all must match)")
	cmd.Flags().StringSliceVar(&req.Categories, "category", nil, "category (repeatable, any may match)")
	cmd.Flags().StringVar(&req.Cuisine, "cuisine", "", "cuisine")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the search center")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude of the search center")
	cmd.Flags().Float64Var(&radiusKm, "radius", 0, "search radius in km; enables the geo filter")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultLimit, "maximum results")
	return cmd
}

// intentCmd runs a free-text discovery search.
func intentCmd() *cobra.Command {
	var (
		lat, lng float64
		locale   string
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "intent <query>",
		Short: "Find agents from a free-text request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.IntentSearchRequest{Query: args[0]}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") || locale != "" || timezone != "" {
				req.RequesterContext = &domain.RequesterContext{Locale: locale, Timezone: timezone}
				if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
					req.RequesterContext.Geo = &domain.RequesterGeo{Lat: lat, Lng: lng}
				}
			}

			var resp domain.IntentSearchResponse
			if err := client().do(cmd.Context(), http.MethodPost, "/v1/discovery/intent", req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "requester latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "requester longitude")
	cmd.Flags().StringVar(&locale, "locale", "", "requester locale")
	cmd.Flags().StringVar(&timezone, "timezone", "", "requester timezone")
	return cmd
}

// agentCmd groups public agent lookups.
func agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Look up agents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <agent-id|@handle>",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp domain.AgentSummary
			if err := client().do(cmd.Context(), http.MethodGet, "/v1/agents/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	})
	return cmd
}

// adminCmd groups operator commands. All but login need an admin --token.
func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer the exchange",
	}

	var password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Exchange the admin password for a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("EXCHANGE_ADMIN_PASSWORD")
			}
			var resp domain.TokenResponse
			req := domain.AdminLoginRequest{Password: password}
			if err := client().do(cmd.Context(), http.MethodPost, "/v1/admin/login", req, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.AccessToken)
			return nil
		},
	}
	login.Flags().StringVar(&password, "password", "", "admin password (default $EXCHANGE_ADMIN_PASSWORD)")
	cmd.AddCommand(login)

	cmd.AddCommand(&cobra.Command{
		Use:   "agents",
		Short: "List all agents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp []domain.AgentListItem
			if err := client().do(cmd.Context(), http.MethodGet, "/v1/admin/agents", nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <agent-id> <active|pending|revoked>",
		Short: "Change an agent's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.SetAgentStatusRequest{Status: domain.AgentStatus(args[1])}
			path := "/v1/admin/agents/" + url.PathEscape(args[0]) + "/status"
			if err := client().do(cmd.Context(), http.MethodPut, path, req, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <agent-id>",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().do(cmd.Context(), http.MethodDelete, "/v1/admin/agents/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})

	var code string
	registration := &cobra.Command{
		Use:   "registration [open|code_required]",
		Short: "Show or change the registration mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp domain.RegistrationConfigResponse
			if len(args) == 0 {
				if err := client().do(cmd.Context(), http.MethodGet, "/v1/admin/registration", nil, &resp); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}

			req := domain.RegistrationConfigRequest{
				RegistrationMode: domain.RegistrationMode(args[0]),
				RegistrationCode: code,
			}
			if err := client().do(cmd.Context(), http.MethodPut, "/v1/admin/registration", req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	registration.Flags().StringVar(&code, "code", "", "registration code for code_required mode")
	cmd.AddCommand(registration)

	return cmd
}
