// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/clickboard/internal/models"
)

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

// =============================================================================
// Serve Command
// =============================================================================

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and its local API",
		Long: `Run the dashboard session under a supervisor tree.

The server will:
1. Load configuration and open the local store
2. Restore the saved filters and token
3. Mount the dashboard if a token is saved
4. Serve the local API, the /ws view stream and /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath(cmd))
		},
	}
}

// =============================================================================
// Account Commands
// =============================================================================

func buildLoginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the token locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, configPath(cmd), username, password)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func buildRegisterCmd() *cobra.Command {
	var req models.RegisterRequest
	var gender string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Gender = models.Gender(gender)
			return runRegister(cmd, configPath(cmd), req)
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Email address")
	cmd.Flags().IntVar(&req.Age, "age", 0, "Age (18-100)")
	cmd.Flags().StringVar(&gender, "gender", "", "Male, Female or Other")
	return cmd
}

func buildLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, configPath(cmd))
		},
	}
}

// =============================================================================
// Dashboard Commands
// =============================================================================

func buildFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show or edit the saved dashboard filters",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the saved filters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFiltersShow(cmd, configPath(cmd))
			},
		},
		&cobra.Command{
			Use:       "set <field> <value>",
			Short:     "Set one filter field (startDate, endDate, ageGroup, gender)",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{"startDate", "endDate", "ageGroup", "gender"},
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFiltersSet(cmd, configPath(cmd), models.FilterField(args[0]), args[1])
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the filters to the current month",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFiltersReset(cmd, configPath(cmd))
			},
		},
	)
	return cmd
}

func buildAnalyticsCmd() *cobra.Command {
	var feature string
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Fetch analytics for the saved filters and print both charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(cmd, configPath(cmd), feature)
		},
	}
	cmd.Flags().StringVarP(&feature, "feature", "f", "", "Drill the line chart down to one feature")
	return cmd
}

func buildTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <feature>",
		Short: "Record one click on feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, configPath(cmd), args[0])
		},
	}
}
