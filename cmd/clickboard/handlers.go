// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomtom215/clickboard/internal/analytics"
	"github.com/tomtom215/clickboard/internal/auth"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/projector"
	"github.com/tomtom215/clickboard/internal/validation"
)

// withApp opens the app for one command and closes it afterwards.
func withApp(path string, fn func(*app) error) error {
	a, err := openApp(path)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// =============================================================================
// Account Handlers
// =============================================================================

func runLogin(cmd *cobra.Command, path, username, password string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	if username == "" {
		username = promptLine(cmd.OutOrStdout(), in, "Username")
	}
	if password == "" {
		password = promptPassword(cmd.OutOrStdout(), in, "Password")
	}
	return withApp(path, func(a *app) error {
		return doLogin(cmd, a, models.LoginRequest{Username: username, Password: password})
	})
}

func doLogin(cmd *cobra.Command, a *app, req models.LoginRequest) error {
	if _, err := a.auth.Login(cmd.Context(), req); err != nil {
		return describeAuthError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", req.Username)
	return nil
}

func runRegister(cmd *cobra.Command, path string, req models.RegisterRequest) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	if req.Username == "" {
		req.Username = promptLine(out, in, "Username")
	}
	if req.Email == "" {
		req.Email = promptLine(out, in, "Email")
	}
	req.Password = promptPassword(out, in, "Password")
	req.ConfirmPassword = promptPassword(out, in, "Confirm password")

	return withApp(path, func(a *app) error {
		return doRegister(cmd, a, req)
	})
}

func doRegister(cmd *cobra.Command, a *app, req models.RegisterRequest) error {
	user, err := a.auth.Register(cmd.Context(), req)
	if err != nil {
		return describeAuthError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s). Log in to continue.\n", user.Username, user.Email)
	return nil
}

func runLogout(cmd *cobra.Command, path string) error {
	return withApp(path, func(a *app) error {
		if err := a.auth.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	})
}

// describeAuthError flattens validation failures into one readable line.
func describeAuthError(err error) error {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		msgs := verr.FieldMessages()
		parts := make([]string, 0, len(msgs))
		for field, msg := range msgs {
			parts = append(parts, field+": "+msg)
		}
		sort.Strings(parts)
		return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
	}
	var lerr *auth.LoginError
	if errors.As(err, &lerr) {
		return errors.New(lerr.Detail)
	}
	return err
}

// =============================================================================
// Dashboard Handlers
// =============================================================================

func runFiltersShow(cmd *cobra.Command, path string) error {
	return withApp(path, func(a *app) error {
		return printFilters(cmd.OutOrStdout(), a.filters.Get())
	})
}

func runFiltersSet(cmd *cobra.Command, path string, field models.FilterField, value string) error {
	if err := checkFilterValue(field, value); err != nil {
		return err
	}
	return withApp(path, func(a *app) error {
		next, err := a.filters.Get().With(field, value)
		if err != nil {
			return err
		}
		a.filters.Set(next)
		return printFilters(cmd.OutOrStdout(), next)
	})
}

func runFiltersReset(cmd *cobra.Command, path string) error {
	return withApp(path, func(a *app) error {
		next := models.DefaultFilters(a.clock.Now())
		a.filters.Set(next)
		return printFilters(cmd.OutOrStdout(), next)
	})
}

// checkFilterValue rejects values the dashboard would silently ignore.
func checkFilterValue(field models.FilterField, value string) error {
	switch field {
	case models.FieldStartDate, models.FieldEndDate:
		if _, err := time.Parse(models.DateLayout, value); err != nil {
			return fmt.Errorf("%s must be YYYY-MM-DD", field)
		}
	case models.FieldAgeGroup:
		if !models.AgeGroup(value).Valid() {
			return fmt.Errorf("ageGroup must be empty, <18, 18-40 or >40")
		}
	case models.FieldGender:
		if !models.Gender(value).Valid() {
			return fmt.Errorf("gender must be empty, Male or Female")
		}
	default:
		return fmt.Errorf("unknown filter field %q", field)
	}
	return nil
}

func printFilters(w io.Writer, f models.FilterState) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func runAnalytics(cmd *cobra.Command, path, feature string) error {
	return withApp(path, func(a *app) error {
		return doAnalytics(cmd, a, feature)
	})
}

func doAnalytics(cmd *cobra.Command, a *app, feature string) error {
	if !a.auth.LoggedIn() {
		return errors.New("not logged in")
	}
	filters := a.filters.Get()
	res := a.fetcher.Fetch(cmd.Context(), filters, analytics.Options{})
	if !res.OK() {
		return fmt.Errorf("fetch analytics: %w", res.Err)
	}

	var selected *string
	if feature != "" {
		selected = &feature
	}
	return writeCharts(cmd.OutOrStdout(), filters, res.Snapshot, projector.Project(res.Snapshot.LineData, selected), selected)
}

// writeCharts prints the bar chart data and the projected line series.
func writeCharts(w io.Writer, filters models.FilterState, snap models.AnalyticsSnapshot, series models.ProjectedSeries, selected *string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Clicks %s to %s\n\n", filters.StartDate, filters.EndDate)
	fmt.Fprintln(tw, "FEATURE\tCLICKS")
	for _, bar := range snap.BarData {
		fmt.Fprintf(tw, "%s\t%d\n", bar.Feature, bar.Clicks)
	}

	title := "all features"
	if selected != nil {
		title = *selected
	}
	fmt.Fprintf(tw, "\nDaily clicks (%s)\n\n", title)
	fmt.Fprintln(tw, "DATE\tCLICKS")
	for _, p := range series {
		fmt.Fprintf(tw, "%s\t%d\n", p.Name, p.Value)
	}
	return tw.Flush()
}

func runTrack(cmd *cobra.Command, path, feature string) error {
	return withApp(path, func(a *app) error {
		if !a.auth.LoggedIn() {
			return errors.New("not logged in")
		}
		if err := a.client.Track(cmd.Context(), feature); err != nil {
			return fmt.Errorf("track %q: %w", feature, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tracked %s\n", feature)
		return nil
	})
}

// =============================================================================
// Prompts
// =============================================================================

func promptLine(w io.Writer, in *bufio.Reader, label string) string {
	fmt.Fprintf(w, "%s: ", label)
	text, err := in.ReadString('\n')
	if err != nil && text == "" {
		return ""
	}
	return strings.TrimSpace(text)
}

// promptPassword hides input on a terminal and falls back to a plain read.
func promptPassword(w io.Writer, in *bufio.Reader, label string) string {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(w, "%s: ", label)
		text, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err == nil {
			return strings.TrimSpace(string(text))
		}
	}
	return promptLine(w, in, label)
}
