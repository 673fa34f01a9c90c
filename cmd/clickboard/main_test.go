// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/config"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/store"
	"github.com/tomtom215/clickboard/internal/testinfra"
)

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := buildRootCmd()
	want := []string{"serve", "login", "register", "logout", "filters", "analytics", "track"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered (%v)", name, err)
		}
	}

	set, _, err := root.Find([]string{"filters", "set"})
	if err != nil || set.Name() != "set" {
		t.Fatalf("filters set not registered: %v", err)
	}
	if err := set.Args(set, []string{"gender"}); err == nil {
		t.Error("filters set accepted one argument")
	}

	if f := root.PersistentFlags().Lookup("config"); f == nil || f.Shorthand != "c" {
		t.Error("missing --config/-c flag")
	}
}

func TestCheckFilterValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field   models.FilterField
		value   string
		wantErr bool
	}{
		{models.FieldStartDate, "2024-03-01", false},
		{models.FieldEndDate, "03/31/2024", true},
		{models.FieldAgeGroup, "18-40", false},
		{models.FieldAgeGroup, "", false},
		{models.FieldAgeGroup, "teen", true},
		{models.FieldGender, "Female", false},
		{models.FieldGender, "Other", true},
		{models.FilterField("colour"), "red", true},
	}
	for _, tt := range tests {
		err := checkFilterValue(tt.field, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkFilterValue(%s, %q) error = %v, wantErr %v", tt.field, tt.value, err, tt.wantErr)
		}
	}
}

func TestWriteCharts(t *testing.T) {
	t.Parallel()

	snap := models.AnalyticsSnapshot{
		BarData: []models.BarDataItem{{Feature: "date_filter", Clicks: 4}},
	}
	series := models.ProjectedSeries{{Name: "2024-03-01", Value: 4}}
	feature := "date_filter"

	var buf bytes.Buffer
	filters := models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31"}
	if err := writeCharts(&buf, filters, snap, series, &feature); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Clicks 2024-03-01 to 2024-03-31", "date_filter  4", "Daily clicks (date_filter)", "2024-03-01  4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func newTestApp(t *testing.T) (*app, *testinfra.FakeBackend, *cobra.Command, *bytes.Buffer) {
	t.Helper()
	fb := testinfra.NewFakeBackend(t)
	cfg := &config.Config{Backend: config.BackendConfig{URL: fb.URL(), Timeout: 5 * time.Second}}
	a := newApp(cfg, store.NewMemoryKV(), clock.New())

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	return a, fb, cmd, &out
}

func TestLoginThenAnalytics(t *testing.T) {
	t.Parallel()

	a, fb, cmd, out := newTestApp(t)
	u := fb.AddUser("ana", "Secr3tPass", 30, models.GenderFemale)
	fb.AddClick(u.ID, "gender_filter", time.Now())

	if err := doAnalytics(cmd, a, ""); err == nil {
		t.Fatal("analytics before login succeeded")
	}

	if err := doLogin(cmd, a, models.LoginRequest{Username: "ana", Password: "wrong"}); err == nil ||
		err.Error() != "Invalid username or password" {
		t.Fatalf("bad login error = %v", err)
	}
	if err := doLogin(cmd, a, models.LoginRequest{Username: "ana", Password: "Secr3tPass"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), "Logged in as ana") {
		t.Errorf("login output = %q", out.String())
	}

	out.Reset()
	if err := doAnalytics(cmd, a, "gender_filter"); err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if !strings.Contains(out.String(), "gender_filter  1") {
		t.Errorf("analytics output:\n%s", out.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	a, _, cmd, _ := newTestApp(t)
	err := doRegister(cmd, a, models.RegisterRequest{
		Username:        "bob",
		Email:           "not-an-email",
		Password:        "Passw0rdX",
		ConfirmPassword: "Passw0rdX",
		Age:             25,
		Gender:          models.GenderMale,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "invalid input: ") || !strings.Contains(err.Error(), "email") {
		t.Errorf("error = %v", err)
	}
}
