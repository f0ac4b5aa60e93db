package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"adhan/internal/app"
	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
	"adhan/pkg/systemd"
)

func run(_ *cli.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(cfgPath, app.Options{Platform: platform})
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("fatal start: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-a.Done():
	}
	reason := app.StopFatalError
	if ctx.Err() != nil {
		reason = app.StopSignal
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.StopTimeout())
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)
	return a.Err()
}

func openToolbox() (*app.Toolbox, error) {
	return app.OpenToolbox(cfgPath, logx.NewConsole("warn"))
}

func fetch(_ *cli.Context) error {
	tb, err := openToolbox()
	if err != nil {
		return err
	}
	defer tb.Close()

	ctx := context.Background()
	month, rejected, err := tb.Fetch(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, e := range rejected {
		fmt.Fprintf(os.Stderr, "skipped: %v\n", e)
	}
	printMonth(month)
	if noSave {
		return nil
	}
	if err := tb.Save(ctx, month); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	fmt.Printf("saved %d days\n", month.Len())
	return nil
}

func today(_ *cli.Context) error {
	tb, err := openToolbox()
	if err != nil {
		return err
	}
	defer tb.Close()

	now := time.Now().In(tb.Loc)
	month, from, err := tb.Table(context.Background(), now)
	if err != nil {
		return err
	}
	day, ok := month.Day(now)
	if !ok {
		return fmt.Errorf("no times for %s", now.Format(time.DateOnly))
	}
	fmt.Printf("%s (%s)\n", now.Format("Monday 2 January 2006"), from)
	for _, n := range prayer.Names {
		fmt.Printf("  %-8s %s\n", n, day[n])
	}
	return nil
}

func next(_ *cli.Context) error {
	tb, err := openToolbox()
	if err != nil {
		return err
	}
	defer tb.Close()

	now := time.Now().In(tb.Loc)
	month, _, err := tb.Table(context.Background(), now)
	if err != nil {
		return err
	}
	var todaySched prayer.DaySchedule
	if d, ok := month.Day(now); ok {
		todaySched = d
	}
	ev, err := prayer.NextEvent(now, todaySched, month.TomorrowFajr(now))
	if errors.Is(err, prayer.ErrUnresolvable) {
		return errors.New("next prayer is not in this month's timetable yet")
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s at %s (in %s)\n", ev.Name, ev.At.Format("15:04"), ev.At.Sub(now).Round(time.Minute))
	return nil
}

func status(_ *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := systemd.Status(ctx, systemd.UnitName(unitName))
	if err != nil {
		return err
	}
	if st.NotFound() {
		return fmt.Errorf("unit %s not found", st.Name)
	}
	fmt.Printf("%s: %s (%s)\n", st.Name, st.ActiveState, st.SubState)
	if st.Description != "" {
		fmt.Printf("  %s\n", st.Description)
	}
	if st.Active() && !st.ActiveSince.IsZero() {
		fmt.Printf("  active since %s\n", st.ActiveSince.Format(time.RFC1123))
	}
	return nil
}

func printMonth(tb prayer.Table) {
	fmt.Printf("%s %d\n", tb.Month, tb.Year)
	for d := 1; d <= 31; d++ {
		day, ok := tb.Days[d]
		if !ok {
			continue
		}
		fmt.Printf("%02d", d)
		for _, n := range prayer.Names {
			fmt.Printf("  %s", day[n])
		}
		fmt.Println()
	}
}
