package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fortressi/saga"
	"github.com/fortressi/saga/scenario"
	"github.com/spf13/cobra"
)

var errSagaFailed = errors.New("saga failed")

type eventView struct {
	Index int    `json:"index"`
	Step  string `json:"step"`
	Event string `json:"event"`
}

type runReport struct {
	RunID              string            `json:"run_id"`
	Name               string            `json:"name"`
	Success            bool              `json:"success"`
	State              string            `json:"state"`
	CompletedSteps     int               `json:"completed_steps"`
	FailedStep         string            `json:"failed_step,omitempty"`
	Error              string            `json:"error,omitempty"`
	CompensatedSteps   []string          `json:"compensated_steps,omitempty"`
	CompensationErrors []string          `json:"compensation_errors,omitempty"`
	Context            *scenario.Counter `json:"context"`
	Duration           time.Duration     `json:"duration_ns"`
	Events             []eventView       `json:"events"`
}

func newReport(res *saga.Result[*scenario.Counter]) runReport {
	report := runReport{
		RunID:            res.RunID.String(),
		Name:             res.Name,
		Success:          res.Success,
		State:            res.State.String(),
		CompletedSteps:   res.CompletedSteps,
		FailedStep:       res.FailedStep,
		CompensatedSteps: res.CompensatedSteps,
		Context:          res.Context,
		Duration:         res.Duration,
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
	}
	for _, err := range res.CompensationErrors {
		report.CompensationErrors = append(report.CompensationErrors, err.Error())
	}
	for _, ev := range res.Log.Events() {
		report.Events = append(report.Events, eventView{Index: ev.Index, Step: ev.Step, Event: ev.EventType.String()})
	}
	return report
}

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario and print the result and saga log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			res, err := s.Run(cmd.Context(), saga.WithLogger(a.logger))
			if err != nil {
				return err
			}

			if a.config.GetBool(keyOutputJSON) {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(newReport(res)); err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
			} else {
				printResult(a, res)
			}

			if !res.Success {
				return errSagaFailed
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the result as JSON")
	_ = a.config.BindPFlag(keyOutputJSON, cmd.Flags().Lookup("json"))
	return cmd
}

func printResult(a *app, res *saga.Result[*scenario.Counter]) {
	fmt.Fprintf(a.out, "saga:            %s\n", res.Name)
	fmt.Fprintf(a.out, "run id:          %s\n", res.RunID)
	fmt.Fprintf(a.out, "success:         %t\n", res.Success)
	fmt.Fprintf(a.out, "state:           %s\n", res.State)
	fmt.Fprintf(a.out, "completed steps: %d\n", res.CompletedSteps)
	fmt.Fprintf(a.out, "value:           %d\n", res.Context.Value)
	if !res.Success {
		fmt.Fprintf(a.out, "failed step:     %s\n", res.FailedStep)
		fmt.Fprintf(a.out, "error:           %v\n", res.Err)
		fmt.Fprintf(a.out, "compensated:     %s\n", strings.Join(res.CompensatedSteps, ", "))
		for _, err := range res.CompensationErrors {
			fmt.Fprintf(a.out, "undo error:      %v\n", err)
		}
	}
	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, (&saga.SagaLogPretty{Log: res.Log}).String())
}
