package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewExecCmd создаёт группу команд для запуска flows и просмотра истории.
func NewExecCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute flows and inspect execution history",
	}

	cmd.AddCommand(
		newExecRunCmd(clientFn, outputFn),
		newExecListCmd(clientFn, outputFn),
		newExecShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newExecRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "run DEVICE_SERIAL FLOW_ID",
		Short: "Execute a flow on a device and wait for the report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			report, err := client.ExecuteFlow(args[0], args[1])
			if err != nil {
				return err
			}

			printReport(out, report)
			return nil
		},
	}
}

func newExecListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list FLOW_ID",
		Short: "List execution history of a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			executions, err := client.ListExecutions(args[0], limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "DEVICE", "STATUS", "STEPS", "DURATION_MS", "CREATED"}
			rows := make([][]string, len(executions))
			for i, e := range executions {
				rows[i] = []string{
					e.ID, e.DeviceSerial, e.Status,
					strconv.Itoa(e.Report.ExecutedSteps),
					strconv.FormatInt(e.Report.ExecutionTimeMs, 10),
					e.CreatedAt,
				}
			}

			out.Print(headers, rows, executions)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newExecShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a recorded execution with its step reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			execution, err := client.GetExecution(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(execution)
				return nil
			}

			out.Table(
				[]string{"ID", "FLOW_ID", "DEVICE", "STATUS", "CREATED"},
				[][]string{{execution.ID, execution.FlowID, execution.DeviceSerial, execution.Status, execution.CreatedAt}},
			)
			printStepTable(out, execution.Report.Steps)
			return nil
		},
	}
}

// printReport выводит отчёт о выполнении: сводку и таблицу шагов.
func printReport(out *Output, report *ReportResponse) {
	if out.jsonMode {
		out.JSON(report)
		return
	}

	failedStep := ""
	if report.FailedStep != nil {
		failedStep = strconv.Itoa(*report.FailedStep)
	}

	out.Table(
		[]string{"STATUS", "EXECUTED", "FAILED_STEP", "DURATION_MS", "ERROR"},
		[][]string{{
			report.Status,
			strconv.Itoa(report.ExecutedSteps),
			failedStep,
			strconv.FormatInt(report.ExecutionTimeMs, 10),
			report.ErrorMessage,
		}},
	)
	printStepTable(out, report.Steps)

	if report.Success {
		out.Success("Flow completed")
	} else {
		out.Error(fmt.Sprintf("Flow failed after %d step(s)", report.ExecutedSteps))
	}
}

func printStepTable(out *Output, steps []StepReportResponse) {
	headers := []string{"#", "TYPE", "STATUS", "ERROR"}
	rows := make([][]string, len(steps))
	for i, s := range steps {
		rows[i] = []string{strconv.Itoa(s.Index), s.Type, s.Status, s.ErrorDetail}
	}
	out.Table(headers, rows)
}
